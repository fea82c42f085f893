package domain

import "errors"

// Rule-engine eligibility errors. The session controller drops commands that
// trip these without answering the client; they exist so the drop can be
// logged with a reason.
var (
	ErrWrongPhase      = errors.New("game not in a playable phase")
	ErrNotYourTurn     = errors.New("not this player's turn")
	ErrNoDrawnCard     = errors.New("no drawn card in flight")
	ErrHasDrawnCard    = errors.New("a drawn card is already in flight")
	ErrUnknownPlayer   = errors.New("player has no hand in this game")
	ErrProtectedTarget = errors.New("target is the protected red king caller")
	ErrNoDiscard       = errors.New("discard pile is empty")
	ErrNoMatch         = errors.New("card does not match the discard top")
)

func (gs *GameState) playable() bool {
	return gs.Phase == PhasePlay || gs.Phase == PhaseRedemption
}

// protected reports whether a player's hand may not be touched: during
// redemption the caller's hand is immutable, from everyone including the
// caller themselves.
func (gs *GameState) protected(playerID string) bool {
	return gs.RedKingCaller != "" && playerID == gs.RedKingCaller
}

func (gs *GameState) hand(playerID string) (Hand, error) {
	h, ok := gs.Hands[playerID]
	if !ok {
		return nil, ErrUnknownPlayer
	}
	return h, nil
}

// BeginDraw moves the top of the deck into the in-flight drawn slot for the
// current turn player.
func (gs *GameState) BeginDraw(playerID string) (Card, error) {
	if !gs.playable() {
		return Card{}, ErrWrongPhase
	}
	if gs.CurrentTurn() != playerID {
		return Card{}, ErrNotYourTurn
	}
	if gs.DrawnCard != nil {
		return Card{}, ErrHasDrawnCard
	}
	c, err := gs.Draw()
	if err != nil {
		return Card{}, err
	}
	gs.DrawnCard = &c
	gs.DrawnBy = playerID
	return c, nil
}

// KeepDrawn swaps the in-flight drawn card into the given slot and discards
// the slot's previous occupant. The caller's turn is over; AdvanceTurn
// follows at the controller.
func (gs *GameState) KeepDrawn(playerID string, slot int) (Card, error) {
	if !gs.playable() {
		return Card{}, ErrWrongPhase
	}
	if gs.DrawnCard == nil || gs.DrawnBy != playerID {
		return Card{}, ErrNoDrawnCard
	}
	h, err := gs.hand(playerID)
	if err != nil {
		return Card{}, err
	}
	old, err := h.ReplaceAt(slot, *gs.DrawnCard)
	if err != nil {
		return Card{}, err
	}
	gs.Discard(old)
	gs.DrawnCard = nil
	gs.DrawnBy = ""
	return old, nil
}

// DiscardDrawn pushes the in-flight drawn card onto the discard pile and
// returns it with its rule. A non-empty rule means the turn is not over yet:
// the discarder chooses to use or skip the rule.
func (gs *GameState) DiscardDrawn(playerID string) (Card, RuleType, error) {
	if !gs.playable() {
		return Card{}, RuleNone, ErrWrongPhase
	}
	if gs.DrawnCard == nil || gs.DrawnBy != playerID {
		return Card{}, RuleNone, ErrNoDrawnCard
	}
	c := *gs.DrawnCard
	gs.Discard(c)
	gs.DrawnCard = nil
	gs.DrawnBy = ""
	return c, RuleOf(c), nil
}

// PeekAt privately reveals the card in a player's slot. Peeking never
// mutates state; the protected caller's hand still may not be inspected by
// others.
func (gs *GameState) PeekAt(callerID, targetID string, slot int) (Card, error) {
	if !gs.playable() {
		return Card{}, ErrWrongPhase
	}
	if callerID != targetID && gs.protected(targetID) {
		return Card{}, ErrProtectedTarget
	}
	h, err := gs.hand(targetID)
	if err != nil {
		return Card{}, err
	}
	return h.CardAt(slot)
}

// SwitchSlots exchanges two occupied slots between two hands (blind switch
// and black-king switch share this). Neither side may be the protected
// caller.
func (gs *GameState) SwitchSlots(aID string, ia int, bID string, ib int) error {
	if !gs.playable() {
		return ErrWrongPhase
	}
	if gs.protected(aID) || gs.protected(bID) {
		return ErrProtectedTarget
	}
	ha, err := gs.hand(aID)
	if err != nil {
		return err
	}
	hb, err := gs.hand(bID)
	if err != nil {
		return err
	}
	return SwapBetween(ha, ia, hb, ib)
}

// MatchOutcome describes the result of an out-of-turn match attempt.
type MatchOutcome struct {
	Success  bool
	Card     Card // the revealed card at the claimed slot
	TargetID string
	Slot     int
	// Penalty is set when the claim was wrong and the deck could supply a
	// penalty card; PenaltySlot is where it landed in the caller's hand.
	Penalty     *Card
	PenaltySlot int
}

// MatchOwn claims that the caller's own slot matches the discard top by
// rank. A correct claim leaves a gap and moves the card to the discard pile;
// a wrong claim draws a penalty card into the caller's hand. Never advances
// the turn.
func (gs *GameState) MatchOwn(callerID string, slot int) (MatchOutcome, error) {
	if !gs.playable() {
		return MatchOutcome{}, ErrWrongPhase
	}
	if gs.protected(callerID) {
		return MatchOutcome{}, ErrProtectedTarget
	}
	top := gs.TopDiscard()
	if top == nil {
		return MatchOutcome{}, ErrNoDiscard
	}
	h, err := gs.hand(callerID)
	if err != nil {
		return MatchOutcome{}, err
	}
	c, err := h.CardAt(slot)
	if err != nil {
		return MatchOutcome{}, err
	}
	out := MatchOutcome{Card: c, TargetID: callerID, Slot: slot}
	if c.Rank == top.Rank {
		h.RemoveAt(slot)
		gs.Discard(c)
		out.Success = true
		return out, nil
	}
	gs.applyPenalty(callerID, &out)
	return out, nil
}

// MatchOther claims that another player's slot matches the discard top. A
// correct claim mutates nothing yet — the caller owes the target a card and
// completes the match with GiveAfterMatch. A wrong claim penalizes the
// caller. Never advances the turn.
func (gs *GameState) MatchOther(callerID, targetID string, slot int) (MatchOutcome, error) {
	if !gs.playable() {
		return MatchOutcome{}, ErrWrongPhase
	}
	if gs.protected(callerID) || gs.protected(targetID) {
		return MatchOutcome{}, ErrProtectedTarget
	}
	top := gs.TopDiscard()
	if top == nil {
		return MatchOutcome{}, ErrNoDiscard
	}
	h, err := gs.hand(targetID)
	if err != nil {
		return MatchOutcome{}, err
	}
	c, err := h.CardAt(slot)
	if err != nil {
		return MatchOutcome{}, err
	}
	out := MatchOutcome{Card: c, TargetID: targetID, Slot: slot}
	if c.Rank == top.Rank {
		out.Success = true
		return out, nil
	}
	gs.applyPenalty(callerID, &out)
	return out, nil
}

func (gs *GameState) applyPenalty(playerID string, out *MatchOutcome) {
	h, err := gs.hand(playerID)
	if err != nil {
		return
	}
	p, err := gs.Draw()
	if err != nil {
		// Empty deck: the wrong claim goes unpunished.
		return
	}
	out.Penalty = &p
	out.PenaltySlot = h.AddCard(p)
	gs.Hands[playerID] = h
}

// GiveAfterMatch completes a successful match-other: the matched card leaves
// the target's hand for the discard pile, and the caller hands one of their
// own cards to the target. The given card fills the first gap of the
// target's hand, which is the vacated slot unless an earlier gap exists.
func (gs *GameState) GiveAfterMatch(callerID string, ownSlot int, targetID string, targetSlot int) (matched, given Card, err error) {
	if !gs.playable() {
		return Card{}, Card{}, ErrWrongPhase
	}
	if gs.protected(callerID) || gs.protected(targetID) {
		return Card{}, Card{}, ErrProtectedTarget
	}
	top := gs.TopDiscard()
	if top == nil {
		return Card{}, Card{}, ErrNoDiscard
	}
	ch, err := gs.hand(callerID)
	if err != nil {
		return Card{}, Card{}, err
	}
	th, err := gs.hand(targetID)
	if err != nil {
		return Card{}, Card{}, err
	}
	matched, err = th.CardAt(targetSlot)
	if err != nil {
		return Card{}, Card{}, err
	}
	// Re-validate against the current top: another discard may have slipped
	// in between the claim and the give.
	if matched.Rank != top.Rank {
		return Card{}, Card{}, ErrNoMatch
	}
	given, err = ch.RemoveAt(ownSlot)
	if err != nil {
		return Card{}, Card{}, err
	}
	th.RemoveAt(targetSlot)
	gs.Discard(matched)
	th.AddCard(given)
	gs.Hands[targetID] = th
	return matched, given, nil
}

// CallRedKing validates a Red King call: only the current turn player, in
// the play phase, with no drawn card in flight. On success the game enters
// redemption.
func (gs *GameState) CallRedKing(playerID string) error {
	if gs.Phase != PhasePlay {
		return ErrWrongPhase
	}
	if gs.CurrentTurn() != playerID {
		return ErrNotYourTurn
	}
	if gs.DrawnCard != nil {
		return ErrHasDrawnCard
	}
	gs.BeginRedemption(playerID)
	return nil
}
