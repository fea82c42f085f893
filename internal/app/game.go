package app

import (
	"errors"

	"go.uber.org/zap"

	"redking/internal/domain"
)

// game resolves the caller's room and running game, or nil when the command
// arrived outside one.
func (s *Service) game(connID string) (*Room, *domain.GameState) {
	room := s.reg.Room(connID)
	if room == nil || room.Game == nil {
		return nil, nil
	}
	return room, room.Game
}

// DrawCard takes the top of the deck into the caller's hand-in-flight. An
// empty deck skips the draw and passes the turn.
func (s *Service) DrawCard(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, g := s.game(connID)
	if g == nil {
		return
	}
	c, err := g.BeginDraw(connID)
	if errors.Is(err, domain.ErrEmptyDeck) {
		s.advanceTurn(room)
		return
	}
	if err != nil {
		s.drop("draw-card", connID, err)
		return
	}
	rule := domain.RuleOf(c)
	s.send(connID, EventCardDrawn, CardDrawnPayload{
		Card:     c,
		HasRule:  rule != domain.RuleNone,
		RuleType: rule,
	})
	name := ""
	if p := room.Player(connID); p != nil {
		name = p.Name
	}
	s.broadcast(room, EventOpponentDrew, OpponentDrewPayload{
		PlayerID:  connID,
		Name:      name,
		DeckCount: len(g.Deck),
	}, connID)
}

// KeepCard swaps the drawn card into a slot and discards the old occupant.
func (s *Service) KeepCard(connID string, slot int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, g := s.game(connID)
	if g == nil {
		return
	}
	old, err := g.KeepDrawn(connID, slot)
	if err != nil {
		s.drop("keep-card", connID, err)
		return
	}
	s.forgetSlot(room, connID, slot, connID)
	s.send(connID, EventHandUpdated, HandUpdatedPayload{Hand: g.Hands[connID]})
	s.broadcast(room, EventCardDiscarded, CardDiscardedPayload{
		PlayerID: connID,
		Card:     old,
		Action:   "keep",
	})
	s.afterDiscardChanged(room)
	s.advanceTurn(room)
}

// DiscardCard throws the drawn card away. A rule card does not end the turn:
// the discarder is privately told to use or skip the rule.
func (s *Service) DiscardCard(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, g := s.game(connID)
	if g == nil {
		return
	}
	c, rule, err := g.DiscardDrawn(connID)
	if err != nil {
		s.drop("discard-card", connID, err)
		return
	}
	s.broadcast(room, EventCardDiscarded, CardDiscardedPayload{
		PlayerID: connID,
		Card:     c,
		Action:   "discard",
	})
	s.afterDiscardChanged(room)
	if rule != domain.RuleNone {
		s.send(connID, EventExecuteRule, ExecuteRulePayload{RuleType: rule, Card: c})
		return
	}
	s.advanceTurn(room)
}

// SkipRule declines a pending rule and ends the turn.
func (s *Service) SkipRule(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, g := s.game(connID)
	if g == nil {
		return
	}
	if g.CurrentTurn() != connID || g.DrawnCard != nil {
		s.drop("skip-rule", connID, domain.ErrNotYourTurn)
		return
	}
	s.advanceTurn(room)
}

// UsePeekOwn privately reveals one of the caller's own cards. The turn ends
// on an explicit finish-peek.
func (s *Service) UsePeekOwn(connID string, slot int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, g := s.game(connID)
	if g == nil {
		return
	}
	if g.CurrentTurn() != connID {
		s.drop("use-peek-own", connID, domain.ErrNotYourTurn)
		return
	}
	c, err := g.PeekAt(connID, connID, slot)
	if err != nil {
		s.drop("use-peek-own", connID, err)
		return
	}
	s.send(connID, EventPeekResult, PeekResultPayload{Card: c, Slot: slot})
}

// UsePeekOther privately reveals another player's card to the caller. The
// target learns nothing.
func (s *Service) UsePeekOther(connID, targetID string, slot int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, g := s.game(connID)
	if g == nil {
		return
	}
	if g.CurrentTurn() != connID {
		s.drop("use-peek-other", connID, domain.ErrNotYourTurn)
		return
	}
	c, err := g.PeekAt(connID, targetID, slot)
	if err != nil {
		s.drop("use-peek-other", connID, err)
		return
	}
	s.send(connID, EventPeekResult, PeekResultPayload{Card: c, Slot: slot, TargetID: targetID})
}

// FinishPeek ends the turn after a peek rule.
func (s *Service) FinishPeek(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, g := s.game(connID)
	if g == nil {
		return
	}
	if g.CurrentTurn() != connID || g.DrawnCard != nil {
		s.drop("finish-peek", connID, domain.ErrNotYourTurn)
		return
	}
	s.advanceTurn(room)
}

// UseBlindSwitch exchanges one of the caller's cards with an opponent's,
// sight unseen, and ends the turn.
func (s *Service) UseBlindSwitch(connID string, ownSlot int, targetID string, targetSlot int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, g := s.game(connID)
	if g == nil {
		return
	}
	if g.CurrentTurn() != connID {
		s.drop("use-blind-switch", connID, domain.ErrNotYourTurn)
		return
	}
	if err := g.SwitchSlots(connID, ownSlot, targetID, targetSlot); err != nil {
		s.drop("use-blind-switch", connID, err)
		return
	}
	s.afterSwitch(room, connID, ownSlot, targetID, targetSlot, HighlightSwitch)
	s.advanceTurn(room)
}

// UseBlackKingPeek privately reveals two cards to the caller; the switch or
// skip that follows ends the turn.
func (s *Service) UseBlackKingPeek(connID, firstID string, firstSlot int, secondID string, secondSlot int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, g := s.game(connID)
	if g == nil {
		return
	}
	if g.CurrentTurn() != connID {
		s.drop("use-black-king-peek", connID, domain.ErrNotYourTurn)
		return
	}
	c1, err := g.PeekAt(connID, firstID, firstSlot)
	if err != nil {
		s.drop("use-black-king-peek", connID, err)
		return
	}
	c2, err := g.PeekAt(connID, secondID, secondSlot)
	if err != nil {
		s.drop("use-black-king-peek", connID, err)
		return
	}
	s.send(connID, EventBlackKingPeekResult, BlackKingPeekResultPayload{
		Cards: []PeekedCard{
			{TargetID: firstID, Slot: firstSlot, Card: c1},
			{TargetID: secondID, Slot: secondSlot, Card: c2},
		},
	})
}

// UseBlackKingSwitch performs the switch after a black-king peek and ends
// the turn.
func (s *Service) UseBlackKingSwitch(connID string, ownSlot int, targetID string, targetSlot int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, g := s.game(connID)
	if g == nil {
		return
	}
	if g.CurrentTurn() != connID {
		s.drop("use-black-king-switch", connID, domain.ErrNotYourTurn)
		return
	}
	if err := g.SwitchSlots(connID, ownSlot, targetID, targetSlot); err != nil {
		s.drop("use-black-king-switch", connID, err)
		return
	}
	s.afterSwitch(room, connID, ownSlot, targetID, targetSlot, HighlightSwap)
	s.advanceTurn(room)
}

// UseBlackKingSkip declines the switch after a black-king peek.
func (s *Service) UseBlackKingSkip(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, g := s.game(connID)
	if g == nil {
		return
	}
	if g.CurrentTurn() != connID || g.DrawnCard != nil {
		s.drop("use-black-king-skip", connID, domain.ErrNotYourTurn)
		return
	}
	s.advanceTurn(room)
}

// afterSwitch publishes the visible side effects shared by the two switch
// rules and invalidates bot memory of the touched slots.
func (s *Service) afterSwitch(room *Room, aID string, ia int, bID string, ib int, kind string) {
	g := room.Game
	s.broadcast(room, EventCardsHighlighted, CardsHighlightedPayload{
		Cards: []HighlightedSlot{
			{PlayerID: aID, SlotIndex: ia},
			{PlayerID: bID, SlotIndex: ib},
		},
		Kind: kind,
	})
	s.forgetSlot(room, aID, ia, aID)
	s.forgetSlot(room, bID, ib, aID)
	s.botSwitchMemory(room, aID, ia, bID, ib)
	for _, pid := range []string{aID, bID} {
		if p := room.Player(pid); p != nil && !p.IsCPU {
			s.send(pid, EventHandUpdated, HandUpdatedPayload{Hand: g.Hands[pid]})
		}
	}
}

// CallMatchOwn claims the caller's own slot matches the discard top. Out of
// turn by design; never advances the turn.
func (s *Service) CallMatchOwn(connID string, slot int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, g := s.game(connID)
	if g == nil {
		return
	}
	out, err := g.MatchOwn(connID, slot)
	if err != nil {
		s.drop("call-match-own", connID, err)
		return
	}
	s.publishMatch(room, connID, out, "own")
	if out.Success {
		s.afterDiscardChanged(room)
	}
}

// CallMatchOther claims another player's slot matches the discard top. On
// success nothing moves yet; the caller owes the target a card via
// give-card-after-match.
func (s *Service) CallMatchOther(connID, targetID string, slot int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, g := s.game(connID)
	if g == nil {
		return
	}
	out, err := g.MatchOther(connID, targetID, slot)
	if err != nil {
		s.drop("call-match-other", connID, err)
		return
	}
	s.publishMatch(room, connID, out, "other")
}

func (s *Service) publishMatch(room *Room, callerID string, out domain.MatchOutcome, kind string) {
	g := room.Game
	s.broadcast(room, EventMatchResult, MatchResultPayload{
		CallerID: callerID,
		TargetID: out.TargetID,
		Card:     out.Card,
		Success:  out.Success,
		Type:     kind,
	})
	if out.Success {
		s.broadcast(room, EventCardsHighlighted, CardsHighlightedPayload{
			Cards: []HighlightedSlot{{PlayerID: out.TargetID, SlotIndex: out.Slot}},
			Kind:  HighlightMatch,
		})
	}
	if out.Success && kind == "own" {
		s.forgetSlot(room, out.TargetID, out.Slot, "")
	}
	if out.Penalty != nil {
		s.forgetSlot(room, callerID, out.PenaltySlot, "")
	}
	if p := room.Player(callerID); p != nil && !p.IsCPU {
		s.send(callerID, EventHandUpdated, HandUpdatedPayload{Hand: g.Hands[callerID]})
	}
	s.broadcast(room, EventHandLayoutsUpdated, s.layoutsPayload(g))
	s.broadcast(room, EventTurnUpdate, s.turnPayload(g))
}

// GiveCardAfterMatch completes a successful match-other: the matched card
// goes to the discard pile and the caller hands a card into the target's
// first gap.
func (s *Service) GiveCardAfterMatch(connID string, ownSlot int, targetID string, targetSlot int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, g := s.game(connID)
	if g == nil {
		return
	}
	matched, _, err := g.GiveAfterMatch(connID, ownSlot, targetID, targetSlot)
	if err != nil {
		s.drop("give-card-after-match", connID, err)
		return
	}
	s.broadcast(room, EventCardDiscarded, CardDiscardedPayload{
		PlayerID: targetID,
		Card:     matched,
		Action:   "match",
	})
	s.forgetSlot(room, connID, ownSlot, connID)
	s.forgetSlot(room, targetID, targetSlot, connID)
	s.botGiveMemory(room, connID, ownSlot, targetID, targetSlot)
	for _, pid := range []string{connID, targetID} {
		if p := room.Player(pid); p != nil && !p.IsCPU {
			s.send(pid, EventHandUpdated, HandUpdatedPayload{Hand: g.Hands[pid]})
		}
	}
	s.broadcast(room, EventHandLayoutsUpdated, s.layoutsPayload(g))
	s.broadcast(room, EventTurnUpdate, s.turnPayload(g))
	s.afterDiscardChanged(room)
}

// CallRedKing flips the game into redemption: one last turn for everyone but
// the caller, whose hand freezes.
func (s *Service) CallRedKing(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, g := s.game(connID)
	if g == nil {
		return
	}
	if err := g.CallRedKing(connID); err != nil {
		s.drop("call-red-king", connID, err)
		return
	}
	s.log.Info("red king called",
		zap.String("code", room.Code),
		zap.String("caller", connID),
	)
	s.broadcast(room, EventPhaseChanged, PhaseChangedPayload{
		Phase:       g.Phase,
		CurrentTurn: g.CurrentTurn(),
		TopDiscard:  g.TopDiscard(),
	})
	s.scheduleBotTurn(room)
}
