package domain

// Phase is the lifecycle stage of a running game.
type Phase string

const (
	// PhasePeek is the opening phase where every player looks at two of
	// their own cards exactly once.
	PhasePeek Phase = "peek"
	// PhasePlay is the main draw/discard loop.
	PhasePlay Phase = "play"
	// PhaseRedemption runs after a Red King call: one final turn for every
	// player except the caller.
	PhaseRedemption Phase = "redemption"
	// PhaseReveal is terminal; hands are face up and scores are final.
	PhaseReveal Phase = "reveal"
)

// GameState holds the authoritative state of one game inside a room. It is
// created at start-game and destroyed when the host ends the game.
type GameState struct {
	Deck        []Card
	Hands       map[string]Hand
	DiscardPile []Card

	Phase    Phase
	PeekDone map[string]bool

	TurnOrder []string
	TurnIndex int

	DrawnCard *Card
	DrawnBy   string

	RedKingCaller   string
	RedemptionOrder []string
	RedemptionIndex int

	// PendingBotTurn guards against arming a second timer for the same bot
	// turn while one is already in flight.
	PendingBotTurn bool
}

// NewGameState deals HandSize cards to every player from the given deck and
// enters the peek phase. playerIDs is the room's join order; the turn order
// is that list rotated one past the host so the player after the host acts
// first.
func NewGameState(playerIDs []string, hostID string, deck []Card) *GameState {
	gs := &GameState{
		Deck:      deck,
		Hands:     make(map[string]Hand, len(playerIDs)),
		Phase:     PhasePeek,
		PeekDone:  make(map[string]bool, len(playerIDs)),
		TurnOrder: rotatePastHost(playerIDs, hostID),
	}
	for _, pid := range playerIDs {
		hand := make(Hand, 0, HandSize)
		for n := 0; n < HandSize; n++ {
			c, err := gs.Draw()
			if err != nil {
				break
			}
			hand.AddCard(c)
		}
		gs.Hands[pid] = hand
	}
	return gs
}

func rotatePastHost(playerIDs []string, hostID string) []string {
	hostIdx := 0
	for i, pid := range playerIDs {
		if pid == hostID {
			hostIdx = i
			break
		}
	}
	order := make([]string, 0, len(playerIDs))
	order = append(order, playerIDs[hostIdx+1:]...)
	order = append(order, playerIDs[:hostIdx+1]...)
	return order
}

// Draw removes and returns the top card of the deck.
func (gs *GameState) Draw() (Card, error) {
	if len(gs.Deck) == 0 {
		return Card{}, ErrEmptyDeck
	}
	c := gs.Deck[len(gs.Deck)-1]
	gs.Deck = gs.Deck[:len(gs.Deck)-1]
	return c, nil
}

// TopDiscard returns the visible top of the discard pile, or nil while the
// pile is empty.
func (gs *GameState) TopDiscard() *Card {
	if len(gs.DiscardPile) == 0 {
		return nil
	}
	return &gs.DiscardPile[len(gs.DiscardPile)-1]
}

// Discard pushes a card onto the discard pile.
func (gs *GameState) Discard(c Card) {
	gs.DiscardPile = append(gs.DiscardPile, c)
}

// CurrentTurn returns the player whose turn it is, or "" outside the play
// and redemption phases.
func (gs *GameState) CurrentTurn() string {
	switch gs.Phase {
	case PhasePlay:
		if len(gs.TurnOrder) == 0 {
			return ""
		}
		return gs.TurnOrder[gs.TurnIndex]
	case PhaseRedemption:
		if gs.RedemptionIndex >= len(gs.RedemptionOrder) {
			return ""
		}
		return gs.RedemptionOrder[gs.RedemptionIndex]
	default:
		return ""
	}
}

// AdvanceTurn clears any in-flight drawn card and moves to the next player.
// During redemption it counts down the one-turn-each order and flips the
// game into reveal once every non-caller has acted.
func (gs *GameState) AdvanceTurn() {
	gs.DrawnCard = nil
	gs.DrawnBy = ""
	switch gs.Phase {
	case PhasePlay:
		if len(gs.TurnOrder) > 0 {
			gs.TurnIndex = (gs.TurnIndex + 1) % len(gs.TurnOrder)
		}
	case PhaseRedemption:
		gs.RedemptionIndex++
		if gs.RedemptionIndex >= len(gs.RedemptionOrder) {
			gs.Phase = PhaseReveal
		}
	}
}

// MarkPeekDone records a player's initial peek; repeated calls are no-ops.
func (gs *GameState) MarkPeekDone(playerID string) {
	gs.PeekDone[playerID] = true
}

// AllPeeksDone reports whether every listed player has finished peeking.
func (gs *GameState) AllPeeksDone(playerIDs []string) bool {
	for _, pid := range playerIDs {
		if !gs.PeekDone[pid] {
			return false
		}
	}
	return true
}

// BeginRedemption records the Red King caller and builds the redemption
// order: one turn each for the other players, starting from the player after
// the caller in turn order.
func (gs *GameState) BeginRedemption(callerID string) {
	gs.RedKingCaller = callerID
	gs.Phase = PhaseRedemption
	gs.RedemptionIndex = 0
	callerIdx := 0
	for i, pid := range gs.TurnOrder {
		if pid == callerID {
			callerIdx = i
			break
		}
	}
	order := make([]string, 0, len(gs.TurnOrder)-1)
	order = append(order, gs.TurnOrder[callerIdx+1:]...)
	order = append(order, gs.TurnOrder[:callerIdx]...)
	gs.RedemptionOrder = order
	gs.DrawnCard = nil
	gs.DrawnBy = ""
}

// RemovePlayer drops a departed player from all mid-game tracking. The
// current-turn pointer is clamped back to the start when it would run off
// the shortened order. During redemption, a departure that leaves no
// redemption turn outstanding moves the game to reveal.
func (gs *GameState) RemovePlayer(playerID string) {
	delete(gs.Hands, playerID)
	delete(gs.PeekDone, playerID)

	if gs.DrawnBy == playerID {
		gs.DrawnCard = nil
		gs.DrawnBy = ""
	}

	gs.TurnOrder, gs.TurnIndex = removeFromOrder(gs.TurnOrder, gs.TurnIndex, playerID)
	if gs.TurnIndex >= len(gs.TurnOrder) {
		gs.TurnIndex = 0
	}
	gs.RedemptionOrder, gs.RedemptionIndex = removeFromOrder(gs.RedemptionOrder, gs.RedemptionIndex, playerID)
	if gs.Phase == PhaseRedemption && gs.RedemptionIndex >= len(gs.RedemptionOrder) {
		gs.Phase = PhaseReveal
	}
}

// removeFromOrder drops playerID from order and shifts idx so it keeps
// pointing at the same remaining player. The returned index may equal the
// new length when the removed entry was the last one at or after idx.
func removeFromOrder(order []string, idx int, playerID string) ([]string, int) {
	out := make([]string, 0, len(order))
	for i, pid := range order {
		if pid == playerID {
			if i < idx {
				idx--
			}
			continue
		}
		out = append(out, pid)
	}
	return out, idx
}

// PlayerResult is one line of the reveal-phase scoreboard.
type PlayerResult struct {
	PlayerID string
	Score    int
	Hand     []Card
}

// Results scores every hand and resolves the winner. Lowest score wins; the
// Red King caller loses ties, and among tied non-callers the first in turn
// order wins.
func (gs *GameState) Results() ([]PlayerResult, string) {
	results := make([]PlayerResult, 0, len(gs.Hands))
	for _, pid := range gs.TurnOrder {
		hand, ok := gs.Hands[pid]
		if !ok {
			continue
		}
		results = append(results, PlayerResult{
			PlayerID: pid,
			Score:    hand.Score(),
			Hand:     hand.Cards(),
		})
	}
	if len(results) == 0 {
		return results, ""
	}

	best := results[0].Score
	for _, r := range results[1:] {
		if r.Score < best {
			best = r.Score
		}
	}

	winner := ""
	for _, r := range results {
		if r.Score != best {
			continue
		}
		if r.PlayerID == gs.RedKingCaller {
			continue
		}
		winner = r.PlayerID
		break
	}
	if winner == "" {
		// The caller stands alone at the lowest score.
		winner = gs.RedKingCaller
	}
	return results, winner
}
