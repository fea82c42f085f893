package bot

import "redking/internal/domain"

// Seat is the public identity of a player as a strategy sees it.
type Seat struct {
	ID    string
	Name  string
	IsCPU bool
}

// View is a read-only snapshot of the room handed to a strategy. It is built
// and consumed under the room's serialization domain, so strategies may read
// it freely but must not retain it across calls.
//
// Game carries the full authoritative state. Only the hard strategy reads
// it; the others play from Memory and the public fields.
type View struct {
	SelfID      string
	Players     []Seat
	Layouts     map[string][]bool
	DeckCount   int
	TopDiscard  *domain.Card
	ProtectedID string
	Memory      *Memory
	Game        *domain.GameState
}

// Opponents returns every seat but the strategy's own.
func (v View) Opponents() []Seat {
	out := make([]Seat, 0, len(v.Players)-1)
	for _, p := range v.Players {
		if p.ID != v.SelfID {
			out = append(out, p)
		}
	}
	return out
}

// OwnLayout returns the occupancy of the strategy's own hand.
func (v View) OwnLayout() []bool {
	return v.Layouts[v.SelfID]
}

// Decision is the outcome of the keep-or-discard choice for a drawn card.
type Decision struct {
	Keep bool
	Slot int
}

// RuleDecision describes how a strategy wants to use a discarded rule card.
// Peeks carries one slot for the peek rules and two for a black king; the
// switch fields take effect only when DoSwitch is set, for blind-switch and
// black-king alike.
type RuleDecision struct {
	Use   bool
	Peeks []SlotRef

	DoSwitch   bool
	OwnSlot    int
	TargetID   string
	TargetSlot int
}

// Strategy is the decision surface of a CPU player. All four methods are
// pure with respect to the view; the driver owns timing and memory writes.
type Strategy interface {
	ShouldCallRedKing(v View) bool
	DecideKeepOrDiscard(v View, drawn domain.Card) Decision
	DecideRuleUsage(v View, rule domain.RuleType) RuleDecision
	ShouldMatchOwn(v View, slot int, known, top domain.Card) bool
}
