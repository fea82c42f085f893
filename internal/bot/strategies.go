package bot

import (
	"math/rand"

	"redking/internal/domain"
)

// unknownValue is the pessimistic point estimate for a slot the bot has
// never seen.
const unknownValue = 6

func occupiedSlots(layout []bool) []int {
	out := make([]int, 0, len(layout))
	for i, occ := range layout {
		if occ {
			out = append(out, i)
		}
	}
	return out
}

func randomOccupied(rng *rand.Rand, layout []bool) (int, bool) {
	slots := occupiedSlots(layout)
	if len(slots) == 0 {
		return 0, false
	}
	return slots[rng.Intn(len(slots))], true
}

// randomOpponentSlot picks a uniformly random occupied slot across all
// non-protected opponents.
func randomOpponentSlot(v View, rng *rand.Rand) (SlotRef, bool) {
	var refs []SlotRef
	for _, p := range v.Opponents() {
		if p.ID == v.ProtectedID {
			continue
		}
		for _, slot := range occupiedSlots(v.Layouts[p.ID]) {
			refs = append(refs, SlotRef{PlayerID: p.ID, Slot: slot})
		}
	}
	if len(refs) == 0 {
		return SlotRef{}, false
	}
	return refs[rng.Intn(len(refs))], true
}

// estimateOwnScore sums remembered own cards and charges unknownValue for
// every occupied slot the bot has not seen.
func estimateOwnScore(v View) int {
	known := v.Memory.KnownSlots(v.SelfID)
	total := 0
	for _, i := range occupiedSlots(v.OwnLayout()) {
		if c, ok := known[i]; ok {
			total += domain.PointValue(c)
		} else {
			total += unknownValue
		}
	}
	return total
}

// worstKnownOwnSlot returns the remembered own slot with the highest point
// value.
func worstKnownOwnSlot(v View) (slot, value int, ok bool) {
	known := v.Memory.KnownSlots(v.SelfID)
	for _, i := range occupiedSlots(v.OwnLayout()) {
		c, isKnown := known[i]
		if !isKnown {
			continue
		}
		if pv := domain.PointValue(c); !ok || pv > value {
			slot, value, ok = i, pv, true
		}
	}
	return slot, value, ok
}

func firstUnknownOwnSlot(v View) (int, bool) {
	known := v.Memory.KnownSlots(v.SelfID)
	for _, i := range occupiedSlots(v.OwnLayout()) {
		if _, isKnown := known[i]; !isKnown {
			return i, true
		}
	}
	return 0, false
}

// easyStrategy plays by coin flips: it is the difficulty a new player can
// beat without remembering anything.
type easyStrategy struct {
	rng *rand.Rand
}

func (s *easyStrategy) ShouldCallRedKing(v View) bool {
	if estimateOwnScore(v) >= 10 {
		return false
	}
	return s.rng.Intn(2) == 0
}

func (s *easyStrategy) DecideKeepOrDiscard(v View, drawn domain.Card) Decision {
	if s.rng.Float64() < 0.4 {
		if slot, ok := randomOccupied(s.rng, v.OwnLayout()); ok {
			return Decision{Keep: true, Slot: slot}
		}
	}
	return Decision{}
}

func (s *easyStrategy) DecideRuleUsage(v View, rule domain.RuleType) RuleDecision {
	if s.rng.Intn(2) == 0 {
		return RuleDecision{}
	}
	switch rule {
	case domain.RulePeekOwn:
		if slot, ok := randomOccupied(s.rng, v.OwnLayout()); ok {
			return RuleDecision{Use: true, Peeks: []SlotRef{{PlayerID: v.SelfID, Slot: slot}}}
		}
	case domain.RulePeekOther:
		if ref, ok := randomOpponentSlot(v, s.rng); ok {
			return RuleDecision{Use: true, Peeks: []SlotRef{ref}}
		}
	case domain.RuleBlindSwitch:
		own, okOwn := randomOccupied(s.rng, v.OwnLayout())
		ref, okRef := randomOpponentSlot(v, s.rng)
		if okOwn && okRef {
			return RuleDecision{
				Use: true, DoSwitch: true,
				OwnSlot: own, TargetID: ref.PlayerID, TargetSlot: ref.Slot,
			}
		}
	case domain.RuleBlackKing:
		first, okFirst := randomOpponentSlot(v, s.rng)
		second, okSecond := randomOpponentSlot(v, s.rng)
		if !okFirst || !okSecond {
			return RuleDecision{}
		}
		dec := RuleDecision{Use: true, Peeks: []SlotRef{first, second}}
		if own, ok := randomOccupied(s.rng, v.OwnLayout()); ok && s.rng.Intn(2) == 0 {
			dec.DoSwitch = true
			dec.OwnSlot = own
			dec.TargetID = first.PlayerID
			dec.TargetSlot = first.Slot
		}
		return dec
	}
	return RuleDecision{}
}

func (s *easyStrategy) ShouldMatchOwn(View, int, domain.Card, domain.Card) bool {
	return false
}
