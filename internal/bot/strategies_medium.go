package bot

import (
	"math/rand"

	"redking/internal/domain"
)

// mediumStrategy plays from memory with conservative estimates. It never
// reads the authoritative state.
type mediumStrategy struct {
	rng *rand.Rand
}

// ShouldCallRedKing requires at least two remembered own slots with a low
// known sum before risking the call.
func (s *mediumStrategy) ShouldCallRedKing(v View) bool {
	known := v.Memory.KnownSlots(v.SelfID)
	count, sum := 0, 0
	for _, i := range occupiedSlots(v.OwnLayout()) {
		if c, ok := known[i]; ok {
			count++
			sum += domain.PointValue(c)
		}
	}
	return count >= 2 && sum <= 5 && estimateOwnScore(v) <= 8
}

// DecideKeepOrDiscard keeps the drawn card when it beats the worst
// remembered own card.
func (s *mediumStrategy) DecideKeepOrDiscard(v View, drawn domain.Card) Decision {
	slot, worst, ok := worstKnownOwnSlot(v)
	if ok && domain.PointValue(drawn) < worst {
		return Decision{Keep: true, Slot: slot}
	}
	return Decision{}
}

func (s *mediumStrategy) DecideRuleUsage(v View, rule domain.RuleType) RuleDecision {
	switch rule {
	case domain.RulePeekOwn:
		if slot, ok := firstUnknownOwnSlot(v); ok {
			return RuleDecision{Use: true, Peeks: []SlotRef{{PlayerID: v.SelfID, Slot: slot}}}
		}
	case domain.RulePeekOther:
		if ref, ok := s.unknownOpponentSlot(v); ok {
			return RuleDecision{Use: true, Peeks: []SlotRef{ref}}
		}
	case domain.RuleBlindSwitch:
		slot, worst, ok := worstKnownOwnSlot(v)
		if !ok || worst < 7 {
			return RuleDecision{}
		}
		if ref, refOK := randomOpponentSlot(v, s.rng); refOK {
			return RuleDecision{
				Use: true, DoSwitch: true,
				OwnSlot: slot, TargetID: ref.PlayerID, TargetSlot: ref.Slot,
			}
		}
	case domain.RuleBlackKing:
		// Peek for information only; switching blind on a black king is
		// not worth tipping two positions.
		first, okFirst := s.unknownOpponentSlot(v)
		if !okFirst {
			return RuleDecision{}
		}
		second, okSecond := s.unknownOpponentSlot(v)
		if !okSecond || second == first {
			second, okSecond = randomOpponentSlot(v, s.rng)
		}
		if !okSecond {
			return RuleDecision{}
		}
		return RuleDecision{Use: true, Peeks: []SlotRef{first, second}}
	}
	return RuleDecision{}
}

// unknownOpponentSlot finds an occupied opponent slot the bot has no memory
// of.
func (s *mediumStrategy) unknownOpponentSlot(v View) (SlotRef, bool) {
	var refs []SlotRef
	for _, p := range v.Opponents() {
		if p.ID == v.ProtectedID {
			continue
		}
		known := v.Memory.KnownSlots(p.ID)
		for _, slot := range occupiedSlots(v.Layouts[p.ID]) {
			if _, seen := known[slot]; !seen {
				refs = append(refs, SlotRef{PlayerID: p.ID, Slot: slot})
			}
		}
	}
	if len(refs) == 0 {
		return SlotRef{}, false
	}
	return refs[s.rng.Intn(len(refs))], true
}

func (s *mediumStrategy) ShouldMatchOwn(v View, slot int, known, top domain.Card) bool {
	return known.Rank == top.Rank
}
