package bot

import "redking/internal/domain"

// hardStrategy plays with full information: the driver runs inside the
// server, so the authoritative state is its memory. It is deterministic.
type hardStrategy struct{}

func worstActualOwn(v View) (slot, value int, ok bool) {
	h := v.Game.Hands[v.SelfID]
	for i := range h {
		c, err := h.CardAt(i)
		if err != nil {
			continue
		}
		if pv := domain.PointValue(c); !ok || pv > value {
			slot, value, ok = i, pv, true
		}
	}
	return slot, value, ok
}

// opponentSlotsByValue returns every occupied non-protected opponent slot
// ordered best (lowest points) first.
func opponentSlotsByValue(v View) []SlotRef {
	type scored struct {
		ref   SlotRef
		value int
	}
	var all []scored
	for _, p := range v.Opponents() {
		if p.ID == v.ProtectedID {
			continue
		}
		h, ok := v.Game.Hands[p.ID]
		if !ok {
			continue
		}
		for i := range h {
			c, err := h.CardAt(i)
			if err != nil {
				continue
			}
			all = append(all, scored{SlotRef{PlayerID: p.ID, Slot: i}, domain.PointValue(c)})
		}
	}
	for i := 1; i < len(all); i++ {
		for j := i; j > 0 && all[j].value < all[j-1].value; j-- {
			all[j], all[j-1] = all[j-1], all[j]
		}
	}
	refs := make([]SlotRef, len(all))
	for i, s := range all {
		refs[i] = s.ref
	}
	return refs
}

func (s *hardStrategy) ShouldCallRedKing(v View) bool {
	h, ok := v.Game.Hands[v.SelfID]
	if !ok {
		return false
	}
	return h.Score() <= 5
}

func (s *hardStrategy) DecideKeepOrDiscard(v View, drawn domain.Card) Decision {
	slot, worst, ok := worstActualOwn(v)
	if ok && domain.PointValue(drawn) < worst {
		return Decision{Keep: true, Slot: slot}
	}
	return Decision{}
}

func (s *hardStrategy) DecideRuleUsage(v View, rule domain.RuleType) RuleDecision {
	switch rule {
	case domain.RulePeekOwn, domain.RulePeekOther:
		// Peeks buy information this strategy already has.
		return RuleDecision{}
	case domain.RuleBlindSwitch:
		ownSlot, worst, ok := worstActualOwn(v)
		if !ok {
			return RuleDecision{}
		}
		targets := opponentSlotsByValue(v)
		if len(targets) == 0 {
			return RuleDecision{}
		}
		best := targets[0]
		c, err := v.Game.Hands[best.PlayerID].CardAt(best.Slot)
		if err != nil || domain.PointValue(c) >= worst {
			return RuleDecision{}
		}
		return RuleDecision{
			Use: true, DoSwitch: true,
			OwnSlot: ownSlot, TargetID: best.PlayerID, TargetSlot: best.Slot,
		}
	case domain.RuleBlackKing:
		targets := opponentSlotsByValue(v)
		if len(targets) < 2 {
			return RuleDecision{}
		}
		dec := RuleDecision{Use: true, Peeks: []SlotRef{targets[0], targets[1]}}
		ownSlot, worst, ok := worstActualOwn(v)
		if !ok {
			return dec
		}
		best := targets[0]
		c, err := v.Game.Hands[best.PlayerID].CardAt(best.Slot)
		if err == nil && domain.PointValue(c) < worst {
			dec.DoSwitch = true
			dec.OwnSlot = ownSlot
			dec.TargetID = best.PlayerID
			dec.TargetSlot = best.Slot
		}
		return dec
	}
	return RuleDecision{}
}

func (s *hardStrategy) ShouldMatchOwn(v View, slot int, known, top domain.Card) bool {
	h, ok := v.Game.Hands[v.SelfID]
	if !ok {
		return false
	}
	c, err := h.CardAt(slot)
	if err != nil {
		return false
	}
	return c.Rank == top.Rank
}
