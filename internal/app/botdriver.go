package app

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"redking/internal/bot"
	"redking/internal/domain"
)

// BotSeat is the server-side runtime of one CPU player.
type BotSeat struct {
	Strategy bot.Strategy
	Memory   *bot.Memory
}

func (s *Service) addBot(room *Room, difficulty string) *Player {
	d := bot.ParseDifficulty(difficulty)
	id := room.NextBotID()
	name := bot.PickName(s.rng)
	if room.HasName(name) {
		name = "CPU " + id[len("bot-"):]
	}
	p := &Player{ID: id, Name: name, IsCPU: true, Difficulty: string(d)}
	room.Players = append(room.Players, p)
	if room.Bots == nil {
		room.Bots = make(map[string]*BotSeat)
	}
	room.Bots[id] = &BotSeat{Strategy: bot.New(d, s.rng), Memory: bot.NewMemory()}
	return p
}

func (s *Service) botView(room *Room, botID string) bot.View {
	g := room.Game
	players := make([]bot.Seat, len(room.Players))
	layouts := make(map[string][]bool, len(g.Hands))
	for i, p := range room.Players {
		players[i] = bot.Seat{ID: p.ID, Name: p.Name, IsCPU: p.IsCPU}
		if h, ok := g.Hands[p.ID]; ok {
			layouts[p.ID] = h.Layout()
		}
	}
	return bot.View{
		SelfID:      botID,
		Players:     players,
		Layouts:     layouts,
		DeckCount:   len(g.Deck),
		TopDiscard:  g.TopDiscard(),
		ProtectedID: g.RedKingCaller,
		Memory:      room.Bots[botID].Memory,
		Game:        g,
	}
}

// botAutoPeek completes the peek phase for every CPU seat: each remembers
// its bottom two slots and signals done immediately.
func (s *Service) botAutoPeek(room *Room) {
	g := room.Game
	for botID, seat := range room.Bots {
		h, ok := g.Hands[botID]
		if !ok {
			continue
		}
		for _, slot := range []int{2, 3} {
			if c, err := h.CardAt(slot); err == nil {
				seat.Memory.Remember(botID, slot, c)
			}
		}
		g.MarkPeekDone(botID)
		s.broadcast(room, EventPlayerPeekDone, PlayerPeekDonePayload{PlayerID: botID})
	}
}

// forgetSlot erases every bot's belief about a mutated slot, except the
// actor who caused the mutation and knows what landed there.
func (s *Service) forgetSlot(room *Room, ownerID string, slot int, knowerID string) {
	for botID, seat := range room.Bots {
		if botID == knowerID {
			continue
		}
		seat.Memory.Forget(ownerID, slot)
	}
}

// botSwitchMemory updates the acting bot's own beliefs across a switch: its
// knowledge of the two slots travels with the cards.
func (s *Service) botSwitchMemory(room *Room, aID string, ia int, bID string, ib int) {
	seat, ok := room.Bots[aID]
	if !ok {
		return
	}
	ca, okA := seat.Memory.Recall(aID, ia)
	cb, okB := seat.Memory.Recall(bID, ib)
	seat.Memory.Forget(aID, ia)
	seat.Memory.Forget(bID, ib)
	if okA {
		seat.Memory.Remember(bID, ib, ca)
	}
	if okB {
		seat.Memory.Remember(aID, ia, cb)
	}
}

// botGiveMemory records where a bot's given card ended up after a match.
func (s *Service) botGiveMemory(room *Room, callerID string, ownSlot int, targetID string, targetSlot int) {
	seat, ok := room.Bots[callerID]
	if !ok {
		return
	}
	if c, known := seat.Memory.Recall(callerID, ownSlot); known {
		seat.Memory.Forget(callerID, ownSlot)
		landed := targetSlot
		for i, hc := range room.Game.Hands[targetID] {
			if hc != nil && hc.ID == c.ID {
				landed = i
				break
			}
		}
		seat.Memory.Remember(targetID, landed, c)
	}
}

// scheduleBotTurn arms the turn timer when the current player is a CPU. The
// pendingBotTurn guard keeps a burst of events from stacking timers for the
// same turn.
func (s *Service) scheduleBotTurn(room *Room) {
	g := room.Game
	if g == nil || g.PendingBotTurn {
		return
	}
	cur := g.CurrentTurn()
	if _, isBot := room.Bots[cur]; !isBot {
		return
	}
	g.PendingBotTurn = true
	code := room.Code
	time.AfterFunc(s.botDelay, func() { s.runBotTurn(code, cur) })
}

// runBotTurn executes one full CPU turn. It re-reads the room at fire time:
// a stale timer whose game ended, or whose turn moved on, is a no-op.
func (s *Service) runBotTurn(code, botID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room := s.reg.ByCode(code)
	if room == nil || room.Game == nil {
		return
	}
	g := room.Game
	g.PendingBotTurn = false
	seat := room.Bots[botID]
	if seat == nil || g.CurrentTurn() != botID {
		return
	}

	view := s.botView(room, botID)
	if g.Phase == domain.PhasePlay && seat.Strategy.ShouldCallRedKing(view) {
		if err := g.CallRedKing(botID); err == nil {
			s.log.Info("red king called",
				zap.String("code", room.Code),
				zap.String("caller", botID),
			)
			s.broadcast(room, EventPhaseChanged, PhaseChangedPayload{
				Phase:       g.Phase,
				CurrentTurn: g.CurrentTurn(),
				TopDiscard:  g.TopDiscard(),
			})
			s.scheduleBotTurn(room)
			return
		}
	}

	c, err := g.BeginDraw(botID)
	if errors.Is(err, domain.ErrEmptyDeck) {
		s.advanceTurn(room)
		return
	}
	if err != nil {
		s.drop("bot-turn", botID, err)
		return
	}
	name := ""
	if p := room.Player(botID); p != nil {
		name = p.Name
	}
	s.broadcast(room, EventOpponentDrew, OpponentDrewPayload{
		PlayerID:  botID,
		Name:      name,
		DeckCount: len(g.Deck),
	})

	if d := seat.Strategy.DecideKeepOrDiscard(view, c); d.Keep {
		if old, err := g.KeepDrawn(botID, d.Slot); err == nil {
			seat.Memory.Remember(botID, d.Slot, c)
			s.forgetSlot(room, botID, d.Slot, botID)
			s.broadcast(room, EventCardDiscarded, CardDiscardedPayload{
				PlayerID: botID,
				Card:     old,
				Action:   "keep",
			})
			s.afterDiscardChanged(room)
			s.advanceTurn(room)
			return
		}
	}

	dc, rule, err := g.DiscardDrawn(botID)
	if err != nil {
		s.drop("bot-turn", botID, err)
		return
	}
	s.broadcast(room, EventCardDiscarded, CardDiscardedPayload{
		PlayerID: botID,
		Card:     dc,
		Action:   "discard",
	})
	s.afterDiscardChanged(room)
	if rule != domain.RuleNone {
		s.runBotRule(room, botID, seat, rule)
	}
	s.advanceTurn(room)
}

// runBotRule applies a strategy's rule decision synchronously within the
// bot's turn.
func (s *Service) runBotRule(room *Room, botID string, seat *BotSeat, rule domain.RuleType) {
	g := room.Game
	dec := seat.Strategy.DecideRuleUsage(s.botView(room, botID), rule)
	if !dec.Use {
		return
	}
	for _, ref := range dec.Peeks {
		if c, err := g.PeekAt(botID, ref.PlayerID, ref.Slot); err == nil {
			seat.Memory.Remember(ref.PlayerID, ref.Slot, c)
		}
	}
	if dec.DoSwitch {
		if err := g.SwitchSlots(botID, dec.OwnSlot, dec.TargetID, dec.TargetSlot); err == nil {
			kind := HighlightSwitch
			if rule == domain.RuleBlackKing {
				kind = HighlightSwap
			}
			s.afterSwitch(room, botID, dec.OwnSlot, dec.TargetID, dec.TargetSlot, kind)
		}
	}
}

// afterDiscardChanged gives every CPU seat one shot at an out-of-turn match
// against the new discard top.
func (s *Service) afterDiscardChanged(room *Room) {
	g := room.Game
	top := g.TopDiscard()
	if top == nil {
		return
	}
	for botID, seat := range room.Bots {
		if botID == g.RedKingCaller {
			continue
		}
		if _, ok := g.Hands[botID]; !ok {
			continue
		}
		slot, known, found := -1, domain.Card{}, false
		for i, c := range seat.Memory.KnownSlots(botID) {
			if c.Rank != top.Rank {
				continue
			}
			if !found || i < slot {
				slot, known, found = i, c, true
			}
		}
		if !found {
			continue
		}
		if !seat.Strategy.ShouldMatchOwn(s.botView(room, botID), slot, known, *top) {
			continue
		}
		code, id, claimed, topID := room.Code, botID, slot, top.ID
		time.AfterFunc(s.botMatchDelay, func() { s.runBotMatch(code, id, claimed, topID) })
	}
}

// runBotMatch fires a scheduled match attempt, re-validating that the
// discard top the bot saw is still the top.
func (s *Service) runBotMatch(code, botID string, slot int, topID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room := s.reg.ByCode(code)
	if room == nil || room.Game == nil {
		return
	}
	g := room.Game
	seat := room.Bots[botID]
	if seat == nil {
		return
	}
	top := g.TopDiscard()
	if top == nil || top.ID != topID {
		return
	}
	out, err := g.MatchOwn(botID, slot)
	if err != nil {
		return
	}
	if out.Success {
		seat.Memory.Forget(botID, slot)
	}
	s.publishMatch(room, botID, out, "own")
	if out.Success {
		s.afterDiscardChanged(room)
	}
}
