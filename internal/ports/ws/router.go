package ws

import (
	"encoding/json"

	"go.uber.org/zap"
)

// bind decodes a command payload, treating failures as malformed frames.
func (c *Client) bind(raw json.RawMessage, v any) bool {
	if len(raw) == 0 {
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		c.log.Debug("bad command payload dropped",
			zap.String("player", c.id),
			zap.Error(err),
		)
		return false
	}
	return true
}

// dispatch maps one inbound frame onto a controller call. Unknown commands
// are dropped.
func (c *Client) dispatch(f frame) {
	switch f.Event {
	case "host-game":
		var p struct {
			Name string `json:"name"`
		}
		if c.bind(f.Payload, &p) {
			c.svc.HostGame(c.id, p.Name)
		}
	case "join-game":
		var p struct {
			Code string `json:"code"`
			Name string `json:"name"`
		}
		if c.bind(f.Payload, &p) {
			c.svc.JoinGame(c.id, p.Code, p.Name)
		}
	case "add-cpu-player":
		var p struct {
			Difficulty string `json:"difficulty"`
		}
		c.bind(f.Payload, &p)
		c.svc.AddCPUPlayer(c.id, p.Difficulty)
	case "start-game":
		c.svc.StartGame(c.id)
	case "end-game":
		c.svc.EndGame(c.id)
	case "leave-room":
		c.svc.LeaveRoom(c.id)
	case "peek-done":
		c.svc.PeekDone(c.id)
	case "draw-card":
		c.svc.DrawCard(c.id)
	case "keep-card":
		var p struct {
			SlotIndex int `json:"slotIndex"`
		}
		if c.bind(f.Payload, &p) {
			c.svc.KeepCard(c.id, p.SlotIndex)
		}
	case "discard-card":
		c.svc.DiscardCard(c.id)
	case "skip-rule":
		c.svc.SkipRule(c.id)
	case "use-peek-own":
		var p struct {
			SlotIndex int `json:"slotIndex"`
		}
		if c.bind(f.Payload, &p) {
			c.svc.UsePeekOwn(c.id, p.SlotIndex)
		}
	case "use-peek-other":
		var p struct {
			TargetID  string `json:"targetId"`
			SlotIndex int    `json:"slotIndex"`
		}
		if c.bind(f.Payload, &p) {
			c.svc.UsePeekOther(c.id, p.TargetID, p.SlotIndex)
		}
	case "finish-peek":
		c.svc.FinishPeek(c.id)
	case "use-blind-switch":
		var p struct {
			OwnSlot    int    `json:"ownSlot"`
			TargetID   string `json:"targetId"`
			TargetSlot int    `json:"targetSlot"`
		}
		if c.bind(f.Payload, &p) {
			c.svc.UseBlindSwitch(c.id, p.OwnSlot, p.TargetID, p.TargetSlot)
		}
	case "use-black-king-peek":
		var p struct {
			FirstTargetID   string `json:"firstTargetId"`
			FirstSlotIndex  int    `json:"firstSlotIndex"`
			SecondTargetID  string `json:"secondTargetId"`
			SecondSlotIndex int    `json:"secondSlotIndex"`
		}
		if c.bind(f.Payload, &p) {
			c.svc.UseBlackKingPeek(c.id, p.FirstTargetID, p.FirstSlotIndex, p.SecondTargetID, p.SecondSlotIndex)
		}
	case "use-black-king-switch":
		var p struct {
			OwnSlot    int    `json:"ownSlot"`
			TargetID   string `json:"targetId"`
			TargetSlot int    `json:"targetSlot"`
		}
		if c.bind(f.Payload, &p) {
			c.svc.UseBlackKingSwitch(c.id, p.OwnSlot, p.TargetID, p.TargetSlot)
		}
	case "use-black-king-skip":
		c.svc.UseBlackKingSkip(c.id)
	case "call-match-own":
		var p struct {
			SlotIndex int `json:"slotIndex"`
		}
		if c.bind(f.Payload, &p) {
			c.svc.CallMatchOwn(c.id, p.SlotIndex)
		}
	case "call-match-other":
		var p struct {
			TargetID  string `json:"targetId"`
			SlotIndex int    `json:"slotIndex"`
		}
		if c.bind(f.Payload, &p) {
			c.svc.CallMatchOther(c.id, p.TargetID, p.SlotIndex)
		}
	case "give-card-after-match":
		var p struct {
			OwnSlot    int    `json:"ownSlot"`
			TargetID   string `json:"targetId"`
			TargetSlot int    `json:"targetSlot"`
		}
		if c.bind(f.Payload, &p) {
			c.svc.GiveCardAfterMatch(c.id, p.OwnSlot, p.TargetID, p.TargetSlot)
		}
	case "call-red-king":
		c.svc.CallRedKing(c.id)
	default:
		c.log.Debug("unknown command dropped",
			zap.String("player", c.id),
			zap.String("command", f.Event),
		)
	}
}
