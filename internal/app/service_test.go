package app

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"redking/internal/domain"
)

// sinkRecorder captures per-recipient events so tests can audit exactly who
// was told what.
type sinkRecorder struct {
	mu     sync.Mutex
	events map[string][]Event
}

func newSinkRecorder() *sinkRecorder {
	return &sinkRecorder{events: make(map[string][]Event)}
}

func (r *sinkRecorder) Send(playerID string, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[playerID] = append(r.events[playerID], ev)
}

func (r *sinkRecorder) named(playerID, name string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, ev := range r.events[playerID] {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

func (r *sinkRecorder) last(playerID, name string) (Event, bool) {
	evs := r.named(playerID, name)
	if len(evs) == 0 {
		return Event{}, false
	}
	return evs[len(evs)-1], true
}

func (r *sinkRecorder) count(playerID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events[playerID])
}

func newTestService(rec *sinkRecorder) *Service {
	return NewService(rec, zap.NewNop(), rand.New(rand.NewSource(42)), 0, 0)
}

const (
	hostConn = "conn-host"
	peerConn = "conn-peer"
)

// twoPlayerGame stands a room up through the peek phase: host plus one
// joiner, game started, both peeks done. The joiner holds the first turn.
func twoPlayerGame(t *testing.T, svc *Service, rec *sinkRecorder) *Room {
	t.Helper()
	svc.HostGame(hostConn, "Alice")
	created, ok := rec.last(hostConn, EventRoomCreated)
	require.True(t, ok)
	code := created.Payload.(RoomInfoPayload).Code

	svc.JoinGame(peerConn, code, "Bob")
	svc.StartGame(hostConn)
	svc.PeekDone(hostConn)
	svc.PeekDone(peerConn)

	room := svc.reg.Room(hostConn)
	require.NotNil(t, room)
	require.NotNil(t, room.Game)
	require.Equal(t, domain.PhasePlay, room.Game.Phase)
	return room
}

func TestHostGameCreatesRoom(t *testing.T) {
	rec := newSinkRecorder()
	svc := newTestService(rec)

	svc.HostGame(hostConn, "Alice")

	ev, ok := rec.last(hostConn, EventRoomCreated)
	require.True(t, ok)
	info := ev.Payload.(RoomInfoPayload)
	assert.Len(t, info.Code, 4)
	require.NotNil(t, info.You)
	assert.Equal(t, "Alice", info.You.Name)
	assert.True(t, info.You.IsHost)
}

func TestJoinGameNotifiesRoom(t *testing.T) {
	rec := newSinkRecorder()
	svc := newTestService(rec)

	svc.HostGame(hostConn, "Alice")
	ev, _ := rec.last(hostConn, EventRoomCreated)
	code := ev.Payload.(RoomInfoPayload).Code

	svc.JoinGame(peerConn, code, "Bob")

	joined, ok := rec.last(peerConn, EventRoomJoined)
	require.True(t, ok)
	assert.Len(t, joined.Payload.(RoomInfoPayload).Players, 2)

	hostList, ok := rec.last(hostConn, EventPlayerListUpdated)
	require.True(t, ok)
	assert.Len(t, hostList.Payload.(PlayerListPayload).Players, 2)
	assert.Empty(t, rec.named(peerConn, EventPlayerListUpdated),
		"the joiner already got the list inside room-joined")
}

func TestJoinUnknownCodeGetsJoinError(t *testing.T) {
	rec := newSinkRecorder()
	svc := newTestService(rec)

	svc.JoinGame(peerConn, "ZZZZ", "Bob")

	ev, ok := rec.last(peerConn, EventJoinError)
	require.True(t, ok)
	assert.Equal(t, "room-not-found", ev.Payload.(JoinErrorPayload).Kind)
}

func TestStartGameDealsPrivately(t *testing.T) {
	rec := newSinkRecorder()
	svc := newTestService(rec)
	svc.HostGame(hostConn, "Alice")
	ev, _ := rec.last(hostConn, EventRoomCreated)
	svc.JoinGame(peerConn, ev.Payload.(RoomInfoPayload).Code, "Bob")

	svc.StartGame(hostConn)

	for _, conn := range []string{hostConn, peerConn} {
		dealt := rec.named(conn, EventCardsDealt)
		require.Len(t, dealt, 1, "%s should get exactly one deal", conn)
		payload := dealt[0].Payload.(CardsDealtPayload)
		assert.Equal(t, domain.HandSize, payload.Hand.Count())
		assert.Equal(t, 54-2*domain.HandSize, payload.DeckCount)
		require.Len(t, payload.Opponents, 1)
		assert.Equal(t, domain.HandSize, payload.Opponents[0].CardCount)
	}
	assertConservation(t, svc.reg.Room(hostConn))
}

func TestPeekDoneEntersPlayWithRotatedTurn(t *testing.T) {
	rec := newSinkRecorder()
	svc := newTestService(rec)
	twoPlayerGame(t, svc, rec)

	ev, ok := rec.last(hostConn, EventPhaseChanged)
	require.True(t, ok)
	payload := ev.Payload.(PhaseChangedPayload)
	assert.Equal(t, domain.PhasePlay, payload.Phase)
	assert.Equal(t, peerConn, payload.CurrentTurn, "the player after the host acts first")
}

func TestDrawIsPrivateToDrawer(t *testing.T) {
	rec := newSinkRecorder()
	svc := newTestService(rec)
	twoPlayerGame(t, svc, rec)

	svc.DrawCard(peerConn)

	drawn := rec.named(peerConn, EventCardDrawn)
	require.Len(t, drawn, 1)
	assert.Empty(t, rec.named(hostConn, EventCardDrawn))
	opp := rec.named(hostConn, EventOpponentDrew)
	require.Len(t, opp, 1)
	assert.Equal(t, peerConn, opp[0].Payload.(OpponentDrewPayload).PlayerID)
	assert.Empty(t, rec.named(peerConn, EventOpponentDrew))
}

func TestOutOfTurnDrawIsSilentlyDropped(t *testing.T) {
	rec := newSinkRecorder()
	svc := newTestService(rec)
	room := twoPlayerGame(t, svc, rec)

	deckBefore := len(room.Game.Deck)
	before := rec.count(hostConn)
	svc.DrawCard(hostConn)

	assert.Equal(t, deckBefore, len(room.Game.Deck), "state must not change")
	assert.Equal(t, before, rec.count(hostConn), "no answer goes back to the client")
}

func TestPeekOtherHidesCardFromTarget(t *testing.T) {
	rec := newSinkRecorder()
	svc := newTestService(rec)
	room := twoPlayerGame(t, svc, rec)

	targetEventsBefore := rec.count(hostConn)
	svc.UsePeekOther(peerConn, hostConn, 0)

	peeks := rec.named(peerConn, EventPeekResult)
	require.Len(t, peeks, 1)
	payload := peeks[0].Payload.(PeekResultPayload)
	assert.Equal(t, hostConn, payload.TargetID)
	actual, err := room.Game.Hands[hostConn].CardAt(0)
	require.NoError(t, err)
	assert.Equal(t, actual.ID, payload.Card.ID)

	assert.Empty(t, rec.named(hostConn, EventPeekResult))
	assert.Equal(t, targetEventsBefore, rec.count(hostConn),
		"the target must receive no event naming their card")
}

func TestKeepCardDiscardsOldAndAdvances(t *testing.T) {
	rec := newSinkRecorder()
	svc := newTestService(rec)
	room := twoPlayerGame(t, svc, rec)
	g := room.Game

	svc.DrawCard(peerConn)
	drawnEv, _ := rec.last(peerConn, EventCardDrawn)
	drawn := drawnEv.Payload.(CardDrawnPayload).Card
	old, err := g.Hands[peerConn].CardAt(1)
	require.NoError(t, err)

	svc.KeepCard(peerConn, 1)

	now, err := g.Hands[peerConn].CardAt(1)
	require.NoError(t, err)
	assert.Equal(t, drawn.ID, now.ID)
	discarded, ok := rec.last(hostConn, EventCardDiscarded)
	require.True(t, ok)
	assert.Equal(t, old.ID, discarded.Payload.(CardDiscardedPayload).Card.ID)
	turn, ok := rec.last(hostConn, EventTurnUpdate)
	require.True(t, ok)
	assert.Equal(t, hostConn, turn.Payload.(TurnUpdatePayload).CurrentTurn)
	assertConservation(t, room)
}

func TestDiscardRuleCardPausesTurn(t *testing.T) {
	rec := newSinkRecorder()
	svc := newTestService(rec)
	room := twoPlayerGame(t, svc, rec)
	g := room.Game

	// Plant a nine on top of the deck so the draw yields a rule card.
	g.Deck = append(g.Deck, domain.Card{Suit: domain.SuitSpades, Rank: "9", ID: "spades-9"})
	svc.DrawCard(peerConn)
	svc.DiscardCard(peerConn)

	rule, ok := rec.last(peerConn, EventExecuteRule)
	require.True(t, ok)
	assert.Equal(t, domain.RulePeekOther, rule.Payload.(ExecuteRulePayload).RuleType)
	assert.Equal(t, peerConn, g.CurrentTurn(), "a pending rule must not pass the turn")

	svc.SkipRule(peerConn)
	assert.Equal(t, hostConn, g.CurrentTurn())
}

func TestMatchOwnThroughController(t *testing.T) {
	rec := newSinkRecorder()
	svc := newTestService(rec)
	room := twoPlayerGame(t, svc, rec)
	g := room.Game

	g.Discard(domain.Card{Suit: domain.SuitHearts, Rank: "5", ID: "hearts-5"})
	g.Hands[hostConn].ReplaceAt(0, domain.Card{Suit: domain.SuitClubs, Rank: "5", ID: "clubs-5"})

	// Matching is out of turn: the host acts while the peer holds the turn.
	svc.CallMatchOwn(hostConn, 0)

	result, ok := rec.last(peerConn, EventMatchResult)
	require.True(t, ok)
	payload := result.Payload.(MatchResultPayload)
	assert.True(t, payload.Success)
	assert.Equal(t, hostConn, payload.CallerID)
	assert.Equal(t, peerConn, g.CurrentTurn(), "matching never advances the turn")

	layouts, ok := rec.last(peerConn, EventHandLayoutsUpdated)
	require.True(t, ok)
	assert.False(t, layouts.Payload.(HandLayoutsUpdatedPayload).Layouts[hostConn][0],
		"the matched slot becomes a gap")
}

func TestRedKingFlowToResults(t *testing.T) {
	rec := newSinkRecorder()
	svc := newTestService(rec)
	room := twoPlayerGame(t, svc, rec)
	g := room.Game

	svc.CallRedKing(peerConn)
	require.Equal(t, domain.PhaseRedemption, g.Phase)
	assert.Equal(t, peerConn, g.RedKingCaller)
	assert.Equal(t, hostConn, g.CurrentTurn(), "redemption skips the caller")

	// The one non-caller takes their final turn.
	svc.DrawCard(hostConn)
	svc.DiscardCard(hostConn)
	if g.Phase == domain.PhaseRedemption {
		// The discard carried a rule; decline it.
		svc.SkipRule(hostConn)
	}

	require.Equal(t, domain.PhaseReveal, g.Phase)
	results, ok := rec.last(hostConn, EventGameResults)
	require.True(t, ok)
	payload := results.Payload.(GameResultsPayload)
	assert.Equal(t, peerConn, payload.CallerID)
	assert.Len(t, payload.Results, 2)

	svc.EndGame(hostConn)
	assert.Nil(t, room.Game)
	assert.Equal(t, RoomWaiting, room.State)
}

func TestProtectedCallerDuringRedemption(t *testing.T) {
	rec := newSinkRecorder()
	svc := newTestService(rec)
	room := twoPlayerGame(t, svc, rec)
	g := room.Game

	svc.CallRedKing(peerConn)
	require.Equal(t, domain.PhaseRedemption, g.Phase)

	callerHand := append([]domain.Card(nil), g.Hands[peerConn].Cards()...)
	svc.UseBlindSwitch(hostConn, 0, peerConn, 0)
	svc.CallMatchOther(hostConn, peerConn, 0)

	assert.Equal(t, callerHand, g.Hands[peerConn].Cards(),
		"no command may mutate the caller's hand during redemption")
}

func TestLeaveMidPeekCompletesPhase(t *testing.T) {
	rec := newSinkRecorder()
	svc := newTestService(rec)
	svc.HostGame(hostConn, "Alice")
	ev, _ := rec.last(hostConn, EventRoomCreated)
	svc.JoinGame(peerConn, ev.Payload.(RoomInfoPayload).Code, "Bob")
	svc.StartGame(hostConn)

	svc.PeekDone(hostConn)
	require.Equal(t, domain.PhasePeek, svc.reg.Room(hostConn).Game.Phase)

	// The holdout leaves; their consent is no longer required.
	svc.LeaveRoom(peerConn)
	room := svc.reg.Room(hostConn)
	require.NotNil(t, room)
	assert.Equal(t, domain.PhasePlay, room.Game.Phase)
}

func TestAddCPUPlayerInLobby(t *testing.T) {
	rec := newSinkRecorder()
	svc := newTestService(rec)
	svc.HostGame(hostConn, "Alice")

	svc.AddCPUPlayer(hostConn, "medium")

	room := svc.reg.Room(hostConn)
	require.Len(t, room.Players, 2)
	cpu := room.Players[1]
	assert.True(t, cpu.IsCPU)
	assert.Equal(t, "medium", cpu.Difficulty)
	assert.NotNil(t, room.Bots[cpu.ID])

	list, ok := rec.last(hostConn, EventPlayerListUpdated)
	require.True(t, ok)
	assert.Len(t, list.Payload.(PlayerListPayload).Players, 2)
}

// assertConservation checks that the original 54 card ids are all accounted
// for across deck, hands, discard pile and the in-flight drawn card.
func assertConservation(t *testing.T, room *Room) {
	t.Helper()
	g := room.Game
	require.NotNil(t, g)
	seen := make(map[string]int, 54)
	for _, c := range g.Deck {
		seen[c.ID]++
	}
	for _, h := range g.Hands {
		for _, c := range h.Cards() {
			seen[c.ID]++
		}
	}
	for _, c := range g.DiscardPile {
		seen[c.ID]++
	}
	if g.DrawnCard != nil {
		seen[g.DrawnCard.ID]++
	}
	assert.Len(t, seen, 54, "every card id must be present")
	for id, n := range seen {
		assert.Equal(t, 1, n, "card %q appears %d times", id, n)
	}
}
