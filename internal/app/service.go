package app

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"redking/internal/domain"
)

// Service is the session controller: it consumes (playerId, command,
// payload) tuples from the transport, validates them against room and game
// state, mutates the domain, and fans events out through the sink.
//
// One mutex serializes every room in the process. Games are small and events
// are cheap, so contention is not a concern; bot timers re-enter through the
// same lock so bot and human actions never interleave mid-mutation.
type Service struct {
	mu   sync.Mutex
	reg  *Registry
	sink Sink
	log  *zap.Logger
	rng  *rand.Rand

	botDelay      time.Duration
	botMatchDelay time.Duration
}

// NewService constructs a Service with the provided rng or a time-seeded
// default.
func NewService(sink Sink, log *zap.Logger, rng *rand.Rand, botDelay, botMatchDelay time.Duration) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		reg:           NewRegistry(rng),
		sink:          sink,
		log:           log,
		rng:           rng,
		botDelay:      botDelay,
		botMatchDelay: botMatchDelay,
	}
}

// send delivers a private event to one player. CPU ids have no connection;
// the sink discards them.
func (s *Service) send(playerID, name string, payload any) {
	s.sink.Send(playerID, Event{Name: name, Payload: payload})
}

// broadcast delivers an event to every human seat in the room except the
// excluded ids.
func (s *Service) broadcast(room *Room, name string, payload any, exclude ...string) {
	for _, p := range room.Players {
		if p.IsCPU {
			continue
		}
		skip := false
		for _, ex := range exclude {
			if p.ID == ex {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		s.sink.Send(p.ID, Event{Name: name, Payload: payload})
	}
}

// drop logs a rejected command. The client is never answered: its UI hides
// disallowed affordances, and the next broadcast self-corrects stale views.
func (s *Service) drop(cmd, playerID string, err error) {
	s.log.Debug("command dropped",
		zap.String("cmd", cmd),
		zap.String("player", playerID),
		zap.Error(err),
	)
}

func joinErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		return "room-not-found"
	case errors.Is(err, ErrGameInProgress):
		return "game-in-progress"
	case errors.Is(err, ErrRoomFull):
		return "room-full"
	case errors.Is(err, ErrNameTaken):
		return "name-taken"
	case errors.Is(err, ErrAlreadyInRoom):
		return "already-in-room"
	default:
		return "invalid-name"
	}
}

func (s *Service) joinError(playerID string, err error) {
	s.send(playerID, EventJoinError, JoinErrorPayload{
		Kind:    joinErrorKind(err),
		Message: err.Error(),
	})
}

// HostGame opens a new room with the caller as host.
func (s *Service) HostGame(connID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := s.reg.Create(connID, name)
	if err != nil {
		s.joinError(connID, err)
		return
	}
	s.log.Info("room created",
		zap.String("code", room.Code),
		zap.String("host", connID),
	)
	s.send(connID, EventRoomCreated, RoomInfoPayload{
		Code:    room.Code,
		Players: room.Players,
		You:     room.Player(connID),
	})
}

// JoinGame seats the caller in an existing room by code.
func (s *Service) JoinGame(connID, code, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := s.reg.Join(connID, code, name)
	if err != nil {
		s.joinError(connID, err)
		return
	}
	s.send(connID, EventRoomJoined, RoomInfoPayload{
		Code:    room.Code,
		Players: room.Players,
		You:     room.Player(connID),
	})
	s.broadcast(room, EventPlayerListUpdated, PlayerListPayload{Players: room.Players}, connID)
}

// AddCPUPlayer seats a bot. Host only, lobby only.
func (s *Service) AddCPUPlayer(connID, difficulty string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room := s.reg.Room(connID)
	if room == nil || room.HostID != connID {
		s.drop("add-cpu-player", connID, ErrRoomNotFound)
		return
	}
	if room.State != RoomWaiting {
		s.drop("add-cpu-player", connID, ErrGameInProgress)
		return
	}
	if len(room.Players) >= MaxPlayers {
		s.drop("add-cpu-player", connID, ErrRoomFull)
		return
	}
	s.addBot(room, difficulty)
	s.broadcast(room, EventPlayerListUpdated, PlayerListPayload{Players: room.Players})
}

// LeaveRoom removes the caller from their room. A client disconnect routes
// here as well; there is no reconnection.
func (s *Service) LeaveRoom(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room := s.reg.Room(connID)
	if room == nil {
		return
	}
	wasHost := room.HostID == connID
	room, deleted := s.reg.Leave(connID)
	s.send(connID, EventYouLeft, nil)
	if deleted {
		s.log.Info("room deleted", zap.String("code", room.Code))
		return
	}
	delete(room.Bots, connID)
	s.broadcast(room, EventPlayerListUpdated, PlayerListPayload{Players: room.Players})
	if wasHost {
		s.broadcast(room, EventHostChanged, HostChangedPayload{HostID: room.HostID})
	}

	g := room.Game
	if g == nil {
		return
	}
	switch g.Phase {
	case domain.PhasePeek:
		// The departed player's consent is no longer required.
		if g.AllPeeksDone(room.PlayerIDs()) {
			s.enterPlayPhase(room)
		}
	case domain.PhasePlay, domain.PhaseRedemption:
		s.broadcast(room, EventTurnUpdate, s.turnPayload(g))
		s.scheduleBotTurn(room)
	case domain.PhaseReveal:
	}
}

// StartGame deals a fresh game. Host only, lobby only, at least one seat.
func (s *Service) StartGame(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room := s.reg.Room(connID)
	if room == nil || room.HostID != connID || room.State != RoomWaiting || len(room.Players) == 0 {
		s.drop("start-game", connID, errors.New("not a host in a waiting room"))
		return
	}

	deck := domain.ShuffleDeck(domain.NewDeck(), s.rng)
	g := domain.NewGameState(room.PlayerIDs(), room.HostID, deck)
	room.Game = g
	room.State = RoomPlaying
	s.log.Info("game started",
		zap.String("code", room.Code),
		zap.Int("players", len(room.Players)),
	)

	s.broadcast(room, EventGameStarted, GameStartedPayload{Phase: g.Phase})
	for _, p := range room.Players {
		if p.IsCPU {
			continue
		}
		s.send(p.ID, EventCardsDealt, CardsDealtPayload{
			Hand:      g.Hands[p.ID],
			Phase:     g.Phase,
			DeckCount: len(g.Deck),
			Opponents: s.opponentsOf(room, p.ID),
		})
	}
	s.botAutoPeek(room)
	if g.Phase == domain.PhasePeek && g.AllPeeksDone(room.PlayerIDs()) {
		s.enterPlayPhase(room)
	}
}

func (s *Service) opponentsOf(room *Room, selfID string) []OpponentInfo {
	out := make([]OpponentInfo, 0, len(room.Players)-1)
	for _, p := range room.Players {
		if p.ID == selfID {
			continue
		}
		count := 0
		if h, ok := room.Game.Hands[p.ID]; ok {
			count = h.Count()
		}
		out = append(out, OpponentInfo{ID: p.ID, Name: p.Name, CardCount: count})
	}
	return out
}

// EndGame tears the finished game down and returns the room to the lobby.
// Host only.
func (s *Service) EndGame(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room := s.reg.Room(connID)
	if room == nil || room.HostID != connID || room.Game == nil {
		s.drop("end-game", connID, errors.New("not a host in a running game"))
		return
	}
	room.Game = nil
	room.State = RoomWaiting
	for _, seat := range room.Bots {
		seat.Memory.ForgetAll()
	}
	s.broadcast(room, EventGameEnded, GameEndedPayload{Players: room.Players})
}

// PeekDone records the caller's initial peek and starts play once everyone
// has finished.
func (s *Service) PeekDone(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room := s.reg.Room(connID)
	if room == nil || room.Game == nil || room.Game.Phase != domain.PhasePeek {
		s.drop("peek-done", connID, domain.ErrWrongPhase)
		return
	}
	g := room.Game
	if g.PeekDone[connID] {
		return
	}
	g.MarkPeekDone(connID)
	s.broadcast(room, EventPlayerPeekDone, PlayerPeekDonePayload{PlayerID: connID})
	if g.AllPeeksDone(room.PlayerIDs()) {
		s.enterPlayPhase(room)
	}
}

func (s *Service) enterPlayPhase(room *Room) {
	g := room.Game
	g.Phase = domain.PhasePlay
	s.broadcast(room, EventPhaseChanged, PhaseChangedPayload{
		Phase:       g.Phase,
		CurrentTurn: g.CurrentTurn(),
		TopDiscard:  g.TopDiscard(),
	})
	s.scheduleBotTurn(room)
}

func (s *Service) turnPayload(g *domain.GameState) TurnUpdatePayload {
	return TurnUpdatePayload{
		CurrentTurn: g.CurrentTurn(),
		DeckCount:   len(g.Deck),
		TopDiscard:  g.TopDiscard(),
	}
}

// advanceTurn moves the game to the next player, closing the game out when
// redemption has run dry, and hands the turn to the bot driver when a CPU is
// up next.
func (s *Service) advanceTurn(room *Room) {
	g := room.Game
	g.AdvanceTurn()
	if g.Phase == domain.PhaseReveal {
		s.finishGame(room)
		return
	}
	s.broadcast(room, EventTurnUpdate, s.turnPayload(g))
	s.scheduleBotTurn(room)
}

func (s *Service) finishGame(room *Room) {
	g := room.Game
	results, winner := g.Results()
	payload := GameResultsPayload{
		Results:  make([]PlayerResultPayload, 0, len(results)),
		WinnerID: winner,
		CallerID: g.RedKingCaller,
	}
	for _, r := range results {
		name := ""
		if p := room.Player(r.PlayerID); p != nil {
			name = p.Name
		}
		payload.Results = append(payload.Results, PlayerResultPayload{
			PlayerID: r.PlayerID,
			Name:     name,
			Score:    r.Score,
			Hand:     r.Hand,
		})
	}
	s.log.Info("game finished",
		zap.String("code", room.Code),
		zap.String("winner", winner),
	)
	s.broadcast(room, EventGameResults, payload)
}

func (s *Service) layoutsPayload(g *domain.GameState) HandLayoutsUpdatedPayload {
	layouts := make(map[string][]bool, len(g.Hands))
	for pid, h := range g.Hands {
		layouts[pid] = h.Layout()
	}
	return HandLayoutsUpdatedPayload{Layouts: layouts}
}
