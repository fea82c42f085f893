package app

import (
	"errors"
	"math/rand"
	"strings"
)

// Join failures are the only errors a client ever sees; each maps to a
// join-error kind on the wire.
var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrGameInProgress = errors.New("game already in progress")
	ErrRoomFull       = errors.New("room is full")
	ErrNameTaken      = errors.New("name already taken in this room")
	ErrAlreadyInRoom  = errors.New("already in a room")
	ErrBadName        = errors.New("name is empty or invalid")
)

// codeAlphabet omits the visually ambiguous I, O, 0 and 1.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLen = 4

// Registry owns the live set of rooms and the connection-to-room index. It
// holds no lock of its own: every call happens under the Service mutex, which
// serializes all room mutation in the process.
type Registry struct {
	rng   *rand.Rand
	rooms map[string]*Room
	conns map[string]string
}

func NewRegistry(rng *rand.Rand) *Registry {
	return &Registry{
		rng:   rng,
		rooms: make(map[string]*Room),
		conns: make(map[string]string),
	}
}

func (reg *Registry) newCode() string {
	for {
		b := make([]byte, codeLen)
		for i := range b {
			b[i] = codeAlphabet[reg.rng.Intn(len(codeAlphabet))]
		}
		code := string(b)
		if _, taken := reg.rooms[code]; !taken {
			return code
		}
	}
}

// Create opens a room hosted by the given connection.
func (reg *Registry) Create(connID, name string) (*Room, error) {
	if _, in := reg.conns[connID]; in {
		return nil, ErrAlreadyInRoom
	}
	name = NormalizeName(name)
	if name == "" {
		return nil, ErrBadName
	}
	room := &Room{
		Code:   reg.newCode(),
		HostID: connID,
		State:  RoomWaiting,
		Players: []*Player{
			{ID: connID, Name: name, IsHost: true},
		},
	}
	reg.rooms[room.Code] = room
	reg.conns[connID] = room.Code
	return room, nil
}

// Join seats a connection in an existing room. Codes are case-insensitive on
// input.
func (reg *Registry) Join(connID, code, name string) (*Room, error) {
	if _, in := reg.conns[connID]; in {
		return nil, ErrAlreadyInRoom
	}
	room, ok := reg.rooms[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if room.State != RoomWaiting {
		return nil, ErrGameInProgress
	}
	if len(room.Players) >= MaxPlayers {
		return nil, ErrRoomFull
	}
	name = NormalizeName(name)
	if name == "" {
		return nil, ErrBadName
	}
	if room.HasName(name) {
		return nil, ErrNameTaken
	}
	room.Players = append(room.Players, &Player{ID: connID, Name: name})
	reg.conns[connID] = room.Code
	return room, nil
}

// Room resolves the room a connection is seated in, or nil.
func (reg *Registry) Room(connID string) *Room {
	code, ok := reg.conns[connID]
	if !ok {
		return nil
	}
	return reg.rooms[code]
}

// ByCode looks a room up directly.
func (reg *Registry) ByCode(code string) *Room {
	return reg.rooms[strings.ToUpper(code)]
}

// Leave removes a connection from its room. It reassigns the host to the
// first remaining player when the host left, scrubs the departed player from
// any running game, and deletes the room once no human remains (CPU seats
// cannot keep a room alive). It returns the room (nil if the connection was
// seated nowhere) and whether the room was deleted.
func (reg *Registry) Leave(connID string) (room *Room, deleted bool) {
	code, ok := reg.conns[connID]
	if !ok {
		return nil, false
	}
	delete(reg.conns, connID)
	room = reg.rooms[code]
	if room == nil {
		return nil, false
	}
	if !room.removePlayer(connID) {
		return room, false
	}
	if room.Game != nil {
		room.Game.RemovePlayer(connID)
	}
	if room.HumanCount() == 0 {
		for _, p := range room.Players {
			delete(reg.conns, p.ID)
		}
		delete(reg.rooms, code)
		return room, true
	}
	if room.HostID == connID {
		for _, p := range room.Players {
			if !p.IsCPU {
				room.HostID = p.ID
				p.IsHost = true
				break
			}
		}
	}
	return room, false
}
