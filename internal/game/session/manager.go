package session

import (
	"encoding/json"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrRoomFull is returned by Join when the target room is at capacity.
// The join is rejected, not queued; the connection stays open for retry.
var ErrRoomFull = errors.New("room is full")

// Room is an isolated broadcast domain holding a bounded set of players and
// one world seed. Rooms are created lazily on first join and deleted when the
// last session is removed.
type Room struct {
	// Code is the room identifier supplied by clients.
	Code string
	// Seed is the world generation seed shared by every member.
	Seed uint32

	players map[uuid.UUID]*PlayerSession
}

// RoomSummary is the public occupancy view served over HTTP.
type RoomSummary struct {
	Players    int `json:"players"`
	MaxPlayers int `json:"maxPlayers"`
}

// Stale identifies a session that exceeded the inactivity timeout.
type Stale struct {
	ID     uuid.UUID
	Gen    uint64
	Outbox *Outbox
}

// Manager owns the room table and all player sessions.
// All methods are safe for concurrent use.
type Manager struct {
	mu         sync.RWMutex
	maxPerRoom int
	rooms      map[string]*Room
	players    map[uuid.UUID]*PlayerSession
	// gens survives session removal so a generation captured by a delayed
	// cleanup can never match a session created by a later reconnect.
	gens map[uuid.UUID]uint64
	now  func() time.Time
	seed func() uint32
}

// NewManager creates an empty Manager enforcing the given room capacity.
//
// Precondition: maxPerRoom must be >= 1.
func NewManager(maxPerRoom int) *Manager {
	return &Manager{
		maxPerRoom: maxPerRoom,
		rooms:      make(map[string]*Room),
		players:    make(map[uuid.UUID]*PlayerSession),
		gens:       make(map[uuid.UUID]uint64),
		now:        time.Now,
		seed:       rand.Uint32,
	}
}

// SetClock overrides the manager's clock. Intended for tests.
func (m *Manager) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Join (re)associates a player with a room, clearing any prior association.
// The room is created lazily. A join that would exceed the room capacity
// returns ErrRoomFull with no side effects: the previous association, if any,
// stays intact. Rejoining the room the player already occupies replaces their
// own slot, so it cannot be rejected for capacity and the room (and its seed)
// survives even when the player is its only member.
//
// Precondition: id must not be uuid.Nil; roomCode must be non-empty; out must be non-nil.
// Postcondition: On success the session carries a freshly minted generation
// token and the previous connection's outbox (if any) is closed.
func (m *Manager) Join(id uuid.UUID, username string, character json.RawMessage, roomCode string, out *Outbox) (*Room, PlayerView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room := m.rooms[roomCode]

	// Capacity gate before any mutation. A player already in the target room
	// occupies the slot they are about to reuse.
	if room != nil {
		if _, member := room.players[id]; !member && len(room.players) >= m.maxPerRoom {
			return nil, PlayerView{}, ErrRoomFull
		}
	}

	// Clear prior association. A reconnect under the same ID supersedes the
	// old connection; closing its outbox ends the old write pump. The old
	// room empties out only when the join targets a different room.
	if prev, ok := m.players[id]; ok {
		if prevRoom, ok := m.rooms[prev.RoomCode]; ok {
			delete(prevRoom.players, id)
			if len(prevRoom.players) == 0 && prev.RoomCode != roomCode {
				delete(m.rooms, prev.RoomCode)
			}
		}
		delete(m.players, id)
		if prev.Outbox != out {
			prev.Outbox.Close()
		}
	}

	if room == nil {
		room = &Room{
			Code:    roomCode,
			Seed:    m.seed(),
			players: make(map[uuid.UUID]*PlayerSession),
		}
		m.rooms[roomCode] = room
	}

	m.gens[id]++
	sess := &PlayerSession{
		ID:        id,
		Username:  username,
		Character: character,
		LastSeen:  m.now(),
		Gen:       m.gens[id],
		RoomCode:  roomCode,
		Outbox:    out,
	}
	m.players[id] = sess
	room.players[id] = sess

	return room, viewOf(sess), nil
}

// detachLocked removes sess from its room and the player index, deleting the
// room when it empties. Caller holds m.mu.
func (m *Manager) detachLocked(sess *PlayerSession) {
	if room, ok := m.rooms[sess.RoomCode]; ok {
		delete(room.players, sess.ID)
		if len(room.players) == 0 {
			delete(m.rooms, sess.RoomCode)
		}
	}
	delete(m.players, sess.ID)
}

// Remove deletes the session for id only if its generation token still equals
// gen. A stale generation means a newer connection superseded the one that
// scheduled this removal, and the call is a no-op.
//
// Postcondition: Returns true iff the session was removed. The session's
// outbox is closed on removal.
func (m *Manager) Remove(id uuid.UUID, gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.players[id]
	if !ok || sess.Gen != gen {
		return false
	}

	m.detachLocked(sess)
	sess.Outbox.Close()
	return true
}

// Generation returns the current generation token for id, or 0 when no
// session exists.
func (m *Manager) Generation(id uuid.UUID) uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if sess, ok := m.players[id]; ok {
		return sess.Gen
	}
	return 0
}

// UpdateInput overwrites the session's last-known state and refreshes
// LastSeen.
//
// Postcondition: Returns false when no session exists for id.
func (m *Manager) UpdateInput(id uuid.UUID, in InputState) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.players[id]
	if !ok {
		return false
	}
	sess.Pos = in.Pos
	sess.Rot = in.Rot
	sess.Moving = in.Moving
	sess.Running = in.Running
	sess.SideMove = in.SideMove
	sess.Dead = in.Dead
	sess.Weapon = in.Weapon
	sess.LastSeen = m.now()
	return true
}

// Touch refreshes LastSeen for id.
//
// Postcondition: Returns false when no session exists for id.
func (m *Manager) Touch(id uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.players[id]
	if !ok {
		return false
	}
	sess.LastSeen = m.now()
	return true
}

// SetGuild records guild membership on the session.
//
// Postcondition: Returns false when no session exists for id.
func (m *Manager) SetGuild(id, guildID uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.players[id]
	if !ok {
		return false
	}
	sess.GuildID = guildID
	return true
}

// View returns a race-free copy of the session's identifying fields.
func (m *Manager) View(id uuid.UUID) (PlayerView, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.players[id]
	if !ok {
		return PlayerView{}, false
	}
	return viewOf(sess), true
}

func viewOf(sess *PlayerSession) PlayerView {
	return PlayerView{
		ID:       sess.ID,
		Username: sess.Username,
		RoomCode: sess.RoomCode,
		GuildID:  sess.GuildID,
		Gen:      sess.Gen,
	}
}

// Snapshot builds the public-safe player table for a room together with the
// outboxes of every member, in one pass under the read lock.
//
// Postcondition: Returns ok=false when the room does not exist.
func (m *Manager) Snapshot(roomCode string) (map[string]PublicPlayer, []*Outbox, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	room, ok := m.rooms[roomCode]
	if !ok {
		return nil, nil, false
	}

	players := make(map[string]PublicPlayer, len(room.players))
	outboxes := make([]*Outbox, 0, len(room.players))
	for _, sess := range room.players {
		players[sess.ID.String()] = sess.public()
		outboxes = append(outboxes, sess.Outbox)
	}
	return players, outboxes, true
}

// RoomOutboxes returns the outboxes of every member of roomCode, excluding
// except (pass uuid.Nil to exclude nobody).
func (m *Manager) RoomOutboxes(roomCode string, except uuid.UUID) []*Outbox {
	m.mu.RLock()
	defer m.mu.RUnlock()

	room, ok := m.rooms[roomCode]
	if !ok {
		return nil
	}
	outboxes := make([]*Outbox, 0, len(room.players))
	for id, sess := range room.players {
		if id == except {
			continue
		}
		outboxes = append(outboxes, sess.Outbox)
	}
	return outboxes
}

// RoomCodes returns the codes of all live rooms.
func (m *Manager) RoomCodes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	codes := make([]string, 0, len(m.rooms))
	for code := range m.rooms {
		codes = append(codes, code)
	}
	return codes
}

// RoomSummaries returns occupancy per room for the HTTP surface.
func (m *Manager) RoomSummaries() map[string]RoomSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]RoomSummary, len(m.rooms))
	for code, room := range m.rooms {
		out[code] = RoomSummary{Players: len(room.players), MaxPlayers: m.maxPerRoom}
	}
	return out
}

// StaleSessions returns every session whose LastSeen is older than timeout.
// The caller closes them through the normal cleanup path.
func (m *Manager) StaleSessions(timeout time.Duration) []Stale {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.now()
	var stale []Stale
	for _, sess := range m.players {
		if now.Sub(sess.LastSeen) > timeout {
			stale = append(stale, Stale{ID: sess.ID, Gen: sess.Gen, Outbox: sess.Outbox})
		}
	}
	return stale
}

// PlayerCount returns the total number of live sessions.
func (m *Manager) PlayerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.players)
}

// RoomCount returns the number of live rooms.
func (m *Manager) RoomCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}
