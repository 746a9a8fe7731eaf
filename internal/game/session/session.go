package session

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PlayerSession is the server-side mutable record of one connected player's
// last-known state. Fields are guarded by the owning Manager's lock; code
// outside this package reads them through Manager accessors or snapshots.
type PlayerSession struct {
	// ID is the unique player identifier.
	ID uuid.UUID
	// Username is the display name supplied on join.
	Username string
	// Character is the opaque client-defined appearance blob, relayed as-is.
	Character json.RawMessage
	// Pos is the last reported world position.
	Pos [3]float64
	// Rot is the last reported yaw rotation.
	Rot float64
	// Moving, Running, and Dead are the last reported movement/death flags.
	Moving  bool
	Running bool
	Dead    bool
	// SideMove is the last reported strafe axis.
	SideMove float64
	// Weapon is the currently equipped weapon ID.
	Weapon string
	// GuildID is the guild the player belongs to, or uuid.Nil.
	GuildID uuid.UUID
	// LastSeen is refreshed only by messages that pass the rate limiter and
	// mutate state; the tick sweep evicts sessions that exceed the timeout.
	LastSeen time.Time
	// Gen is the generation token minted at join time. A scheduled cleanup
	// captures it and removes the session only if it still matches, so a
	// cleanup for a superseded connection is a no-op.
	Gen uint64
	// RoomCode is the room the session currently belongs to.
	RoomCode string
	// Outbox delivers encoded frames to this player's connection.
	Outbox *Outbox
}

// InputState carries one input frame's worth of player state.
type InputState struct {
	Pos      [3]float64
	Rot      float64
	Moving   bool
	Running  bool
	SideMove float64
	Dead     bool
	Weapon   string
}

// PublicPlayer is the client-visible projection of a session, embedded in
// snapshots. It deliberately excludes the socket handle, generation token,
// and timestamps.
type PublicPlayer struct {
	ID        string          `json:"id"`
	Username  string          `json:"username"`
	Character json.RawMessage `json:"character,omitempty"`
	Pos       [3]float64      `json:"pos"`
	Rot       float64         `json:"rot"`
	Moving    bool            `json:"moving"`
	Running   bool            `json:"running"`
	SideMove  float64         `json:"sideMove"`
	Dead      bool            `json:"isDead"`
	Weapon    string          `json:"weapon"`
	GuildID   string          `json:"guildId,omitempty"`
}

func (s *PlayerSession) public() PublicPlayer {
	p := PublicPlayer{
		ID:        s.ID.String(),
		Username:  s.Username,
		Character: s.Character,
		Pos:       s.Pos,
		Rot:       s.Rot,
		Moving:    s.Moving,
		Running:   s.Running,
		SideMove:  s.SideMove,
		Dead:      s.Dead,
		Weapon:    s.Weapon,
	}
	if s.GuildID != uuid.Nil {
		p.GuildID = s.GuildID.String()
	}
	return p
}

// PlayerView is a race-free copy of the identifying fields of a session.
type PlayerView struct {
	ID       uuid.UUID
	Username string
	RoomCode string
	GuildID  uuid.UUID
	Gen      uint64
}
