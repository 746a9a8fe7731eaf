// Package gameserver implements the WebSocket game backend: connection
// gateway, message router, tick/broadcast engine, and disconnect cleanup.
package gameserver

import (
	"encoding/json"

	"github.com/frontiermmo/server/internal/game/session"
)

// Inbound message types.
const (
	msgJoin          = "join"
	msgInput         = "input"
	msgAttack        = "attack"
	msgPlaceBuilding = "placeBuilding"
	msgChat          = "chat"
	msgCreateGuild   = "createGuild"
	msgJoinGuild     = "joinGuild"
)

// Outbound message types.
const (
	msgWelcome      = "welcome"
	msgRoomFull     = "roomFull"
	msgDisconnected = "disconnected"
	msgSnapshot     = "snapshot"
	msgEvent        = "event"
	msgGuildCreated = "guildCreated"
	msgGuildJoined  = "guildJoined"
)

// Event kinds carried by eventMessage.
const (
	kindChat           = "chat"
	kindPlayerJoined   = "playerJoined"
	kindAttack         = "attack"
	kindBuildingPlaced = "buildingPlaced"
)

// Disconnect reasons.
const (
	reasonRateLimit = "rate_limit"
	reasonTimeout   = "timeout"
)

// serverSpeaker is the username attached to server-originated chat lines.
const serverSpeaker = "Server"

// inboundEnvelope extracts the discriminator from an inbound frame. Frames
// that do not parse as a JSON object with a type field are dropped.
type inboundEnvelope struct {
	Type string `json:"type"`
}

type joinMessage struct {
	// ID optionally resumes a previously issued player identity, letting a
	// reconnect supersede the prior connection.
	ID        string          `json:"id,omitempty"`
	Room      string          `json:"room,omitempty"`
	Username  string          `json:"username,omitempty"`
	Character json.RawMessage `json:"character,omitempty"`
}

type inputMessage struct {
	Pos      [3]float64 `json:"pos"`
	Rot      float64    `json:"rot"`
	Moving   bool       `json:"moving"`
	Running  bool       `json:"running"`
	SideMove float64    `json:"sideMove"`
	IsDead   bool       `json:"isDead"`
	Weapon   string     `json:"weapon"`
}

type placeBuildingMessage struct {
	BuildingType string  `json:"buildingType"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Z            float64 `json:"z"`
	Rot          float64 `json:"rot"`
	ShardX       int     `json:"shardX"`
	ShardZ       int     `json:"shardZ"`
}

type chatMessage struct {
	Text string `json:"text"`
}

type createGuildMessage struct {
	Name    string      `json:"name"`
	BasePos *[3]float64 `json:"basePos,omitempty"`
}

type joinGuildMessage struct {
	GuildID string `json:"guildId"`
}

type welcomeMessage struct {
	Type     string `json:"type"`
	ID       string `json:"id"`
	Room     string `json:"room"`
	TickRate int    `json:"tickRate"`
	Seed     uint32 `json:"seed"`
}

type roomFullMessage struct {
	Type string `json:"type"`
}

type disconnectedMessage struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

type snapshotMessage struct {
	Type    string                          `json:"type"`
	T       int64                           `json:"t"`
	Players map[string]session.PublicPlayer `json:"players"`
}

// eventMessage is the one-shot relay envelope. Kind selects which of the
// optional fields are populated.
type eventMessage struct {
	Type     string             `json:"type"`
	Kind     string             `json:"kind"`
	ID       string             `json:"id,omitempty"`
	Username string             `json:"username,omitempty"`
	Text     string             `json:"text,omitempty"`
	Building *buildingPlacement `json:"building,omitempty"`
}

// buildingPlacement carries a server-stamped building placement. The ID and
// Owner are authoritative; the rest echoes the client's request.
type buildingPlacement struct {
	ID           string  `json:"id"`
	Owner        string  `json:"owner"`
	BuildingType string  `json:"buildingType"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Z            float64 `json:"z"`
	Rot          float64 `json:"rot"`
	ShardX       int     `json:"shardX"`
	ShardZ       int     `json:"shardZ"`
}

type guildCreatedMessage struct {
	Type    string `json:"type"`
	GuildID string `json:"guildId"`
	Name    string `json:"name"`
}

type guildJoinedMessage struct {
	Type    string `json:"type"`
	GuildID string `json:"guildId"`
	Name    string `json:"name"`
}
