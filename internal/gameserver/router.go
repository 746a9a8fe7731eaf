package gameserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/frontiermmo/server/internal/game/session"
)

// maxChatLen bounds relayed chat text.
const maxChatLen = 512

// dispatch parses the inbound frame and routes it to the matching handler.
// Frames that are not JSON objects with a type field, and frames with an
// unknown type, are dropped without affecting the connection.
func (h *Hub) dispatch(c *client, frame []byte) {
	var env inboundEnvelope
	if err := json.Unmarshal(frame, &env); err != nil || env.Type == "" {
		h.logger.Debug("dropping malformed frame",
			zap.String("player_id", c.playerID.String()),
		)
		return
	}

	switch env.Type {
	case msgJoin:
		h.handleJoin(c, frame)
	case msgInput:
		h.handleInput(c, frame)
	case msgAttack:
		h.handleAttack(c)
	case msgPlaceBuilding:
		h.handlePlaceBuilding(c, frame)
	case msgChat:
		h.handleChat(c, frame)
	case msgCreateGuild:
		h.handleCreateGuild(c, frame)
	case msgJoinGuild:
		h.handleJoinGuild(c, frame)
	default:
		h.logger.Debug("ignoring unknown message type",
			zap.String("type", env.Type),
			zap.String("player_id", c.playerID.String()),
		)
	}
}

// handleJoin (re)associates the connection with a room. The reply carries
// the authoritative identity, tick rate, and world seed; the rest of the
// room learns about the newcomer through a playerJoined event.
func (h *Hub) handleJoin(c *client, frame []byte) {
	var msg joinMessage
	if err := json.Unmarshal(frame, &msg); err != nil {
		h.logger.Debug("dropping malformed join", zap.Error(err))
		return
	}

	roomCode := msg.Room
	if roomCode == "" {
		roomCode = "frontier"
	}
	username := strings.TrimSpace(msg.Username)
	if username == "" {
		username = "Wanderer"
	}

	// A join presenting a previously issued ID resumes that identity,
	// superseding whatever connection still holds it.
	if msg.ID != "" {
		if resumed, err := uuid.Parse(msg.ID); err == nil && resumed != c.playerID {
			h.msgLimiter.Forget(c.playerID.String())
			c.playerID = resumed
		}
	}

	// A live join always beats a pending eviction for this player.
	h.cleanup.Cancel(c.playerID)

	room, view, err := h.sessions.Join(c.playerID, username, msg.Character, roomCode, c.outbox)
	if errors.Is(err, session.ErrRoomFull) {
		h.logger.Info("join rejected, room full",
			zap.String("player_id", c.playerID.String()),
			zap.String("room", roomCode),
		)
		h.push(c.outbox, roomFullMessage{Type: msgRoomFull})
		return
	}
	if err != nil {
		h.logger.Error("join failed",
			zap.String("player_id", c.playerID.String()),
			zap.Error(err),
		)
		return
	}

	c.joined = true
	c.gen = view.Gen

	h.push(c.outbox, welcomeMessage{
		Type:     msgWelcome,
		ID:       c.playerID.String(),
		Room:     room.Code,
		TickRate: h.cfg.TickRate,
		Seed:     room.Seed,
	})

	h.broadcastRoom(room.Code, c.playerID, eventMessage{
		Type:     msgEvent,
		Kind:     kindPlayerJoined,
		ID:       c.playerID.String(),
		Username: username,
	})

	h.push(c.outbox, eventMessage{
		Type:     msgEvent,
		Kind:     kindChat,
		Username: serverSpeaker,
		Text:     fmt.Sprintf("Welcome to %s, %s!", room.Code, username),
	})

	h.logger.Info("player joined",
		zap.String("player_id", c.playerID.String()),
		zap.String("room", room.Code),
		zap.String("username", username),
	)
}

// handleInput overwrites the session's last-known state; the next snapshot
// carries it to the room. No reply.
func (h *Hub) handleInput(c *client, frame []byte) {
	if !c.joined {
		return
	}
	var msg inputMessage
	if err := json.Unmarshal(frame, &msg); err != nil {
		h.logger.Debug("dropping malformed input", zap.Error(err))
		return
	}

	if msg.Weapon != "" && !h.catalog.HasWeapon(msg.Weapon) {
		h.logger.Debug("input references uncataloged weapon",
			zap.String("player_id", c.playerID.String()),
			zap.String("weapon", msg.Weapon),
		)
	}

	h.sessions.UpdateInput(c.playerID, session.InputState{
		Pos:      msg.Pos,
		Rot:      msg.Rot,
		Moving:   msg.Moving,
		Running:  msg.Running,
		SideMove: msg.SideMove,
		Dead:     msg.IsDead,
		Weapon:   msg.Weapon,
	})
}

// handleAttack relays an attack event to everyone else in the room; the
// attacker gets no self-echo.
func (h *Hub) handleAttack(c *client) {
	if !c.joined {
		return
	}
	view, ok := h.sessions.View(c.playerID)
	if !ok {
		return
	}
	h.sessions.Touch(c.playerID)

	h.broadcastRoom(view.RoomCode, c.playerID, eventMessage{
		Type: msgEvent,
		Kind: kindAttack,
		ID:   c.playerID.String(),
	})
}

// handlePlaceBuilding stamps a fresh building ID and owner, then broadcasts
// to the whole room including the sender, who needs the authoritative ID.
func (h *Hub) handlePlaceBuilding(c *client, frame []byte) {
	if !c.joined {
		return
	}
	var msg placeBuildingMessage
	if err := json.Unmarshal(frame, &msg); err != nil {
		h.logger.Debug("dropping malformed placeBuilding", zap.Error(err))
		return
	}
	view, ok := h.sessions.View(c.playerID)
	if !ok {
		return
	}
	h.sessions.Touch(c.playerID)

	if !h.catalog.HasBuilding(msg.BuildingType) {
		h.logger.Warn("placing uncataloged building type",
			zap.String("player_id", c.playerID.String()),
			zap.String("building_type", msg.BuildingType),
		)
	}

	h.broadcastRoom(view.RoomCode, uuid.Nil, eventMessage{
		Type: msgEvent,
		Kind: kindBuildingPlaced,
		Building: &buildingPlacement{
			ID:           uuid.NewString(),
			Owner:        c.playerID.String(),
			BuildingType: msg.BuildingType,
			X:            msg.X,
			Y:            msg.Y,
			Z:            msg.Z,
			Rot:          msg.Rot,
			ShardX:       msg.ShardX,
			ShardZ:       msg.ShardZ,
		},
	})
}

// handleChat relays a chat line to everyone else in the room.
func (h *Hub) handleChat(c *client, frame []byte) {
	if !c.joined {
		return
	}
	var msg chatMessage
	if err := json.Unmarshal(frame, &msg); err != nil {
		h.logger.Debug("dropping malformed chat", zap.Error(err))
		return
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}
	if len(text) > maxChatLen {
		// Back off to a rune boundary so the cut never splits a multi-byte
		// character into a U+FFFD.
		cut := maxChatLen
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	view, ok := h.sessions.View(c.playerID)
	if !ok {
		return
	}
	h.sessions.Touch(c.playerID)

	h.broadcastRoom(view.RoomCode, c.playerID, eventMessage{
		Type:     msgEvent,
		Kind:     kindChat,
		Username: view.Username,
		Text:     text,
	})
}

// handleCreateGuild allocates a guild with the caller as leader and sole
// member, replies guildCreated, and announces it to the room.
func (h *Hub) handleCreateGuild(c *client, frame []byte) {
	if !c.joined {
		return
	}
	var msg createGuildMessage
	if err := json.Unmarshal(frame, &msg); err != nil {
		h.logger.Debug("dropping malformed createGuild", zap.Error(err))
		return
	}
	name := strings.TrimSpace(msg.Name)
	if name == "" {
		return
	}
	view, ok := h.sessions.View(c.playerID)
	if !ok {
		return
	}
	h.sessions.Touch(c.playerID)

	info := h.guilds.Create(name, c.playerID, msg.BasePos)
	h.sessions.SetGuild(c.playerID, info.ID)

	h.push(c.outbox, guildCreatedMessage{
		Type:    msgGuildCreated,
		GuildID: info.ID.String(),
		Name:    info.Name,
	})

	h.broadcastRoom(view.RoomCode, uuid.Nil, eventMessage{
		Type:     msgEvent,
		Kind:     kindChat,
		Username: serverSpeaker,
		Text:     fmt.Sprintf("%s founded the guild %s!", view.Username, info.Name),
	})

	h.logger.Info("guild created",
		zap.String("guild_id", info.ID.String()),
		zap.String("name", info.Name),
		zap.String("leader_id", c.playerID.String()),
	)
}

// handleJoinGuild adds the caller to an existing guild. An unknown guild ID
// is silently ignored.
func (h *Hub) handleJoinGuild(c *client, frame []byte) {
	if !c.joined {
		return
	}
	var msg joinGuildMessage
	if err := json.Unmarshal(frame, &msg); err != nil {
		h.logger.Debug("dropping malformed joinGuild", zap.Error(err))
		return
	}
	guildID, err := uuid.Parse(msg.GuildID)
	if err != nil {
		return
	}

	info, ok := h.guilds.Join(guildID, c.playerID)
	if !ok {
		h.logger.Debug("joinGuild for unknown guild",
			zap.String("player_id", c.playerID.String()),
			zap.String("guild_id", msg.GuildID),
		)
		return
	}
	h.sessions.Touch(c.playerID)
	h.sessions.SetGuild(c.playerID, info.ID)

	h.push(c.outbox, guildJoinedMessage{
		Type:    msgGuildJoined,
		GuildID: info.ID.String(),
		Name:    info.Name,
	})
}
