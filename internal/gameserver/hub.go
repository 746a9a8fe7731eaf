package gameserver

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/frontiermmo/server/internal/config"
	"github.com/frontiermmo/server/internal/game/content"
	"github.com/frontiermmo/server/internal/game/guild"
	"github.com/frontiermmo/server/internal/game/ratelimit"
	"github.com/frontiermmo/server/internal/game/session"
)

// Hub owns all mutable game state for one process: the room/session table,
// the guild registry, both rate limit stores, and the cleanup coordinator.
// It is constructed once in main (or per test) and passed to the connection
// handler and tick engine; there are no package-level singletons.
type Hub struct {
	logger *zap.Logger
	cfg    config.GameConfig

	sessions *session.Manager
	guilds   *guild.Registry
	catalog  *content.Catalog

	// connLimiter counts connections per client IP; msgLimiter counts
	// messages per player. Separate stores keep the budgets independent.
	connLimiter *ratelimit.Store
	msgLimiter  *ratelimit.Store
	connPolicy  ratelimit.Policy
	msgPolicy   ratelimit.Policy

	cleanup  *cleanupCoordinator
	upgrader websocket.Upgrader
}

// NewHub creates a Hub with empty state.
//
// Precondition: logger and catalog must be non-nil; game and limits must be validated.
func NewHub(logger *zap.Logger, game config.GameConfig, limits config.LimitsConfig, catalog *content.Catalog) *Hub {
	h := &Hub{
		logger:      logger,
		cfg:         game,
		sessions:    session.NewManager(game.MaxPlayersPerRoom),
		guilds:      guild.NewRegistry(),
		catalog:     catalog,
		connLimiter: ratelimit.NewStore(),
		msgLimiter:  ratelimit.NewStore(),
		connPolicy:  ratelimit.Policy{Window: limits.ConnectionWindow, Max: limits.ConnectionMax},
		msgPolicy:   ratelimit.Policy{Window: limits.MessageWindow, Max: limits.MessageMax},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	h.cleanup = newCleanupCoordinator(game.CleanupDelay, func(id uuid.UUID, gen uint64) {
		if h.sessions.Remove(id, gen) {
			h.logger.Info("session removed",
				zap.String("player_id", id.String()),
				zap.Uint64("generation", gen),
			)
		}
	})
	return h
}

// Sessions exposes the session manager, for the HTTP surface and tests.
func (h *Hub) Sessions() *session.Manager {
	return h.sessions
}

// push marshals v and enqueues it on out. Delivery is best-effort: a closed
// or full outbox drops the frame.
func (h *Hub) push(out *session.Outbox, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("marshalling outbound message", zap.Error(err))
		return
	}
	if err := out.Push(data); err != nil {
		h.logger.Debug("dropping outbound frame", zap.Error(err))
	}
}

// broadcastRoom marshals v once and enqueues it for every member of
// roomCode, excluding except (pass uuid.Nil to include everyone).
func (h *Hub) broadcastRoom(roomCode string, except uuid.UUID, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("marshalling broadcast message", zap.Error(err))
		return
	}
	for _, out := range h.sessions.RoomOutboxes(roomCode, except) {
		if err := out.Push(data); err != nil {
			h.logger.Debug("dropping broadcast frame", zap.Error(err))
		}
	}
}
