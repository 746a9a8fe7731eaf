package gameserver

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/frontiermmo/server/internal/game/session"
)

const (
	// writeWait bounds a single socket write.
	writeWait = 10 * time.Second
	// maxFrameSize bounds inbound frames; oversized frames fail the read.
	maxFrameSize = 64 * 1024
	// outboxSize is the per-connection send queue depth.
	outboxSize = 256
)

// client is one WebSocket connection. The read pump is the only goroutine
// that mutates its fields after construction; the write pump only drains the
// outbox.
type client struct {
	hub    *Hub
	conn   *websocket.Conn
	outbox *session.Outbox
	ip     string

	// playerID is minted at connect time and may be replaced once by a join
	// frame that resumes a previously issued identity.
	playerID uuid.UUID
	// joined is set after the first successful join; gen is the session
	// generation captured for the eventual disconnect cleanup.
	joined bool
	gen    uint64
}

// ServeWS upgrades an HTTP request to a WebSocket connection, applies the
// connection rate limit, and starts the read/write pumps. Over-budget
// connections receive a disconnected notice and a policy-violation close
// without a session ever being allocated.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed",
			zap.String("ip", ip),
			zap.Error(err),
		)
		return
	}

	if h.connLimiter.Limited(ip, h.connPolicy) {
		h.logger.Warn("connection rate limited",
			zap.String("ip", ip),
		)
		rejectConn(conn)
		return
	}

	c := &client{
		hub:      h,
		conn:     conn,
		ip:       ip,
		playerID: uuid.New(),
	}
	c.outbox = session.NewOutbox(c.playerID.String(), outboxSize)

	h.logger.Info("client connected",
		zap.String("player_id", c.playerID.String()),
		zap.String("ip", ip),
	)

	go c.writePump()
	c.readPump()
}

// rejectConn delivers the rate_limit notice and closes the raw connection.
func rejectConn(conn *websocket.Conn) {
	deadline := time.Now().Add(writeWait)
	conn.SetWriteDeadline(deadline)
	if data, err := json.Marshal(disconnectedMessage{Type: msgDisconnected, Reason: reasonRateLimit}); err == nil {
		_ = conn.WriteMessage(websocket.TextMessage, data)
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "rate limit exceeded"),
		deadline,
	)
	conn.Close()
}

// clientIP prefers the first hop of X-Forwarded-For, falling back to the
// socket address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, found := strings.Cut(fwd, ","); found || first != "" {
			return strings.TrimSpace(first)
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// readPump processes inbound frames in arrival order until the connection
// closes, then funnels into the disconnect path.
func (c *client) readPump() {
	defer c.disconnected()

	pongWait := 2 * c.hub.cfg.HeartbeatInterval
	c.conn.SetReadLimit(maxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("read failed",
					zap.String("player_id", c.playerID.String()),
					zap.Error(err),
				)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		if c.hub.msgLimiter.Limited(c.playerID.String(), c.hub.msgPolicy) {
			c.hub.logger.Warn("message rate limited",
				zap.String("player_id", c.playerID.String()),
				zap.String("ip", c.ip),
			)
			c.hub.push(c.outbox, disconnectedMessage{Type: msgDisconnected, Reason: reasonRateLimit})
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "rate limit exceeded"),
				time.Now().Add(writeWait),
			)
			return
		}

		c.hub.dispatch(c, frame)
	}
}

// writePump drains the outbox to the socket and keeps the connection alive
// with periodic pings. It exits when the outbox closes or a write fails.
func (c *client) writePump() {
	ticker := time.NewTicker(c.hub.cfg.HeartbeatInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.outbox.Frames():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// disconnected runs once when the read pump exits: it drops the message-rate
// entry, closes the outbox, and schedules the debounced session removal.
func (c *client) disconnected() {
	h := c.hub
	h.msgLimiter.Forget(c.playerID.String())
	c.outbox.Close()

	if c.joined {
		h.cleanup.Schedule(c.playerID, c.gen)
	}

	h.logger.Info("client disconnected",
		zap.String("player_id", c.playerID.String()),
		zap.String("ip", c.ip),
		zap.Bool("had_session", c.joined),
	)
}
