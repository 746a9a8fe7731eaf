package gameserver

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Engine drives the fixed-rate loop: one inactivity sweep and one snapshot
// broadcast per room per tick. It implements server.Service.
type Engine struct {
	hub      *Hub
	interval time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

// NewEngine creates a stopped Engine ticking at the hub's configured rate.
//
// Precondition: hub must be non-nil with a validated tick rate.
func NewEngine(hub *Hub) *Engine {
	return &Engine{
		hub:      hub,
		interval: time.Second / time.Duration(hub.cfg.TickRate),
		done:     make(chan struct{}),
	}
}

// Start runs the tick loop until Stop is called.
//
// Postcondition: Every live room receives one snapshot per interval.
func (e *Engine) Start() error {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-e.done:
			return nil
		case now := <-ticker.C:
			e.hub.Tick(now)
		}
	}
}

// Stop ends the tick loop. Idempotent.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.done) })
}

// Tick performs one iteration: sweep inactive sessions, then serialize each
// room's player table and push it to every member. Delivery is best-effort.
func (h *Hub) Tick(now time.Time) {
	h.sweepInactive()

	t := now.UnixMilli()
	for _, code := range h.sessions.RoomCodes() {
		players, outboxes, ok := h.sessions.Snapshot(code)
		if !ok {
			continue
		}
		data, err := json.Marshal(snapshotMessage{Type: msgSnapshot, T: t, Players: players})
		if err != nil {
			h.logger.Error("marshalling snapshot",
				zap.String("room", code),
				zap.Error(err),
			)
			continue
		}
		for _, out := range outboxes {
			if err := out.Push(data); err != nil {
				h.logger.Debug("dropping snapshot frame", zap.Error(err))
			}
		}
	}
}

// sweepInactive closes sessions that exceeded the inactivity timeout,
// funneling them through the same debounced cleanup path as a normal close.
// A closed outbox marks a session already on that path (swept on an earlier
// tick, or mid-disconnect), so it is not re-scheduled: re-arming the timer
// every tick would push removal out forever.
func (h *Hub) sweepInactive() {
	for _, stale := range h.sessions.StaleSessions(h.cfg.InactivityTimeout) {
		if stale.Outbox.IsClosed() {
			continue
		}
		h.logger.Info("closing inactive session",
			zap.String("player_id", stale.ID.String()),
		)
		h.push(stale.Outbox, disconnectedMessage{Type: msgDisconnected, Reason: reasonTimeout})
		stale.Outbox.Close()
		h.cleanup.Schedule(stale.ID, stale.Gen)
	}
}
