package gameserver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/frontiermmo/server/internal/game/content"
)

func TestTickSnapshotsPerRoom(t *testing.T) {
	h := newTestHub(t)
	aria, bran, outsider := newTestClient(h), newTestClient(h), newTestClient(h)
	joinRoom(t, h, aria, "Alpha", "Aria")
	joinRoom(t, h, bran, "Alpha", "Bran")
	joinRoom(t, h, outsider, "Beta", "Odo")
	for _, c := range []*client{aria, bran, outsider} {
		drain(t, c.outbox)
	}

	h.Tick(time.Now())

	for _, c := range []*client{aria, bran} {
		snaps := ofType(drain(t, c.outbox), msgSnapshot)
		require.Len(t, snaps, 1, "every room member gets exactly one snapshot per tick")
		players := snaps[0]["players"].(map[string]any)
		assert.Len(t, players, 2)
		assert.Contains(t, players, aria.playerID.String())
		assert.Contains(t, players, bran.playerID.String())
		assert.NotContains(t, players, outsider.playerID.String(), "snapshots never cross rooms")
	}

	snaps := ofType(drain(t, outsider.outbox), msgSnapshot)
	require.Len(t, snaps, 1)
	assert.Len(t, snaps[0]["players"].(map[string]any), 1)
}

func TestTickSweepsInactiveSessions(t *testing.T) {
	h := newTestHub(t)
	c := newTestClient(h)
	joinRoom(t, h, c, "Alpha", "Aria")
	drain(t, c.outbox)

	// Push the clock past the inactivity timeout.
	future := time.Now().Add(h.cfg.InactivityTimeout + time.Minute)
	h.sessions.SetClock(func() time.Time { return future })

	h.Tick(future)

	frames := drain(t, c.outbox)
	notices := ofType(frames, msgDisconnected)
	require.Len(t, notices, 1)
	assert.Equal(t, reasonTimeout, notices[0]["reason"])
	assert.True(t, c.outbox.IsClosed())

	require.Eventually(t, func() bool {
		return h.sessions.PlayerCount() == 0
	}, time.Second, 5*time.Millisecond, "swept session is removed through the debounced path")
	assert.Equal(t, 0, h.sessions.RoomCount())
}

func TestTickRepeatedSweepStillRemoves(t *testing.T) {
	cfg := testGameConfig()
	cfg.CleanupDelay = 50 * time.Millisecond
	h := NewHub(zap.NewNop(), cfg, testLimitsConfig(), content.Default())
	c := newTestClient(h)
	joinRoom(t, h, c, "Alpha", "Aria")
	drain(t, c.outbox)

	future := time.Now().Add(cfg.InactivityTimeout + time.Minute)
	h.sessions.SetClock(func() time.Time { return future })

	// Tick far more often than the cleanup delay; re-sweeping a session
	// already on the cleanup path must not push its removal out.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && h.sessions.PlayerCount() > 0 {
		h.Tick(future)
		time.Sleep(10 * time.Millisecond)
	}

	assert.Equal(t, 0, h.sessions.PlayerCount(), "stale session is removed despite per-tick sweeps")
	assert.Equal(t, 0, h.sessions.RoomCount())
	assert.Equal(t, 0, h.cleanup.Pending())

	notices := ofType(drain(t, c.outbox), msgDisconnected)
	assert.Len(t, notices, 1, "the timeout notice is delivered exactly once")
}

func TestTickSweepSparesActiveSessions(t *testing.T) {
	h := newTestHub(t)
	active, idle := newTestClient(h), newTestClient(h)
	joinRoom(t, h, active, "Alpha", "A")
	joinRoom(t, h, idle, "Alpha", "I")
	drain(t, active.outbox)
	drain(t, idle.outbox)

	future := time.Now().Add(h.cfg.InactivityTimeout + time.Minute)
	h.sessions.SetClock(func() time.Time { return future })
	h.sessions.Touch(active.playerID)

	h.Tick(future)

	assert.False(t, active.outbox.IsClosed())
	assert.True(t, idle.outbox.IsClosed())
	require.Eventually(t, func() bool {
		return h.sessions.PlayerCount() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestEngineStartStop(t *testing.T) {
	cfg := testGameConfig()
	cfg.TickRate = 100
	h := NewHub(zap.NewNop(), cfg, testLimitsConfig(), content.Default())
	c := newTestClient(h)
	joinRoom(t, h, c, "Alpha", "Aria")
	drain(t, c.outbox)

	e := NewEngine(h)
	done := make(chan error, 1)
	go func() { done <- e.Start() }()

	require.Eventually(t, func() bool {
		return len(ofType(drain(t, c.outbox), msgSnapshot)) > 0
	}, time.Second, 5*time.Millisecond, "a running engine delivers snapshots")

	e.Stop()
	e.Stop() // idempotent

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("engine did not stop")
	}
}
