package gameserver

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type removeRecorder struct {
	mu    sync.Mutex
	calls []struct {
		id  uuid.UUID
		gen uint64
	}
}

func (r *removeRecorder) remove(id uuid.UUID, gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, struct {
		id  uuid.UUID
		gen uint64
	}{id, gen})
}

func (r *removeRecorder) snapshot() []struct {
	id  uuid.UUID
	gen uint64
} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]struct {
		id  uuid.UUID
		gen uint64
	}(nil), r.calls...)
}

func TestCleanupScheduleFires(t *testing.T) {
	rec := &removeRecorder{}
	c := newCleanupCoordinator(10*time.Millisecond, rec.remove)

	id := uuid.New()
	c.Schedule(id, 3)
	assert.Equal(t, 1, c.Pending())

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 1
	}, time.Second, 2*time.Millisecond)

	calls := rec.snapshot()
	assert.Equal(t, id, calls[0].id)
	assert.Equal(t, uint64(3), calls[0].gen)
	assert.Equal(t, 0, c.Pending(), "fired timer is reaped from the table")
}

func TestCleanupCancelPreventsRemoval(t *testing.T) {
	rec := &removeRecorder{}
	c := newCleanupCoordinator(10*time.Millisecond, rec.remove)

	id := uuid.New()
	c.Schedule(id, 1)
	c.Cancel(id)
	assert.Equal(t, 0, c.Pending())

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, rec.snapshot(), "cancelled timer never invokes remove")
}

func TestCleanupRescheduleReplacesGeneration(t *testing.T) {
	rec := &removeRecorder{}
	c := newCleanupCoordinator(10*time.Millisecond, rec.remove)

	id := uuid.New()
	c.Schedule(id, 1)
	c.Schedule(id, 2)
	assert.Equal(t, 1, c.Pending(), "rescheduling keeps a single timer per id")

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 1
	}, time.Second, 2*time.Millisecond)

	time.Sleep(30 * time.Millisecond)
	calls := rec.snapshot()
	require.Len(t, calls, 1, "the replaced timer never fires")
	assert.Equal(t, uint64(2), calls[0].gen, "the latest generation wins")
}

func TestCleanupCancelUnknownIsNoop(t *testing.T) {
	rec := &removeRecorder{}
	c := newCleanupCoordinator(10*time.Millisecond, rec.remove)

	c.Cancel(uuid.New())
	assert.Equal(t, 0, c.Pending())
}

func TestCleanupIndependentPlayers(t *testing.T) {
	rec := &removeRecorder{}
	c := newCleanupCoordinator(10*time.Millisecond, rec.remove)

	kept, dropped := uuid.New(), uuid.New()
	c.Schedule(kept, 1)
	c.Schedule(dropped, 1)
	c.Cancel(kept)

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 1
	}, time.Second, 2*time.Millisecond)
	assert.Equal(t, dropped, rec.snapshot()[0].id)
}
