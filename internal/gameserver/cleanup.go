package gameserver

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// cleanupCoordinator debounces session removal. A closing connection
// schedules removal after a fixed delay instead of applying it immediately,
// so a client reconnecting under a new connection is not reaped with the old
// one. Timers are explicit and cancellable: a fresh join positively cancels
// the pending eviction, and the removal callback additionally re-checks the
// captured generation token, so a timer that slips through is still a no-op.
type cleanupCoordinator struct {
	mu     sync.Mutex
	delay  time.Duration
	timers map[uuid.UUID]*time.Timer
	remove func(id uuid.UUID, gen uint64)
}

// newCleanupCoordinator creates a coordinator invoking remove after delay.
//
// Precondition: remove must be non-nil and tolerate stale generations.
func newCleanupCoordinator(delay time.Duration, remove func(id uuid.UUID, gen uint64)) *cleanupCoordinator {
	return &cleanupCoordinator{
		delay:  delay,
		timers: make(map[uuid.UUID]*time.Timer),
		remove: remove,
	}
}

// Schedule arms (or re-arms) the removal timer for id, capturing gen.
//
// Postcondition: After the delay, remove(id, gen) is invoked unless Schedule
// or Cancel replaced the timer first.
func (c *cleanupCoordinator) Schedule(id uuid.UUID, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.timers[id]; ok {
		prev.Stop()
	}

	var t *time.Timer
	t = time.AfterFunc(c.delay, func() {
		c.mu.Lock()
		if c.timers[id] == t {
			delete(c.timers, id)
		}
		c.mu.Unlock()
		c.remove(id, gen)
	})
	c.timers[id] = t
}

// Cancel stops any pending removal for id.
func (c *cleanupCoordinator) Cancel(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.timers[id]; ok {
		t.Stop()
		delete(c.timers, id)
	}
}

// Pending returns the number of armed timers.
func (c *cleanupCoordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}
