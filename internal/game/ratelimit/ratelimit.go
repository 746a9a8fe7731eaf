// Package ratelimit provides fixed-window rate limiting keyed by arbitrary
// strings. The game backend runs two independent stores: one counting
// connections per client IP and one counting messages per player, so one
// noisy player cannot exhaust another's budget.
package ratelimit

import (
	"sync"
	"time"
)

// Policy describes one fixed-window budget.
type Policy struct {
	// Window is the length of the fixed window.
	Window time.Duration
	// Max is the number of actions permitted per key per window.
	Max int
}

type entry struct {
	count   int
	resetAt time.Time
}

// Store tracks fixed-window counters per key.
// All methods are safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// NewStoreWithClock creates a Store using the given clock. Intended for tests.
//
// Precondition: now must be non-nil.
func NewStoreWithClock(now func() time.Time) *Store {
	return &Store{
		entries: make(map[string]*entry),
		now:     now,
	}
}

// Limited records one action for key under the given policy and reports
// whether the key is over budget. On first use, or once the window has
// expired, the counter restarts at 1 and the action is allowed.
//
// Postcondition: Returns true iff more than policy.Max actions have been
// recorded for key within the current window.
func (s *Store) Limited(key string, policy Policy) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.entries[key]
	if !ok || now.After(e.resetAt) {
		s.entries[key] = &entry{count: 1, resetAt: now.Add(policy.Window)}
		return false
	}

	e.count++
	return e.count > policy.Max
}

// Forget drops the counter for key. Called when a connection closes so the
// store does not grow without bound.
func (s *Store) Forget(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Len returns the number of tracked keys.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
