// Package guild provides the ad hoc guild registry: named player groups with
// a leader and a member set.
package guild

import (
	"sync"

	"github.com/google/uuid"
)

// Guild is a named group of players. The registry owns the member set;
// callers receive copies via Info.
type Guild struct {
	// ID is the unique guild identifier.
	ID uuid.UUID
	// Name is the display name chosen at creation.
	Name string
	// LeaderID is the founding player.
	LeaderID uuid.UUID
	// BasePos is the optional guild base position.
	BasePos *[3]float64

	members map[uuid.UUID]struct{}
}

// Info is a race-free copy of a guild's state.
type Info struct {
	ID       uuid.UUID
	Name     string
	LeaderID uuid.UUID
	BasePos  *[3]float64
	Members  []uuid.UUID
}

// Registry tracks all guilds. Guilds are never removed, even when membership
// drops to zero; the name stays reserved for the life of the process.
// All methods are safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	guilds map[uuid.UUID]*Guild
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		guilds: make(map[uuid.UUID]*Guild),
	}
}

// Create allocates a guild with leader as its sole member.
//
// Precondition: leader must not be uuid.Nil.
// Postcondition: Returns the created guild's Info with exactly one member.
func (r *Registry) Create(name string, leader uuid.UUID, basePos *[3]float64) Info {
	r.mu.Lock()
	defer r.mu.Unlock()

	g := &Guild{
		ID:       uuid.New(),
		Name:     name,
		LeaderID: leader,
		BasePos:  basePos,
		members:  map[uuid.UUID]struct{}{leader: {}},
	}
	r.guilds[g.ID] = g
	return infoOf(g)
}

// Join adds member to the guild with the given ID.
//
// Postcondition: Returns (Info, true) on success, or (zero, false) when the
// guild does not exist. Joining twice is a no-op that still succeeds.
func (r *Registry) Join(id, member uuid.UUID) (Info, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.guilds[id]
	if !ok {
		return Info{}, false
	}
	g.members[member] = struct{}{}
	return infoOf(g), true
}

// Get returns the guild with the given ID.
//
// Postcondition: Returns (Info, true) if found, or (zero, false) otherwise.
func (r *Registry) Get(id uuid.UUID) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.guilds[id]
	if !ok {
		return Info{}, false
	}
	return infoOf(g), true
}

// Count returns the number of registered guilds.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.guilds)
}

func infoOf(g *Guild) Info {
	members := make([]uuid.UUID, 0, len(g.members))
	for m := range g.members {
		members = append(members, m)
	}
	return Info{
		ID:       g.ID,
		Name:     g.Name,
		LeaderID: g.LeaderID,
		BasePos:  g.BasePos,
		Members:  members,
	}
}
