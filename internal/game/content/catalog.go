// Package content provides the weapon and building-type catalogs. Catalogs
// are advisory: handlers relay client-supplied IDs as-is and only use the
// catalog for logging and the public catalog endpoint.
package content

import (
	"fmt"
	"sort"
	"sync"
)

// Weapon is one equippable weapon definition.
type Weapon struct {
	ID     string  `yaml:"id" json:"id"`
	Name   string  `yaml:"name" json:"name"`
	Damage int     `yaml:"damage" json:"damage"`
	Range  float64 `yaml:"range" json:"range"`
}

// Building is one placeable building-type definition.
type Building struct {
	ID     string `yaml:"id" json:"id"`
	Name   string `yaml:"name" json:"name"`
	Health int    `yaml:"health" json:"health"`
	SizeX  int    `yaml:"size_x" json:"sizeX"`
	SizeZ  int    `yaml:"size_z" json:"sizeZ"`
}

// Catalog holds the registered weapon and building definitions.
// All methods are safe for concurrent use.
type Catalog struct {
	mu        sync.RWMutex
	weapons   map[string]Weapon
	buildings map[string]Building
}

// NewCatalog creates an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		weapons:   make(map[string]Weapon),
		buildings: make(map[string]Building),
	}
}

// RegisterWeapon adds a weapon definition.
//
// Postcondition: Returns an error on an empty or duplicate ID.
func (c *Catalog) RegisterWeapon(w Weapon) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if w.ID == "" {
		return fmt.Errorf("weapon ID must not be empty")
	}
	if _, exists := c.weapons[w.ID]; exists {
		return fmt.Errorf("duplicate weapon ID %q", w.ID)
	}
	c.weapons[w.ID] = w
	return nil
}

// RegisterBuilding adds a building-type definition.
//
// Postcondition: Returns an error on an empty or duplicate ID.
func (c *Catalog) RegisterBuilding(b Building) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if b.ID == "" {
		return fmt.Errorf("building ID must not be empty")
	}
	if _, exists := c.buildings[b.ID]; exists {
		return fmt.Errorf("duplicate building ID %q", b.ID)
	}
	c.buildings[b.ID] = b
	return nil
}

// HasWeapon reports whether a weapon with the given ID is registered.
func (c *Catalog) HasWeapon(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.weapons[id]
	return ok
}

// HasBuilding reports whether a building type with the given ID is registered.
func (c *Catalog) HasBuilding(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.buildings[id]
	return ok
}

// Weapons returns all weapon definitions sorted by ID.
func (c *Catalog) Weapons() []Weapon {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Weapon, 0, len(c.weapons))
	for _, w := range c.weapons {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Buildings returns all building-type definitions sorted by ID.
func (c *Catalog) Buildings() []Building {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Building, 0, len(c.buildings))
	for _, b := range c.buildings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Default returns a catalog populated with the built-in definitions, used
// when no content directories are configured.
func Default() *Catalog {
	c := NewCatalog()
	for _, w := range []Weapon{
		{ID: "fists", Name: "Fists", Damage: 5, Range: 1.5},
		{ID: "sword", Name: "Iron Sword", Damage: 20, Range: 2},
		{ID: "axe", Name: "Woodcutter's Axe", Damage: 25, Range: 2},
		{ID: "bow", Name: "Hunting Bow", Damage: 15, Range: 30},
	} {
		if err := c.RegisterWeapon(w); err != nil {
			panic(fmt.Sprintf("content: built-in weapon %s: %v", w.ID, err))
		}
	}
	for _, b := range []Building{
		{ID: "wall", Name: "Wooden Wall", Health: 200, SizeX: 2, SizeZ: 1},
		{ID: "floor", Name: "Wooden Floor", Health: 150, SizeX: 2, SizeZ: 2},
		{ID: "door", Name: "Wooden Door", Health: 180, SizeX: 1, SizeZ: 1},
		{ID: "campfire", Name: "Campfire", Health: 50, SizeX: 1, SizeZ: 1},
	} {
		if err := c.RegisterBuilding(b); err != nil {
			panic(fmt.Sprintf("content: built-in building %s: %v", b.ID, err))
		}
	}
	return c
}
