package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterWeapon(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.RegisterWeapon(Weapon{ID: "sword", Name: "Sword"}))
	assert.True(t, c.HasWeapon("sword"))
	assert.False(t, c.HasWeapon("axe"))
}

func TestRegisterWeaponDuplicate(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.RegisterWeapon(Weapon{ID: "sword"}))
	err := c.RegisterWeapon(Weapon{ID: "sword"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate weapon ID")
}

func TestRegisterWeaponEmptyID(t *testing.T) {
	c := NewCatalog()
	assert.Error(t, c.RegisterWeapon(Weapon{}))
}

func TestRegisterBuildingDuplicate(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.RegisterBuilding(Building{ID: "wall"}))
	err := c.RegisterBuilding(Building{ID: "wall"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate building ID")
}

func TestWeaponsSorted(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.RegisterWeapon(Weapon{ID: "sword"}))
	require.NoError(t, c.RegisterWeapon(Weapon{ID: "axe"}))
	require.NoError(t, c.RegisterWeapon(Weapon{ID: "bow"}))

	weapons := c.Weapons()
	require.Len(t, weapons, 3)
	assert.Equal(t, "axe", weapons[0].ID)
	assert.Equal(t, "bow", weapons[1].ID)
	assert.Equal(t, "sword", weapons[2].ID)
}

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	assert.True(t, c.HasWeapon("sword"))
	assert.True(t, c.HasBuilding("wall"))
	assert.NotEmpty(t, c.Weapons())
	assert.NotEmpty(t, c.Buildings())
}

func TestLoadWeapons(t *testing.T) {
	dir := t.TempDir()
	content := `
weapons:
  - id: spear
    name: Spear
    damage: 18
    range: 3.5
  - id: club
    name: Club
    damage: 12
    range: 1.5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "weapons.yaml"), []byte(content), 0o600))

	weapons, err := LoadWeapons(dir)
	require.NoError(t, err)
	require.Len(t, weapons, 2)
	assert.Equal(t, "spear", weapons[0].ID)
	assert.Equal(t, 18, weapons[0].Damage)
	assert.Equal(t, 3.5, weapons[0].Range)
}

func TestLoadBuildings(t *testing.T) {
	dir := t.TempDir()
	content := `
buildings:
  - id: tower
    name: Watchtower
    health: 500
    size_x: 2
    size_z: 2
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "buildings.yml"), []byte(content), 0o600))

	buildings, err := LoadBuildings(dir)
	require.NoError(t, err)
	require.Len(t, buildings, 1)
	assert.Equal(t, "tower", buildings[0].ID)
	assert.Equal(t, 500, buildings[0].Health)
}

func TestLoadWeaponsSkipsNonYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))

	weapons, err := LoadWeapons(dir)
	require.NoError(t, err)
	assert.Empty(t, weapons)
}

func TestLoadWeaponsBadYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("weapons: ["), 0o600))

	_, err := LoadWeapons(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing weapon file")
}

func TestLoadWeaponsMissingDir(t *testing.T) {
	_, err := LoadWeapons(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
