package content

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlWeaponFile is the top-level YAML structure for weapon files.
type yamlWeaponFile struct {
	Weapons []Weapon `yaml:"weapons"`
}

// yamlBuildingFile is the top-level YAML structure for building files.
type yamlBuildingFile struct {
	Buildings []Building `yaml:"buildings"`
}

// LoadWeapons loads all weapon definitions from YAML files in dir.
//
// Precondition: dir must be a valid directory path.
// Postcondition: Returns all parsed weapons or the first error encountered.
func LoadWeapons(dir string) ([]Weapon, error) {
	var weapons []Weapon
	err := eachYAMLFile(dir, func(path string, data []byte) error {
		var file yamlWeaponFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return fmt.Errorf("parsing weapon file %s: %w", path, err)
		}
		weapons = append(weapons, file.Weapons...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return weapons, nil
}

// LoadBuildings loads all building-type definitions from YAML files in dir.
//
// Precondition: dir must be a valid directory path.
// Postcondition: Returns all parsed building types or the first error encountered.
func LoadBuildings(dir string) ([]Building, error) {
	var buildings []Building
	err := eachYAMLFile(dir, func(path string, data []byte) error {
		var file yamlBuildingFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return fmt.Errorf("parsing building file %s: %w", path, err)
		}
		buildings = append(buildings, file.Buildings...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return buildings, nil
}

func eachYAMLFile(dir string, fn func(path string, data []byte) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading content directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading content file %s: %w", path, err)
		}
		if err := fn(path, data); err != nil {
			return err
		}
	}
	return nil
}
