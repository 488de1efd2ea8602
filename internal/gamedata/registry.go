package gamedata

import (
	"io/fs"
	"os"
	"path/filepath"
)

// LevelRegistry holds the loaded level table and provides lookup utilities.
type LevelRegistry struct {
	levels []LevelDef
}

// NewLevelRegistry creates a registry from already validated level definitions.
func NewLevelRegistry(levels []LevelDef) *LevelRegistry {
	return &LevelRegistry{levels: levels}
}

// LoadLevelRegistry loads and creates a registry from the embedded levels.json.
func LoadLevelRegistry() (*LevelRegistry, error) {
	levels, err := LoadLevels()
	if err != nil {
		return nil, err
	}
	return NewLevelRegistry(levels), nil
}

// LoadLevelRegistryFS loads, validates and creates a registry from a level
// table in fsys.
func LoadLevelRegistryFS(fsys fs.FS, filename string) (*LevelRegistry, error) {
	file, err := LoadFS[LevelsFile](fsys, filename)
	if err != nil {
		return nil, err
	}
	if err := file.Validate(); err != nil {
		return nil, err
	}
	return NewLevelRegistry(file.Levels), nil
}

// OpenLevelRegistry loads the level table at path, or the embedded table
// when path is empty.
func OpenLevelRegistry(path string) (*LevelRegistry, error) {
	if path == "" {
		return LoadLevelRegistry()
	}
	return LoadLevelRegistryFS(os.DirFS(filepath.Dir(path)), filepath.Base(path))
}

// All returns all level definitions in sequence order.
func (r *LevelRegistry) All() []LevelDef {
	return r.levels
}

// Count returns the number of levels in the registry.
func (r *LevelRegistry) Count() int {
	return len(r.levels)
}
