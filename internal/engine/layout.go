package engine

import "path/filepath"

// Default names inside an audit folder.
const (
	DefaultDataDir       = "data"
	DefaultRelationships = "relationships.yaml"
	DefaultEnums         = "enums.yaml"
)

// Layout locates the inputs of one audit folder.
type Layout struct {
	DataDir       string
	Relationships string
	Enums         string
}

// NewLayout resolves the inputs under folder. Empty names take the
// defaults; absolute names are used as given.
func NewLayout(folder, dataDir, relationships, enums string) Layout {
	return Layout{
		DataDir:       resolve(folder, dataDir, DefaultDataDir),
		Relationships: resolve(folder, relationships, DefaultRelationships),
		Enums:         resolve(folder, enums, DefaultEnums),
	}
}

func resolve(folder, name, def string) string {
	if name == "" {
		name = def
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(folder, name)
}
