package source

import (
	"fmt"

	"db-sanity/internal/schema"

	"github.com/pkg/errors"
)

// ErrDataDirMissing is returned when the table directory does not exist.
var ErrDataDirMissing = errors.New("data directory not found")

// Source yields the tables of one audit run.
// List must be deterministic; Load must be safe for concurrent use.
type Source interface {
	List() ([]string, error)
	Load(name string) (*schema.Table, error)
}

// LoadError reports a table that could not be read. The table is skipped
// and the run continues.
type LoadError struct {
	Table string
	Path  string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load table %s (%s): %v", e.Table, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
