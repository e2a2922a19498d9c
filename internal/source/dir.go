package source

import (
	"path/filepath"
	"sort"
	"strings"

	"db-sanity/internal/schema"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

const tableExt = ".json"

// DirSource reads one table per *.json file of a directory.
type DirSource struct {
	fs  afero.Fs
	dir string
}

// NewDirSource fails with ErrDataDirMissing if dir does not exist.
func NewDirSource(fs afero.Fs, dir string) (*DirSource, error) {
	ok, err := afero.DirExists(fs, dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to stat %s", dir)
	}
	if !ok {
		return nil, errors.Wrap(ErrDataDirMissing, dir)
	}
	return &DirSource{fs: fs, dir: dir}, nil
}

func (s *DirSource) Dir() string { return s.dir }

// List returns table names sorted, one per *.json file.
func (s *DirSource) List() ([]string, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read data directory %s", s.dir)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), tableExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), tableExt))
	}
	sort.Strings(names)
	return names, nil
}

func (s *DirSource) Load(name string) (*schema.Table, error) {
	path := filepath.Join(s.dir, name+tableExt)
	f, err := s.fs.Open(path)
	if err != nil {
		return nil, &LoadError{Table: name, Path: path, Err: err}
	}
	defer f.Close()

	t, err := schema.DecodeTable(name, f)
	if err != nil {
		return nil, &LoadError{Table: name, Path: path, Err: err}
	}
	return t, nil
}

// WriteDir stores each table as <dir>/<name>.json, creating dir if needed.
func WriteDir(fs afero.Fs, dir string, tables []*schema.Table) error {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %s", dir)
	}
	for _, t := range tables {
		b, err := marshalIndent(t)
		if err != nil {
			return errors.Wrapf(err, "failed to encode table %s", t.Name)
		}
		path := filepath.Join(dir, t.Name+tableExt)
		if err := afero.WriteFile(fs, path, b, 0o644); err != nil {
			return errors.Wrapf(err, "failed to write %s", path)
		}
	}
	return nil
}
