package source_test

import (
	"path/filepath"
	"testing"

	"db-sanity/internal/schema"
	"db-sanity/internal/source"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}

func TestNewDirSource_Missing(t *testing.T) {
	_, err := source.NewDirSource(afero.NewMemMapFs(), "smart_home/data")
	require.Error(t, err)
	assert.True(t, errors.Is(err, source.ErrDataDirMissing))
}

func TestDirSource_ListAndLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	dir := filepath.Join("smart_home", "data")
	writeFile(t, fs, filepath.Join(dir, "users.json"), `{"1": {"user_id": "1"}, "2": {"user_id": "2"}}`)
	writeFile(t, fs, filepath.Join(dir, "homes.json"), `{"1": {"home_id": "1", "owner_id": "1"}}`)
	writeFile(t, fs, filepath.Join(dir, "broken.json"), `{"1": `)
	writeFile(t, fs, filepath.Join(dir, "notes.txt"), `ignored`)
	require.NoError(t, fs.MkdirAll(filepath.Join(dir, "archive.json"), 0o755))

	src, err := source.NewDirSource(fs, dir)
	require.NoError(t, err)

	names, err := src.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"broken", "homes", "users"}, names)

	users, err := src.Load("users")
	require.NoError(t, err)
	assert.Equal(t, "users", users.Name)
	assert.Equal(t, []string{"1", "2"}, users.Keys())

	_, err = src.Load("broken")
	require.Error(t, err)
	var loadErr *source.LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "broken", loadErr.Table)
	assert.Contains(t, loadErr.Error(), "broken.json")
}

func TestWriteDir_RoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	tbl := schema.NewTable("devices")
	for _, key := range []string{"d9", "d1"} {
		rec := schema.NewRecord()
		rec.Set("device_id", schema.NewString(key))
		rec.Set("status", schema.NewString("on"))
		rec.Set("watts", schema.NewInt(40))
		tbl.Append(key, rec)
	}

	require.NoError(t, source.WriteDir(fs, "out/data", []*schema.Table{tbl}))

	src, err := source.NewDirSource(fs, "out/data")
	require.NoError(t, err)
	back, err := src.Load("devices")
	require.NoError(t, err)
	assert.Equal(t, []string{"d9", "d1"}, back.Keys())
	assert.Equal(t, []string{"device_id", "status", "watts"}, back.Columns)
	assert.Equal(t, "40", back.Column("watts")[1].String())
}
