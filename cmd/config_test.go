package cmd

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(t *testing.T, doc string) *viper.Viper {
	t.Helper()
	v := viper.New()
	setDefaults(v)
	if doc != "" {
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(strings.NewReader(doc)))
	}
	return v
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(newViper(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "_id", cfg.Settings.IdentitySuffix)
	assert.Equal(t, 5, cfg.Settings.SampleLimit)
	assert.True(t, cfg.Settings.RestoreOnOff)
	assert.False(t, cfg.Settings.ReportSkipped)
	assert.Equal(t, "data", cfg.Layout.DataDir)
	assert.Equal(t, "relationships.yaml", cfg.Layout.Relationships)
	assert.Equal(t, "enums.yaml", cfg.Layout.Enums)
	assert.Equal(t, "sanity_report.json", cfg.Report.Output)
	assert.Equal(t, 8000, cfg.Server.Port)
}

func TestLoadConfig_File(t *testing.T) {
	v := newViper(t, `
settings:
  identity_suffix: _key
  sample_limit: 3
  workers: 4
  restore_on_off: false
  report_skipped: true
layout:
  data_dir: tables
server:
  port: 9090
`)
	cfg, err := LoadConfig(v)
	require.NoError(t, err)

	assert.Equal(t, "_key", cfg.Settings.IdentitySuffix)
	assert.Equal(t, 3, cfg.checkOptions().SampleLimit)
	assert.Equal(t, 4, cfg.Settings.Workers)
	assert.False(t, cfg.Settings.RestoreOnOff)
	assert.True(t, cfg.Settings.ReportSkipped)
	assert.Equal(t, "tables", cfg.Layout.DataDir)
	assert.Equal(t, "enums.yaml", cfg.Layout.Enums, "unset keys keep defaults")
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, err := LoadConfig(newViper(t, "settings:\n  sample_limit: 0\n"))
	assert.Error(t, err)

	_, err = LoadConfig(newViper(t, "settings:\n  workers: -1\n"))
	assert.Error(t, err)
}

func TestGetActiveDBConfig(t *testing.T) {
	v := newViper(t, `
databases:
  - name: local
    driver: mysql
    dsn: root:root@tcp(127.0.0.1:3306)/smart_home
  - name: staging
    driver: postgres
    dsn: postgres://u:p@staging/db?sslmode=disable
    schema: audit
    active: true
`)
	active, err := GetActiveDBConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "staging", active.Name)
	assert.Equal(t, "audit", active.Schema)

	_, err = GetActiveDBConfig(newViper(t, "databases:\n  - {name: a, active: false}\n"))
	assert.ErrorContains(t, err, "no active database")

	_, err = GetActiveDBConfig(newViper(t, "databases:\n  - {name: a, active: true}\n  - {name: b, active: true}\n"))
	assert.ErrorContains(t, err, "multiple active")
}

func TestResolveDBConfig_FallsBackToDSN(t *testing.T) {
	v := newViper(t, "database:\n  dsn: postgres://u:p@localhost/db?sslmode=disable\n")
	cfg, err := LoadConfig(v)
	require.NoError(t, err)

	dbc, err := resolveDBConfig(v, cfg)
	require.NoError(t, err)
	assert.Equal(t, "postgres", dbc.Driver)

	v = newViper(t, "")
	cfg, err = LoadConfig(v)
	require.NoError(t, err)
	_, err = resolveDBConfig(v, cfg)
	assert.ErrorContains(t, err, "database.dsn is required")
}

func TestDetectDriver(t *testing.T) {
	assert.Equal(t, "oracle", detectDriver("oracle", "whatever"))
	assert.Equal(t, "postgres", detectDriver("", "host=db sslmode=disable"))
	assert.Equal(t, "sqlserver", detectDriver("", "sqlserver://sa:pw@localhost:1433?database=x"))
	assert.Equal(t, "oracle", detectDriver("", "oracle://u:p@localhost:1521/XE"))
	assert.Equal(t, "mysql", detectDriver("", "root:root@tcp(127.0.0.1:3306)/sakila"))
}
