package cmd

import (
	"fmt"

	"db-sanity/internal/check"
	"db-sanity/internal/fixture"
	"db-sanity/internal/publish"

	"github.com/spf13/viper"
)

// AppConfig mirrors db-sanity.yaml.
type AppConfig struct {
	Settings Settings       `mapstructure:"settings"`
	Layout   LayoutConfig   `mapstructure:"layout"`
	Report   ReportConfig   `mapstructure:"report"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
}

type Settings struct {
	IdentitySuffix string `mapstructure:"identity_suffix"`
	SampleLimit    int    `mapstructure:"sample_limit"`
	Workers        int    `mapstructure:"workers"`
	RestoreOnOff   bool   `mapstructure:"restore_on_off"`
	ReportSkipped  bool   `mapstructure:"report_skipped"`
	FailOnFindings bool   `mapstructure:"fail_on_findings"`
	RowLimit       int    `mapstructure:"row_limit"`
	DefaultCount   int    `mapstructure:"default_count"`
}

// LayoutConfig names the inputs inside an audit folder.
type LayoutConfig struct {
	DataDir       string `mapstructure:"data_dir"`
	Relationships string `mapstructure:"relationships"`
	Enums         string `mapstructure:"enums"`
}

type ReportConfig struct {
	Output string `mapstructure:"output"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	DSN    string `mapstructure:"dsn"`
	Driver string `mapstructure:"driver"`
	Schema string `mapstructure:"schema"`
}

type DBConfig struct {
	Name   string `mapstructure:"name"`
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	Schema string `mapstructure:"schema"`
	Active bool   `mapstructure:"active"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("settings.identity_suffix", "_id")
	v.SetDefault("settings.sample_limit", check.DefaultSampleLimit)
	v.SetDefault("settings.workers", 0)
	v.SetDefault("settings.restore_on_off", true)
	v.SetDefault("settings.report_skipped", false)
	v.SetDefault("settings.fail_on_findings", false)
	v.SetDefault("settings.row_limit", 0)
	v.SetDefault("settings.default_count", fixture.DefaultCount)
	v.SetDefault("layout.data_dir", "data")
	v.SetDefault("layout.relationships", "relationships.yaml")
	v.SetDefault("layout.enums", "enums.yaml")
	v.SetDefault("report.output", "sanity_report.json")
	v.SetDefault("server.port", publish.DefaultPort)
	v.SetDefault("log.level", "info")
}

// LoadConfig resolves the configuration (Flag > Env > Config > Default).
func LoadConfig(v *viper.Viper) (*AppConfig, error) {
	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Settings.SampleLimit <= 0 {
		return nil, fmt.Errorf("settings.sample_limit must be positive, got %d", cfg.Settings.SampleLimit)
	}
	if cfg.Settings.Workers < 0 {
		return nil, fmt.Errorf("settings.workers must not be negative, got %d", cfg.Settings.Workers)
	}
	return &cfg, nil
}

func (c *AppConfig) checkOptions() check.Options {
	return check.Options{
		IdentitySuffix: c.Settings.IdentitySuffix,
		SampleLimit:    c.Settings.SampleLimit,
	}
}

// GetActiveDBConfig returns the currently active database configuration.
func GetActiveDBConfig(v *viper.Viper) (*DBConfig, error) {
	var configs []DBConfig

	if err := v.UnmarshalKey("databases", &configs); err != nil {
		return nil, fmt.Errorf("failed to parse databases config: %w", err)
	}

	var activeConfig *DBConfig
	count := 0

	for i := range configs {
		if configs[i].Active {
			activeConfig = &configs[i]
			count++
		}
	}

	if count == 0 {
		return nil, fmt.Errorf("no active database found in config (set active: true)")
	}
	if count > 1 {
		return nil, fmt.Errorf("multiple active databases found (only one can be active)")
	}

	return activeConfig, nil
}
