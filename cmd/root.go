package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"db-sanity/internal/logging"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "DB_SANITY"

var (
	cfgFile string
	dsn     string

	// appFs is the filesystem every command reads and writes through.
	appFs = afero.NewOsFs()
)

var RootCmd = &cobra.Command{
	Use:   "db-sanity",
	Short: "A data sanity checker for table snapshots",
	Long: `
  ____  ____    ____    _    _   _ ___ _______   __
 |  _ \| __ )  / ___|  / \  | \ | |_ _|_   _\ \ / /
 | | | |  _ \  \___ \ / _ \ |  \| || |  | |  \ V / 
 | |_| | |_) |  ___) / ___ \| |\  || |  | |   | |  
 |____/|____/  |____/_/   \_\_| \_|___| |_|   |_|  

DB SANITY 🔎 - Snapshot Auditor for Keys, Enums & Relationships
`,
	SilenceUsage: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Define flags
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./db-sanity.yaml)")
	RootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "Database Source Name (DSN) for --from-db and snapshot")
	RootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	RootCmd.PersistentFlags().String("log-format", "", "log format (console, json); default depends on the terminal")

	// Bind persistent flags to viper
	viper.BindPFlag("database.dsn", RootCmd.PersistentFlags().Lookup("dsn"))
	viper.BindPFlag("log.level", RootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.format", RootCmd.PersistentFlags().Lookup("log-format"))

	setDefaults(viper.GetViper())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// 1. Executable Directory (Priority 1)
		ex, err := os.Executable()
		if err == nil {
			viper.AddConfigPath(filepath.Dir(ex))
		}

		// 2. Current Directory (Priority 2)
		viper.AddConfigPath(".")

		viper.SetConfigName("db-sanity")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // DB_SANITY_DATABASE_DSN, DB_SANITY_SETTINGS_WORKERS, ...

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func newLogger(cfg *AppConfig) (zerolog.Logger, error) {
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return log, fmt.Errorf("failed to set up logging: %w", err)
	}
	return log, nil
}

// bindFlags binds command-local flags to config keys. It runs in PreRunE
// so that commands sharing a flag name each bind their own.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for flag, key := range keys {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", flag, err)
		}
	}
	return nil
}
