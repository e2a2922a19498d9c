package cmd

import (
	"database/sql"
	"fmt"
	"strings"

	"db-sanity/internal/dialect"

	"github.com/spf13/viper"
)

// Connection is an open database with the driver and schema to read.
type Connection struct {
	DB     *sql.DB
	Driver string
	Schema string
	Name   string
}

// resolveDBConfig picks the active databases[] entry, falling back to the
// database.* keys. An explicit --dsn always wins.
func resolveDBConfig(v *viper.Viper, cfg *AppConfig) (*DBConfig, error) {
	if active, err := GetActiveDBConfig(v); err == nil && dsn == "" {
		return active, nil
	}

	connStr := cfg.Database.DSN
	if connStr == "" {
		return nil, fmt.Errorf("database.dsn is required (via flag, env or config)")
	}
	return &DBConfig{
		Name:   "CLI",
		Driver: detectDriver(cfg.Database.Driver, connStr),
		DSN:    connStr,
		Schema: cfg.Database.Schema,
		Active: true,
	}, nil
}

// detectDriver honours an explicit driver, otherwise guesses from the DSN.
func detectDriver(explicit, connStr string) string {
	if explicit != "" {
		return explicit
	}
	lower := strings.ToLower(connStr)
	switch {
	case strings.HasPrefix(lower, "postgres") || strings.Contains(lower, "sslmode"):
		return "postgres"
	case strings.HasPrefix(lower, "sqlserver://"):
		return "sqlserver"
	case strings.HasPrefix(lower, "oracle://"):
		return "oracle"
	default:
		return "mysql"
	}
}

func openDatabase(v *viper.Viper, cfg *AppConfig) (*Connection, error) {
	dbc, err := resolveDBConfig(v, cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dbc.Driver, dbc.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}

	schemaName := dbc.Schema
	if schemaName == "" && dbc.Driver == "mysql" {
		// Fetch current database name
		if err := db.QueryRow("SELECT DATABASE()").Scan(&schemaName); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to get database name: %w", err)
		}
		if schemaName == "" {
			db.Close()
			return nil, fmt.Errorf("no database selected in DSN")
		}
	}

	fmt.Printf("🔎 Connected to %s (%s)\n", dbc.Name, dbc.Driver)
	return &Connection{DB: db, Driver: dbc.Driver, Schema: schemaName, Name: dbc.Name}, nil
}

func dialectFor(conn *Connection) dialect.Dialect {
	return dialect.GetDialect(conn.Driver)
}
