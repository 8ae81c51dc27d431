package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full application configuration loaded from environment variables or .env file.
//
// It is composed of smaller structs that represent different concerns of the system:
// the HTTP server, the quote provider and the optional PostgreSQL snapshot store.
//
// Example ENV equivalent:
//
//	SERVER_PORT=8080
//	ALPHAVANTAGE_API_KEY=demo
//	ALPHAVANTAGE_EXTENDED_HOURS=true
//	STORE_ENABLED=true
//	POSTGRES_HOST=localhost
//	POSTGRES_DB=avpulse
type Config struct {
	Server       ServerConfig       // HTTP server configuration
	AlphaVantage AlphaVantageConfig // Quote provider settings
	Store        StoreConfig        // Snapshot persistence toggle
	Postgres     PostgresConfig     // PostgreSQL connection settings
}

// ServerConfig holds HTTP server settings.
//
// Every API call may cost provider quota, so requests are rate limited per
// client IP (RateLimit per RateWindow) and bounded by RequestTimeout.
type ServerConfig struct {
	Port           string // The TCP port the HTTP server will listen on (e.g., "8080")
	RateLimit      int
	RateWindow     time.Duration
	RequestTimeout time.Duration
}

// AlphaVantageConfig defines how the intraday quote provider is reached.
//
// Fields:
//   - BaseURL: provider root, the client appends "/query".
//   - APIKey: key sent as the apikey query parameter. Wins over APIKeyFile.
//   - APIKeyFile: optional file holding the key (trimmed on read).
//   - Timeout: per-request HTTP timeout.
//   - ExtendedHours: include pre/post market bars.
//   - OutputSize: "full" or "compact".
type AlphaVantageConfig struct {
	BaseURL       string
	APIKey        string
	APIKeyFile    string
	Timeout       time.Duration
	ExtendedHours bool
	OutputSize    string
}

// StoreConfig toggles persistence of fetched raw bars.
//
// Fields:
//   - Enabled: open PostgreSQL and expose the store.
//   - AutoMigrate: apply goose migrations from MigrationsDir at startup.
//   - MigrationsDir: directory holding the SQL migrations.
//   - Keep: snapshots kept per symbol/interval by the snapshot job (0 keeps all).
type StoreConfig struct {
	Enabled       bool
	AutoMigrate   bool
	MigrationsDir string
	Keep          int
}

// PostgresConfig defines connection details for PostgreSQL.
//
// Fields:
//   - Host: hostname of the database server.
//   - Port: port number of the database server (default 5432).
//   - User: username for authentication.
//   - Password: password for authentication.
//   - DBName: target database name.
//   - SSLMode: SSL mode (e.g., "disable", "require").
//   - URL: computed DSN used by database/sql to connect.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	URL      string
}

// AppConfig is the globally accessible configuration instance.
//
// It is populated once via LoadConfig() and used throughout the application.
var AppConfig Config

// LoadConfig initializes the global AppConfig by reading from .env file
// or directly from environment variables.
//
// Precedence (from lowest to highest):
//  1. Defaults set in this function.
//  2. Values from .env file (if present).
//  3. Environment variables.
//
// Fatal exit:
//   - If required variables are missing, validateConfig() will terminate the app
//     with a descriptive log message.
func LoadConfig() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_RATE_LIMIT", 60)
	viper.SetDefault("SERVER_RATE_WINDOW", "1m")
	viper.SetDefault("SERVER_REQUEST_TIMEOUT", "30s")

	viper.SetDefault("ALPHAVANTAGE_BASE_URL", "https://www.alphavantage.co")
	viper.SetDefault("ALPHAVANTAGE_API_KEY", "")
	viper.SetDefault("ALPHAVANTAGE_API_KEY_FILE", "")
	viper.SetDefault("ALPHAVANTAGE_TIMEOUT", "30s")
	viper.SetDefault("ALPHAVANTAGE_EXTENDED_HOURS", true)
	viper.SetDefault("ALPHAVANTAGE_OUTPUT_SIZE", "full")

	viper.SetDefault("STORE_ENABLED", false)
	viper.SetDefault("STORE_AUTO_MIGRATE", true)
	viper.SetDefault("STORE_MIGRATIONS_DIR", "db/migrations")
	viper.SetDefault("STORE_KEEP", 0)

	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "postgres")
	viper.SetDefault("POSTGRES_PASSWORD", "postgres")
	viper.SetDefault("POSTGRES_DB", "avpulse")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")

	// Optionally read from .env if present (common in local dev)
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig() // ignore error if no .env

	viper.AutomaticEnv()

	AppConfig = Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			RateLimit:      viper.GetInt("SERVER_RATE_LIMIT"),
			RateWindow:     viper.GetDuration("SERVER_RATE_WINDOW"),
			RequestTimeout: viper.GetDuration("SERVER_REQUEST_TIMEOUT"),
		},
		AlphaVantage: AlphaVantageConfig{
			BaseURL:       viper.GetString("ALPHAVANTAGE_BASE_URL"),
			APIKey:        viper.GetString("ALPHAVANTAGE_API_KEY"),
			APIKeyFile:    viper.GetString("ALPHAVANTAGE_API_KEY_FILE"),
			Timeout:       viper.GetDuration("ALPHAVANTAGE_TIMEOUT"),
			ExtendedHours: viper.GetBool("ALPHAVANTAGE_EXTENDED_HOURS"),
			OutputSize:    viper.GetString("ALPHAVANTAGE_OUTPUT_SIZE"),
		},
		Store: StoreConfig{
			Enabled:       viper.GetBool("STORE_ENABLED"),
			AutoMigrate:   viper.GetBool("STORE_AUTO_MIGRATE"),
			MigrationsDir: viper.GetString("STORE_MIGRATIONS_DIR"),
			Keep:          viper.GetInt("STORE_KEEP"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("POSTGRES_HOST"),
			Port:     viper.GetInt("POSTGRES_PORT"),
			User:     viper.GetString("POSTGRES_USER"),
			Password: viper.GetString("POSTGRES_PASSWORD"),
			DBName:   viper.GetString("POSTGRES_DB"),
			SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
		},
	}

	AppConfig.Postgres.URL = BuildPostgresDSN(AppConfig.Postgres)

	validateConfig()
}

// BuildPostgresDSN renders the database/sql connection string for pg.
func BuildPostgresDSN(pg PostgresConfig) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		pg.User,
		pg.Password,
		pg.Host,
		pg.Port,
		pg.DBName,
		pg.SSLMode,
	)
}

// validateConfig ensures required variables are present and terminates
// the application if they are missing.
//
// Postgres settings are only required when the snapshot store is enabled.
func validateConfig() {
	if missing := missingKeys(AppConfig); len(missing) > 0 {
		log.Fatalf("missing required environment variables: %v\n", missing)
	}
}

func missingKeys(cfg Config) []string {
	var missing []string

	if cfg.Server.Port == "" {
		missing = append(missing, "SERVER_PORT")
	}
	if cfg.AlphaVantage.BaseURL == "" {
		missing = append(missing, "ALPHAVANTAGE_BASE_URL")
	}
	if cfg.AlphaVantage.Timeout <= 0 {
		missing = append(missing, "ALPHAVANTAGE_TIMEOUT")
	}

	if !cfg.Store.Enabled {
		return missing
	}
	if cfg.Postgres.Host == "" {
		missing = append(missing, "POSTGRES_HOST")
	}
	if cfg.Postgres.Port == 0 {
		missing = append(missing, "POSTGRES_PORT")
	}
	if cfg.Postgres.User == "" {
		missing = append(missing, "POSTGRES_USER")
	}
	if cfg.Postgres.Password == "" {
		missing = append(missing, "POSTGRES_PASSWORD")
	}
	if cfg.Postgres.DBName == "" {
		missing = append(missing, "POSTGRES_DB")
	}
	if cfg.Store.AutoMigrate && cfg.Store.MigrationsDir == "" {
		missing = append(missing, "STORE_MIGRATIONS_DIR")
	}
	return missing
}
