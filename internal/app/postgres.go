package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver for database/sql
	goose "github.com/pressly/goose/v3"

	"github.com/guttosm/avpulse/config"
	"github.com/guttosm/avpulse/internal/logger"
)

// sqlOpener is an indirection for unit testing; defaults to sql.Open
var sqlOpener = sql.Open

// InitPostgres initializes a PostgreSQL connection using the provided configuration.
//
// Behavior:
//   - Builds the DSN with config.BuildPostgresDSN.
//   - Opens a database handle with sql.Open.
//   - Pings the database (5s budget) to validate connectivity.
//
// Returns:
//   - *sql.DB: an open database connection pool (safe for concurrent use).
//   - error: if opening or pinging the database fails.
func InitPostgres(cfg config.Config) (*sql.DB, error) {
	db, err := sqlOpener("postgres", config.BuildPostgresDSN(cfg.Postgres))
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return db, nil
}

// migrateUp is an indirection for unit testing; defaults to goose.
var migrateUp = func(db *sql.DB, dir string) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db, dir)
}

// Migrate applies the SQL migrations in dir.
func Migrate(db *sql.DB, dir string) error {
	start := time.Now()
	if err := migrateUp(db, dir); err != nil {
		return fmt.Errorf("migrate %s: %w", dir, err)
	}
	logger.L().Info().Str("dir", dir).Dur("elapsed", time.Since(start)).Msg("migrations applied")
	return nil
}

// postgresOpener is an indirection used by Build; overridden in tests to avoid real connections.
var postgresOpener = InitPostgres
