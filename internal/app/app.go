package app

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/avpulse/config"
	"github.com/guttosm/avpulse/internal/api"
	"github.com/guttosm/avpulse/internal/quote"
	"github.com/guttosm/avpulse/internal/service"
	"github.com/guttosm/avpulse/internal/storage"
)

// Components are the wired dependencies shared by every run mode
// (HTTP API, console report, snapshot job).
type Components struct {
	Fetcher quote.Fetcher
	Repo    storage.SeriesRepository // nil when the store is disabled
	Service service.AnalysisService
	DB      *sql.DB // nil when the store is disabled
}

// fetcherCtor is an indirection for unit testing; builds the provider client.
var fetcherCtor = func(cfg config.AlphaVantageConfig) (quote.Fetcher, error) {
	key, err := quote.ResolveAPIKey(cfg.APIKey, cfg.APIKeyFile)
	if err != nil {
		return nil, err
	}
	return quote.NewClient(quote.Options{
		BaseURL:       cfg.BaseURL,
		APIKey:        key,
		Timeout:       cfg.Timeout,
		ExtendedHours: cfg.ExtendedHours,
		OutputSize:    cfg.OutputSize,
	}), nil
}

// Build wires the quote client, the optional snapshot store and the
// analysis service from cfg.
//
// Behavior:
//   - Always builds the provider client (API key from env or key file).
//   - When cfg.Store.Enabled, connects to PostgreSQL and, if AutoMigrate is
//     set, applies the migrations before returning.
//
// Returns:
//   - *Components: the wired dependencies.
//   - func(): cleanup closing the database, safe to call when the store is off.
//   - error: any initialization error.
func Build(cfg config.Config) (*Components, func(), error) {
	fetcher, err := fetcherCtor(cfg.AlphaVantage)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize quote client: %w", err)
	}

	comps := &Components{Fetcher: fetcher}
	cleanup := func() {}

	if cfg.Store.Enabled {
		db, err := postgresOpener(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize postgres: %w", err)
		}
		if cfg.Store.AutoMigrate {
			if err := Migrate(db, cfg.Store.MigrationsDir); err != nil {
				_ = db.Close()
				return nil, nil, err
			}
		}
		comps.DB = db
		comps.Repo = storage.NewSeriesRepository(db)
		cleanup = func() { _ = db.Close() }
	}

	comps.Service = service.NewAnalysisService(fetcher, comps.Repo, time.Now)
	return comps, cleanup, nil
}

// InitializeApp sets up all application dependencies and returns
// a fully configured Gin router, a cleanup function for graceful shutdown,
// and any error encountered during initialization.
//
// Responsibilities:
//   - Builds the components from config.AppConfig.
//   - Creates the HTTP handler layer and the router.
//   - Registers health and readiness probes (readiness pings the store when enabled).
//
// Returns:
//   - *gin.Engine: the configured Gin HTTP router.
//   - func(): cleanup function to be executed on shutdown.
//   - error: any initialization error that occurred.
func InitializeApp() (*gin.Engine, func(), error) {
	comps, cleanup, err := Build(config.AppConfig)
	if err != nil {
		return nil, nil, err
	}

	srv := config.AppConfig.Server
	router := api.NewRouter(api.NewHandler(comps.Service), api.RouterOptions{
		RateLimit:      srv.RateLimit,
		RateWindow:     srv.RateWindow,
		RequestTimeout: srv.RequestTimeout,
	})

	healthHandler := api.NewHealthHandler(nil)
	if comps.Repo != nil {
		healthHandler = api.NewHealthHandler(comps.Repo.Ping)
	}
	healthHandler.Register(router)

	return router, cleanup, nil
}
