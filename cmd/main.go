package main

//
//  @title           avpulse API
//  @version         1.0
//  @description     Intraday aggregation and ranking over Alpha Vantage time series.
//  @termsOfService  https://github.com/guttosm/avpulse
//  @contact.name    API Support
//  @contact.url     https://github.com/guttosm/avpulse
//  @contact.email   support@example.com
//  @license.name    MIT
//  @license.url     https://opensource.org/licenses/MIT
//  @host            localhost:8080
//  @BasePath        /
//  @schemes         http
//
//  @tag.name        intraday
//  @tag.description Summary and analysis of intraday series
//
//  @tag.name        store
//  @tag.description Persisted snapshots
//
//  @tag.name        health
//  @tag.description Liveness and readiness probes

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/guttosm/avpulse/config"
	_ "github.com/guttosm/avpulse/docs" // swagger docs
	"github.com/guttosm/avpulse/internal/app"
	"github.com/guttosm/avpulse/internal/logger"
	"github.com/guttosm/avpulse/internal/quote"
	"github.com/guttosm/avpulse/internal/snapshot"
)

// startServer initializes and starts the HTTP server in a separate goroutine.
//
// Parameters:
//   - router (http.Handler): The HTTP router (Gin Engine) configured with all routes.
//   - port (string): The port where the server will listen for incoming requests.
//
// Returns:
//   - *http.Server: The initialized HTTP server instance.
func startServer(router http.Handler, port string) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.L().Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal().Err(err).Msg("server failed to start")
		}
	}()

	return server
}

// gracefulShutdown gracefully terminates the HTTP server and cleans up resources
// when an OS interrupt signal (SIGINT, SIGTERM) is received.
//
// Parameters:
//   - ctx (context.Context): A context with timeout for graceful shutdown.
//   - server (*http.Server): The HTTP server instance to shut down.
//   - cleanup (func()): Cleanup callback to release resources (e.g., DB connections).
func gracefulShutdown(ctx context.Context, server *http.Server, cleanup func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	logger.L().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Fatal().Err(err).Msg("server forced to shutdown")
	}

	cleanup()
	logger.L().Info().Msg("server exited gracefully")
}

// snapshotIntervals picks the intervals of a snapshot run: the --intervals
// list, else the single --interval, else every supported bar size.
func snapshotIntervals(list, single string) ([]int, error) {
	switch {
	case strings.TrimSpace(list) != "":
		return snapshot.ParseIntervals(list)
	case strings.TrimSpace(single) != "":
		iv, err := quote.ParseInterval(single)
		if err != nil {
			return nil, err
		}
		return []int{iv}, nil
	default:
		return append([]int(nil), quote.Intervals...), nil
	}
}

// main is the entry point of the avpulse application.
//
// Modes (selected via --mode flag):
//   - report:   Prompts for symbol and interval (unless given) and prints the summary and analysis.
//   - api:      Starts the REST API.
//   - snapshot: Fetches one symbol at several intervals and stores the raw bars.
//
// Flags:
//   - --mode: Execution mode ("report", "api" or "snapshot"). Default: "report".
//   - --symbol, --interval: skip the prompts in report mode; select the series in snapshot mode.
//   - --intervals: comma separated intervals for snapshot mode (default: all).
//   - --source: "provider" (default) or "store" for report mode.
//   - --csv: file receiving date,latest_close rows in report mode.
//   - --port: Port for the API server. Defaults to value from config (SERVER_PORT).
func main() {
	ctx := context.Background()

	// Load configuration from environment or .env file
	config.LoadConfig()

	// Initialize JSON logger
	logger.Init()

	mode := flag.String("mode", "report", "Mode: report, api or snapshot")
	symbol := flag.String("symbol", "", "Ticker symbol (prompted in report mode when empty)")
	interval := flag.String("interval", "", "Bar size in minutes: 1, 5, 15, 30 or 60 (prompted in report mode when empty)")
	intervals := flag.String("intervals", "", "Comma separated bar sizes for snapshot mode (default: all)")
	source := flag.String("source", "", "Where report mode reads the series: provider or store")
	csvPath := flag.String("csv", "", "Write date,latest_close rows to this file (report mode)")
	parallel := flag.Int("parallel", 0, "Concurrent provider calls in snapshot mode (0=auto, max 5)")
	keep := flag.Int("keep", config.AppConfig.Store.Keep, "Snapshots kept per symbol/interval after a snapshot run (0 keeps all)")
	port := flag.String("port", config.AppConfig.Server.Port, "Port for API mode")
	flag.Parse()

	switch *mode {
	case "report":
		// stdout belongs to the report
		logger.SetOutput(os.Stderr)

		opts := reportOptions{Symbol: *symbol, Source: *source, CSVPath: *csvPath}
		if *interval != "" {
			iv, err := quote.ParseInterval(*interval)
			if err != nil {
				logger.L().Fatal().Err(err).Str("interval", *interval).Msg("invalid interval")
			}
			opts.Interval = iv
		}

		comps, cleanup, err := app.Build(config.AppConfig)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}

		runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		err = runReport(runCtx, comps.Service, os.Stdin, os.Stdout, opts)
		stop()
		cleanup()
		if err != nil {
			fmt.Fprintln(os.Stderr, describeError(err))
			os.Exit(1)
		}

	case "snapshot":
		logger.L().Info().Msg("running snapshot")
		if !config.AppConfig.Store.Enabled {
			logger.L().Fatal().Msg("snapshot mode requires STORE_ENABLED=true")
		}
		if strings.TrimSpace(*symbol) == "" {
			logger.L().Fatal().Msg("snapshot mode requires --symbol")
		}
		ivs, err := snapshotIntervals(*intervals, *interval)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("invalid intervals")
		}

		comps, cleanup, err := app.Build(config.AppConfig)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}
		defer cleanup()

		results, err := snapshot.Run(ctx, comps.Fetcher, comps.DB, snapshot.Options{
			Symbol:    *symbol,
			Intervals: ivs,
			Parallel:  *parallel,
			Keep:      *keep,
		})
		if err != nil {
			cleanup()
			logger.L().Fatal().Err(err).Msg("snapshot failed")
		}
		printSnapshotResults(os.Stdout, strings.ToUpper(*symbol), results)
		logger.L().Info().Msg("snapshot completed successfully")

	case "api":
		// API mode: start the HTTP server
		logger.L().Info().Msg("starting API server")

		router, cleanup, err := app.InitializeApp()
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}

		server := startServer(router, *port)
		gracefulShutdown(ctx, server, cleanup)

	default:
		logger.L().Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}
