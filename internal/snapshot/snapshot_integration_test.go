//go:build integration
// +build integration

package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	_ "github.com/lib/pq"
	goose "github.com/pressly/goose/v3"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/guttosm/avpulse/internal/quote"
	"github.com/guttosm/avpulse/internal/storage"
)

// startPostgres spins up a Postgres container and returns a DSN and terminate func.
func startPostgres(t *testing.T) (dsn string, terminate func()) {
	t.Helper()
	ctx := context.Background()

	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "avpulse",
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
		},
		WaitingFor: wait.ForSQL("5432/tcp", "postgres", func(host string, port nat.Port) string {
			return fmt.Sprintf("host=%s port=%s user=postgres password=postgres dbname=avpulse sslmode=disable", host, port.Port())
		}).WithStartupTimeout(60 * time.Second),
	}

	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Fatalf("container start: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}

	dsn = fmt.Sprintf("postgres://postgres:postgres@%s:%s/avpulse?sslmode=disable", host, port.Port())
	terminate = func() { _ = container.Terminate(context.Background()) }
	return dsn, terminate
}

// provider serves a two-bar payload for whatever interval is asked.
func provider() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		iv := r.URL.Query().Get("interval")
		fmt.Fprintf(w, `{
			"Meta Data": {"2. Symbol": %q, "3. Last Refreshed": "2024-01-03 09:00:00", "4. Interval": %q},
			"Time Series (%s)": {
				"2024-01-03 09:00:00": {"1. open": "9", "2. high": "9", "3. low": "9", "4. close": "9", "5. volume": "200"},
				"2024-01-02 10:00:00": {"1. open": "11", "2. high": "11", "3. low": "11", "4. close": "11", "5. volume": "50"}
			}
		}`, r.URL.Query().Get("symbol"), iv, iv)
	}))
}

func TestRun_Integration(t *testing.T) {
	dsn, terminate := startPostgres(t)
	defer terminate()

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	if err := goose.SetDialect("postgres"); err != nil {
		t.Fatalf("dialect: %v", err)
	}
	if err := goose.Up(db, filepath.Join("..", "..", "db", "migrations")); err != nil {
		t.Fatalf("migrate up: %v", err)
	}

	srv := provider()
	defer srv.Close()
	client := quote.NewClient(quote.Options{BaseURL: srv.URL, APIKey: "test"})

	res, err := Run(context.Background(), client, db, Options{Symbol: "IBM", Intervals: []int{5, 60}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res) != 2 || res[0].Records != 2 || res[1].Records != 2 {
		t.Fatalf("unexpected results %+v", res)
	}

	repo := storage.NewSeriesRepository(db)
	for _, iv := range []int{5, 60} {
		s, snap, err := repo.LoadLatest(context.Background(), "IBM", iv)
		if err != nil || s == nil {
			t.Fatalf("load %d: %v", iv, err)
		}
		if snap.Bars != 2 || s.Timestamps()[0] != "2024-01-03 09:00:00" {
			t.Fatalf("interval %d: unexpected snapshot %+v order %v", iv, snap, s.Timestamps())
		}
	}
}
