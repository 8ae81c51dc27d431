package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	pq "github.com/lib/pq"

	"github.com/guttosm/avpulse/internal/domain/models"
	"github.com/guttosm/avpulse/internal/timeseries"
)

// SeriesRepository persists raw intraday bars and reads them back in the
// provider's key order. Aggregates are never stored.
type SeriesRepository interface {
	SaveSnapshot(ctx context.Context, symbol string, intervalMinutes int, s *timeseries.Series) (int64, error)
	LoadLatest(ctx context.Context, symbol string, intervalMinutes int) (*timeseries.Series, *models.Snapshot, error)
	ListSnapshots(ctx context.Context, symbol string, limit int) ([]models.Snapshot, error)
	PruneSnapshots(ctx context.Context, symbol string, intervalMinutes int, keep int) (int64, error)
	Ping(ctx context.Context) error
}

type seriesRepository struct {
	db *sql.DB
}

func NewSeriesRepository(db *sql.DB) SeriesRepository {
	return &seriesRepository{db: db}
}

// SaveSnapshot writes the series metadata and all of its bars in a single
// transaction. Bars are bulk loaded with COPY and numbered by their position
// in s.Timestamps(). Invalid fields are stored as NULL.
//
// Returns the new snapshot id.
func (r *seriesRepository) SaveSnapshot(ctx context.Context, symbol string, intervalMinutes int, s *timeseries.Series) (int64, error) {
	if s == nil {
		return 0, errors.New("nil series")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}

	// Small optimization for bulk load
	if _, err := tx.ExecContext(ctx, `SET LOCAL synchronous_commit = OFF`); err != nil {
		_ = tx.Rollback()
		return 0, err
	}

	m := s.Meta()
	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO series_snapshots (symbol, interval_minutes, last_refreshed, information, output_size, time_zone)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, symbol, intervalMinutes, m.LastRefreshed, m.Information, m.OutputSize, m.TimeZone).Scan(&id)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(
		"series_bars",
		"snapshot_id",
		"position",
		"ts",
		"open",
		"high",
		"low",
		"close",
		"volume",
	))
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}

	for i, rec := range s.Records() {
		if _, err := stmt.ExecContext(ctx,
			id,
			i,
			rec.Timestamp,
			rec.Open,
			rec.High,
			rec.Low,
			rec.Close,
			rec.Volume,
		); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return 0, fmt.Errorf("copy bar %s: %w", rec.Timestamp, err)
		}
	}

	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		_ = tx.Rollback()
		return 0, err
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// LoadLatest rebuilds the most recently fetched series for symbol/interval.
//
// Returns (nil, nil, nil) when nothing was ever stored for that pair.
func (r *seriesRepository) LoadLatest(ctx context.Context, symbol string, intervalMinutes int) (*timeseries.Series, *models.Snapshot, error) {
	snap := models.Snapshot{Symbol: symbol, IntervalMinutes: intervalMinutes}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, last_refreshed, information, output_size, time_zone, fetched_at
		FROM series_snapshots
		WHERE symbol = $1 AND interval_minutes = $2
		ORDER BY fetched_at DESC, id DESC
		LIMIT 1
	`, symbol, intervalMinutes).Scan(&snap.ID, &snap.LastRefreshed, &snap.Information, &snap.OutputSize, &snap.TimeZone, &snap.FetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("select snapshot: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT ts, open, high, low, close, volume
		FROM series_bars
		WHERE snapshot_id = $1
		ORDER BY position
	`, snap.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("select bars: %w", err)
	}
	defer rows.Close()

	var records []timeseries.Record
	for rows.Next() {
		var rec timeseries.Record
		if err := rows.Scan(&rec.Timestamp, &rec.Open, &rec.High, &rec.Low, &rec.Close, &rec.Volume); err != nil {
			return nil, nil, fmt.Errorf("scan bar: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	snap.Bars = len(records)
	meta := timeseries.Meta{
		Information:   snap.Information,
		Symbol:        symbol,
		LastRefreshed: snap.LastRefreshed,
		Interval:      fmt.Sprintf("%dmin", intervalMinutes),
		OutputSize:    snap.OutputSize,
		TimeZone:      snap.TimeZone,
	}
	return timeseries.NewSeries(meta, records), &snap, nil
}

// ListSnapshots returns the newest snapshots of symbol, at most limit of them.
func (r *seriesRepository) ListSnapshots(ctx context.Context, symbol string, limit int) ([]models.Snapshot, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.symbol, s.interval_minutes, s.last_refreshed, s.fetched_at,
		       (SELECT COUNT(*) FROM series_bars b WHERE b.snapshot_id = s.id) AS bars
		FROM series_snapshots s
		WHERE s.symbol = $1
		ORDER BY s.fetched_at DESC, s.id DESC
		LIMIT $2
	`, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Snapshot
	for rows.Next() {
		var s models.Snapshot
		if err := rows.Scan(&s.ID, &s.Symbol, &s.IntervalMinutes, &s.LastRefreshed, &s.FetchedAt, &s.Bars); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// PruneSnapshots deletes all but the newest keep snapshots of symbol/interval.
// Bars go with their snapshot (ON DELETE CASCADE).
func (r *seriesRepository) PruneSnapshots(ctx context.Context, symbol string, intervalMinutes int, keep int) (int64, error) {
	if keep < 1 {
		keep = 1
	}
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM series_snapshots
		WHERE symbol = $1 AND interval_minutes = $2
		  AND id NOT IN (
			SELECT id FROM series_snapshots
			WHERE symbol = $1 AND interval_minutes = $2
			ORDER BY fetched_at DESC, id DESC
			LIMIT $3
		  )
	`, symbol, intervalMinutes, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Ping checks database connectivity.
func (r *seriesRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
