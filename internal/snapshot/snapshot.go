// Package snapshot fetches one symbol at several bar sizes and persists the
// raw bars, so later analyses can run against a fixed copy of the data.
package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/guttosm/avpulse/internal/logger"
	"github.com/guttosm/avpulse/internal/quote"
	"github.com/guttosm/avpulse/internal/storage"
)

// maxParallel caps concurrent provider calls; the free tier allows 5 per minute.
const maxParallel = 5

// repoCtor is an indirection for creating the repository; tests can override this.
var repoCtor = func(db *sql.DB) storage.SeriesRepository {
	return storage.NewSeriesRepository(db)
}

// Options drive one snapshot run.
//
//   - Symbol: ticker to fetch.
//   - Intervals: bar sizes in minutes; duplicates are ignored.
//   - Parallel: concurrent fetches, clamped to 1..5 (0 means min(5, len(Intervals))).
//   - Keep: when > 0, older snapshots beyond Keep are pruned per interval.
type Options struct {
	Symbol    string
	Intervals []int
	Parallel  int
	Keep      int
}

// Result describes one persisted interval.
type Result struct {
	Interval   int
	SnapshotID int64
	Records    int
	Malformed  int
	Pruned     int64
	Elapsed    time.Duration
}

// ParseIntervals reads a comma separated list such as "5,60" or "1min, 15min".
func ParseIntervals(list string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		n, err := quote.ParseInterval(part)
		if err != nil {
			return nil, fmt.Errorf("interval %q: %w", strings.TrimSpace(part), err)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, quote.ErrInvalidInterval
	}
	return out, nil
}

// Run fetches opts.Symbol for every interval and stores each series.
//
// Behavior:
//   - Validates every interval before any request is made.
//   - Fetches concurrently (errgroup + semaphore); the first error cancels the rest.
//   - Each series is saved as its own snapshot in position order.
//
// Returns:
//   - []Result: one entry per interval, ascending by interval.
//   - error: first error encountered (if any).
func Run(ctx context.Context, fetcher quote.Fetcher, db *sql.DB, opts Options) ([]Result, error) {
	// use indirection to allow tests to swap repository constructor
	repo := repoCtor(db)

	symbol := strings.ToUpper(strings.TrimSpace(opts.Symbol))
	intervals := dedupe(opts.Intervals)
	if len(intervals) == 0 {
		return nil, fmt.Errorf("no intervals requested")
	}
	for _, iv := range intervals {
		if err := (quote.Query{Symbol: symbol, Interval: iv}).Validate(); err != nil {
			return nil, fmt.Errorf("interval %d: %w", iv, err)
		}
	}

	parallel := opts.Parallel
	if parallel <= 0 || parallel > maxParallel {
		parallel = maxParallel
	}
	if parallel > len(intervals) {
		parallel = len(intervals)
	}

	log := logger.Component("snapshot")
	log.Info().Str("symbol", symbol).Ints("intervals", intervals).Int("max_parallel", parallel).Msg("snapshot start")

	// errgroup will cancel siblings on first error.
	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, parallel)

	var mu sync.Mutex
	results := make([]Result, 0, len(intervals))

	for _, iv := range intervals {
		iv := iv
		sem <- struct{}{}

		g.Go(func() error {
			defer func() { <-sem }()
			start := time.Now()

			series, err := fetcher.FetchIntraday(gctx, quote.Query{Symbol: symbol, Interval: iv})
			if err != nil {
				log.Error().Str("symbol", symbol).Int("interval", iv).Err(err).Msg("fetch failed")
				return fmt.Errorf("interval %d: fetch: %w", iv, err)
			}

			id, err := repo.SaveSnapshot(gctx, symbol, iv, series)
			if err != nil {
				log.Error().Str("symbol", symbol).Int("interval", iv).Err(err).Msg("save failed")
				return fmt.Errorf("interval %d: save: %w", iv, err)
			}

			res := Result{
				Interval:   iv,
				SnapshotID: id,
				Records:    series.Len(),
				Malformed:  len(series.Errors()),
			}
			if opts.Keep > 0 {
				n, err := repo.PruneSnapshots(gctx, symbol, iv, opts.Keep)
				if err != nil {
					return fmt.Errorf("interval %d: prune: %w", iv, err)
				}
				res.Pruned = n
			}
			res.Elapsed = time.Since(start)

			log.Info().
				Str("symbol", symbol).
				Int("interval", iv).
				Int64("snapshot_id", id).
				Int("records", res.Records).
				Int("malformed", res.Malformed).
				Int64("pruned", res.Pruned).
				Dur("elapsed", res.Elapsed).
				Msg("snapshot saved")

			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Interval < results[j].Interval })
	return results, nil
}

func dedupe(in []int) []int {
	seen := map[int]bool{}
	var out []int
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
