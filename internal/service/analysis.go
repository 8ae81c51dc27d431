package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"

	"github.com/guttosm/avpulse/internal/analytics"
	"github.com/guttosm/avpulse/internal/domain/dto"
	"github.com/guttosm/avpulse/internal/domain/models"
	"github.com/guttosm/avpulse/internal/quote"
	"github.com/guttosm/avpulse/internal/storage"
	"github.com/guttosm/avpulse/internal/timeseries"
)

// Sources a series can be read from.
const (
	SourceProvider = "provider"
	SourceStore    = "store"
)

var (
	// ErrInvalidRequest wraps every validation failure of a Request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrProvider wraps failures talking to the quote provider (other than "no data").
	ErrProvider = errors.New("quote provider failure")
	// ErrStoreDisabled is returned when the store is asked for but not configured.
	ErrStoreDisabled = errors.New("snapshot store is not enabled")
	// ErrSnapshotNotFound is returned when nothing was stored for symbol/interval.
	ErrSnapshotNotFound = errors.New("no stored snapshot")
)

// Request selects the series to analyze.
type Request struct {
	Symbol   string
	Interval int    // minutes
	Source   string // SourceProvider (default) or SourceStore
}

// AnalysisService fetches (or loads) one symbol's series and runs the engine on it.
type AnalysisService interface {
	Summary(ctx context.Context, req Request) (*dto.SummaryResponse, error)
	Analyze(ctx context.Context, req Request) (*dto.AnalysisResponse, error)
	Report(ctx context.Context, req Request) (*dto.ReportResponse, error)
	Snapshots(ctx context.Context, symbol string, limit int) ([]models.Snapshot, error)
}

type analysisService struct {
	fetcher quote.Fetcher
	repo    storage.SeriesRepository // nil when the store is disabled
	now     func() time.Time
}

// NewAnalysisService wires the service. repo may be nil; now defaults to time.Now.
func NewAnalysisService(fetcher quote.Fetcher, repo storage.SeriesRepository, now func() time.Time) AnalysisService {
	if now == nil {
		now = time.Now
	}
	return &analysisService{fetcher: fetcher, repo: repo, now: now}
}

// normalize upper-cases the symbol and defaults the source.
func (r Request) normalize() (Request, error) {
	r.Symbol = strings.ToUpper(strings.TrimSpace(r.Symbol))
	if r.Source == "" {
		r.Source = SourceProvider
	}
	if r.Source != SourceProvider && r.Source != SourceStore {
		return r, fmt.Errorf("%w: unknown source %q", ErrInvalidRequest, r.Source)
	}
	if err := (quote.Query{Symbol: r.Symbol, Interval: r.Interval}).Validate(); err != nil {
		return r, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return r, nil
}

// load returns the series for req from the provider or the store.
func (s *analysisService) load(ctx context.Context, req Request) (*timeseries.Series, Request, error) {
	req, err := req.normalize()
	if err != nil {
		return nil, req, err
	}

	if req.Source == SourceStore {
		if s.repo == nil {
			return nil, req, ErrStoreDisabled
		}
		series, _, err := s.repo.LoadLatest(ctx, req.Symbol, req.Interval)
		if err != nil {
			return nil, req, err
		}
		if series == nil {
			return nil, req, ErrSnapshotNotFound
		}
		return series, req, nil
	}

	series, err := s.fetcher.FetchIntraday(ctx, quote.Query{Symbol: req.Symbol, Interval: req.Interval})
	switch {
	case err == nil:
		return series, req, nil
	case errors.Is(err, timeseries.ErrNoData), errors.Is(err, context.Canceled):
		return nil, req, err
	default:
		return nil, req, fmt.Errorf("%w: %w", ErrProvider, err)
	}
}

// Summary returns the ticker information of the series: metadata, the latest
// bar and the open/close/volume values aligned with the timestamps.
func (s *analysisService) Summary(ctx context.Context, req Request) (*dto.SummaryResponse, error) {
	series, req, err := s.load(ctx, req)
	if err != nil {
		return nil, err
	}
	return summaryOf(series, req), nil
}

// Analyze runs every aggregate of the engine over the series.
//
// "Today" is taken from the injected clock in the series' time zone when the
// zone is known, so the session still trading at the provider is excluded
// from the average.
func (s *analysisService) Analyze(ctx context.Context, req Request) (*dto.AnalysisResponse, error) {
	series, req, err := s.load(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.analysisOf(series, req), nil
}

// Report builds the summary and the analysis from one load of the series.
func (s *analysisService) Report(ctx context.Context, req Request) (*dto.ReportResponse, error) {
	series, req, err := s.load(ctx, req)
	if err != nil {
		return nil, err
	}
	return &dto.ReportResponse{
		Summary:  summaryOf(series, req),
		Analysis: s.analysisOf(series, req),
	}, nil
}

func summaryOf(series *timeseries.Series, req Request) *dto.SummaryResponse {
	meta := series.Meta()
	resp := &dto.SummaryResponse{
		Symbol:        symbolOf(meta, req),
		Interval:      intervalOf(meta, req),
		LastRefreshed: meta.LastRefreshed,
		TimeZone:      meta.TimeZone,
		Source:        req.Source,
		Timestamps:    series.Timestamps(),
		OpenSeries:    series.FieldSeries(timeseries.FieldOpen),
		CloseSeries:   series.FieldSeries(timeseries.FieldClose),
		VolumeSeries:  series.FieldSeries(timeseries.FieldVolume),
	}
	if r, ok := series.LatestRecord(); ok {
		resp.Latest = &dto.LatestBar{
			Timestamp: r.Timestamp,
			Open:      FormatPrice(r.Open),
			High:      FormatPrice(r.High),
			Low:       FormatPrice(r.Low),
			Close:     FormatPrice(r.Close),
			Volume:    FormatVolume(r.Volume),
		}
	}
	return resp
}

func (s *analysisService) analysisOf(series *timeseries.Series, req Request) *dto.AnalysisResponse {
	meta := series.Meta()
	today := s.today(meta.TimeZone)
	resp := &dto.AnalysisResponse{
		Symbol:       symbolOf(meta, req),
		Interval:     intervalOf(meta, req),
		Source:       req.Source,
		Records:      series.Len(),
		Malformed:    len(series.Errors()),
		Today:        today.Format("2006-01-02"),
		LatestCloses: analytics.LatestCloses(series),
		DailyVolumes: analytics.DailyVolumes(series),
	}
	if mv, ok := analytics.MaxVolumeDates(series); ok {
		resp.MaxVolume = &mv
	}
	if avg, ok := analytics.AverageClose(series, today); ok {
		resp.AverageClose = &avg
	}
	return resp
}

// Snapshots lists what the store holds for symbol.
func (s *analysisService) Snapshots(ctx context.Context, symbol string, limit int) ([]models.Snapshot, error) {
	if s.repo == nil {
		return nil, ErrStoreDisabled
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", ErrInvalidRequest)
	}
	return s.repo.ListSnapshots(ctx, symbol, limit)
}

func (s *analysisService) today(zone string) time.Time {
	now := s.now()
	if zone == "" {
		return now
	}
	if loc, err := time.LoadLocation(zone); err == nil {
		return now.In(loc)
	}
	return now
}

func symbolOf(meta timeseries.Meta, req Request) string {
	if meta.Symbol != "" {
		return meta.Symbol
	}
	return req.Symbol
}

func intervalOf(meta timeseries.Meta, req Request) string {
	if meta.Interval != "" {
		return meta.Interval
	}
	if iv := meta.IntervalFromInformation(); iv != "" {
		return iv
	}
	return fmt.Sprintf("%dmin", req.Interval)
}

// FormatPrice renders a price with two decimals, or "" when absent.
func FormatPrice(v null.Float) string {
	if !v.Valid {
		return ""
	}
	return decimal.NewFromFloat(v.Float64).StringFixed(2)
}

// FormatVolume renders a volume with thousands separators, or "" when absent.
func FormatVolume(v null.Int) string {
	if !v.Valid {
		return ""
	}
	return humanize.Comma(v.Int64)
}
