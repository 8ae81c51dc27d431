package dto

import (
	"github.com/guregu/null/v6"

	"github.com/guttosm/avpulse/internal/analytics"
)

// LatestBar is the most recent bar of a series, formatted for display.
// Prices carry two decimals and volume uses thousands separators;
// an empty string means the field was not available.
type LatestBar struct {
	Timestamp string `json:"timestamp" example:"2023-11-03 19:30:00"`
	Open      string `json:"open" example:"147.82"`
	High      string `json:"high" example:"147.95"`
	Low       string `json:"low" example:"147.70"`
	Close     string `json:"close" example:"147.78"`
	Volume    string `json:"volume" example:"1,210"`
}

// SummaryResponse represents the JSON structure returned by the
// GET /api/v1/summary endpoint.
//
// The *_series slices are aligned index by index with Timestamps, which keep
// the provider's order. A null entry marks a missing or malformed value.
type SummaryResponse struct {
	Symbol        string       `json:"symbol" example:"IBM"`
	Interval      string       `json:"interval" example:"60min"`
	LastRefreshed string       `json:"last_refreshed" example:"2023-11-03 19:30:00"`
	TimeZone      string       `json:"time_zone,omitempty" example:"US/Eastern"`
	Source        string       `json:"source" example:"provider"`
	Latest        *LatestBar   `json:"latest,omitempty"`
	Timestamps    []string     `json:"timestamps"`
	OpenSeries    []null.Float `json:"open_series" swaggertype:"array,number"`
	CloseSeries   []null.Float `json:"close_series" swaggertype:"array,number"`
	VolumeSeries  []null.Float `json:"volume_series" swaggertype:"array,number"`
}

// AnalysisResponse represents the JSON structure returned by the
// GET /api/v1/analysis endpoint.
//
// MaxVolume and AverageClose are omitted when there is nothing to compute
// them from (empty series, or only today's session for the average).
type AnalysisResponse struct {
	Symbol       string                  `json:"symbol" example:"IBM"`
	Interval     string                  `json:"interval" example:"60min"`
	Source       string                  `json:"source" example:"provider"`
	Records      int                     `json:"records" example:"320"`
	Malformed    int                     `json:"malformed" example:"0"`
	Today        string                  `json:"today" example:"2023-11-04"`
	MaxVolume    *analytics.MaxVolume    `json:"max_volume,omitempty"`
	AverageClose *analytics.CloseAverage `json:"average_close,omitempty"`
	LatestCloses []analytics.DateClose   `json:"latest_closes"`
	DailyVolumes []analytics.DateVolume  `json:"daily_volumes"`
}

// ReportResponse bundles the summary and the analysis of a single fetch.
// It is returned by GET /api/v1/report and printed by the console report.
type ReportResponse struct {
	Summary  *SummaryResponse  `json:"summary"`
	Analysis *AnalysisResponse `json:"analysis"`
}
