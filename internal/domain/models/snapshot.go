package models

import "time"

// Snapshot describes one persisted fetch of an intraday series.
//
// Fields:
//   - ID: database identifier.
//   - Symbol: ticker as requested (e.g., "IBM").
//   - IntervalMinutes: bar size in minutes (1, 5, 15, 30, 60).
//   - LastRefreshed: provider "3. Last Refreshed" value.
//   - Bars: number of raw bars stored with the snapshot.
//   - FetchedAt: when the snapshot was written.
//
// Only raw bars are persisted; aggregates are always recomputed.
//
// swagger:model Snapshot
type Snapshot struct {
	ID              int64     `json:"id" example:"42"`
	Symbol          string    `json:"symbol" example:"IBM"`
	IntervalMinutes int       `json:"interval_minutes" example:"60"`
	LastRefreshed   string    `json:"last_refreshed" example:"2023-11-03 19:00:00"`
	Information     string    `json:"information,omitempty" example:"Intraday (60min) open, high, low, close prices and volume"`
	OutputSize      string    `json:"output_size,omitempty" example:"Full size"`
	TimeZone        string    `json:"time_zone,omitempty" example:"US/Eastern"`
	Bars            int       `json:"bars" example:"320"`
	FetchedAt       time.Time `json:"fetched_at" example:"2023-11-03T20:00:00Z"`
}
