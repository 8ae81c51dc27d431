// Package analytics computes per-date aggregates over an intraday series.
//
// Every function is a pure function of its input: nothing is cached, nothing is
// mutated, and concurrent calls over the same series are safe.
//
// Records with an invalid (missing or malformed) field are skipped by the
// aggregates that need that field; the remaining records are still used.
package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/guttosm/avpulse/internal/timeseries"
)

// dateLayout is the calendar-date part of a canonical timestamp.
const dateLayout = "2006-01-02"

// Source is the read-only view of a series the engine needs.
// *timeseries.Series satisfies it.
type Source interface {
	Timestamps() []string
	RecordAt(ts string) (timeseries.Record, bool)
}

// DateVolume is the total volume traded on one calendar date.
type DateVolume struct {
	Date   string `json:"date" example:"2023-11-03"`
	Volume int64  `json:"volume" example:"966256"`
}

// MaxVolume holds every date whose total volume equals the maximum.
type MaxVolume struct {
	Dates  []string `json:"dates" example:"2023-11-03"`
	Volume int64    `json:"volume" example:"966256"`
}

// CloseAverage is the mean of one closing price per distinct trading day.
type CloseAverage struct {
	Days    int     `json:"days" example:"20"`
	Average float64 `json:"average" example:"146.87"`
}

// DateClose is the closing price of the latest timestamp on a date.
type DateClose struct {
	Date      string  `json:"date" example:"2023-11-03"`
	Timestamp string  `json:"timestamp" example:"2023-11-03 19:30:00"`
	Close     float64 `json:"close" example:"147.78"`
}

// DailyVolumes sums volume per calendar date. Dates are returned in ascending
// order. Records without a valid volume are skipped.
func DailyVolumes(src Source) []DateVolume {
	totals := map[string]int64{}
	for _, ts := range src.Timestamps() {
		r, ok := src.RecordAt(ts)
		if !ok || !r.Volume.Valid {
			continue
		}
		totals[timeseries.DatePart(ts)] += r.Volume.Int64
	}

	out := make([]DateVolume, 0, len(totals))
	for d, v := range totals {
		out = append(out, DateVolume{Date: d, Volume: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// MaxVolumeDates returns the date(s) with the highest total volume together
// with that volume. Ties are not broken: every tied date is reported, in
// ascending order.
//
// ok is false when there is nothing to rank (empty series, or no record with
// a valid volume). A series whose dates all total zero is a valid result.
func MaxVolumeDates(src Source) (MaxVolume, bool) {
	daily := DailyVolumes(src)
	if len(daily) == 0 {
		return MaxVolume{}, false
	}

	best := daily[0].Volume
	for _, dv := range daily[1:] {
		if dv.Volume > best {
			best = dv.Volume
		}
	}

	res := MaxVolume{Volume: best}
	for _, dv := range daily {
		if dv.Volume == best {
			res.Dates = append(res.Dates, dv.Date)
		}
	}
	return res, true
}

// AverageClose averages one closing price per distinct calendar date,
// excluding the date of today (a still-accumulating session).
//
// The close used for a date is the one of the first record for that date in
// the series' native order, not the earliest or latest timestamp; a date
// contributes exactly once. Records whose close is invalid are skipped, so a
// date only counts once it has a usable close. Dates are grouped by their text,
// the same way DailyVolumes and LatestCloses group them.
//
// ok is false when no date contributes; the division is never attempted.
func AverageClose(src Source, today time.Time) (CloseAverage, bool) {
	todayKey := today.Format(dateLayout)
	used := map[string]struct{}{}
	var sum float64

	for _, ts := range src.Timestamps() {
		date := timeseries.DatePart(ts)
		if date == todayKey {
			continue
		}
		if _, done := used[date]; done {
			continue
		}
		r, ok := src.RecordAt(ts)
		if !ok || !r.Close.Valid {
			continue
		}
		used[date] = struct{}{}
		sum += r.Close.Float64
	}

	if len(used) == 0 {
		return CloseAverage{}, false
	}
	return CloseAverage{Days: len(used), Average: sum / float64(len(used))}, true
}

// LatestCloses returns, for each calendar date, the close of the record with
// the greatest timestamp on that date. Timestamps are compared as strings with
// surrounding whitespace removed, which is chronological for the zero-padded
// "YYYY-MM-DD HH:MM:SS" form.
// Insertion order has no influence on the result.
//
// One entry per date, ascending by date. Records without a valid close are
// not candidates.
func LatestCloses(src Source) []DateClose {
	latest := map[string]DateClose{}
	for _, ts := range src.Timestamps() {
		r, ok := src.RecordAt(ts)
		if !ok || !r.Close.Valid {
			continue
		}
		key := strings.TrimSpace(ts)
		date := timeseries.DatePart(key)
		if cur, seen := latest[date]; seen && cur.Timestamp >= key {
			continue
		}
		latest[date] = DateClose{Date: date, Timestamp: key, Close: r.Close.Float64}
	}

	out := make([]DateClose, 0, len(latest))
	for _, dc := range latest {
		out = append(out, dc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// LatestClosesByDate is LatestCloses keyed by date.
func LatestClosesByDate(src Source) map[string]float64 {
	out := map[string]float64{}
	for _, dc := range LatestCloses(src) {
		out[dc.Date] = dc.Close
	}
	return out
}
