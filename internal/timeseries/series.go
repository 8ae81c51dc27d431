package timeseries

import (
	"strings"

	"github.com/guregu/null/v6"
)

// Meta mirrors the "Meta Data" section of an intraday payload.
type Meta struct {
	Information   string `json:"information" example:"Intraday (60min) open, high, low, close prices and volume"`
	Symbol        string `json:"symbol" example:"IBM"`
	LastRefreshed string `json:"last_refreshed" example:"2023-11-03 15:00:00"`
	Interval      string `json:"interval" example:"60min"`
	OutputSize    string `json:"output_size,omitempty" example:"Full size"`
	TimeZone      string `json:"time_zone,omitempty" example:"US/Eastern"`
}

// IntervalFromInformation extracts the interval embedded in the free-text
// information line, e.g. "Intraday (60min) open, ..." -> "60min".
// Returns "" if the line has no second word.
func (m Meta) IntervalFromInformation() string {
	parts := strings.Fields(m.Information)
	if len(parts) < 2 {
		return ""
	}
	return strings.NewReplacer("(", "", ")", "").Replace(parts[1])
}

// Series is an immutable, fully materialized intraday time series for one
// symbol. Keys keep the order in which the provider emitted them; that order is
// not guaranteed to be chronological.
//
// A Series is safe for concurrent reads.
type Series struct {
	meta    Meta
	keys    []string
	records map[string]Record
	errs    []RecordError
}

// NewSeries builds a series from typed records, preserving slice order.
// When a timestamp repeats, the first occurrence wins and the duplicate is
// reported through Errors().
func NewSeries(meta Meta, records []Record) *Series {
	s := &Series{
		meta:    meta,
		keys:    make([]string, 0, len(records)),
		records: make(map[string]Record, len(records)),
	}
	for _, r := range records {
		s.add(r)
	}
	return s
}

func (s *Series) add(r Record) {
	if _, dup := s.records[r.Timestamp]; dup {
		s.errs = append(s.errs, RecordError{Timestamp: r.Timestamp, Err: ErrDuplicateTimestamp})
		return
	}
	s.keys = append(s.keys, r.Timestamp)
	s.records[r.Timestamp] = r
}

// Meta returns the series metadata.
func (s *Series) Meta() Meta { return s.meta }

// Len returns the number of records.
func (s *Series) Len() int { return len(s.keys) }

// Timestamps returns every key in native order. Callers must not assume the
// result is sorted.
func (s *Series) Timestamps() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// RecordAt looks up a record by exact timestamp. A missing timestamp is
// reported through ok, never as an error.
func (s *Series) RecordAt(ts string) (Record, bool) {
	r, ok := s.records[ts]
	return r, ok
}

// LatestRecord returns the record whose timestamp equals the "last refreshed"
// marker declared in the metadata. The marker is trusted as-is; if no key
// matches it (after trimming surrounding whitespace) the result is absent.
func (s *Series) LatestRecord() (Record, bool) {
	want := strings.TrimSpace(s.meta.LastRefreshed)
	if want == "" {
		return Record{}, false
	}
	if r, ok := s.records[want]; ok {
		return r, true
	}
	for _, k := range s.keys {
		if strings.TrimSpace(k) == want {
			return s.records[k], true
		}
	}
	return Record{}, false
}

// FieldSeries returns field f of every record, positionally aligned with
// Timestamps(). Entries are invalid where the record lacks the field.
func (s *Series) FieldSeries(f Field) []null.Float {
	out := make([]null.Float, len(s.keys))
	for i, k := range s.keys {
		out[i] = s.records[k].Value(f)
	}
	return out
}

// Records returns all records in native order.
func (s *Series) Records() []Record {
	out := make([]Record, len(s.keys))
	for i, k := range s.keys {
		out[i] = s.records[k]
	}
	return out
}

// Errors returns the field-level problems found while building the series.
func (s *Series) Errors() []RecordError {
	out := make([]RecordError, len(s.errs))
	copy(out, s.errs)
	return out
}
