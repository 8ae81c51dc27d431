package timeseries

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
)

var (
	// ErrNoData means the payload has no "Meta Data" section. The provider
	// answers this way for unknown symbols, bad keys and throttled requests.
	ErrNoData = errors.New("no valid data found in the response")

	// ErrDuplicateTimestamp is reported when a timestamp appears twice.
	ErrDuplicateTimestamp = errors.New("duplicate timestamp")

	errNegative    = errors.New("negative value")
	errNotInteger  = errors.New("not an integer")
	errOutOfRange  = errors.New("out of range")
	errMissing     = errors.New("missing field")
	errNotAnObject = errors.New("expected a JSON object")
)

const (
	metaDataKey     = "Meta Data"
	seriesKeyPrefix = "Time Series ("
)

// metaKeys maps provider metadata keys onto Meta fields.
var metaKeys = map[string]func(*Meta, string){
	"1. Information":    func(m *Meta, v string) { m.Information = v },
	"2. Symbol":         func(m *Meta, v string) { m.Symbol = v },
	"3. Last Refreshed": func(m *Meta, v string) { m.LastRefreshed = v },
	"4. Interval":       func(m *Meta, v string) { m.Interval = v },
	"5. Output Size":    func(m *Meta, v string) { m.OutputSize = v },
	"6. Time Zone":      func(m *Meta, v string) { m.TimeZone = v },
}

// Parse decodes an intraday payload into a Series.
//
// Expected shape:
//
//	{
//	  "Meta Data": {"1. Information": "...", "2. Symbol": "IBM", "3. Last Refreshed": "...", "4. Interval": "60min"},
//	  "Time Series (60min)": {"2023-11-03 15:00:00": {"1. open": "148.15", ..., "5. volume": "709177"}}
//	}
//
// It fails on:
//   - a payload that is not a JSON object
//   - a missing "Meta Data" section (ErrNoData)
//
// It tolerates:
//   - a missing "Time Series (...)" section (empty series)
//   - malformed or negative numbers (the field is left invalid and a
//     RecordError is collected; the record itself is kept)
//   - a record that is not an object (a RecordError is collected and the
//     record is left out)
//
// Key order of the series object is preserved.
func Parse(raw []byte) (*Series, error) {
	top, order, err := decodeTop(raw)
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	metaRaw, ok := top[metaDataKey]
	if !ok {
		return nil, ErrNoData
	}
	meta, err := parseMeta(metaRaw)
	if err != nil {
		return nil, fmt.Errorf("decode meta data: %w", err)
	}

	s := &Series{meta: meta, records: map[string]Record{}}

	seriesRaw, ok := findSeries(top, order, meta)
	if !ok {
		return s, nil
	}
	if err := s.decodeRecords(seriesRaw); err != nil {
		return nil, fmt.Errorf("decode time series: %w", err)
	}
	return s, nil
}

func parseMeta(raw json.RawMessage) (Meta, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Meta{}, err
	}
	var m Meta
	for k, v := range fields {
		set, known := metaKeys[k]
		if !known {
			continue
		}
		if s, ok := scalarText(v); ok {
			set(&m, s)
		}
	}
	return m, nil
}

// decodeTop decodes the top-level object and the order of its keys. A repeated
// key keeps its last value and its first position.
func decodeTop(raw []byte) (map[string]json.RawMessage, []string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, errNotAnObject
	}

	top := map[string]json.RawMessage{}
	var order []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		k, _ := keyTok.(string)
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, nil, err
		}
		if _, seen := top[k]; !seen {
			order = append(order, k)
		}
		top[k] = v
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return top, order, nil
}

// findSeries picks "Time Series (<interval>)" for the declared interval and
// falls back to the first key, in document order, with the series prefix.
func findSeries(top map[string]json.RawMessage, order []string, meta Meta) (json.RawMessage, bool) {
	for _, iv := range []string{meta.Interval, meta.IntervalFromInformation()} {
		if iv == "" {
			continue
		}
		if raw, ok := top[seriesKeyPrefix+iv+")"]; ok {
			return raw, true
		}
	}
	for _, k := range order {
		if strings.HasPrefix(k, seriesKeyPrefix) {
			return top[k], true
		}
	}
	return nil, false
}

// decodeRecords streams the series object so that key order survives.
func (s *Series) decodeRecords(raw json.RawMessage) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errNotAnObject
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		ts, _ := keyTok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("record %q: %w", ts, err)
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(value, &fields); err != nil || fields == nil {
			s.errs = append(s.errs, RecordError{Timestamp: ts, Err: errNotAnObject})
			continue
		}
		s.add(s.parseRecord(ts, fields))
	}

	_, err = dec.Token() // closing brace
	return err
}

func (s *Series) parseRecord(ts string, fields map[string]json.RawMessage) Record {
	r := Record{Timestamp: ts}
	for _, f := range Fields {
		text, present := scalarText(fields[f.ProviderKey()])
		if !present {
			s.errs = append(s.errs, RecordError{Timestamp: ts, Field: f, Err: errMissing})
			continue
		}
		var err error
		if f == FieldVolume {
			r.Volume, err = ParseVolume(text)
		} else {
			var v null.Float
			v, err = ParsePrice(text)
			switch f {
			case FieldOpen:
				r.Open = v
			case FieldHigh:
				r.High = v
			case FieldLow:
				r.Low = v
			case FieldClose:
				r.Close = v
			}
		}
		if err != nil {
			s.errs = append(s.errs, RecordError{Timestamp: ts, Field: f, Value: text, Err: err})
		}
	}
	return r
}

// ParsePrice parses a non-negative decimal string such as "148.1500".
func ParsePrice(text string) (null.Float, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return null.Float{}, err
	}
	if d.IsNegative() {
		return null.Float{}, errNegative
	}
	return null.FloatFrom(d.InexactFloat64()), nil
}

// ParseVolume parses a non-negative integer string such as "709177". Values
// beyond int64 are rejected.
func ParseVolume(text string) (null.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return null.Int{}, err
	}
	if d.IsNegative() {
		return null.Int{}, errNegative
	}
	if !d.IsInteger() {
		return null.Int{}, errNotInteger
	}
	if !d.BigInt().IsInt64() {
		return null.Int{}, errOutOfRange
	}
	return null.IntFrom(d.IntPart()), nil
}

// scalarText returns the textual form of a JSON string or number.
// null, objects, arrays and absent values report ok=false.
func scalarText(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	case '{', '[':
		return "", false
	default:
		return string(raw), true
	}
}
