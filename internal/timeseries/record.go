package timeseries

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/guregu/null/v6"
)

// Field names one of the numeric columns of an intraday bar.
type Field string

const (
	FieldOpen   Field = "open"
	FieldHigh   Field = "high"
	FieldLow    Field = "low"
	FieldClose  Field = "close"
	FieldVolume Field = "volume"
)

// providerKeys maps each field to the key used by the quote provider payload.
var providerKeys = map[Field]string{
	FieldOpen:   "1. open",
	FieldHigh:   "2. high",
	FieldLow:    "3. low",
	FieldClose:  "4. close",
	FieldVolume: "5. volume",
}

// Fields lists every numeric field in provider order.
var Fields = []Field{FieldOpen, FieldHigh, FieldLow, FieldClose, FieldVolume}

// ProviderKey returns the payload key for f (e.g. "4. close").
func (f Field) ProviderKey() string { return providerKeys[f] }

// ParseField accepts either the short name ("close") or the provider key
// ("4. close"), case-insensitively.
func ParseField(name string) (Field, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, f := range Fields {
		if n == string(f) || n == f.ProviderKey() {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown field %q", name)
}

// Record is one intraday observation.
//
// Price and volume fields are nullable: a field that is missing from the payload
// or fails to parse is stored as an invalid value instead of a zero. OHLC
// consistency (low <= open/close <= high) is not checked.
type Record struct {
	Timestamp string     `json:"timestamp" example:"2023-11-03 15:00:00"`
	Open      null.Float `json:"open" swaggertype:"number" example:"148.15"`
	High      null.Float `json:"high" swaggertype:"number" example:"148.23"`
	Low       null.Float `json:"low" swaggertype:"number" example:"147.78"`
	Close     null.Float `json:"close" swaggertype:"number" example:"147.90"`
	Volume    null.Int   `json:"volume" swaggertype:"integer" example:"709177"`
}

// Value returns field f of the record as a nullable float.
func (r Record) Value(f Field) null.Float {
	switch f {
	case FieldOpen:
		return r.Open
	case FieldHigh:
		return r.High
	case FieldLow:
		return r.Low
	case FieldClose:
		return r.Close
	case FieldVolume:
		return null.NewFloat(float64(r.Volume.Int64), r.Volume.Valid)
	default:
		return null.Float{}
	}
}

// Date returns the calendar-date part of the record timestamp.
func (r Record) Date() string { return DatePart(r.Timestamp) }

// DatePart returns the text before the first whitespace of a timestamp
// ("2024-01-02 09:00:00" -> "2024-01-02"). Leading whitespace is ignored and a
// timestamp without a time component is returned as-is.
func DatePart(ts string) string {
	ts = strings.TrimLeftFunc(ts, unicode.IsSpace)
	if i := strings.IndexFunc(ts, unicode.IsSpace); i >= 0 {
		return ts[:i]
	}
	return ts
}

// RecordError describes a field that could not be parsed. The rest of the
// record is kept; only the offending field is left invalid.
type RecordError struct {
	Timestamp string
	Field     Field
	Value     string
	Err       error
}

func (e RecordError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("record %q: %v", e.Timestamp, e.Err)
	}
	return fmt.Sprintf("record %q field %s=%q: %v", e.Timestamp, e.Field, e.Value, e.Err)
}

func (e RecordError) Unwrap() error { return e.Err }
