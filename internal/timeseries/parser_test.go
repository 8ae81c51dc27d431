package timeseries

import (
	"errors"
	"testing"
)

const samplePayload = `{
	"Meta Data": {
		"1. Information": "Intraday (60min) open, high, low, close prices and volume",
		"2. Symbol": "IBM",
		"3. Last Refreshed": "2023-11-03 15:00:00",
		"4. Interval": "60min",
		"5. Output Size": "Full size",
		"6. Time Zone": "US/Eastern"
	},
	"Time Series (60min)": {
		"2023-11-03 15:00:00": {"1. open": "148.1500", "2. high": "148.2300", "3. low": "147.7800", "4. close": "147.9000", "5. volume": "709177"},
		"2023-11-03 14:00:00": {"1. open": "147.9450", "2. high": "148.2500", "3. low": "147.9000", "4. close": "148.1450", "5. volume": "257079"},
		"2023-11-02 16:00:00": {"1. open": "146.0000", "2. high": "146.5000", "3. low": "145.9000", "4. close": "146.2000", "5. volume": "100"}
	}
}`

func TestParse_TableDriven(t *testing.T) {
	cases := []struct {
		name       string
		payload    string
		wantErr    error
		wantAnyErr bool
		wantLen    int
		wantErrs   int
	}{
		{name: "ok", payload: samplePayload, wantLen: 3},
		{name: "missing meta data", payload: `{"Error Message": "Invalid API call."}`, wantErr: ErrNoData},
		{name: "not json", payload: `<html>`, wantAnyErr: true},
		{name: "no series section", payload: `{"Meta Data": {"2. Symbol": "IBM"}}`, wantLen: 0},
		{
			name:     "malformed price kept as invalid field",
			payload:  `{"Meta Data": {"4. Interval": "5min"}, "Time Series (5min)": {"2024-01-02 09:00:00": {"1. open": "abc", "2. high": "1", "3. low": "1", "4. close": "1", "5. volume": "10"}}}`,
			wantLen:  1,
			wantErrs: 1,
		},
		{
			name:     "negative and fractional volume",
			payload:  `{"Meta Data": {"4. Interval": "5min"}, "Time Series (5min)": {"a 1": {"1. open": "1", "2. high": "1", "3. low": "1", "4. close": "-1", "5. volume": "1.5"}}}`,
			wantLen:  1,
			wantErrs: 2,
		},
		{
			name:     "missing field",
			payload:  `{"Meta Data": {"4. Interval": "5min"}, "Time Series (5min)": {"a 1": {"1. open": "1", "2. high": "1", "3. low": "1", "4. close": "1"}}}`,
			wantLen:  1,
			wantErrs: 1,
		},
		{
			name:    "series key found by prefix",
			payload: `{"Meta Data": {"2. Symbol": "X"}, "Time Series (15min)": {"2024-01-02 09:00:00": {"1. open": "1", "2. high": "1", "3. low": "1", "4. close": "1", "5. volume": "1"}}}`,
			wantLen: 1,
		},
		{
			name:     "record that is not an object is left out",
			payload:  `{"Meta Data": {"4. Interval": "5min"}, "Time Series (5min)": {"2024-01-02 09:00:00": {"1. open": "1", "2. high": "1", "3. low": "1", "4. close": "1", "5. volume": "1"}, "2024-01-02 10:00:00": "garbage", "2024-01-02 11:00:00": null}}`,
			wantLen:  1,
			wantErrs: 2,
		},
		{
			name:     "volume beyond int64",
			payload:  `{"Meta Data": {"4. Interval": "5min"}, "Time Series (5min)": {"2024-01-02 09:00:00": {"1. open": "1", "2. high": "1", "3. low": "1", "4. close": "1", "5. volume": "99999999999999999999"}}}`,
			wantLen:  1,
			wantErrs: 1,
		},
		{
			name:    "numeric literals accepted",
			payload: `{"Meta Data": {"4. Interval": "1min"}, "Time Series (1min)": {"2024-01-02 09:00:00": {"1. open": 1.5, "2. high": 2, "3. low": 1, "4. close": 1.75, "5. volume": 300}}}`,
			wantLen: 1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Parse([]byte(tc.payload))
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("want %v, got %v", tc.wantErr, err)
				}
				return
			}
			if tc.wantAnyErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if s.Len() != tc.wantLen {
				t.Fatalf("len: want %d got %d", tc.wantLen, s.Len())
			}
			if len(s.Errors()) != tc.wantErrs {
				t.Fatalf("record errors: want %d got %d (%v)", tc.wantErrs, len(s.Errors()), s.Errors())
			}
		})
	}
}

func TestParse_PreservesKeyOrder(t *testing.T) {
	s, err := Parse([]byte(samplePayload))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []string{"2023-11-03 15:00:00", "2023-11-03 14:00:00", "2023-11-02 16:00:00"}
	got := s.Timestamps()
	if len(got) != len(want) {
		t.Fatalf("timestamps: want %v got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("timestamps[%d]: want %q got %q", i, want[i], got[i])
		}
	}
}

func TestParse_TimestampsMatchKeySet(t *testing.T) {
	payload := `{"Meta Data": {"4. Interval": "5min"}, "Time Series (5min)": {
		"2024-01-02 10:00:00": {"1. open": "1", "2. high": "1", "3. low": "1", "4. close": "1", "5. volume": "1"},
		"2024-01-02 09:00:00": {"1. open": "1", "2. high": "1", "3. low": "1", "4. close": "1", "5. volume": "1"},
		"2024-01-01 16:00:00": {"1. open": "1", "2. high": "1", "3. low": "1", "4. close": "1", "5. volume": "1"},
		"2024-01-01 09:00:00": {"1. open": "1", "2. high": "1", "3. low": "1", "4. close": "1", "5. volume": "1"}
	}}`
	keys := map[string]bool{
		"2024-01-02 10:00:00": true,
		"2024-01-02 09:00:00": true,
		"2024-01-01 16:00:00": true,
		"2024-01-01 09:00:00": true,
	}
	s, err := Parse([]byte(payload))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	seen := map[string]bool{}
	for _, ts := range s.Timestamps() {
		if !keys[ts] {
			t.Fatalf("unexpected timestamp %q", ts)
		}
		if seen[ts] {
			t.Fatalf("timestamp %q repeated", ts)
		}
		seen[ts] = true
	}
	if len(seen) != len(keys) {
		t.Fatalf("want %d timestamps got %d", len(keys), len(seen))
	}
}

func TestParse_MetaFields(t *testing.T) {
	s, err := Parse([]byte(samplePayload))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	m := s.Meta()
	if m.Symbol != "IBM" || m.LastRefreshed != "2023-11-03 15:00:00" || m.Interval != "60min" || m.TimeZone != "US/Eastern" {
		t.Fatalf("unexpected meta: %+v", m)
	}
	if got := m.IntervalFromInformation(); got != "60min" {
		t.Fatalf("interval from information: want 60min got %q", got)
	}
}

func TestParsePriceAndVolume(t *testing.T) {
	if v, err := ParsePrice(" 148.1500 "); err != nil || !v.Valid || v.Float64 != 148.15 {
		t.Fatalf("ParsePrice: v=%+v err=%v", v, err)
	}
	if _, err := ParsePrice("-1"); err == nil {
		t.Fatalf("expected error for negative price")
	}
	if _, err := ParsePrice(""); err == nil {
		t.Fatalf("expected error for empty price")
	}
	if v, err := ParseVolume("709177"); err != nil || v.Int64 != 709177 {
		t.Fatalf("ParseVolume: v=%+v err=%v", v, err)
	}
	if _, err := ParseVolume("12.5"); err == nil {
		t.Fatalf("expected error for fractional volume")
	}
	if v, err := ParseVolume("99999999999999999999"); !errors.Is(err, errOutOfRange) || v.Valid {
		t.Fatalf("ParseVolume overflow: v=%+v err=%v", v, err)
	}
	if v, err := ParseVolume("9223372036854775807"); err != nil || v.Int64 != 9223372036854775807 {
		t.Fatalf("ParseVolume max int64: v=%+v err=%v", v, err)
	}
}

func TestParse_NonObjectRecordKeepsOtherBars(t *testing.T) {
	payload := `{"Meta Data": {"4. Interval": "5min"}, "Time Series (5min)": {
		"2024-01-02 10:00:00": "garbage",
		"2024-01-02 09:00:00": {"1. open": "1", "2. high": "2", "3. low": "1", "4. close": "1.5", "5. volume": "10"}
	}}`
	s, err := Parse([]byte(payload))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := s.Timestamps(); len(got) != 1 || got[0] != "2024-01-02 09:00:00" {
		t.Fatalf("timestamps: %v", got)
	}
	if _, ok := s.RecordAt("2024-01-02 10:00:00"); ok {
		t.Fatalf("non-object record should be left out")
	}
	errs := s.Errors()
	if len(errs) != 1 || errs[0].Timestamp != "2024-01-02 10:00:00" || !errors.Is(errs[0], errNotAnObject) {
		t.Fatalf("unexpected record errors %v", errs)
	}
}

func TestParse_SeriesFallbackUsesDocumentOrder(t *testing.T) {
	payload := `{"Meta Data": {"2. Symbol": "X"},
		"Time Series (5min)": {"2024-01-02 09:05:00": {"1. open": "1", "2. high": "1", "3. low": "1", "4. close": "1", "5. volume": "1"}},
		"Time Series (15min)": {"2024-01-02 09:15:00": {"1. open": "1", "2. high": "1", "3. low": "1", "4. close": "1", "5. volume": "1"}},
		"Time Series (30min)": {"2024-01-02 09:30:00": {"1. open": "1", "2. high": "1", "3. low": "1", "4. close": "1", "5. volume": "1"}}
	}`
	for i := 0; i < 20; i++ {
		s, err := Parse([]byte(payload))
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if got := s.Timestamps(); len(got) != 1 || got[0] != "2024-01-02 09:05:00" {
			t.Fatalf("run %d: want the first series section, got %v", i, got)
		}
	}
}
