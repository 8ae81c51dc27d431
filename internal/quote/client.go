package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/guttosm/avpulse/internal/logger"
	"github.com/guttosm/avpulse/internal/timeseries"
)

const (
	intradayFunction  = "TIME_SERIES_INTRADAY"
	defaultBaseURL    = "https://www.alphavantage.co"
	defaultOutputSize = "full"
	defaultTimeout    = 30 * time.Second
)

// ErrNoData is returned when the provider answers without a time series.
// It wraps timeseries.ErrNoData so callers can test for either.
var ErrNoData = fmt.Errorf("quote: %w", timeseries.ErrNoData)

// ErrInvalidInterval is returned for intervals the provider does not serve.
var ErrInvalidInterval = errors.New("interval must be one of 1, 5, 15, 30, 60")

// Intervals lists the bar sizes, in minutes, accepted by TIME_SERIES_INTRADAY.
var Intervals = []int{1, 5, 15, 30, 60}

// ValidInterval reports whether minutes is one of Intervals.
func ValidInterval(minutes int) bool {
	for _, v := range Intervals {
		if v == minutes {
			return true
		}
	}
	return false
}

// ParseInterval accepts "5", "5min" or " 5 " and returns the minutes.
func ParseInterval(text string) (int, error) {
	text = strings.TrimSuffix(strings.TrimSpace(strings.ToLower(text)), "min")
	n, err := strconv.Atoi(text)
	if err != nil || !ValidInterval(n) {
		return 0, ErrInvalidInterval
	}
	return n, nil
}

// Query selects one intraday series.
type Query struct {
	Symbol   string
	Interval int // minutes
}

// Validate checks the symbol and interval.
func (q Query) Validate() error {
	if strings.TrimSpace(q.Symbol) == "" {
		return errors.New("symbol is required")
	}
	if !ValidInterval(q.Interval) {
		return ErrInvalidInterval
	}
	return nil
}

// Fetcher retrieves an intraday series for a query.
type Fetcher interface {
	FetchIntraday(ctx context.Context, q Query) (*timeseries.Series, error)
}

// Options configures a Client. Zero values fall back to the provider defaults.
type Options struct {
	BaseURL       string
	APIKey        string
	Timeout       time.Duration
	ExtendedHours bool
	OutputSize    string
}

// Client talks to the Alpha Vantage query endpoint.
type Client struct {
	HTTP          *http.Client
	baseURL       string
	apiKey        string
	extendedHours bool
	outputSize    string
}

// NewClient builds a Client from opts.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.OutputSize == "" {
		opts.OutputSize = defaultOutputSize
	}
	return &Client{
		HTTP:          &http.Client{Timeout: opts.Timeout},
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		apiKey:        opts.APIKey,
		extendedHours: opts.ExtendedHours,
		outputSize:    opts.OutputSize,
	}
}

// providerNotice holds the fields the provider uses instead of data when a call is refused.
type providerNotice struct {
	ErrorMessage string `json:"Error Message"`
	Note         string `json:"Note"`
	Information  string `json:"Information"`
}

func (n providerNotice) text() string {
	switch {
	case n.ErrorMessage != "":
		return n.ErrorMessage
	case n.Note != "":
		return n.Note
	default:
		return n.Information
	}
}

// URL renders the request URL for q. The API key is part of the query string.
func (c *Client) URL(q Query) string {
	v := url.Values{}
	v.Set("function", intradayFunction)
	v.Set("symbol", strings.ToUpper(strings.TrimSpace(q.Symbol)))
	v.Set("interval", fmt.Sprintf("%dmin", q.Interval))
	v.Set("extended_hours", strconv.FormatBool(c.extendedHours))
	v.Set("outputsize", c.outputSize)
	v.Set("apikey", c.apiKey)
	return c.baseURL + "/query?" + v.Encode()
}

// FetchIntraday downloads and parses one intraday series.
//
// Errors:
//   - invalid query: returned before any request is made.
//   - non-200 status: error carrying the status and body.
//   - payload without "Meta Data": wraps ErrNoData with the provider's notice, if any.
func (c *Client) FetchIntraday(ctx context.Context, q Query) (*timeseries.Series, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(q), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("alphavantage fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("alphavantage read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("alphavantage: status %d, body: %s", resp.StatusCode, string(body))
	}

	series, err := timeseries.Parse(body)
	if errors.Is(err, timeseries.ErrNoData) {
		var notice providerNotice
		_ = json.Unmarshal(body, &notice)
		if msg := notice.text(); msg != "" {
			return nil, fmt.Errorf("%w: %s", ErrNoData, msg)
		}
		return nil, ErrNoData
	}
	if err != nil {
		return nil, fmt.Errorf("alphavantage decode: %w", err)
	}

	log := logger.Component("quote")
	log.Debug().
		Str("symbol", q.Symbol).
		Int("interval", q.Interval).
		Int("records", series.Len()).
		Int("malformed", len(series.Errors())).
		Dur("elapsed", time.Since(start)).
		Msg("intraday fetched")
	return series, nil
}

// LoadAPIKey reads the key stored in path, trimming surrounding whitespace.
func LoadAPIKey(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read api key: %w", err)
	}
	key := strings.TrimSpace(string(b))
	if key == "" {
		return "", fmt.Errorf("read api key: %s is empty", path)
	}
	return key, nil
}

// ResolveAPIKey returns key when set, otherwise the content of file.
// Neither set yields "demo", which the provider accepts for IBM only.
func ResolveAPIKey(key, file string) (string, error) {
	if key = strings.TrimSpace(key); key != "" {
		return key, nil
	}
	if file != "" {
		return LoadAPIKey(file)
	}
	return "demo", nil
}
