package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"

	"github.com/guttosm/avpulse/internal/analytics"
	"github.com/guttosm/avpulse/internal/domain/dto"
	"github.com/guttosm/avpulse/internal/quote"
	"github.com/guttosm/avpulse/internal/service"
	"github.com/guttosm/avpulse/internal/snapshot"
	"github.com/guttosm/avpulse/internal/timeseries"
)

// reporter is the slice of service.AnalysisService the console report uses.
type reporter interface {
	Report(ctx context.Context, req service.Request) (*dto.ReportResponse, error)
}

// reportOptions come from the command line; empty Symbol or zero Interval
// are asked for interactively.
type reportOptions struct {
	Symbol   string
	Interval int
	Source   string
	CSVPath  string
}

// runReport prompts for what is missing, fetches the series once and prints
// the ticker information followed by the analysis.
func runReport(ctx context.Context, svc reporter, in io.Reader, out io.Writer, opts reportOptions) error {
	r := bufio.NewReader(in)

	symbol := strings.ToUpper(strings.TrimSpace(opts.Symbol))
	if symbol == "" {
		s, err := promptSymbol(r, out)
		if err != nil {
			return err
		}
		symbol = s
	}
	interval := opts.Interval
	if interval == 0 {
		iv, err := promptInterval(r, out)
		if err != nil {
			return err
		}
		interval = iv
	}

	rep, err := svc.Report(ctx, service.Request{Symbol: symbol, Interval: interval, Source: opts.Source})
	if err != nil {
		return err
	}
	printReport(out, rep)

	if opts.CSVPath != "" {
		if err := writeClosesFile(opts.CSVPath, rep.Analysis.LatestCloses); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nLatest closes written to %s\n", opts.CSVPath)
	}
	return nil
}

func promptSymbol(r *bufio.Reader, out io.Writer) (string, error) {
	for {
		fmt.Fprint(out, "Enter stock symbol (e.g. IBM): ")
		line, err := readLine(r)
		if line != "" {
			return strings.ToUpper(line), nil
		}
		if err != nil {
			return "", fmt.Errorf("read symbol: %w", err)
		}
		fmt.Fprintln(out, "Symbol cannot be empty.")
	}
}

func promptInterval(r *bufio.Reader, out io.Writer) (int, error) {
	choices := intervalChoices()
	for {
		fmt.Fprintf(out, "Enter interval in minutes (%s): ", choices)
		line, err := readLine(r)
		if line != "" {
			if iv, perr := quote.ParseInterval(line); perr == nil {
				return iv, nil
			}
			fmt.Fprintf(out, "Invalid interval. Choose one of %s.\n", choices)
		}
		if err != nil {
			return 0, fmt.Errorf("read interval: %w", err)
		}
	}
}

// readLine returns the next trimmed line; a last line without a newline is
// returned without error.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	line = strings.TrimSpace(line)
	if errors.Is(err, io.EOF) && line != "" {
		return line, nil
	}
	return line, err
}

func intervalChoices() string {
	parts := make([]string, len(quote.Intervals))
	for i, v := range quote.Intervals {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}

func printReport(out io.Writer, rep *dto.ReportResponse) {
	s, a := rep.Summary, rep.Analysis

	fmt.Fprintln(out, "\nTicker information")
	fmt.Fprintf(out, "  Symbol:          %s\n", s.Symbol)
	fmt.Fprintf(out, "  Interval:        %s\n", s.Interval)
	if s.TimeZone != "" {
		fmt.Fprintf(out, "  Last refreshed:  %s (%s)\n", s.LastRefreshed, s.TimeZone)
	} else {
		fmt.Fprintf(out, "  Last refreshed:  %s\n", s.LastRefreshed)
	}
	if b := s.Latest; b != nil {
		fmt.Fprintf(out, "  Latest bar:      %s\n", b.Timestamp)
		fmt.Fprintf(out, "    Open %s  High %s  Low %s  Close %s  Volume %s\n",
			orNA(b.Open), orNA(b.High), orNA(b.Low), orNA(b.Close), orNA(b.Volume))
	}
	fmt.Fprintf(out, "  Records:         %s (%d malformed)\n", humanize.Comma(int64(a.Records)), a.Malformed)

	fmt.Fprintln(out, "\nAnalysis")
	if mv := a.MaxVolume; mv != nil {
		fmt.Fprintf(out, "  Max volume:      %s on %s\n", humanize.Comma(mv.Volume), strings.Join(mv.Dates, ", "))
	} else {
		fmt.Fprintln(out, "  Max volume:      n/a")
	}
	if avg := a.AverageClose; avg != nil {
		fmt.Fprintf(out, "  Average close:   %s over %d day(s) before %s\n",
			service.FormatPrice(null.FloatFrom(avg.Average)), avg.Days, a.Today)
	} else {
		fmt.Fprintf(out, "  Average close:   n/a (no completed day before %s)\n", a.Today)
	}
	fmt.Fprintln(out, "  Latest close per date:")
	for _, dc := range a.LatestCloses {
		fmt.Fprintf(out, "    %s  %s\n", dc.Date, service.FormatPrice(null.FloatFrom(dc.Close)))
	}
}

func orNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}

// writeCloses emits the date,latest_close rows used for plotting.
func writeCloses(w io.Writer, closes []analytics.DateClose) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "latest_close"}); err != nil {
		return err
	}
	for _, dc := range closes {
		if err := cw.Write([]string{dc.Date, decimal.NewFromFloat(dc.Close).String()}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeClosesFile(path string, closes []analytics.DateClose) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	if err := writeCloses(f, closes); err != nil {
		_ = f.Close()
		return fmt.Errorf("write csv: %w", err)
	}
	return f.Close()
}

// describeError turns a report failure into a line for the console.
func describeError(err error) string {
	switch {
	case errors.Is(err, timeseries.ErrNoData):
		return "No valid data found in the response. Check the symbol and interval."
	case errors.Is(err, service.ErrSnapshotNotFound):
		return "Nothing stored for this symbol and interval. Run --mode snapshot first."
	case errors.Is(err, service.ErrStoreDisabled):
		return "The snapshot store is disabled. Set STORE_ENABLED=true."
	case errors.Is(err, service.ErrProvider), errors.Is(err, context.DeadlineExceeded):
		return "Could not reach the quote provider: " + err.Error()
	default:
		return "Error: " + err.Error()
	}
}

func printSnapshotResults(out io.Writer, symbol string, results []snapshot.Result) {
	fmt.Fprintf(out, "Snapshots saved for %s\n", symbol)
	for _, r := range results {
		fmt.Fprintf(out, "  %2dmin  #%d  %s bars (%d malformed)  pruned %d  %s\n",
			r.Interval, r.SnapshotID, humanize.Comma(int64(r.Records)), r.Malformed, r.Pruned, r.Elapsed.Round(time.Millisecond))
	}
}
