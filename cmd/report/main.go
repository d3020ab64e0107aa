// Command report loads a transaction table once, runs the analysis and
// writes the report as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"retail-insights/internal/analysis"
	"retail-insights/internal/config"
	"retail-insights/internal/dataset"
	"retail-insights/internal/observability"
	"retail-insights/internal/services"
)

const dateLayout = "2006-01-02"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "report: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: report [flags]\n")
		fs.PrintDefaults()
	}

	input := fs.String("input", cfg.Dataset.Path, "Path to the transaction table (.csv, .xlsx or .db)")
	kind := fs.String("kind", cfg.Dataset.Kind, "Input kind: csv, xlsx or sqlite (default: from extension)")
	encoding := fs.String("encoding", cfg.Dataset.Encoding, "CSV encoding: auto, utf8 or latin1")
	sheet := fs.String("sheet", cfg.Dataset.Sheet, "XLSX worksheet (default: first sheet)")
	table := fs.String("table", cfg.Dataset.Table, "SQLite table (default: first table)")
	from := fs.String("from", "", "First invoice date to include (YYYY-MM-DD)")
	to := fs.String("to", "", "Last invoice date to include (YYYY-MM-DD)")
	k := fs.Int("k", cfg.Analysis.Clusters, "Number of country segments")
	seed := fs.Uint64("seed", cfg.Analysis.Seed, "Clustering seed")
	top := fs.Int("top", cfg.Analysis.TopCountries, "Size of the country ranking (-1 keeps all)")
	out := fs.String("out", "", "Output file (default: stdout)")
	indent := fs.Bool("indent", true, "Indent the JSON output")
	var countries []string
	fs.Func("country", "Country to include (repeatable)", func(v string) error {
		countries = append(countries, v)
		return nil
	})

	if err := fs.Parse(args); err != nil {
		return err
	}

	filter, err := parseFilter(*from, *to, countries)
	if err != nil {
		return err
	}
	if *k < 1 {
		return fmt.Errorf("invalid -k %d: must be at least 1", *k)
	}

	logger := observability.NewLoggerTo(stderr, cfg.Logger)

	cfg.Analysis.TopCountries = *top
	cfg.Analysis.Clusters = *k
	cfg.Analysis.Seed = *seed
	analytics := services.NewAnalytics(services.OptionsFromConfig(cfg.Analysis), logger, nil)

	src := dataset.Source{
		Path:     *input,
		Kind:     dataset.Kind(*kind),
		Encoding: dataset.Encoding(*encoding),
		Sheet:    *sheet,
		Table:    *table,
	}

	start := time.Now()
	if err := analytics.Load(ctx, src); err != nil {
		return err
	}

	report, err := analytics.Report(ctx, services.Query{Filter: filter})
	if err != nil {
		return err
	}
	logger.Info("report generated",
		"run_id", report.RunID,
		"transactions", report.Transactions,
		"warnings", len(report.Warnings),
		"duration", time.Since(start),
	)

	w := stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	if *indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func parseFilter(from, to string, countries []string) (analysis.Filter, error) {
	var (
		f   analysis.Filter
		err error
	)
	if from != "" {
		if f.From, err = time.Parse(dateLayout, from); err != nil {
			return f, fmt.Errorf("invalid -from %q: %w", from, err)
		}
	}
	if to != "" {
		if f.To, err = time.Parse(dateLayout, to); err != nil {
			return f, fmt.Errorf("invalid -to %q: %w", to, err)
		}
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return f, fmt.Errorf("-from %s is after -to %s", from, to)
	}
	for _, c := range countries {
		if c = strings.TrimSpace(c); c != "" {
			f.Countries = append(f.Countries, c)
		}
	}
	return f, nil
}
