package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"retail-insights/internal/analysis"
	"retail-insights/internal/config"
	"retail-insights/internal/dataset"
	"retail-insights/internal/models"
	"retail-insights/internal/observability"
)

var ErrNotLoaded = errors.New("no dataset loaded")

// Query selects a slice of the loaded table and optionally overrides the
// clustering parameters. The zero Query is the default report.
type Query struct {
	Filter   analysis.Filter
	Clusters int
	Seed     *uint64
}

func (q Query) IsDefault() bool {
	return q.Filter.IsZero() && q.Clusters == 0 && q.Seed == nil
}

// Selection describes the values a caller can filter on.
type Selection struct {
	Countries []string  `json:"countries"`
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`
}

// Analytics holds one cleaned table in memory and serves reports over it.
// The default report is computed once per load; filtered reports run the
// analysis on demand.
type Analytics struct {
	mu        sync.RWMutex
	table     []models.Transaction
	report    *models.Report
	stats     models.CleanStats
	source    string
	loadedAt  time.Time
	selection Selection

	recordsProcessed atomic.Int64
	reportsServed    atomic.Int64

	opts      analysis.Options
	logger    *slog.Logger
	telemetry *observability.Telemetry
}

func NewAnalytics(opts analysis.Options, logger *slog.Logger, tel *observability.Telemetry) *Analytics {
	if logger == nil {
		logger = slog.Default()
	}
	if tel == nil {
		tel = observability.NopTelemetry()
	}
	return &Analytics{
		opts:      opts,
		logger:    logger,
		telemetry: tel,
	}
}

// OptionsFromConfig maps the analysis settings onto pipeline options.
func OptionsFromConfig(cfg config.AnalysisConfig) analysis.Options {
	return analysis.Options{
		TopCountries: cfg.TopCountries,
		Clusters: analysis.ClusterOptions{
			K:             cfg.Clusters,
			Seed:          cfg.Seed,
			Attempts:      cfg.Attempts,
			MaxIterations: cfg.MaxIterations,
		},
		ClusterTimeout: cfg.ClusterTimeout,
	}
}

// Load reads and cleans the source, then computes the default report. The
// previously loaded table stays in place when any step fails.
func (a *Analytics) Load(ctx context.Context, src dataset.Source) error {
	ctx, span := a.telemetry.StartSpan(ctx, "analytics.Load", attribute.String("dataset.source", src.String()))
	defer span.End()

	start := time.Now()
	a.logger.Info("loading dataset", "source", src.String())

	raw, err := dataset.Load(ctx, src)
	if err != nil {
		observability.RecordError(span, err)
		a.telemetry.Metrics.RecordRun(ctx, "load", time.Since(start), err)
		return err
	}
	if raw.Skipped > 0 {
		a.logger.Warn("unreadable records skipped", "source", src.String(), "skipped", raw.Skipped)
	}

	err = a.LoadRaw(ctx, raw, src.String())
	observability.RecordError(span, err)
	a.telemetry.Metrics.RecordRun(ctx, "load", time.Since(start), err)
	return err
}

// LoadRaw cleans an already-read table and makes it the active dataset.
func (a *Analytics) LoadRaw(ctx context.Context, raw models.RawTable, source string) error {
	start := time.Now()

	cleaned, err := analysis.Clean(raw)
	if err != nil {
		return fmt.Errorf("clean %s: %w", source, err)
	}
	a.telemetry.Metrics.RecordClean(ctx, cleaned.Stats.Read, cleaned.Stats.Discarded)

	a.logger.Info("dataset cleaned",
		"source", source,
		"read", cleaned.Stats.Read,
		"kept", cleaned.Stats.Kept,
		"discarded", cleaned.Stats.Discarded,
		"duration", time.Since(start),
	)

	if err := a.install(ctx, cleaned.Transactions, cleaned.Stats, source); err != nil {
		return err
	}

	duration := time.Since(start)
	a.logger.Info("dataset loaded",
		"source", source,
		"transactions", len(cleaned.Transactions),
		"duration", duration,
		"rate", fmt.Sprintf("%.0f rows/sec", float64(cleaned.Stats.Read)/duration.Seconds()),
	)
	return nil
}

// SetTable installs an already-cleaned table.
func (a *Analytics) SetTable(ctx context.Context, table []models.Transaction) error {
	stats := models.CleanStats{Read: len(table), Kept: len(table), Discarded: map[string]int{}}
	return a.install(ctx, table, stats, "memory")
}

func (a *Analytics) install(ctx context.Context, table []models.Transaction, stats models.CleanStats, source string) error {
	report, err := a.run(ctx, table, a.opts)
	if err != nil {
		return fmt.Errorf("analyze %s: %w", source, err)
	}
	report.CleanStats = &stats

	from, to := analysis.DateBounds(table)
	selection := Selection{Countries: analysis.Countries(table), From: from, To: to}
	if selection.Countries == nil {
		selection.Countries = []string{}
	}

	a.mu.Lock()
	a.table = table
	a.report = report
	a.stats = stats
	a.source = source
	a.loadedAt = time.Now()
	a.selection = selection
	a.mu.Unlock()

	a.recordsProcessed.Store(int64(stats.Read))
	return nil
}

// Report returns the default report for a zero Query and a freshly computed
// one otherwise.
func (a *Analytics) Report(ctx context.Context, q Query) (*models.Report, error) {
	a.mu.RLock()
	table, report, stats := a.table, a.report, a.stats
	a.mu.RUnlock()

	if report == nil {
		return nil, ErrNotLoaded
	}
	a.reportsServed.Add(1)
	if q.IsDefault() {
		return report, nil
	}

	ctx, span := a.telemetry.StartSpan(ctx, "analytics.Report",
		attribute.Int("query.clusters", q.Clusters),
		attribute.StringSlice("query.countries", q.Filter.Countries),
	)
	defer span.End()

	opts := a.opts
	opts.Filter = q.Filter
	if q.Clusters > 0 {
		opts.Clusters.K = q.Clusters
	}
	if q.Seed != nil {
		opts.Clusters.Seed = *q.Seed
	}

	start := time.Now()
	filtered, err := a.run(ctx, table, opts)
	a.telemetry.Metrics.RecordRun(ctx, "query", time.Since(start), err)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	filtered.CleanStats = &stats
	return filtered, nil
}

func (a *Analytics) run(ctx context.Context, table []models.Transaction, opts analysis.Options) (*models.Report, error) {
	report, err := analysis.Analyze(ctx, table, opts)
	if err != nil {
		return nil, err
	}
	report.RunID = uuid.NewString()
	report.GeneratedAt = time.Now().UTC()

	for _, w := range report.Warnings {
		a.telemetry.Metrics.RecordWarning(ctx, w.Code)
		a.logger.Warn("degenerate input", "run_id", report.RunID, "code", w.Code, "message", w.Message)
	}
	return report, nil
}

// Selection returns the filterable countries and the invoice date range.
func (a *Analytics) Selection() (Selection, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.report == nil {
		return Selection{}, ErrNotLoaded
	}
	return a.selection, nil
}

func (a *Analytics) Ready() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.report != nil
}

// Utility method for monitoring
func (a *Analytics) Stats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := map[string]any{
		"loaded":            a.report != nil,
		"source":            a.source,
		"records_processed": a.recordsProcessed.Load(),
		"reports_served":    a.reportsServed.Load(),
		"transactions":      len(a.table),
		"discarded":         a.stats.Discarded,
	}
	if a.report != nil {
		stats["loaded_at"] = a.loadedAt
		stats["countries"] = len(a.report.Countries)
		stats["products"] = len(a.report.Products)
		stats["months"] = len(a.report.Monthly)
		stats["clusters"] = a.report.Clusters
	}
	return stats
}
