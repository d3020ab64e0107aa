package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	HTTPRequests     metric.Int64Counter
	HTTPDuration     metric.Float64Histogram
	PipelineRuns     metric.Int64Counter
	PipelineDuration metric.Float64Histogram
	RowsRead         metric.Int64Counter
	RowsDiscarded    metric.Int64Counter
	Warnings         metric.Int64Counter
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)

	if m.HTTPRequests, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	); err != nil {
		return nil, err
	}
	if m.HTTPDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.PipelineRuns, err = meter.Int64Counter(
		"pipeline_runs_total",
		metric.WithDescription("Analysis pipeline runs by outcome"),
	); err != nil {
		return nil, err
	}
	if m.PipelineDuration, err = meter.Float64Histogram(
		"pipeline_duration_seconds",
		metric.WithDescription("Analysis pipeline duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.RowsRead, err = meter.Int64Counter(
		"dataset_rows_read_total",
		metric.WithDescription("Raw dataset rows handed to the cleaner"),
	); err != nil {
		return nil, err
	}
	if m.RowsDiscarded, err = meter.Int64Counter(
		"dataset_rows_discarded_total",
		metric.WithDescription("Raw rows dropped by the cleaner, by reason"),
	); err != nil {
		return nil, err
	}
	if m.Warnings, err = meter.Int64Counter(
		"pipeline_warnings_total",
		metric.WithDescription("Degenerate-input warnings attached to reports, by code"),
	); err != nil {
		return nil, err
	}

	return &m, nil
}

func (m *Metrics) RecordRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", status),
	)
	m.HTTPRequests.Add(ctx, 1, attrs)
	m.HTTPDuration.Record(ctx, duration.Seconds(), attrs)
}

func (m *Metrics) RecordRun(ctx context.Context, kind string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	attrs := metric.WithAttributes(
		attribute.String("run.kind", kind),
		attribute.String("status", status),
	)
	m.PipelineRuns.Add(ctx, 1, attrs)
	m.PipelineDuration.Record(ctx, duration.Seconds(), attrs)
}

func (m *Metrics) RecordClean(ctx context.Context, read int, discarded map[string]int) {
	m.RowsRead.Add(ctx, int64(read))
	for reason, n := range discarded {
		m.RowsDiscarded.Add(ctx, int64(n), metric.WithAttributes(attribute.String("reason", reason)))
	}
}

func (m *Metrics) RecordWarning(ctx context.Context, code string) {
	m.Warnings.Add(ctx, 1, metric.WithAttributes(attribute.String("code", code)))
}
