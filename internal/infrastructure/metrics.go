package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"mediapulse/pkg/contracts/domain"
)

// AppMetrics holds the HTTP and domain instruments. It satisfies the
// recorder interfaces of the insight and dashboard services.
type AppMetrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	// Ingestion metrics
	DatasetsIngested   metric.Int64Counter
	RowsIngested       metric.Int64Counter
	RowsDropped        metric.Int64Counter
	EngagementDefaults metric.Int64Counter
	IngestDuration     metric.Float64Histogram
	IngestIssues       metric.Int64Counter

	// Insight metrics
	InsightRequests metric.Int64Counter
	InsightLatency  metric.Float64Histogram
}

// NewAppMetrics creates every instrument on meter
func NewAppMetrics(meter metric.Meter) (*AppMetrics, error) {
	m := &AppMetrics{}
	var err error

	if m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	); err != nil {
		return nil, err
	}
	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.HTTPActiveRequests, err = meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	); err != nil {
		return nil, err
	}

	if m.DatasetsIngested, err = meter.Int64Counter(
		"datasets_ingested_total",
		metric.WithDescription("Total number of ingested datasets"),
	); err != nil {
		return nil, err
	}
	if m.RowsIngested, err = meter.Int64Counter(
		"dataset_rows_retained_total",
		metric.WithDescription("Rows kept after ingestion"),
	); err != nil {
		return nil, err
	}
	if m.RowsDropped, err = meter.Int64Counter(
		"dataset_rows_dropped_total",
		metric.WithDescription("Rows dropped for an unparseable date"),
	); err != nil {
		return nil, err
	}
	if m.EngagementDefaults, err = meter.Int64Counter(
		"dataset_engagement_defaults_total",
		metric.WithDescription("Engagement cells defaulted to zero"),
	); err != nil {
		return nil, err
	}
	if m.IngestDuration, err = meter.Float64Histogram(
		"dataset_ingest_duration_seconds",
		metric.WithDescription("Time spent parsing an upload"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.IngestIssues, err = meter.Int64Counter(
		"dataset_ingest_issues_total",
		metric.WithDescription("Non-fatal ingestion issues by kind"),
	); err != nil {
		return nil, err
	}

	if m.InsightRequests, err = meter.Int64Counter(
		"insight_requests_total",
		metric.WithDescription("Insight requests by view and outcome"),
	); err != nil {
		return nil, err
	}
	if m.InsightLatency, err = meter.Float64Histogram(
		"insight_latency_seconds",
		metric.WithDescription("Insight resolution latency including cache hits"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordIngest records one successful ingestion
func (m *AppMetrics) RecordIngest(ctx context.Context, format string, report *domain.IngestReport, elapsed time.Duration) {
	if m == nil || report == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("format", format))

	m.DatasetsIngested.Add(ctx, 1, attrs)
	m.RowsIngested.Add(ctx, int64(report.RetainedRows), attrs)
	m.RowsDropped.Add(ctx, int64(report.DroppedInvalidDates), attrs)
	m.EngagementDefaults.Add(ctx, int64(report.DefaultedEngagements), attrs)
	m.IngestDuration.Record(ctx, elapsed.Seconds(), attrs)
	for _, issue := range report.Issues {
		m.IngestIssues.Add(ctx, 1, metric.WithAttributes(
			attribute.String("format", format),
			attribute.String("kind", string(issue.Kind)),
		))
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent("dataset.ingested", trace.WithAttributes(
			attribute.String("format", format),
			attribute.Int("rows.retained", report.RetainedRows),
			attribute.Int("rows.dropped", report.DroppedInvalidDates),
		))
	}
}

// RecordInsight records one resolved insight
func (m *AppMetrics) RecordInsight(ctx context.Context, kind domain.ViewKind, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("view", string(kind)),
		attribute.String("outcome", outcome),
	)
	m.InsightRequests.Add(ctx, 1, attrs)
	m.InsightLatency.Record(ctx, elapsed.Seconds(), attrs)
}
