package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the retrieval pipeline counters.
type Metrics struct {
	QueriesTotal    metric.Int64Counter
	FallbackAnswers metric.Int64Counter
	UploadsTotal    metric.Int64Counter
	ChunksIndexed   metric.Int64Counter
}

var active *Metrics

// InitMetrics registers the application counters on the global meter
// and installs them as the package-level recorder. Safe to skip: the
// Record helpers are no-ops until this runs.
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("multitenant-rag-platform")

	queriesTotal, err := meter.Int64Counter(
		"rag.queries.total",
		metric.WithDescription("Total queries answered"),
	)
	if err != nil {
		return nil, err
	}

	fallbackAnswers, err := meter.Int64Counter(
		"rag.answers.fallback",
		metric.WithDescription("Answers produced by the extractive fallback"),
	)
	if err != nil {
		return nil, err
	}

	uploadsTotal, err := meter.Int64Counter(
		"rag.uploads.total",
		metric.WithDescription("Total documents uploaded"),
	)
	if err != nil {
		return nil, err
	}

	chunksIndexed, err := meter.Int64Counter(
		"rag.chunks.indexed",
		metric.WithDescription("Total chunks pushed into the indexes"),
	)
	if err != nil {
		return nil, err
	}

	active = &Metrics{
		QueriesTotal:    queriesTotal,
		FallbackAnswers: fallbackAnswers,
		UploadsTotal:    uploadsTotal,
		ChunksIndexed:   chunksIndexed,
	}
	return active, nil
}

// RecordQuery counts one answered query, noting fallback answers
// separately.
func RecordQuery(ctx context.Context, tenantID string, fallback bool) {
	if active == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("tenant_id", tenantID))
	active.QueriesTotal.Add(ctx, 1, attrs)
	if fallback {
		active.FallbackAnswers.Add(ctx, 1, attrs)
	}
}

// RecordUpload counts one upload and its chunk yield.
func RecordUpload(ctx context.Context, tenantID string, chunks int) {
	if active == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("tenant_id", tenantID))
	active.UploadsTotal.Add(ctx, 1, attrs)
	active.ChunksIndexed.Add(ctx, int64(chunks), attrs)
}
