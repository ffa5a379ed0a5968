// Package tracing provides OpenTelemetry tracing for queries and store reads.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	queryInstrumentation = "github.com/mentneo/mentmine/pkg/query"
	storeInstrumentation = "github.com/mentneo/mentmine/pkg/store"
)

// StartQuerySpan starts the span wrapping one client-side query.
func StartQuerySpan(ctx context.Context, collection string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(queryInstrumentation).Start(ctx, fmt.Sprintf("QUERY %s", collection),
		trace.WithSpanKind(trace.SpanKindInternal))
	span.SetAttributes(attribute.String("query.collection", collection))
	return ctx, span
}

// SetQueryResult annotates a query span with the scan and result sizes.
func SetQueryResult(span trace.Span, scanned, returned int) {
	span.SetAttributes(
		attribute.Int("query.records_scanned", scanned),
		attribute.Int("query.records_returned", returned),
	)
	RecordSuccess(span)
}

// StartStoreSpan starts a client span for a bulk collection read.
// system is the backend name, for example "mongodb" or "firestore".
func StartStoreSpan(ctx context.Context, system, collection string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(storeInstrumentation).Start(ctx, fmt.Sprintf("DB scan %s", collection),
		trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("db.system", system),
		attribute.String("db.operation", "scan"),
		attribute.String("db.collection", collection),
	)
	return ctx, span
}

// RecordError records an error in the span and sets the span status to error.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// RecordSuccess sets the span status to OK.
func RecordSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}
