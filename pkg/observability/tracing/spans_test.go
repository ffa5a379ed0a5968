package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })
	return recorder
}

func attrMap(attrs []attribute.KeyValue) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value, len(attrs))
	for _, kv := range attrs {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestStartQuerySpan(t *testing.T) {
	recorder := setupTestTracer(t)

	_, span := StartQuerySpan(context.Background(), "courses")
	SetQueryResult(span, 10, 3)
	span.End()

	ended := recorder.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 span, got %d", len(ended))
	}
	s := ended[0]
	if s.Name() != "QUERY courses" {
		t.Fatalf("unexpected span name %q", s.Name())
	}
	attrs := attrMap(s.Attributes())
	if attrs["query.collection"].AsString() != "courses" {
		t.Fatalf("missing collection attribute")
	}
	if attrs["query.records_scanned"].AsInt64() != 10 || attrs["query.records_returned"].AsInt64() != 3 {
		t.Fatalf("unexpected size attributes: %v", attrs)
	}
	if s.Status().Code != codes.Ok {
		t.Fatalf("expected OK status, got %v", s.Status().Code)
	}
}

func TestStartStoreSpan(t *testing.T) {
	recorder := setupTestTracer(t)

	_, span := StartStoreSpan(context.Background(), "mongodb", "events")
	span.End()

	s := recorder.Ended()[0]
	if s.Name() != "DB scan events" {
		t.Fatalf("unexpected span name %q", s.Name())
	}
	attrs := attrMap(s.Attributes())
	if attrs["db.system"].AsString() != "mongodb" {
		t.Fatalf("missing db.system attribute")
	}
}

func TestRecordError(t *testing.T) {
	recorder := setupTestTracer(t)

	_, span := StartQuerySpan(context.Background(), "reviews")
	RecordError(span, errors.New("boom"))
	RecordError(span, nil)
	span.End()

	s := recorder.Ended()[0]
	if s.Status().Code != codes.Error {
		t.Fatalf("expected error status, got %v", s.Status().Code)
	}
	if len(s.Events()) != 1 {
		t.Fatalf("expected one exception event, got %d", len(s.Events()))
	}
}
