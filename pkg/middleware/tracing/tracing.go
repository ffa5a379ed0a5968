// Package tracing starts an OpenTelemetry server span for each request.
package tracing

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/mentneo/mentmine/pkg/middleware/requestid"
)

// DefaultTracerName is used when Tracing is given an empty name.
const DefaultTracerName = "http-server"

// Tracing extracts the incoming trace context, starts a span named
// "HTTP <method> <route>" and marks 5xx responses as errors.
func Tracing(tracerName string) gin.HandlerFunc {
	if tracerName == "" {
		tracerName = DefaultTracerName
	}
	tracer := otel.Tracer(tracerName)

	return func(c *gin.Context) {
		req := c.Request
		ctx := otel.GetTextMapPropagator().Extract(req.Context(), propagation.HeaderCarrier(req.Header))

		route := c.FullPath()
		if route == "" {
			route = req.URL.Path
		}
		ctx, span := tracer.Start(ctx, fmt.Sprintf("HTTP %s %s", req.Method, route),
			trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		span.SetAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.route", route),
			attribute.String("http.target", req.URL.Path),
			attribute.String("http.user_agent", req.UserAgent()),
		)
		if id := requestid.Get(c); id != "" {
			span.SetAttributes(attribute.String("request.id", id))
		}

		c.Request = req.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if len(c.Errors) > 0 {
			span.RecordError(c.Errors.Last())
		}
		if status >= 500 {
			span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", status))
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}
}
