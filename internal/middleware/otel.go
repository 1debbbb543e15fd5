package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"charmcli/internal/infrastructure"
)

// OTel traces each request and records the HTTP request instruments of
// metrics. Either may be nil.
func OTel(tracer trace.Tracer, metrics *infrastructure.PipelineMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := r.Context()

			var span trace.Span
			if tracer != nil {
				ctx, span = tracer.Start(ctx, fmt.Sprintf("%s %s", r.Method, r.URL.Path),
					trace.WithSpanKind(trace.SpanKindServer),
					trace.WithAttributes(
						semconv.HTTPRequestMethodKey.String(r.Method),
						semconv.URLPath(r.URL.Path),
						semconv.UserAgentOriginal(r.UserAgent()),
					),
				)
				defer span.End()
				if sc := span.SpanContext(); sc.IsValid() {
					ctx = infrastructure.WithTraceID(ctx, sc.TraceID().String())
				}
			}

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			r = r.WithContext(ctx)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := routePattern(r)

			if span != nil {
				span.SetName(fmt.Sprintf("%s %s", r.Method, route))
				span.SetAttributes(
					semconv.HTTPRoute(route),
					semconv.HTTPResponseStatusCode(status),
				)
				if status >= http.StatusInternalServerError {
					span.SetStatus(codes.Error, http.StatusText(status))
				}
			}

			if metrics != nil {
				attrs := metric.WithAttributes(
					attribute.String("method", r.Method),
					attribute.String("route", route),
					attribute.Int("status", status),
				)
				metrics.HTTPRequests.Add(ctx, 1, attrs)
				metrics.HTTPRequestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
			}
		})
	}
}

// routePattern returns the matched chi pattern so metrics do not fan out
// per run ID
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}
