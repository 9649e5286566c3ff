package observability

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Error classification attribute values, attached by RecordSpanError. The
// panic-recovery path in HTTPMiddleware sets error.type to "panic" instead.
const (
	ErrTypeValidation            = "validation"
	ErrTypeDependencyUnavailable = "dependency_unavailable"
	ErrTypeInternal              = "internal"

	ErrSourceDependency = "dependency"
	ErrSourceClient     = "client"
)

const (
	attrErrorType   = "error.type"
	attrErrorSource = "error.source"
)

// statusRecorder wraps http.ResponseWriter to capture the status code
// written by the wrapped handler, defaulting to 200 if WriteHeader is never
// called explicitly.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// HTTPMiddleware wraps next with request tracing (extracting any incoming
// W3C traceparent via the global propagator), panic recovery, and a
// structured access log line on completion.
func HTTPMiddleware(tracer trace.Tracer, logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path)
		defer span.End()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		defer func() {
			if rerr := recover(); rerr != nil {
				span.SetAttributes(attribute.String(attrErrorType, "panic"))
				span.AddEvent("panic.stack", trace.WithAttributes(
					attribute.String("stack", string(debug.Stack())),
				))
				span.SetStatus(codes.Error, "panic")
				rec.WriteHeader(http.StatusInternalServerError)
			}

			if rec.status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(rec.status))
			}

			logger.Info("http.request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		}()

		next.ServeHTTP(rec, r.WithContext(ctx))
	})
}

// RecordSpanError marks span as failed with err's message, tagging it with
// errType and, when non-empty, errSource.
func RecordSpanError(span trace.Span, err error, errType, errSource string) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.String(attrErrorType, errType))

	if errSource != "" {
		span.SetAttributes(attribute.String(attrErrorSource, errSource))
	}
}
