package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// ErrOTLPNotWired is returned by Init when Config.OTLPEndpoint is set: only
// the Prometheus scrape path is wired (see NewPrometheusProvider); there is
// no OTLP exporter dependency in this build.
var ErrOTLPNotWired = errors.New("observability: OTLP export is not wired, leave OTLPEndpoint empty")

// Providers bundles the constructed tracer, meter, and logger for a single
// process, plus a Shutdown hook that flushes the tracer provider.
type Providers struct {
	Tracer trace.Tracer
	Meter  metric.Meter
	Logger *slog.Logger

	tracerProvider *sdktrace.TracerProvider
}

// Init constructs Providers from cfg: a resource-tagged tracer provider, a
// Prometheus-backed meter provider, and a structured slog.Logger. Call
// Shutdown before process exit to flush buffered spans.
func Init(cfg Config) (Providers, error) {
	if cfg.OTLPEndpoint != "" {
		return Providers{}, ErrOTLPNotWired
	}

	res, err := buildResource(cfg)
	if err != nil {
		return Providers{}, fmt.Errorf("observability: build resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithResource(res), sdktrace.WithSampler(selectSampler(cfg)))
	otel.SetTracerProvider(tp)

	promProvider, err := NewPrometheusProvider()
	if err != nil {
		return Providers{}, err
	}

	otel.SetMeterProvider(promProvider.MeterProvider)

	return Providers{
		Tracer:         tp.Tracer(cfg.ServiceName),
		Meter:          promProvider.MeterProvider.Meter(cfg.ServiceName),
		Logger:         newLogger(cfg),
		tracerProvider: tp,
	}, nil
}

// Shutdown flushes the tracer provider, waiting as long as ctx allows; it
// applies no timeout of its own.
func (p Providers) Shutdown(ctx context.Context) error {
	if p.tracerProvider == nil {
		return nil
	}

	return p.tracerProvider.Shutdown(ctx)
}

// buildResource tags a resource with service identity and deployment
// environment, the attributes every exported span and metric carries.
func buildResource(cfg Config) (*resource.Resource, error) {
	return resource.New(context.Background(), resource.WithAttributes(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
		attribute.String("deployment.environment", cfg.Environment),
	))
}

// selectSampler resolves the trace sampler from cfg: DebugTrace forces
// always-on sampling, a positive SampleRatio switches to ratio-based
// sampling, and the zero value keeps the SDK's always-on default.
func selectSampler(cfg Config) sdktrace.Sampler {
	if !cfg.DebugTrace && cfg.SampleRatio > 0 {
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))
	}

	return sdktrace.ParentBased(sdktrace.AlwaysSample())
}

// newLogger builds a slog.Logger honoring cfg.LogLevel and cfg.LogJSON.
func newLogger(cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}

	if cfg.LogJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}

	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
