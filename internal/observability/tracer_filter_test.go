package observability_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/wcoj/internal/observability"
)

func newTestProvider() (*tracetest.InMemoryExporter, trace.TracerProvider) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	return exporter, tp
}

func TestFilteringProvider_SuppressedTracer(t *testing.T) {
	t.Parallel()

	exporter, base := newTestProvider()
	fp := observability.NewFilteringTracerProvider(base)

	// wcoj.lsm is suppressed — spans should not be recorded.
	tracer := fp.Tracer("wcoj.lsm")
	_, span := tracer.Start(context.Background(), "lsm.seal_from")
	span.End()

	assert.Empty(t, exporter.GetSpans(), "suppressed tracer should produce no exported spans")
}

func TestFilteringProvider_SuppressedSpan(t *testing.T) {
	t.Parallel()

	exporter, base := newTestProvider()
	fp := observability.NewFilteringTracerProvider(base)

	tracer := fp.Tracer("wcoj.worker")

	// Structural span should pass through.
	_, structSpan := tracer.Start(context.Background(), "wcoj.worker.run_to_fixed_point")
	structSpan.End()

	// Hot-path span should be suppressed.
	_, hotSpan := tracer.Start(context.Background(), "wcoj.index.propose")
	hotSpan.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1, "only structural span should be exported")
	assert.Equal(t, "wcoj.worker.run_to_fixed_point", spans[0].Name)
}

func TestFilteringProvider_PassThrough(t *testing.T) {
	t.Parallel()

	exporter, base := newTestProvider()
	fp := observability.NewFilteringTracerProvider(base)

	// Root "wcoj" tracer is not suppressed — spans pass through, but
	// span-level filtering still applies (wcoj.index.propose).
	tracer := fp.Tracer("wcoj")
	_, span := tracer.Start(context.Background(), "wcoj.some_operation")
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "wcoj.some_operation", spans[0].Name)
}

func TestFilteringProvider_CompactIndexSuppressed(t *testing.T) {
	t.Parallel()

	exporter, base := newTestProvider()
	fp := observability.NewFilteringTracerProvider(base)

	tracer := fp.Tracer("wcoj.compact")
	_, span := tracer.Start(context.Background(), "compact.load")
	span.End()

	assert.Empty(t, exporter.GetSpans(), "compact index spans should be suppressed")
}

func TestFilteringProvider_NoopSpanIsValid(t *testing.T) {
	t.Parallel()

	fp := observability.NewFilteringTracerProvider(nooptrace.NewTracerProvider())

	tracer := fp.Tracer("wcoj.lsm")
	ctx, span := tracer.Start(context.Background(), "lsm.push")

	// Noop span should still be usable without panicking.
	span.SetName("renamed")
	span.End()

	assert.NotNil(t, ctx)
}
