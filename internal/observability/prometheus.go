package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// PrometheusProvider bundles the MeterProvider instruments attach to and the
// [http.Handler] that serves them in Prometheus exposition format.
type PrometheusProvider struct {
	MeterProvider *sdkmetric.MeterProvider
	Handler       http.Handler
}

// NewPrometheusProvider creates a Prometheus metrics exporter and the
// MeterProvider it backs. Each call creates an independent Prometheus
// registry to avoid collector conflicts when called multiple times.
func NewPrometheusProvider() (PrometheusProvider, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(
		promexporter.WithRegisterer(registry),
	)
	if err != nil {
		return PrometheusProvider{}, fmt.Errorf("create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))

	return PrometheusProvider{
		MeterProvider: mp,
		Handler:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}, nil
}

// PrometheusHandler returns just the scrape handler, for callers that manage
// their own MeterProvider separately (kept for compatibility with callers
// that only need the HTTP surface).
func PrometheusHandler() (http.Handler, error) {
	p, err := NewPrometheusProvider()
	if err != nil {
		return nil, err
	}

	return p.Handler, nil
}
