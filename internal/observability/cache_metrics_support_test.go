package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricIndexCacheHits   = "wcoj.index.cache.hits"
	metricIndexCacheMisses = "wcoj.index.cache.misses"
)

// CacheStatsProvider exposes lookup hit/miss counters for OTel export. The
// Index's base and buffered layers are both candidate implementers: a hit
// is a Propose/Intersect lookup resolved without falling through to a
// slower layer.
type CacheStatsProvider interface {
	CacheHits() int64
	CacheMisses() int64
}

// RegisterCacheMetrics registers observable gauges that report lookup
// hit/miss counters from the base (compact.CompactIndex) and buffered
// (unsorted.Buffer) layers. Either provider may be nil.
func RegisterCacheMetrics(mt metric.Meter, base, buffered CacheStatsProvider) error {
	providers := make([]struct {
		name     string
		provider CacheStatsProvider
	}, 0, 2) // Two index layers: base and buffered.

	if base != nil {
		providers = append(providers, struct {
			name     string
			provider CacheStatsProvider
		}{"base", base})
	}

	if buffered != nil {
		providers = append(providers, struct {
			name     string
			provider CacheStatsProvider
		}{"buffered", buffered})
	}

	if len(providers) == 0 {
		return nil
	}

	_, err := mt.Int64ObservableGauge(metricIndexCacheHits,
		metric.WithDescription("Index layer lookup hit count"),
		metric.WithUnit("{hit}"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			for _, p := range providers {
				o.Observe(p.provider.CacheHits(), metric.WithAttributes(
					attribute.String(attrLayer, p.name),
				))
			}

			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("create %s: %w", metricIndexCacheHits, err)
	}

	_, err = mt.Int64ObservableGauge(metricIndexCacheMisses,
		metric.WithDescription("Index layer lookup miss count"),
		metric.WithUnit("{miss}"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			for _, p := range providers {
				o.Observe(p.provider.CacheMisses(), metric.WithAttributes(
					attribute.String(attrLayer, p.name),
				))
			}

			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("create %s: %w", metricIndexCacheMisses, err)
	}

	return nil
}
