package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricUpdatesTotal  = "wcoj.pipeline.updates.total"
	metricBatchesTotal  = "wcoj.pipeline.batches.total"
	metricBatchDuration = "wcoj.pipeline.batch.duration.seconds"
	metricMatchesTotal  = "wcoj.pipeline.matches.total"
	metricCacheHits     = "wcoj.pipeline.cache.hits.total"
	metricCacheMisses   = "wcoj.pipeline.cache.misses.total"

	attrLayer = "layer"
)

// AnalysisMetrics holds OTel instruments for one worker's streaming pipeline:
// edge updates absorbed, worker batches stepped, motif matches emitted (with
// sign), and index-layer hit/miss counts (base vs. buffered).
type AnalysisMetrics struct {
	updatesTotal  metric.Int64Counter
	batchesTotal  metric.Int64Counter
	batchDuration metric.Float64Histogram
	matchesTotal  metric.Int64Counter
	cacheHits     metric.Int64Counter
	cacheMisses   metric.Int64Counter
}

// AnalysisStats holds the statistics for one worker Step or TrackMotif call.
type AnalysisStats struct {
	Updates        int64
	Batches        int
	BatchDurations []time.Duration
	MatchesEmitted int64
	BaseHits       int64
	BaseMisses     int64
	BufferedHits   int64
	BufferedMisses int64
}

// NewAnalysisMetrics creates pipeline metric instruments from the given meter.
func NewAnalysisMetrics(mt metric.Meter) (*AnalysisMetrics, error) {
	b := newMetricBuilder(mt)

	am := &AnalysisMetrics{
		updatesTotal:  b.counter(metricUpdatesTotal, "Total edge updates absorbed", "{update}"),
		batchesTotal:  b.counter(metricBatchesTotal, "Total worker batches stepped", "{batch}"),
		batchDuration: b.histogram(metricBatchDuration, "Per-batch processing duration in seconds", "s", durationBucketBoundaries...),
		matchesTotal:  b.counter(metricMatchesTotal, "Total motif-instance deltas emitted", "{match}"),
		cacheHits:     b.counter(metricCacheHits, "Index layer hits by layer", "{hit}"),
		cacheMisses:   b.counter(metricCacheMisses, "Index layer misses by layer", "{miss}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return am, nil
}

// RecordRun records pipeline statistics for a completed unit of work. Safe
// to call on a nil receiver (no-op), so callers need not guard every call
// site when metrics are disabled.
func (am *AnalysisMetrics) RecordRun(ctx context.Context, stats AnalysisStats) {
	if am == nil {
		return
	}

	am.updatesTotal.Add(ctx, stats.Updates)
	am.batchesTotal.Add(ctx, int64(stats.Batches))
	am.matchesTotal.Add(ctx, stats.MatchesEmitted)

	for _, d := range stats.BatchDurations {
		am.batchDuration.Record(ctx, d.Seconds())
	}

	baseAttrs := metric.WithAttributes(attribute.String(attrLayer, "base"))
	am.cacheHits.Add(ctx, stats.BaseHits, baseAttrs)
	am.cacheMisses.Add(ctx, stats.BaseMisses, baseAttrs)

	bufferedAttrs := metric.WithAttributes(attribute.String(attrLayer, "buffered"))
	am.cacheHits.Add(ctx, stats.BufferedHits, bufferedAttrs)
	am.cacheMisses.Add(ctx, stats.BufferedMisses, bufferedAttrs)
}
