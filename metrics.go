package jniscan

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/vecstack/jniscan"

// Session-level instruments, resolved once from the global MeterProvider.
type bridgeMetrics struct {
	rowsRead      metric.Int64Counter
	batchesRead   metric.Int64Counter
	fetchErrors   metric.Int64Counter
	fetchDuration metric.Float64Histogram
}

var (
	metricsOnce sync.Once
	metricsInst *bridgeMetrics
)

func getMetrics() *bridgeMetrics {
	metricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter(instrumentationName)

		m := &bridgeMetrics{}
		m.rowsRead, _ = meter.Int64Counter("jniscan.rows_read",
			metric.WithDescription("Rows materialized from foreign scanner batches"))
		m.batchesRead, _ = meter.Int64Counter("jniscan.batches_read",
			metric.WithDescription("Batches fetched from foreign scanners"))
		m.fetchErrors, _ = meter.Int64Counter("jniscan.fetch_errors",
			metric.WithDescription("Failed fetch calls"))
		m.fetchDuration, _ = meter.Float64Histogram("jniscan.fetch_duration",
			metric.WithDescription("Duration of one fetch including materialization"),
			metric.WithUnit("s"))
		metricsInst = m
	})
	return metricsInst
}

func (m *bridgeMetrics) recordFetch(ctx context.Context, scanner string, rows int64, start time.Time, err error) {
	attrs := metric.WithAttributes(attribute.String("scanner", scanner))
	if err != nil {
		m.fetchErrors.Add(ctx, 1, attrs)
		return
	}
	m.rowsRead.Add(ctx, rows, attrs)
	m.batchesRead.Add(ctx, 1, attrs)
	m.fetchDuration.Record(ctx, time.Since(start).Seconds(), attrs)
}
