package pathcache

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("lilium.pathcache")

var (
	cascadeFolders metric.Int64Counter
	cascadeNotes   metric.Int64Counter
	rebuildsTotal  metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics creates the instruments once. Without an SDK meter provider
// they are no-ops.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		cascadeFolders, err = meter.Int64Counter(
			"pathcache_cascade_folders_total",
			metric.WithDescription("Folder path entries rewritten by cascades"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		cascadeNotes, err = meter.Int64Counter(
			"pathcache_cascade_notes_total",
			metric.WithDescription("Note path entries rewritten by cascades"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		rebuildsTotal, err = meter.Int64Counter(
			"pathcache_rebuilds_total",
			metric.WithDescription("Full path cache rebuilds"),
		)
		if err != nil {
			metricsErr = err
		}
	})
	return metricsErr
}

func recordCascade(ctx context.Context, op string, c *Cascade) {
	if initMetrics() != nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("op", op))
	cascadeFolders.Add(ctx, int64(c.Folders), attrs)
	cascadeNotes.Add(ctx, int64(len(c.Notes)), attrs)
}

func recordRebuild(ctx context.Context) {
	if initMetrics() != nil {
		return
	}
	rebuildsTotal.Add(ctx, 1)
}
