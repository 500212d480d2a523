package set

import (
	"context"
	"fmt"
	"strconv"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	SetStatsName = "xcset/set"
)

// setStats publishes one set instance's operation counters. All methods
// are nil-receiver safe so the disabled path costs a single branch.
type setStats struct {
	elementCount  metric.Int64UpDownCounter
	insertedCount metric.Int64Counter
	removedCount  metric.Int64Counter
	replacedCount metric.Int64Counter
	conflictCount metric.Int64Counter
	notFoundCount metric.Int64Counter
	containsCount metric.Int64Counter
}

func (stats *setStats) RecordElementCount(delta int64) {
	if stats == nil {
		return
	}
	stats.elementCount.Add(context.Background(), delta)
}

func (stats *setStats) IncreaseInsertedCount() {
	if stats == nil {
		return
	}
	stats.insertedCount.Add(context.Background(), 1)
}

func (stats *setStats) IncreaseRemovedCount() {
	if stats == nil {
		return
	}
	stats.removedCount.Add(context.Background(), 1)
}

func (stats *setStats) IncreaseReplacedCount() {
	if stats == nil {
		return
	}
	stats.replacedCount.Add(context.Background(), 1)
}

func (stats *setStats) IncreaseConflictCount() {
	if stats == nil {
		return
	}
	stats.conflictCount.Add(context.Background(), 1)
}

func (stats *setStats) IncreaseNotFoundCount() {
	if stats == nil {
		return
	}
	stats.notFoundCount.Add(context.Background(), 1)
}

func (stats *setStats) IncreaseContainsCount(hit bool) {
	if stats == nil {
		return
	}
	as := attribute.NewSet(
		attribute.String("xcset.contains.hit", strconv.FormatBool(hit)),
	)
	stats.containsCount.Add(context.Background(), 1, metric.WithAttributeSet(as))
}

func newSetStats(name string) *setStats {
	meterName := fmt.Sprintf("%s/%s", SetStatsName, name)
	stats := &setStats{
		elementCount: lo.Must[metric.Int64UpDownCounter](otel.Meter(meterName).
			Int64UpDownCounter(
				"xcset.element.count",
				metric.WithDescription("The number of elements in the set."),
			),
		),
		insertedCount: lo.Must[metric.Int64Counter](otel.Meter(meterName).
			Int64Counter(
				"xcset.inserted.count",
				metric.WithDescription("The number of elements inserted into the set."),
			),
		),
		removedCount: lo.Must[metric.Int64Counter](otel.Meter(meterName).
			Int64Counter(
				"xcset.removed.count",
				metric.WithDescription("The number of elements removed from the set."),
			),
		),
		replacedCount: lo.Must[metric.Int64Counter](otel.Meter(meterName).
			Int64Counter(
				"xcset.replaced.count",
				metric.WithDescription("The number of values replaced on duplicate inserts."),
			),
		),
		conflictCount: lo.Must[metric.Int64Counter](otel.Meter(meterName).
			Int64Counter(
				"xcset.conflict.count",
				metric.WithDescription("The number of duplicate inserts rejected."),
			),
		),
		notFoundCount: lo.Must[metric.Int64Counter](otel.Meter(meterName).
			Int64Counter(
				"xcset.notfound.count",
				metric.WithDescription("The number of removes of absent keys."),
			),
		),
		containsCount: lo.Must[metric.Int64Counter](otel.Meter(meterName).
			Int64Counter(
				"xcset.contains.count",
				metric.WithDescription("The number of membership checks, tagged by hit."),
			),
		),
	}
	return stats
}
