package set

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func TestXConcSet_Stats(t *testing.T) {
	exporter, err := stdoutmetric.New(stdoutmetric.WithWriter(io.Discard))
	require.NoError(t, err)
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewPeriodicReader(
		exporter,
		sdkmetric.WithInterval(50*time.Millisecond),
	)))
	otel.SetMeterProvider(mp)
	defer func() {
		_ = mp.Shutdown(context.Background())
	}()

	s, err := NewXConcSet[uint64, string](nil,
		WithSetStats[uint64, string]("ut"),
	)
	require.NoError(t, err)

	require.NoError(t, s.Insert(1, "a"))
	require.NoError(t, s.Insert(2, "b"))
	err = s.Insert(1, "dup")
	require.True(t, errors.Is(err, ErrXConcSetKeyExists))

	ok, err := s.Contains(1)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = s.Remove(2)
	require.NoError(t, err)
	_, err = s.Remove(9)
	require.True(t, errors.Is(err, ErrXConcSetNotFound))

	require.Equal(t, int64(1), s.Len())
	time.Sleep(100 * time.Millisecond)
}

func TestXConcSet_StatsDisabledIsNilSafe(t *testing.T) {
	var stats *setStats
	stats.RecordElementCount(1)
	stats.IncreaseInsertedCount()
	stats.IncreaseRemovedCount()
	stats.IncreaseReplacedCount()
	stats.IncreaseConflictCount()
	stats.IncreaseNotFoundCount()
	stats.IncreaseContainsCount(true)
}
