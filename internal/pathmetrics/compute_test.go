package pathmetrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callbench/internal/domain"
)

func candle(ts int64, o, h, l, c float64) domain.Candle {
	return domain.Candle{Timestamp: ts, Open: o, High: h, Low: l, Close: c, Volume: 1}
}

func TestCompute_NoAnchorCandle(t *testing.T) {
	candles := []domain.Candle{
		candle(100, 1, 1, 1, 1),
		candle(200, 1, 1, 1, 1),
	}
	pm := Compute(candles, 300_000, domain.DefaultPathMetricsOptions())
	assert.True(t, math.IsNaN(pm.P0))
	assert.False(t, pm.Hit2x)
	assert.Nil(t, pm.PeakMultiple)
}

func TestCompute_EmptyCandleSet(t *testing.T) {
	pm := Compute(nil, 100_000, domain.DefaultPathMetricsOptions())
	assert.True(t, math.IsNaN(pm.P0))
}

func TestCompute_NonPositiveAnchorClose(t *testing.T) {
	candles := []domain.Candle{
		candle(100, 0, 0, 0, 0),
	}
	pm := Compute(candles, 100_000, domain.DefaultPathMetricsOptions())
	assert.True(t, math.IsNaN(pm.P0))
}

func TestCompute_MilestoneOrdering(t *testing.T) {
	// anchor close = 1.0 at ts=100 (100_000ms). Bars then climb to 2x, 3x, 4x
	// in separate, later bars.
	candles := []domain.Candle{
		candle(100, 1.0, 1.0, 1.0, 1.0),
		candle(200, 1.0, 1.5, 0.9, 1.2),
		candle(300, 1.2, 2.0, 1.1, 1.9), // hits 2x here (high=2.0)
		candle(400, 1.9, 2.5, 1.8, 2.4),
		candle(500, 2.4, 3.0, 2.3, 2.9), // hits 3x here
		candle(600, 2.9, 4.0, 2.8, 3.9), // hits 4x here
	}
	pm := Compute(candles, 100_000, domain.DefaultPathMetricsOptions())

	require.Equal(t, 1.0, pm.P0)
	require.True(t, pm.Hit2x)
	require.NotNil(t, pm.T2xMs)
	assert.Equal(t, int64(300_000), *pm.T2xMs)

	require.True(t, pm.Hit3x)
	require.NotNil(t, pm.T3xMs)
	assert.Equal(t, int64(500_000), *pm.T3xMs)

	require.True(t, pm.Hit4x)
	require.NotNil(t, pm.T4xMs)
	assert.Equal(t, int64(600_000), *pm.T4xMs)

	require.NotNil(t, pm.PeakMultiple)
	assert.InDelta(t, 4.0, *pm.PeakMultiple, 1e-9)
}

func TestCompute_NeverHitsMilestones(t *testing.T) {
	candles := []domain.Candle{
		candle(100, 1.0, 1.05, 0.95, 1.0),
		candle(200, 1.0, 1.1, 0.8, 0.9),
		candle(300, 0.9, 1.0, 0.7, 0.85),
	}
	pm := Compute(candles, 100_000, domain.DefaultPathMetricsOptions())

	assert.False(t, pm.Hit2x)
	assert.Nil(t, pm.T2xMs)
	assert.Nil(t, pm.DDTo2xBps)
	require.NotNil(t, pm.PeakMultiple)
	assert.InDelta(t, 1.1, *pm.PeakMultiple, 1e-9)
	assert.InDelta(t, -3000, pm.DDBps, 1e-9) // (0.7/1.0 - 1) * 10000
}

func TestCompute_ActivityLatencyDetection(t *testing.T) {
	opts := domain.PathMetricsOptions{ActivityMovePct: 0.10, DDTo2xInclusive: true}
	candles := []domain.Candle{
		candle(100, 1.0, 1.02, 0.99, 1.0), // move < 10%, no activity yet
		candle(200, 1.0, 1.15, 0.99, 1.1), // high move = 15% >= 10%
		candle(300, 1.1, 1.2, 1.05, 1.15),
	}
	pm := Compute(candles, 100_000, opts)
	require.NotNil(t, pm.AlertToActivityMs)
	assert.Equal(t, int64(100_000), *pm.AlertToActivityMs)
}

func TestCompute_DDTo2xInclusiveVsExclusive(t *testing.T) {
	candles := []domain.Candle{
		candle(100, 1.0, 1.0, 1.0, 1.0),
		candle(200, 1.0, 1.1, 0.5, 1.0), // deep wick before 2x
		candle(300, 1.0, 2.0, 0.9, 1.9), // hits 2x; this bar's low is 0.9
	}

	inclusive := Compute(candles, 100_000, domain.PathMetricsOptions{ActivityMovePct: 0.10, DDTo2xInclusive: true})
	require.NotNil(t, inclusive.DDTo2xBps)
	// inclusive window folds in the 2x bar's own low (0.9), which is higher
	// than the 0.5 wick one bar earlier, but the running min already
	// absorbed 0.5 by the time the 2x bar closes.
	assert.InDelta(t, (0.5/1.0-1)*10000, *inclusive.DDTo2xBps, 1e-9)

	exclusive := Compute(candles, 100_000, domain.PathMetricsOptions{ActivityMovePct: 0.10, DDTo2xInclusive: false})
	require.NotNil(t, exclusive.DDTo2xBps)
	assert.InDelta(t, (0.5/1.0-1)*10000, *exclusive.DDTo2xBps, 1e-9)
}

func TestCompute_PureDeterministic(t *testing.T) {
	candles := []domain.Candle{
		candle(100, 1.0, 1.2, 0.9, 1.1),
		candle(200, 1.1, 2.2, 1.0, 2.1),
	}
	a := Compute(candles, 100_000, domain.DefaultPathMetricsOptions())
	b := Compute(candles, 100_000, domain.DefaultPathMetricsOptions())
	assert.Equal(t, a, b)
}
