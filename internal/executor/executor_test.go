package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callbench/internal/domain"
)

const baseTs = 1_704_067_200_000
const fiveMinMs = 5 * 60 * 1000

func candleAt(ts int64, o, h, l, c float64) domain.Candle {
	return domain.Candle{Timestamp: ts / 1000, Open: o, High: h, Low: l, Close: c}
}

func simpleFees(takerBps, slippageBps int) domain.FeeConfig {
	return domain.FeeConfig{Simple: &domain.SimpleFeeConfig{TakerFeeBps: takerBps, SlippageBps: slippageBps}}
}

func TestExecute_MonotonicMoon_TakeProfit(t *testing.T) {
	candles := []domain.Candle{
		candleAt(baseTs, 1.0, 1.0, 1.0, 1.0),
		candleAt(baseTs+fiveMinMs, 1.0, 1.515, 1.0, 1.5),
		candleAt(baseTs+2*fiveMinMs, 1.5, 2.02, 1.5, 2.0),
		candleAt(baseTs+3*fiveMinMs, 2.0, 2.525, 2.0, 2.5),
		candleAt(baseTs+4*fiveMinMs, 2.5, 3.03, 2.5, 3.0),
	}
	tp := 2.0
	pol := domain.Policy{Kind: domain.PolicyFixedStop, FixedStop: &domain.FixedStopParams{StopPct: 0.20, TakeProfitPct: &tp}}

	result, err := Execute(candles, baseTs, pol, simpleFees(30, 10))
	require.NoError(t, err)
	assert.Equal(t, domain.ExitTakeProfit, result.ExitReason)
	assert.InDelta(t, 3.0, result.ExitPx, 1e-9)
	assert.InDelta(t, 19920, result.RealizedReturnBps, 1e-6)
}

func TestExecute_NoEntry_WhenAlertAfterAllCandles(t *testing.T) {
	candles := []domain.Candle{candleAt(baseTs, 1, 1, 1, 1)}
	pol := domain.Policy{Kind: domain.PolicyFixedStop, FixedStop: &domain.FixedStopParams{StopPct: 0.1}}

	result, err := Execute(candles, baseTs+10*fiveMinMs, pol, simpleFees(30, 10))
	require.NoError(t, err)
	assert.Equal(t, domain.ExitNoEntry, result.ExitReason)
	assert.Zero(t, result.TimeExposedMs)
}

func TestExecute_NoEntry_WhenAnchorCloseNonPositive(t *testing.T) {
	candles := []domain.Candle{candleAt(baseTs, 0, 0, 0, 0)}
	pol := domain.Policy{Kind: domain.PolicyFixedStop, FixedStop: &domain.FixedStopParams{StopPct: 0.1}}

	result, err := Execute(candles, baseTs, pol, simpleFees(30, 10))
	require.NoError(t, err)
	assert.Equal(t, domain.ExitNoEntry, result.ExitReason)
}

func TestExecute_FeeAccounting_P3(t *testing.T) {
	// exitPx = p0 * (1+r); netReturnBps = r*10000 - 2*totalFeeBps.
	candles := []domain.Candle{
		candleAt(baseTs, 1.0, 1.0, 1.0, 1.0),
		candleAt(baseTs+fiveMinMs, 1.0, 1.30, 0.95, 1.30),
	}
	pol := domain.Policy{Kind: domain.PolicyFixedStop, FixedStop: &domain.FixedStopParams{StopPct: 0.5}}

	result, err := Execute(candles, baseTs, pol, simpleFees(30, 10))
	require.NoError(t, err)
	assert.InDelta(t, 0.30*10000-2*40, result.RealizedReturnBps, 1e-6)
}

func TestExecute_TailCaptureBounds_P4(t *testing.T) {
	candles := []domain.Candle{
		candleAt(baseTs, 1.0, 1.0, 1.0, 1.0),
		candleAt(baseTs+fiveMinMs, 1.0, 3.0, 0.8, 1.2),
		candleAt(baseTs+2*fiveMinMs, 1.2, 1.4, 1.1, 1.3),
	}
	pol := domain.Policy{Kind: domain.PolicyTrailingStop, TrailingStop: &domain.TrailingStopParams{ActivationPct: 1.0, TrailPct: 0.5}}

	result, err := Execute(candles, baseTs, pol, simpleFees(30, 10))
	require.NoError(t, err)
	if result.TailCapture != nil {
		assert.GreaterOrEqual(t, *result.TailCapture, 0.0)
		assert.LessOrEqual(t, *result.TailCapture, 1.0)
	}
}
