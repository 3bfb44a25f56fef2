package policy

import (
	"math"

	"callbench/internal/domain"
)

// FixedStop implements 4.C4.1: a static stop and an optional static
// take-profit, stop checked before take-profit on a shared bar.
type FixedStop struct {
	Params domain.FixedStopParams
}

func (f FixedStop) Run(candles []domain.Candle, entryIdx int, p0 float64, _ int) Outcome {
	stop := p0 * (1 - f.Params.StopPct)
	takeProfit := math.Inf(1)
	if f.Params.TakeProfitPct != nil {
		takeProfit = p0 * (1 + *f.Params.TakeProfitPct)
	}

	peakHigh := candles[entryIdx].High
	maeBps := 0.0

	for i := entryIdx; i < len(candles); i++ {
		bar := candles[i]
		peakHigh, maeBps = trackExtremes(peakHigh, maeBps, bar, p0)

		if bar.Low <= stop {
			return outcomeAt(i, bar, stop, domain.ExitStopLoss, peakHigh, maeBps, p0)
		}
		if bar.High >= takeProfit {
			return outcomeAt(i, bar, takeProfit, domain.ExitTakeProfit, peakHigh, maeBps, p0)
		}
	}

	last := candles[len(candles)-1]
	return outcomeAt(len(candles)-1, last, last.Close, domain.ExitEndOfData, peakHigh, maeBps, p0)
}

func outcomeAt(idx int, bar domain.Candle, exitPx float64, reason domain.ExitReason, peakHigh, maeBps, p0 float64) Outcome {
	return Outcome{
		ExitIdx:                idx,
		ExitTsMs:               bar.TimestampMs(),
		ExitPx:                 exitPx,
		ExitReason:             reason,
		PeakHigh:               peakHigh,
		MaxAdverseExcursionBps: maeBps,
		GrossReturnBps:         grossBps(exitPx, p0),
	}
}
