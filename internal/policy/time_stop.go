package policy

import (
	"math"

	"callbench/internal/domain"
)

// TimeStop implements 4.C4.2: exit once barTs reaches alertTime+maxHoldMs,
// checked before take-profit on a shared bar.
type TimeStop struct {
	Params  domain.TimeStopParams
	AlertMs int64
}

func (t TimeStop) Run(candles []domain.Candle, entryIdx int, p0 float64, _ int) Outcome {
	deadline := t.AlertMs + t.Params.MaxHoldMs
	takeProfit := math.Inf(1)
	if t.Params.TakeProfitPct != nil {
		takeProfit = p0 * (1 + *t.Params.TakeProfitPct)
	}

	peakHigh := candles[entryIdx].High
	maeBps := 0.0

	for i := entryIdx; i < len(candles); i++ {
		bar := candles[i]
		peakHigh, maeBps = trackExtremes(peakHigh, maeBps, bar, p0)

		if bar.TimestampMs() >= deadline {
			return outcomeAt(i, bar, bar.Close, domain.ExitTimeStop, peakHigh, maeBps, p0)
		}
		if bar.High >= takeProfit {
			return outcomeAt(i, bar, takeProfit, domain.ExitTakeProfit, peakHigh, maeBps, p0)
		}
	}

	last := candles[len(candles)-1]
	return outcomeAt(len(candles)-1, last, last.Close, domain.ExitEndOfData, peakHigh, maeBps, p0)
}
