package policy

import "callbench/internal/domain"

// TrailingStop implements 4.C4.3: a hard stop checked first, then
// activation, then trail maintenance/trigger, all on the same bar in that
// order.
type TrailingStop struct {
	Params domain.TrailingStopParams
}

func (t TrailingStop) Run(candles []domain.Candle, entryIdx int, p0 float64, _ int) Outcome {
	activation := p0 * (1 + t.Params.ActivationPct)
	hardStop := 0.0
	if t.Params.HardStopPct != nil {
		hardStop = p0 * (1 - *t.Params.HardStopPct)
	}

	active := false
	var trailPeak, trailStopPrice float64

	peakHigh := candles[entryIdx].High
	maeBps := 0.0

	for i := entryIdx; i < len(candles); i++ {
		bar := candles[i]
		peakHigh, maeBps = trackExtremes(peakHigh, maeBps, bar, p0)

		if hardStop > 0 && bar.Low <= hardStop {
			return outcomeAt(i, bar, hardStop, domain.ExitHardStop, peakHigh, maeBps, p0)
		}

		if !active && bar.High >= activation {
			active = true
			trailPeak = bar.High
			trailStopPrice = trailPeak * (1 - t.Params.TrailPct)
		}

		if active {
			if bar.High > trailPeak {
				trailPeak = bar.High
				trailStopPrice = trailPeak * (1 - t.Params.TrailPct)
			}
			if bar.Low <= trailStopPrice {
				return outcomeAt(i, bar, trailStopPrice, domain.ExitTrailingStop, peakHigh, maeBps, p0)
			}
		}
	}

	last := candles[len(candles)-1]
	return outcomeAt(len(candles)-1, last, last.Close, domain.ExitEndOfData, peakHigh, maeBps, p0)
}
