package policy

import (
	"sort"

	"callbench/internal/domain"
)

// Ladder implements 4.C4.4: an optional stop checked before the levels
// each bar; levels are walked ascending by multiple, each unhit level
// taking min(fraction, remaining) of the position.
type Ladder struct {
	Params domain.LadderParams
}

type ladderLevelState struct {
	domain.LadderLevel
	hit bool
}

func (l Ladder) Run(candles []domain.Candle, entryIdx int, p0 float64, _ int) Outcome {
	levels := make([]ladderLevelState, len(l.Params.Levels))
	for i, lv := range l.Params.Levels {
		levels[i] = ladderLevelState{LadderLevel: lv}
	}
	sort.SliceStable(levels, func(i, j int) bool {
		return levels[i].Multiple < levels[j].Multiple
	})

	var stop float64
	hasStop := l.Params.StopPct != nil && *l.Params.StopPct > 0
	if hasStop {
		stop = p0 * (1 - *l.Params.StopPct)
	}

	remaining := 1.0
	grossBpsAccum := 0.0
	lastPx := p0

	peakHigh := candles[entryIdx].High
	maeBps := 0.0

	for i := entryIdx; i < len(candles); i++ {
		bar := candles[i]
		peakHigh, maeBps = trackExtremes(peakHigh, maeBps, bar, p0)

		if hasStop && bar.Low <= stop && remaining > 0 {
			grossBpsAccum += (stop/p0 - 1) * 10000 * remaining
			remaining = 0
			return Outcome{
				ExitIdx:                i,
				ExitTsMs:               bar.TimestampMs(),
				ExitPx:                 stop,
				ExitReason:             domain.ExitStopLoss,
				PeakHigh:               peakHigh,
				MaxAdverseExcursionBps: maeBps,
				GrossReturnBps:         grossBpsAccum,
			}
		}

		for k := range levels {
			if levels[k].hit || remaining <= 0 {
				continue
			}
			if bar.High >= p0*levels[k].Multiple {
				levels[k].hit = true
				f := levels[k].Fraction
				if f > remaining {
					f = remaining
				}
				grossBpsAccum += (levels[k].Multiple - 1) * 10000 * f
				remaining -= f
				lastPx = p0 * levels[k].Multiple
			}
		}

		if remaining <= 0 {
			return Outcome{
				ExitIdx:                i,
				ExitTsMs:               bar.TimestampMs(),
				ExitPx:                 lastPx,
				ExitReason:             domain.ExitLadderComplete,
				PeakHigh:               peakHigh,
				MaxAdverseExcursionBps: maeBps,
				GrossReturnBps:         grossBpsAccum,
			}
		}
	}

	last := candles[len(candles)-1]
	if remaining > 0 {
		grossBpsAccum += (last.Close/p0 - 1) * 10000 * remaining
		lastPx = last.Close
	}
	return Outcome{
		ExitIdx:                len(candles) - 1,
		ExitTsMs:               last.TimestampMs(),
		ExitPx:                 lastPx,
		ExitReason:             domain.ExitEndOfData,
		PeakHigh:               peakHigh,
		MaxAdverseExcursionBps: maeBps,
		GrossReturnBps:         grossBpsAccum,
	}
}
