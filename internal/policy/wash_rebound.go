package policy

import "callbench/internal/domain"

type washState int

const (
	washInPosition washState = iota
	washWaitForWash
	washWaitForRebound
)

// WashRebound implements 4.C4.6: a three-state re-entry machine bounded by
// maxReentries. Fees are folded into each trade's multiplier rather than
// subtracted once at finalisation (the one policy kind where that's true).
type WashRebound struct {
	Params domain.WashReboundParams
}

func (w WashRebound) Run(candles []domain.Candle, entryIdx int, p0 float64, totalFeeBps int) Outcome {
	feeFrac := float64(totalFeeBps) / 10000

	state := washInPosition
	entryPx := p0
	peak := candles[entryIdx].High
	overallPeakHigh := peak
	maeBps := 0.0

	var peakAtExit, washLow float64
	var washLowIdx, cooldownUntilIdx int
	reentryCount := 0
	cumMultiplier := 1.0

	lastExitIdx := entryIdx
	lastExitTs := candles[entryIdx].TimestampMs()
	lastExitPx := p0
	lastExitReason := domain.ExitEndOfData

	terminated := false

	for i := entryIdx; i < len(candles) && !terminated; i++ {
		bar := candles[i]
		overallPeakHigh, maeBps = trackExtremes(overallPeakHigh, maeBps, bar, p0)

		switch state {
		case washInPosition:
			if bar.High > peak {
				peak = bar.High
			}
			trigger := peak * (1 - w.Params.TrailPct)
			if bar.Low <= trigger {
				mult := (trigger * (1 - feeFrac)) / (entryPx * (1 + feeFrac))
				cumMultiplier *= mult
				peakAtExit = peak
				lastExitIdx, lastExitTs, lastExitPx, lastExitReason = i, bar.TimestampMs(), trigger, domain.ExitTrailingStop
				state = washWaitForWash
				cooldownUntilIdx = i + w.Params.CooldownCandles
			}

		case washWaitForWash:
			if i < cooldownUntilIdx {
				continue
			}
			if bar.Low <= peakAtExit*(1-w.Params.WashPct) {
				washLow = bar.Low
				washLowIdx = i
				state = washWaitForRebound
			}

		case washWaitForRebound:
			if bar.Low < washLow {
				washLow = bar.Low
				washLowIdx = i
			}
			if i > washLowIdx && bar.High >= washLow*(1+w.Params.ReboundPct) {
				if reentryCount >= w.Params.MaxReentries {
					terminated = true
					break
				}
				reentryCount++
				entryPx = washLow * (1 + w.Params.ReboundPct)
				peak = bar.High
				state = washInPosition
			}
		}
	}

	if state == washInPosition && !terminated {
		last := candles[len(candles)-1]
		mult := (last.Close * (1 - feeFrac)) / (entryPx * (1 + feeFrac))
		cumMultiplier *= mult
		lastExitIdx, lastExitTs, lastExitPx, lastExitReason = len(candles)-1, last.TimestampMs(), last.Close, domain.ExitEndOfData
	}

	return Outcome{
		ExitIdx:                lastExitIdx,
		ExitTsMs:               lastExitTs,
		ExitPx:                 lastExitPx,
		ExitReason:             lastExitReason,
		PeakHigh:               overallPeakHigh,
		MaxAdverseExcursionBps: maeBps,
		GrossReturnBps:         (cumMultiplier - 1) * 10000,
		FeesPreApplied:         true,
	}
}
