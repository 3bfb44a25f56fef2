// Package pathmetrics computes the alert-anchored "truth layer" path
// statistics a call's candle window exhibits, independent of any policy
// (C3). Compute is a pure, single-pass function: identical inputs yield
// byte-identical outputs, and it never reads wall-clock time.
package pathmetrics

import (
	"math"
	"sort"

	"callbench/internal/domain"
)

// Empty returns the result for a call with no usable anchor: P0 is NaN,
// every hit flag is false, and PeakMultiple is nil.
func Empty(alertTimeMs int64) domain.PathMetrics {
	return domain.PathMetrics{
		T0Ms: alertTimeMs,
		P0:   math.NaN(),
	}
}

// Compute finds the anchor candle (the first with timestamp*1000 >=
// alertTimeMs), then walks forward from it tracking peak high, min low,
// and milestone multiples. Candles must already be sorted ascending by
// timestamp (C1's contract); Compute does not re-sort or re-validate.
func Compute(candles []domain.Candle, alertTimeMs int64, opts domain.PathMetricsOptions) domain.PathMetrics {
	if opts == (domain.PathMetricsOptions{}) {
		opts = domain.DefaultPathMetricsOptions()
	}

	i := sort.Search(len(candles), func(i int) bool {
		return candles[i].TimestampMs() >= alertTimeMs
	})
	if i == len(candles) {
		return Empty(alertTimeMs)
	}

	p0 := candles[i].Close
	if !isFinitePositive(p0) {
		return Empty(alertTimeMs)
	}

	pm := domain.PathMetrics{T0Ms: alertTimeMs, P0: p0}

	peakHigh := candles[i].High
	minLow := candles[i].Low
	var alertToActivityMs *int64
	var ddPreTo2xLow float64
	hit2xJustResolved := false

	for j := i; j < len(candles); j++ {
		bar := candles[j]
		lowBeforeBar := minLow

		if bar.High > peakHigh {
			peakHigh = bar.High
		}
		if bar.Low < minLow {
			minLow = bar.Low
		}

		if alertToActivityMs == nil {
			move := math.Max(math.Abs(bar.High/p0-1), math.Abs(1-bar.Low/p0))
			if move >= opts.ActivityMovePct {
				delta := bar.TimestampMs() - alertTimeMs
				alertToActivityMs = &delta
			}
		}

		for _, m := range []struct {
			multiple float64
			hit      *bool
			t        **int64
		}{
			{2, &pm.Hit2x, &pm.T2xMs},
			{3, &pm.Hit3x, &pm.T3xMs},
			{4, &pm.Hit4x, &pm.T4xMs},
		} {
			if !*m.hit && bar.High/p0 >= m.multiple {
				*m.hit = true
				ts := bar.TimestampMs()
				*m.t = &ts
			}
		}

		if !hit2xJustResolved && pm.Hit2x {
			hit2xJustResolved = true
			if opts.DDTo2xInclusive {
				ddPreTo2xLow = minLow
			} else {
				ddPreTo2xLow = lowBeforeBar
			}
		}
	}

	peakMultiple := peakHigh / p0
	pm.PeakMultiple = &peakMultiple
	pm.DDBps = (minLow/p0 - 1) * 10000
	pm.AlertToActivityMs = alertToActivityMs

	if pm.Hit2x {
		ddTo2x := (ddPreTo2xLow/p0 - 1) * 10000
		pm.DDTo2xBps = &ddTo2x
	}

	return pm
}

func isFinitePositive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
