// Package executor implements the shared policy-execution finalisation
// (C5): entry-candle location, dispatch to the matching state machine,
// fee application, tail-capture, and the invariant checks.
package executor

import (
	"fmt"
	"math"
	"sort"

	"callbench/internal/domain"
	"callbench/internal/feeconfig"
	"callbench/internal/observability"
	"callbench/internal/policy"
)

// Execute runs policy against candles anchored at alertMs, returning
// no_entry with zero exposure if no valid anchor exists (failure model:
// arithmetic errors short-circuit rather than propagate NaN).
func Execute(candles []domain.Candle, alertMs int64, p domain.Policy, feeConfig domain.FeeConfig) (domain.ExecutionResult, error) {
	entryIdx, p0, ok := locateEntry(candles, alertMs)
	if !ok {
		return noEntry(alertMs), nil
	}

	totalFeeBps := feeconfig.TotalFeeBps(feeConfig)
	out := policy.For(p, alertMs).Run(candles, entryIdx, p0, totalFeeBps)

	netReturnBps := out.GrossReturnBps
	if !out.FeesPreApplied {
		netReturnBps = out.GrossReturnBps - float64(2*totalFeeBps)
	}

	peakReturnBps := (out.PeakHigh/p0 - 1) * 10000
	var tailCapture *float64
	if peakReturnBps > 0 {
		tc := math.Max(0, math.Min(out.GrossReturnBps/peakReturnBps, 1))
		tailCapture = &tc
	}

	entryTsMs := candles[entryIdx].TimestampMs()
	result := domain.ExecutionResult{
		RealizedReturnBps:      netReturnBps,
		GrossReturnBps:         out.GrossReturnBps,
		StopOut:                out.ExitReason == domain.ExitStopLoss || out.ExitReason == domain.ExitHardStop,
		MaxAdverseExcursionBps: out.MaxAdverseExcursionBps,
		TimeExposedMs:          out.ExitTsMs - entryTsMs,
		TailCapture:            tailCapture,
		EntryTsMs:              entryTsMs,
		ExitTsMs:               out.ExitTsMs,
		EntryPx:                p0,
		ExitPx:                 out.ExitPx,
		ExitReason:             out.ExitReason,
	}

	if err := checkInvariants(result, peakReturnBps, p.Kind); err != nil {
		observability.RecordInvariantViolation(string(p.Kind))
		observability.RecordTradeExecutionError(string(p.Kind))
		return domain.ExecutionResult{}, err
	}

	observability.RecordTradeExecuted(string(result.ExitReason))
	return result, nil
}

// locateEntry finds the first candle at or after alertMs (binary search
// by timestamp) and validates its close as a usable anchor price.
func locateEntry(candles []domain.Candle, alertMs int64) (int, float64, bool) {
	i := sort.Search(len(candles), func(i int) bool {
		return candles[i].TimestampMs() >= alertMs
	})
	if i == len(candles) {
		return 0, 0, false
	}
	p0 := candles[i].Close
	if math.IsNaN(p0) || math.IsInf(p0, 0) || p0 <= 0 {
		return 0, 0, false
	}
	return i, p0, true
}

func noEntry(alertMs int64) domain.ExecutionResult {
	return domain.ExecutionResult{
		EntryTsMs:  alertMs,
		ExitTsMs:   alertMs,
		ExitReason: domain.ExitNoEntry,
	}
}

// checkInvariants enforces I1, I2, I3 and the maxAdverseExcursionBps half
// of I5 at the write boundary; any violation is fatal (a bug, not a user
// error) and aborts the run. I4, I6 and the ddBps half of I5 are not
// checked here.
//
// I1 compares realizedReturnBps against a single anchor-relative peak
// (peakReturnBps, from PeakHigh/p0). wash_rebound's realized return is a
// multiplicative product across re-entries priced off the wash low, not
// off p0, so a profitable re-entry can legitimately carry the cumulative
// return past the first entry's peak; kind is exempted from I1 for the
// same reason its fees are pre-applied rather than subtracted once here.
func checkInvariants(r domain.ExecutionResult, peakReturnBps float64, kind domain.PolicyKind) error {
	if r.ExitReason == domain.ExitNoEntry {
		return nil
	}
	if kind != domain.PolicyWashRebound && r.RealizedReturnBps > peakReturnBps {
		return fmt.Errorf("%w: realizedReturnBps %f exceeds peakReturnBps %f", domain.ErrInvariantViolation, r.RealizedReturnBps, peakReturnBps)
	}
	if r.TailCapture != nil && (*r.TailCapture < 0 || *r.TailCapture > 1) {
		return fmt.Errorf("%w: tailCapture %f out of [0,1]", domain.ErrInvariantViolation, *r.TailCapture)
	}
	if r.EntryTsMs > r.ExitTsMs {
		return fmt.Errorf("%w: entryTsMs %d after exitTsMs %d", domain.ErrInvariantViolation, r.EntryTsMs, r.ExitTsMs)
	}
	if r.ExitTsMs-r.EntryTsMs != r.TimeExposedMs {
		return fmt.Errorf("%w: timeExposedMs %d mismatched with entry/exit span", domain.ErrInvariantViolation, r.TimeExposedMs)
	}
	if r.MaxAdverseExcursionBps > 0 {
		return fmt.Errorf("%w: maxAdverseExcursionBps %f must be <= 0", domain.ErrInvariantViolation, r.MaxAdverseExcursionBps)
	}
	return nil
}
