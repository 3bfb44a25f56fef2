// Package policy implements the six exit-policy state machines (C4): one
// bar-indexed evaluator per policy kind, all sharing the same candle
// contract: a policy is a pure function of candles[0..i] at bar i (P1),
// never of anything after it.
package policy

import "callbench/internal/domain"

// Outcome is what a state machine produces once its run ends, whether by
// trigger or by exhausting the candle sequence. The executor (C5) turns
// this into a domain.ExecutionResult by applying fees (unless
// FeesPreApplied) and the invariant checks.
type Outcome struct {
	ExitIdx                int
	ExitTsMs               int64
	ExitPx                 float64
	ExitReason             domain.ExitReason
	PeakHigh               float64
	MaxAdverseExcursionBps float64

	// GrossReturnBps is the return the executor charges fees against. For
	// the single-trade policies this is (ExitPx/p0 - 1) * 10000; ladder
	// and wash_rebound compute it themselves from their own accounting.
	GrossReturnBps float64

	// FeesPreApplied marks wash_rebound, which folds fees into its
	// per-trade multiplier rather than letting the executor subtract
	// 2 x totalFeeBps once at the end.
	FeesPreApplied bool
}

// Machine runs one policy kind over a candle sequence starting at the
// shared entry index.
type Machine interface {
	Run(candles []domain.Candle, entryIdx int, p0 float64, totalFeeBps int) Outcome
}

// trackExtremes folds bar into the running peakHigh / maxAdverseExcursionBps
// pair every policy maintains against the same anchor price p0 (P2).
func trackExtremes(peakHigh, maeBps float64, bar domain.Candle, p0 float64) (float64, float64) {
	if bar.High > peakHigh {
		peakHigh = bar.High
	}
	excursion := (bar.Low/p0 - 1) * 10000
	if excursion < maeBps {
		maeBps = excursion
	}
	return peakHigh, maeBps
}

func grossBps(exitPx, p0 float64) float64 {
	return (exitPx/p0 - 1) * 10000
}
