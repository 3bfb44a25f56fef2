package policy

import "callbench/internal/domain"

// For is the factory (C4's "exhaustive, compile-time-checkable dispatch")
// from a tagged Policy to the Machine that runs it. alertMs is only
// consumed by time_stop (its deadline is alert-relative, not
// entry-relative) and combo (to thread through to its sub-policies).
func For(p domain.Policy, alertMs int64) Machine {
	return forAlert(p, alertMs)
}

func forAlert(p domain.Policy, alertMs int64) Machine {
	switch {
	case p.Kind == domain.PolicyFixedStop && p.FixedStop != nil:
		return FixedStop{Params: *p.FixedStop}
	case p.Kind == domain.PolicyTimeStop && p.TimeStop != nil:
		return TimeStop{Params: *p.TimeStop, AlertMs: alertMs}
	case p.Kind == domain.PolicyTrailingStop && p.TrailingStop != nil:
		return TrailingStop{Params: *p.TrailingStop}
	case p.Kind == domain.PolicyLadder && p.Ladder != nil:
		return Ladder{Params: *p.Ladder}
	case p.Kind == domain.PolicyCombo && p.Combo != nil:
		return Combo{Params: *p.Combo, AlertMs: alertMs}
	case p.Kind == domain.PolicyWashRebound && p.WashRebound != nil:
		return WashRebound{Params: *p.WashRebound}
	default:
		return unsupported{}
	}
}

// unsupported is returned for a malformed Policy (nil payload, unknown
// Kind) rather than panicking. It exits at the last bar at the entry
// price with reason no_entry, which the executor's invariant checks skip.
type unsupported struct{}

func (unsupported) Run(candles []domain.Candle, entryIdx int, p0 float64, _ int) Outcome {
	last := candles[len(candles)-1]
	return Outcome{
		ExitIdx:    len(candles) - 1,
		ExitTsMs:   last.TimestampMs(),
		ExitPx:     p0,
		ExitReason: domain.ExitNoEntry,
		PeakHigh:   candles[entryIdx].High,
	}
}
