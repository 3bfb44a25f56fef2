package domain

// PolicyKind discriminates the six exit-policy variants. Every Policy
// value carries exactly one non-nil payload matching its Kind; the
// factory in package policy is the single place that enforces this.
type PolicyKind string

const (
	PolicyFixedStop    PolicyKind = "fixed_stop"
	PolicyTimeStop     PolicyKind = "time_stop"
	PolicyTrailingStop PolicyKind = "trailing_stop"
	PolicyLadder       PolicyKind = "ladder"
	PolicyCombo        PolicyKind = "combo"
	PolicyWashRebound  PolicyKind = "wash_rebound"
)

// Policy is a tagged union over the six exit-policy kinds. Percentages
// are fractions in [0, 1] unless stated otherwise.
type Policy struct {
	Kind PolicyKind

	FixedStop    *FixedStopParams
	TimeStop     *TimeStopParams
	TrailingStop *TrailingStopParams
	Ladder       *LadderParams
	Combo        *ComboParams
	WashRebound  *WashReboundParams
}

// FixedStopParams backs PolicyFixedStop.
type FixedStopParams struct {
	StopPct       float64
	TakeProfitPct *float64 // nil means no take-profit (effectively +Inf)
}

// TimeStopParams backs PolicyTimeStop.
type TimeStopParams struct {
	MaxHoldMs     int64
	TakeProfitPct *float64
}

// TrailingStopParams backs PolicyTrailingStop.
type TrailingStopParams struct {
	ActivationPct float64
	TrailPct      float64
	HardStopPct   *float64 // nil means no hard stop
}

// LadderLevel is one rung of a ladder policy.
type LadderLevel struct {
	Multiple float64 // >= 1
	Fraction float64 // in (0, 1]
}

// LadderParams backs PolicyLadder.
type LadderParams struct {
	StopPct *float64 // nil or <= 0 means no stop
	Levels  []LadderLevel
}

// ComboParams backs PolicyCombo: the first sub-policy to exit wins.
type ComboParams struct {
	Policies []Policy
}

// WashReboundParams backs PolicyWashRebound.
type WashReboundParams struct {
	TrailPct        float64
	WashPct         float64
	ReboundPct      float64
	CooldownCandles int // >= 0, default 1
	MaxReentries    int // >= 0, default 3
}

// ExitReason enumerates the reason codes a policy state machine may emit.
type ExitReason string

const (
	ExitStopLoss       ExitReason = "stop_loss"
	ExitTakeProfit     ExitReason = "take_profit"
	ExitTimeStop       ExitReason = "time_stop"
	ExitHardStop       ExitReason = "hard_stop"
	ExitTrailingStop   ExitReason = "trailing_stop"
	ExitLadderComplete ExitReason = "ladder_complete"
	ExitEndOfData      ExitReason = "end_of_data"
	ExitNoEntry        ExitReason = "no_entry"
)
