package domain

// ExecutionResult is the outcome of running a policy's state machine
// against a call's candle window.
type ExecutionResult struct {
	RealizedReturnBps      float64
	GrossReturnBps         float64
	StopOut                bool
	MaxAdverseExcursionBps float64
	TimeExposedMs          int64
	TailCapture            *float64 // nil when undefined (peakReturnBps <= 0)
	EntryTsMs              int64
	ExitTsMs               int64
	EntryPx                float64
	ExitPx                 float64
	ExitReason             ExitReason
}
