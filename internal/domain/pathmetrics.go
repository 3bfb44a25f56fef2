package domain

// PathMetrics are alert-anchored statistics (drawdown, milestone times,
// peak multiple) independent of any policy. Times are null (nil) iff the
// corresponding hit flag is false. P0 may be NaN if no anchor candle
// exists; in that case all flags are false and PeakMultiple is nil.
type PathMetrics struct {
	T0Ms  int64
	P0    float64
	Hit2x bool
	T2xMs *int64
	Hit3x bool
	T3xMs *int64
	Hit4x bool
	T4xMs *int64

	DDBps             float64
	DDTo2xBps         *float64 // set iff Hit2x
	AlertToActivityMs *int64
	PeakMultiple      *float64
}

// PathMetricsOptions configures the path-metrics pass.
type PathMetricsOptions struct {
	ActivityMovePct float64 // default 0.10
	DDTo2xInclusive bool    // default true
}

// DefaultPathMetricsOptions returns the spec defaults.
func DefaultPathMetricsOptions() PathMetricsOptions {
	return PathMetricsOptions{
		ActivityMovePct: 0.10,
		DDTo2xInclusive: true,
	}
}
