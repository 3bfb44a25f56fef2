// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Planner / coverage gate metrics
	CallsPlanned    prometheus.Counter
	CallsExcluded   *prometheus.CounterVec
	CoverageLatency prometheus.Histogram

	// Slice materialiser metrics
	SliceMaterialiseLatency prometheus.Histogram
	SliceCandlesLoaded      prometheus.Counter

	// Run-loop / executor metrics
	TradesExecuted       *prometheus.CounterVec
	TradeExecutionErrors *prometheus.CounterVec
	InvariantViolations  *prometheus.CounterVec
	PathMetricsComputed  prometheus.Counter
	WorkerPoolInFlight   prometheus.Gauge

	// Sweep metrics
	ScenariosTotal     *prometheus.CounterVec
	ScenarioDuration   *prometheus.HistogramVec
	ScenariosSkipped   prometheus.Counter
	AggregationLatency prometheus.Histogram

	// Storage metrics
	StorageFaults   *prometheus.CounterVec
	DBQueryDuration *prometheus.HistogramVec

	// Live feed metrics
	FeedTicksIngested  prometheus.Counter
	FeedCandlesEmitted prometheus.Counter
	FeedReconnects     prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "callbench"
	}

	return &Metrics{
		CallsPlanned: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "calls_planned_total",
			Help:      "Total number of calls windowed by the planner",
		}),
		CallsExcluded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "calls_excluded_total",
			Help:      "Total number of calls excluded by the coverage gate, by reason",
		}, []string{"reason"}),
		CoverageLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "coverage_check_latency_seconds",
			Help:      "Coverage gate HasCoverage call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		SliceMaterialiseLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "slice",
			Name:      "materialise_latency_seconds",
			Help:      "Time to materialise one interval's candle slice",
			Buckets:   prometheus.DefBuckets,
		}),
		SliceCandlesLoaded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "slice",
			Name:      "candles_loaded_total",
			Help:      "Total number of candle rows loaded into slices",
		}),

		TradesExecuted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "trades_executed_total",
			Help:      "Total number of policy executions, by exit reason",
		}, []string{"exit_reason"}),
		TradeExecutionErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "trade_execution_errors_total",
			Help:      "Total number of policy executions that returned an error, by policy kind",
		}, []string{"policy_kind"}),
		InvariantViolations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "invariant_violations_total",
			Help:      "Total number of invariant checks that failed, by policy kind",
		}, []string{"policy_kind"}),
		PathMetricsComputed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pathmetrics",
			Name:      "computed_total",
			Help:      "Total number of path-metric computations",
		}),
		WorkerPoolInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "runloop",
			Name:      "workers_in_flight",
			Help:      "Current number of run-loop worker goroutines processing a call",
		}),

		ScenariosTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "scenarios_total",
			Help:      "Total number of scenarios run, by terminal status",
		}, []string{"status"}),
		ScenarioDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "scenario_duration_seconds",
			Help:      "Per-scenario wall-clock duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"interval"}),
		ScenariosSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "scenarios_skipped_total",
			Help:      "Total number of scenarios skipped because a resumed manifest already completed them",
		}),
		AggregationLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "aggregation_latency_seconds",
			Help:      "Time spent reading trade rows back and computing matrix.json",
			Buckets:   prometheus.DefBuckets,
		}),

		StorageFaults: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "artifact",
			Name:      "storage_faults_total",
			Help:      "Total number of ErrStorageFault occurrences, by file",
		}, []string{"file"}),
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "candlestore",
			Name:      "query_duration_seconds",
			Help:      "Candle store query duration in seconds, by backend and operation",
			Buckets:   prometheus.DefBuckets,
		}, []string{"backend", "operation"}),

		FeedTicksIngested: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "ticks_ingested_total",
			Help:      "Total number of live ticks ingested off the websocket feed",
		}),
		FeedCandlesEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "candles_emitted_total",
			Help:      "Total number of candles the normalizer rolled over and emitted",
		}),
		FeedReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "reconnects_total",
			Help:      "Total number of websocket reconnect attempts",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordCallExcluded increments the excluded-calls counter for reason.
func RecordCallExcluded(reason string) {
	DefaultMetrics.CallsExcluded.WithLabelValues(reason).Inc()
}

// RecordTradeExecuted increments the trades-executed counter for an exit reason.
func RecordTradeExecuted(exitReason string) {
	DefaultMetrics.TradesExecuted.WithLabelValues(exitReason).Inc()
}

// RecordTradeExecutionError increments the trade-execution-error counter for a policy kind.
func RecordTradeExecutionError(policyKind string) {
	DefaultMetrics.TradeExecutionErrors.WithLabelValues(policyKind).Inc()
}

// RecordInvariantViolation increments the invariant-violation counter for a policy kind.
func RecordInvariantViolation(policyKind string) {
	DefaultMetrics.InvariantViolations.WithLabelValues(policyKind).Inc()
}

// RecordScenarioRun records a completed scenario's terminal status and duration.
func RecordScenarioRun(interval, status string, durationSeconds float64) {
	DefaultMetrics.ScenariosTotal.WithLabelValues(status).Inc()
	DefaultMetrics.ScenarioDuration.WithLabelValues(interval).Observe(durationSeconds)
}

// RecordStorageFault increments the storage-fault counter for file.
func RecordStorageFault(file string) {
	DefaultMetrics.StorageFaults.WithLabelValues(file).Inc()
}

// RecordCandleStoreQuery records a candle store query's latency.
func RecordCandleStoreQuery(backend, operation string, seconds float64) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(backend, operation).Observe(seconds)
}

// RecordFeedTick increments the feed tick counter.
func RecordFeedTick() {
	DefaultMetrics.FeedTicksIngested.Inc()
}

// RecordFeedCandleEmitted increments the feed candle-emitted counter.
func RecordFeedCandleEmitted() {
	DefaultMetrics.FeedCandlesEmitted.Inc()
}

// RecordFeedReconnect increments the feed reconnect counter.
func RecordFeedReconnect() {
	DefaultMetrics.FeedReconnects.Inc()
}
