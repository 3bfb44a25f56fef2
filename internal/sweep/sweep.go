// Package sweep implements the scenario sweep driver (C10): it enumerates
// the Cartesian product of interval x entry-lag x overlay-set, assigns
// deterministic scenario IDs, invokes the planner/slice/run-loop pipeline
// (C6-C8) per scenario against the shared artifact writer (C9), and
// aggregates trade rows into a leaderboard matrix.
package sweep

import (
	"context"
	"fmt"
	"sort"
	"time"

	"callbench/internal/artifact"
	"callbench/internal/call"
	"callbench/internal/candlestore"
	"callbench/internal/domain"
	"callbench/internal/observability"
	"callbench/internal/planner"
	"callbench/internal/runloop"
	"callbench/internal/slice"
)

// OverlaySet is a named, ordered list of policies evaluated together; the
// list index is the overlay index referenced by trades.* and matrix.json.
type OverlaySet struct {
	ID       string
	Policies []domain.Policy
}

// Config parameterises one sweep invocation.
type Config struct {
	Intervals    []string
	IntervalMs   map[string]int64
	LagsMs       []int64
	OverlaySets  []OverlaySet
	StrategySpec domain.StrategySpec
	FeeConfig    domain.FeeConfig
	Workers      int
}

// Enumerate produces the deterministic scenario list: sorted by scenario
// ID as a string (lag, then interval, then overlay set, each compared as
// text), so the same Config always yields the same enumeration (a resume
// precondition per C9).
func Enumerate(cfg Config) []runloop.Scenario {
	var scenarios []runloop.Scenario
	for _, interval := range cfg.Intervals {
		for _, lag := range cfg.LagsMs {
			for _, ov := range cfg.OverlaySets {
				scenarios = append(scenarios, runloop.Scenario{
					ID:           fmt.Sprintf("lag=%d_interval=%s_overlaySet=%s", lag, interval, ov.ID),
					LagMs:        lag,
					Interval:     interval,
					OverlaySetID: ov.ID,
					Policies:     ov.Policies,
				})
			}
		}
	}
	sort.Slice(scenarios, func(i, j int) bool { return scenarios[i].ID < scenarios[j].ID })
	return scenarios
}

// Run executes every scenario in cfg against calls, skipping any scenario
// ID already in the writer's resumed completed set, then aggregates all
// trade rows (including those recovered from a resumed prior run) into
// matrix.json / per_caller.ndjson.
func Run(ctx context.Context, runID string, store candlestore.Store, calls []domain.Call, cfg Config, writer *artifact.Writer) error {
	for _, c := range calls {
		if err := writer.WriteAlert(domain.AlertRecord{
			CallID: c.ID, Mint: c.Mint, CallerName: c.Caller,
			Chain: c.Chain, AlertTsMs: c.AlertTimeMs, CreatedAt: c.CreatedAt,
		}); err != nil {
			return err
		}
	}

	calls, invalidMints := call.ValidateCalls(calls)
	for _, e := range invalidMints {
		if err := writer.WriteError(domain.ErrorRecord{CallID: e.CallID, Error: string(e.Reason)}); err != nil {
			return err
		}
	}

	slicesByInterval := make(map[string]*slice.Slice)
	eligibleByInterval := make(map[string][]domain.CallWindow)

	for _, interval := range cfg.Intervals {
		spec := cfg.StrategySpec
		spec.Interval = interval
		spec.IntervalMs = cfg.IntervalMs[interval]

		windows := planner.Windows(spec, calls)
		eligible, excluded := planner.Gate(ctx, store, interval, windows)
		for _, e := range excluded {
			if err := writer.WriteError(domain.ErrorRecord{CallID: e.CallID, Error: string(e.Reason)}); err != nil {
				return err
			}
		}
		if len(eligible) == 0 {
			continue
		}

		sl, err := slice.Materialise(ctx, store, interval, eligible)
		if err != nil {
			return err
		}
		slicesByInterval[interval] = sl
		eligibleByInterval[interval] = eligible
	}

	scenarios := Enumerate(cfg)
	for _, scenario := range scenarios {
		if ctx.Err() != nil {
			return domain.ErrCancelled
		}
		if writer.IsCompleted(scenario.ID) {
			observability.DefaultMetrics.ScenariosSkipped.Inc()
			continue
		}

		sl, ok := slicesByInterval[scenario.Interval]
		if !ok {
			continue // no coverage at all for this interval; nothing to run
		}
		windows := eligibleByInterval[scenario.Interval]

		start := time.Now()
		opts := runloop.Options{Workers: cfg.Workers, FeeConfig: cfg.FeeConfig}
		err := runloop.Run(ctx, runID, sl, windows, scenario, opts, writer)
		status := "ok"
		if err != nil {
			status = "failed"
		}
		observability.RecordScenarioRun(scenario.Interval, status, time.Since(start).Seconds())
		if err != nil {
			return err
		}
		writer.MarkCompleted(scenario.ID)
	}

	aggStart := time.Now()
	trades, err := artifact.ReadTradeRows(writer.Dir())
	if err != nil {
		return err
	}
	matrix, perCaller := Aggregate(trades)
	if err := writer.WriteAggregates(matrix, perCaller); err != nil {
		return err
	}
	observability.DefaultMetrics.AggregationLatency.Observe(time.Since(aggStart).Seconds())
	return nil
}
