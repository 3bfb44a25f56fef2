// Package runloop implements the per-call fan-out and run loop (C8):
// bounded-concurrency workers, each loading one call's candle
// subsequence from the slice, computing path metrics, running the policy
// executor for every requested overlay, and emitting rows to the writer.
package runloop

import (
	"context"
	"sync"

	"callbench/internal/artifact"
	"callbench/internal/domain"
	"callbench/internal/executor"
	"callbench/internal/observability"
	"callbench/internal/pathmetrics"
	"callbench/internal/slice"
)

// Scenario is one (interval, entry-lag, overlay-set) triple: a fixed
// interval and lag with an ordered list of policies to evaluate, each
// policy an "overlay" addressed by its index.
type Scenario struct {
	ID           string
	LagMs        int64
	Interval     string
	OverlaySetID string
	Policies     []domain.Policy
}

// Options bounds the run loop's resource usage.
type Options struct {
	Workers   int
	FeeConfig domain.FeeConfig
}

// Run executes scenario across every eligible call, bounded by
// Options.Workers concurrent workers (C8 concurrency model: no task
// may observe state written by another task; only the writer is shared).
func Run(ctx context.Context, runID string, sl *slice.Slice, windows []domain.CallWindow, scenario Scenario, opts Options, writer *artifact.Writer) error {
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	jobs := make(chan domain.CallWindow)
	errCh := make(chan error, 1)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for w := range jobs {
				if ctx.Err() != nil {
					continue
				}
				observability.DefaultMetrics.WorkerPoolInFlight.Inc()
				err := runCall(ctx, runID, sl, w, scenario, opts, writer)
				observability.DefaultMetrics.WorkerPoolInFlight.Dec()
				if err != nil {
					select {
					case errCh <- err:
					default:
					}
				}
			}
		}()
	}

feed:
	for _, w := range windows {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- w:
		}
	}
	close(jobs)
	wg.Wait()

	select {
	case err := <-errCh:
		return err
	default:
	}
	if ctx.Err() != nil {
		return domain.ErrCancelled
	}
	return nil
}

func runCall(ctx context.Context, runID string, sl *slice.Slice, w domain.CallWindow, scenario Scenario, opts Options, writer *artifact.Writer) error {
	candles, ok := sl.Load(w.Call.ID)
	if !ok || len(candles) == 0 {
		return writer.WriteError(domain.ErrorRecord{ScenarioID: scenario.ID, CallID: w.Call.ID, Error: "no candles in slice"})
	}

	alertMs := w.Call.AlertTimeMs + scenario.LagMs

	pm := pathmetrics.Compute(candles, alertMs, domain.DefaultPathMetricsOptions())
	observability.DefaultMetrics.PathMetricsComputed.Inc()
	if err := writer.WritePath(domain.PathRow{
		RunID:       runID,
		CallID:      w.Call.ID,
		CallerName:  w.Call.Caller,
		Mint:        w.Call.Mint,
		Chain:       w.Call.Chain,
		Interval:    scenario.Interval,
		AlertTsMs:   w.Call.AlertTimeMs,
		PathMetrics: pm,
	}); err != nil {
		return err
	}

	for idx, pol := range scenario.Policies {
		if ctx.Err() != nil {
			return domain.ErrCancelled
		}

		row := domain.TradeRow{
			RunID: runID, CallID: w.Call.ID, CallerName: w.Call.Caller, ScenarioID: scenario.ID, LagMs: scenario.LagMs,
			Interval: scenario.Interval, OverlaySetID: scenario.OverlaySetID, OverlayIndex: idx,
		}

		result, err := executor.Execute(candles, alertMs, pol, opts.FeeConfig)
		if err != nil {
			row.OK = false
			row.ErrorCode = "scenario_failure"
			row.ErrorMessage = err.Error()
			if writeErr := writer.WriteTrade(row); writeErr != nil {
				return writeErr
			}
			if writeErr := writer.WriteError(domain.ErrorRecord{ScenarioID: scenario.ID, CallID: w.Call.ID, Error: err.Error()}); writeErr != nil {
				return writeErr
			}
			continue
		}

		row.OK = true
		net := result.RealizedReturnBps / 100
		gross := result.GrossReturnBps / 100
		row.NetReturnPct = &net
		row.GrossReturnPct = &gross
		reason := result.ExitReason
		row.ExitReason = &reason

		if err := writer.WriteTrade(row); err != nil {
			return err
		}
	}

	return nil
}
