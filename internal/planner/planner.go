// Package planner implements the per-call required-window derivation and
// coverage gate (C6): no candle is read at this stage beyond an
// existence/row-count query against the store.
package planner

import (
	"context"

	"callbench/internal/candlestore"
	"callbench/internal/domain"
	"callbench/internal/observability"
)

// Windows derives [requiredFromMs, requiredToMs] for every call from the
// strategy spec.
func Windows(spec domain.StrategySpec, calls []domain.Call) []domain.CallWindow {
	lookback := int64(spec.IndicatorWarmupBars+spec.EntryDelayBars) * spec.IntervalMs
	windows := make([]domain.CallWindow, len(calls))
	for i, call := range calls {
		windows[i] = domain.CallWindow{
			Call:           call,
			RequiredFromMs: call.AlertTimeMs - lookback,
			RequiredToMs:   call.AlertTimeMs + spec.MaxHoldMs,
		}
	}
	return windows
}

// Gate partitions call windows into eligible and excluded using the
// store's HasCoverage existence check, never reading candle rows.
func Gate(ctx context.Context, store candlestore.Store, interval string, windows []domain.CallWindow) (eligible []domain.CallWindow, excluded []domain.ExcludedCall) {
	for _, w := range windows {
		if w.Call.Chain == "" {
			excluded = append(excluded, domain.ExcludedCall{CallID: w.Call.ID, Reason: domain.ExcludeUnsupportedChain})
			observability.RecordCallExcluded(string(domain.ExcludeUnsupportedChain))
			continue
		}
		if w.Call.AlertTimeMs <= 0 {
			excluded = append(excluded, domain.ExcludedCall{CallID: w.Call.ID, Reason: domain.ExcludeInvalidAlert})
			observability.RecordCallExcluded(string(domain.ExcludeInvalidAlert))
			continue
		}

		ok, err := store.HasCoverage(ctx, w.Call.Mint, w.Call.Chain, interval, w.RequiredFromMs, w.RequiredToMs)
		if err != nil || !ok {
			excluded = append(excluded, domain.ExcludedCall{CallID: w.Call.ID, Reason: domain.ExcludeMissingRange})
			observability.RecordCallExcluded(string(domain.ExcludeMissingRange))
			continue
		}

		eligible = append(eligible, w)
		observability.DefaultMetrics.CallsPlanned.Inc()
	}
	return eligible, excluded
}
