package runloop

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callbench/internal/artifact"
	"callbench/internal/domain"
	"callbench/internal/slice"
)

func TestRun_EmitsPathAndTradeRows(t *testing.T) {
	sl := &slice.Slice{ByCallID: map[string][]domain.Candle{
		"c1": {
			{Timestamp: 0, Open: 1, High: 1, Low: 1, Close: 1},
			{Timestamp: 60, Open: 1, High: 2, Low: 0.9, Close: 1.9},
		},
	}}
	windows := []domain.CallWindow{
		{Call: domain.Call{ID: "c1", Caller: "alice", Mint: "MINT", Chain: "sol", AlertTimeMs: 0}},
	}
	scenario := Scenario{
		ID: "lag=0_interval=1m_overlaySet=a", Interval: "1m", OverlaySetID: "a",
		Policies: []domain.Policy{
			{Kind: domain.PolicyFixedStop, FixedStop: &domain.FixedStopParams{StopPct: 0.5}},
		},
	}
	opts := Options{Workers: 2, FeeConfig: domain.FeeConfigDefault}

	dir := t.TempDir()
	w, err := artifact.Open(dir, "run-1", domain.DatasetBounds{})
	require.NoError(t, err)

	err = Run(context.Background(), "run-1", sl, windows, scenario, opts, w)
	require.NoError(t, err)
	require.NoError(t, w.Finish(domain.RunStatusOK, domain.Timing{}, ""))

	paths, err := artifact.ReadPathRows(w.Dir())
	require.NoError(t, err)
	require.Len(t, paths, 1)
	trades, err := artifact.ReadTradeRows(w.Dir())
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.True(t, trades[0].OK)
}

func TestRun_CancelledContextStopsEarly(t *testing.T) {
	sl := &slice.Slice{ByCallID: map[string][]domain.Candle{
		"c1": {{Timestamp: 0, Open: 1, High: 1, Low: 1, Close: 1}},
	}}
	windows := []domain.CallWindow{
		{Call: domain.Call{ID: "c1", Mint: "MINT", Chain: "sol"}},
	}
	scenario := Scenario{ID: "s1", Policies: []domain.Policy{
		{Kind: domain.PolicyFixedStop, FixedStop: &domain.FixedStopParams{StopPct: 0.5}},
	}}

	dir := t.TempDir()
	w, err := artifact.Open(dir, "run-cancel", domain.DatasetBounds{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = Run(ctx, "run-cancel", sl, windows, scenario, Options{Workers: 1}, w)
	assert.ErrorIs(t, err, domain.ErrCancelled)
}
