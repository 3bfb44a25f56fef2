package planner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callbench/internal/candlestore/memory"
	"callbench/internal/domain"
)

func TestWindows_DerivesLookbackAndHold(t *testing.T) {
	spec := domain.StrategySpec{IndicatorWarmupBars: 10, EntryDelayBars: 2, MaxHoldMs: 60_000, IntervalMs: 1000}
	calls := []domain.Call{{ID: "c1", AlertTimeMs: 100_000, Mint: "MINT", Chain: "sol"}}

	windows := Windows(spec, calls)
	require.Len(t, windows, 1)
	assert.Equal(t, int64(100_000-12_000), windows[0].RequiredFromMs)
	assert.Equal(t, int64(160_000), windows[0].RequiredToMs)
}

func TestGate_PartitionsEligibleAndExcluded(t *testing.T) {
	store := memory.New()
	store.Load("MINT", "sol", "1m", []domain.Candle{
		{Timestamp: 0, Open: 1, High: 1, Low: 1, Close: 1},
		{Timestamp: 1000, Open: 1, High: 1, Low: 1, Close: 1},
	})

	windows := []domain.CallWindow{
		{Call: domain.Call{ID: "ok", Mint: "MINT", Chain: "sol", AlertTimeMs: 500_000}, RequiredFromMs: 0, RequiredToMs: 1_000_000},
		{Call: domain.Call{ID: "missing", Mint: "OTHER", Chain: "sol", AlertTimeMs: 500_000}, RequiredFromMs: 0, RequiredToMs: 1_000_000},
		{Call: domain.Call{ID: "nochain", Mint: "MINT", Chain: "", AlertTimeMs: 500_000}, RequiredFromMs: 0, RequiredToMs: 1_000_000},
	}

	eligible, excluded := Gate(context.Background(), store, "1m", windows)
	require.Len(t, eligible, 1)
	assert.Equal(t, "ok", eligible[0].Call.ID)

	require.Len(t, excluded, 2)
	reasons := map[string]domain.ExcludeReason{}
	for _, e := range excluded {
		reasons[e.CallID] = e.Reason
	}
	assert.Equal(t, domain.ExcludeMissingRange, reasons["missing"])
	assert.Equal(t, domain.ExcludeUnsupportedChain, reasons["nochain"])
}
