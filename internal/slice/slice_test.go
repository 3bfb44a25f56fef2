package slice

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callbench/internal/candlestore/memory"
	"callbench/internal/domain"
)

func TestMaterialise_GroupsByCallAndIsDeterministic(t *testing.T) {
	store := memory.New()
	store.Load("MINT", "sol", "1m", []domain.Candle{
		{Timestamp: 0, Open: 1, High: 1, Low: 1, Close: 1},
		{Timestamp: 60, Open: 1, High: 1, Low: 1, Close: 1},
	})

	windows := []domain.CallWindow{
		{Call: domain.Call{ID: "c1", Mint: "MINT", Chain: "sol"}, RequiredFromMs: 0, RequiredToMs: 60_000},
	}

	s1, err := Materialise(context.Background(), store, "1m", windows)
	require.NoError(t, err)
	s2, err := Materialise(context.Background(), store, "1m", windows)
	require.NoError(t, err)
	assert.Equal(t, s1.ID, s2.ID)

	candles, ok := s1.Load("c1")
	require.True(t, ok)
	assert.Len(t, candles, 2)

	_, ok = s1.Load("missing")
	assert.False(t, ok)
}
