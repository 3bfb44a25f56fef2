package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callbench/internal/candlestore/memory"
)

func TestNormalizer_EmitsCompletedBarsOnBucketRollover(t *testing.T) {
	store := memory.New()
	n := newNormalizer(time.Minute, store)

	n.ingest(Tick{Token: "MINT", Chain: "sol", PriceUSD: 1.0, TsMs: 0})
	n.ingest(Tick{Token: "MINT", Chain: "sol", PriceUSD: 1.2, TsMs: 30_000})
	n.ingest(Tick{Token: "MINT", Chain: "sol", PriceUSD: 0.9, TsMs: 45_000})
	// crosses into the next minute bucket: rolls the first bar over
	n.ingest(Tick{Token: "MINT", Chain: "sol", PriceUSD: 1.1, TsMs: 61_000})

	candles, err := store.Candles(nil, "MINT", "sol", "1m", 0, 0)
	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.Equal(t, 1.0, candles[0].Open)
	assert.Equal(t, 1.2, candles[0].High)
	assert.Equal(t, 0.9, candles[0].Low)
	assert.Equal(t, 0.9, candles[0].Close)
	assert.Equal(t, float64(3), candles[0].Volume)
}

func TestNormalizer_FlushAllEmitsInProgressBucket(t *testing.T) {
	store := memory.New()
	n := newNormalizer(time.Minute, store)

	n.ingest(Tick{Token: "MINT", Chain: "sol", PriceUSD: 2.0, TsMs: 0})
	n.flushAll()

	candles, err := store.Candles(nil, "MINT", "sol", "1m", 0, 0)
	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.Equal(t, 2.0, candles[0].Close)
}

func TestFormatInterval(t *testing.T) {
	assert.Equal(t, "1m", formatInterval(time.Minute))
	assert.Equal(t, "1h", formatInterval(time.Hour))
	assert.Equal(t, "15s", formatInterval(15*time.Second))
}
