package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callbench/internal/domain"
)

func seedCandles() []domain.Candle {
	return []domain.Candle{
		{Timestamp: 300, Open: 1, High: 1, Low: 1, Close: 1},
		{Timestamp: 100, Open: 1, High: 1, Low: 1, Close: 1}, // out of order on purpose
		{Timestamp: 200, Open: 1, High: 1, Low: 1, Close: 1},
		{Timestamp: 200, Open: 2, High: 2, Low: 2, Close: 2}, // duplicate timestamp
	}
}

func TestStore_LoadDeduplicatesAndSorts(t *testing.T) {
	s := New()
	s.Load("MINT", "sol", "1m", seedCandles())

	got, err := s.Candles(context.Background(), "MINT", "sol", "1m", 100_000, 300_000)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int64(100), got[0].Timestamp)
	assert.Equal(t, int64(200), got[1].Timestamp)
	assert.Equal(t, int64(300), got[2].Timestamp)
}

func TestStore_NoCoverageWhenRangeExceedsStoredData(t *testing.T) {
	s := New()
	s.Load("MINT", "sol", "1m", seedCandles())

	_, err := s.Candles(context.Background(), "MINT", "sol", "1m", 100_000, 400_000)
	assert.True(t, errors.Is(err, domain.ErrNoCoverage))
}

func TestStore_NoCoverageWhenSeriesMissing(t *testing.T) {
	s := New()
	ok, err := s.HasCoverage(context.Background(), "UNKNOWN", "sol", "1m", 100_000, 200_000)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_HasCoverageTrue(t *testing.T) {
	s := New()
	s.Load("MINT", "sol", "1m", seedCandles())

	ok, err := s.HasCoverage(context.Background(), "MINT", "sol", "1m", 100_000, 300_000)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_BadInputOnEmptyToken(t *testing.T) {
	s := New()
	_, err := s.Candles(context.Background(), "", "sol", "1m", 0, 1)
	assert.True(t, errors.Is(err, domain.ErrBadInput))
}
