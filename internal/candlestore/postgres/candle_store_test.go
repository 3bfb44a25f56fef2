package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"callbench/internal/domain"
)

// setupTestDB starts a disposable Postgres container, creates the candles
// table this store assumes, and returns a connected pool plus a cleanup.
func setupTestDB(t *testing.T) (*Pool, func()) {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err, "failed to create pool")

	_, err = pool.Exec(ctx, `
		CREATE TABLE candles (
			token     TEXT NOT NULL,
			chain     TEXT NOT NULL,
			interval  TEXT NOT NULL,
			timestamp BIGINT NOT NULL,
			open      DOUBLE PRECISION NOT NULL,
			high      DOUBLE PRECISION NOT NULL,
			low       DOUBLE PRECISION NOT NULL,
			close     DOUBLE PRECISION NOT NULL,
			volume    DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (token, chain, interval, timestamp)
		)
	`)
	require.NoError(t, err, "failed to create candles table")

	cleanup := func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}
	return pool, cleanup
}

func insertCandles(t *testing.T, pool *Pool, token, chain, interval string, candles []domain.Candle) {
	t.Helper()
	ctx := context.Background()
	for _, c := range candles {
		_, err := pool.Exec(ctx, `
			INSERT INTO candles (token, chain, interval, timestamp, open, high, low, close, volume)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, token, chain, interval, c.Timestamp, c.Open, c.High, c.Low, c.Close, c.Volume)
		require.NoError(t, err)
	}
}

func TestStore_CandlesReturnsOrderedRange(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	s := New(pool)

	insertCandles(t, pool, "MINT", "sol", "1m", []domain.Candle{
		{Timestamp: 300, Open: 3, High: 3, Low: 3, Close: 3, Volume: 1},
		{Timestamp: 100, Open: 1, High: 1, Low: 1, Close: 1, Volume: 1},
		{Timestamp: 200, Open: 2, High: 2, Low: 2, Close: 2, Volume: 1},
	})

	got, err := s.Candles(context.Background(), "MINT", "sol", "1m", 100_000, 300_000)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, int64(100), got[0].Timestamp)
	require.Equal(t, int64(200), got[1].Timestamp)
	require.Equal(t, int64(300), got[2].Timestamp)
}

func TestStore_CandlesErrorsOnIncompleteCoverage(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	s := New(pool)

	insertCandles(t, pool, "MINT", "sol", "1m", []domain.Candle{
		{Timestamp: 100, Open: 1, High: 1, Low: 1, Close: 1, Volume: 1},
		{Timestamp: 200, Open: 2, High: 2, Low: 2, Close: 2, Volume: 1},
	})

	_, err := s.Candles(context.Background(), "MINT", "sol", "1m", 100_000, 400_000)
	require.ErrorIs(t, err, domain.ErrNoCoverage)
}

func TestStore_HasCoverage(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	s := New(pool)

	insertCandles(t, pool, "MINT", "sol", "1m", []domain.Candle{
		{Timestamp: 100, Open: 1, High: 1, Low: 1, Close: 1, Volume: 1},
		{Timestamp: 200, Open: 2, High: 2, Low: 2, Close: 2, Volume: 1},
	})

	ok, err := s.HasCoverage(context.Background(), "MINT", "sol", "1m", 100_000, 200_000)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.HasCoverage(context.Background(), "MINT", "sol", "1m", 100_000, 400_000)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = s.HasCoverage(context.Background(), "OTHER", "sol", "1m", 100_000, 200_000)
	require.NoError(t, err)
	require.False(t, ok)
}
