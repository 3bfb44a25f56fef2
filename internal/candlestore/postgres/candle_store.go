package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"callbench/internal/candlestore"
	"callbench/internal/domain"
	"callbench/internal/observability"
)

// Store implements candlestore.Store against a `candles` table keyed by
// (token, chain, interval, timestamp).
type Store struct {
	pool *Pool
}

// New creates a new Postgres-backed candle store.
func New(pool *Pool) *Store {
	return &Store{pool: pool}
}

var _ candlestore.Store = (*Store)(nil)

func (s *Store) Candles(ctx context.Context, token, chain, interval string, fromMs, toMs int64) ([]domain.Candle, error) {
	if err := validateInput(token, interval); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { observability.RecordCandleStoreQuery("postgres", "candles", time.Since(start).Seconds()) }()

	query := `
		SELECT timestamp, open, high, low, close, volume
		FROM candles
		WHERE token = $1 AND chain = $2 AND interval = $3
		  AND timestamp >= $4 AND timestamp <= $5
		ORDER BY timestamp ASC
	`
	rows, err := s.pool.Query(ctx, query, token, chain, interval, fromMs/1000, toMs/1000)
	if err != nil {
		return nil, fmt.Errorf("query candles: %w", err)
	}
	defer rows.Close()

	candles, err := scanCandles(rows)
	if err != nil {
		return nil, err
	}
	if len(candles) == 0 || candles[0].TimestampMs() > fromMs || candles[len(candles)-1].TimestampMs() < toMs {
		return nil, fmt.Errorf("%w: incomplete range for %s/%s/%s [%d,%d]", domain.ErrNoCoverage, token, chain, interval, fromMs, toMs)
	}
	return candles, nil
}

func (s *Store) HasCoverage(ctx context.Context, token, chain, interval string, fromMs, toMs int64) (bool, error) {
	if err := validateInput(token, interval); err != nil {
		return false, err
	}
	start := time.Now()
	defer func() { observability.RecordCandleStoreQuery("postgres", "has_coverage", time.Since(start).Seconds()) }()

	query := `
		SELECT MIN(timestamp), MAX(timestamp)
		FROM candles
		WHERE token = $1 AND chain = $2 AND interval = $3
	`
	var minTs, maxTs *int64
	if err := s.pool.QueryRow(ctx, query, token, chain, interval).Scan(&minTs, &maxTs); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query candle coverage: %w", err)
	}
	if minTs == nil || maxTs == nil {
		return false, nil
	}
	return *minTs*1000 <= fromMs && *maxTs*1000 >= toMs, nil
}

func scanCandles(rows pgx.Rows) ([]domain.Candle, error) {
	var candles []domain.Candle
	for rows.Next() {
		var c domain.Candle
		if err := rows.Scan(&c.Timestamp, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("scan candle row: %w", err)
		}
		candles = append(candles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candle rows: %w", err)
	}
	return candles, nil
}

func validateInput(token, interval string) error {
	if strings.TrimSpace(token) == "" || strings.TrimSpace(interval) == "" {
		return fmt.Errorf("%w: token and interval are required", domain.ErrBadInput)
	}
	return nil
}
