package clickhouse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"callbench/internal/candlestore"
	"callbench/internal/domain"
	"callbench/internal/observability"
)

// Store implements candlestore.Store against a `candles` table keyed by
// (token, chain, interval, timestamp_ms), loaded via batched inserts from
// an upstream ingester.
type Store struct {
	conn *Conn
}

// New creates a new ClickHouse-backed candle store.
func New(conn *Conn) *Store {
	return &Store{conn: conn}
}

var _ candlestore.Store = (*Store)(nil)

func (s *Store) Candles(ctx context.Context, token, chain, interval string, fromMs, toMs int64) ([]domain.Candle, error) {
	if err := validateInput(token, interval); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { observability.RecordCandleStoreQuery("clickhouse", "candles", time.Since(start).Seconds()) }()

	query := `
		SELECT timestamp_ms, open, high, low, close, volume
		FROM candles
		WHERE token = ? AND chain = ? AND interval = ?
		  AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`
	rows, err := s.conn.Query(ctx, query, token, chain, interval, uint64(fromMs), uint64(toMs))
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
	defer func() {
		observability.RecordCandleStoreQuery("clickhouse", "has_coverage", time.Since(start).Seconds())
	}()

	query := `
		SELECT min(timestamp_ms), max(timestamp_ms)
		FROM candles
		WHERE token = ? AND chain = ? AND interval = ?
	`
	var minTs, maxTs uint64
	if err := s.conn.QueryRow(ctx, query, token, chain, interval).Scan(&minTs, &maxTs); err != nil {
		return false, fmt.Errorf("query candle coverage: %w", err)
	}
	if minTs == 0 && maxTs == 0 {
		return false, nil
	}
	return int64(minTs) <= fromMs && int64(maxTs) >= toMs, nil
}

func scanCandles(rows driver.Rows) ([]domain.Candle, error) {
	var candles []domain.Candle
	for rows.Next() {
		var tsMs uint64
		var c domain.Candle
		if err := rows.Scan(&tsMs, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("scan candle row: %w", err)
		}
		c.Timestamp = int64(tsMs) / 1000
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
