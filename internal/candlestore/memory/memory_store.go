// Package memory is an in-memory fixture implementation of
// candlestore.Store, used by tests and as the backing store for
// single-process replay against a pre-loaded dataset.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"callbench/internal/candlestore"
	"callbench/internal/domain"
)

type seriesKey struct {
	token    string
	chain    string
	interval string
}

// Store is an in-memory implementation of candlestore.Store. mu guards
// series since a live feed's Append and the run-loop's concurrent reads
// can overlap.
type Store struct {
	mu     sync.RWMutex
	series map[seriesKey][]domain.Candle
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{series: make(map[seriesKey][]domain.Candle)}
}

// Load installs a fully sorted, deduplicated candle sequence for a
// (token, chain, interval) series, replacing any prior contents. Load
// takes a defensive copy so callers can reuse their slice afterwards.
func (s *Store) Load(token, chain, interval string, candles []domain.Candle) {
	sorted := make([]domain.Candle, len(candles))
	copy(sorted, candles)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })

	key := seriesKey{token: token, chain: chain, interval: interval}
	s.mu.Lock()
	s.series[key] = dedupe(sorted)
	s.mu.Unlock()
}

// Append adds a single candle to a series, keeping it sorted and
// deduplicated. It implements feed.Sink so a live feed can populate the
// same in-memory store C1 reads from.
func (s *Store) Append(token, chain, interval string, candle domain.Candle) {
	key := seriesKey{token: token, chain: chain, interval: interval}

	s.mu.Lock()
	defer s.mu.Unlock()
	sorted := append(s.series[key], candle)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })
	s.series[key] = dedupe(sorted)
}

func dedupe(sorted []domain.Candle) []domain.Candle {
	if len(sorted) == 0 {
		return sorted
	}
	out := sorted[:1]
	for _, c := range sorted[1:] {
		if c.Timestamp != out[len(out)-1].Timestamp {
			out = append(out, c)
		}
	}
	return out
}

func (s *Store) Candles(_ context.Context, token, chain, interval string, fromMs, toMs int64) ([]domain.Candle, error) {
	if err := validateInput(token, interval); err != nil {
		return nil, err
	}
	key := seriesKey{token: token, chain: chain, interval: interval}
	s.mu.RLock()
	all, exists := s.series[key]
	s.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("%w: no series for %s/%s/%s", domain.ErrNoCoverage, token, chain, interval)
	}

	if len(all) == 0 || all[0].TimestampMs() > fromMs || all[len(all)-1].TimestampMs() < toMs {
		return nil, fmt.Errorf("%w: incomplete range for %s/%s/%s [%d,%d]", domain.ErrNoCoverage, token, chain, interval, fromMs, toMs)
	}
	lo, hi := rangeIndices(all, fromMs, toMs)

	// Return a copy, not a view of the stored series: Append re-sorts and
	// dedupes that series in place.
	out := make([]domain.Candle, hi-lo)
	copy(out, all[lo:hi])
	return out, nil
}

func (s *Store) HasCoverage(_ context.Context, token, chain, interval string, fromMs, toMs int64) (bool, error) {
	if err := validateInput(token, interval); err != nil {
		return false, err
	}
	key := seriesKey{token: token, chain: chain, interval: interval}
	s.mu.RLock()
	all, exists := s.series[key]
	s.mu.RUnlock()
	if !exists || len(all) == 0 {
		return false, nil
	}
	return all[0].TimestampMs() <= fromMs && all[len(all)-1].TimestampMs() >= toMs, nil
}

func rangeIndices(all []domain.Candle, fromMs, toMs int64) (int, int) {
	lo := sort.Search(len(all), func(i int) bool { return all[i].TimestampMs() >= fromMs })
	hi := sort.Search(len(all), func(i int) bool { return all[i].TimestampMs() > toMs })
	return lo, hi
}

func validateInput(token, interval string) error {
	if strings.TrimSpace(token) == "" || strings.TrimSpace(interval) == "" {
		return fmt.Errorf("%w: token and interval are required", domain.ErrBadInput)
	}
	return nil
}

var _ candlestore.Store = (*Store)(nil)
