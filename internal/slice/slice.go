// Package slice implements the slice materialiser (C7): it consolidates
// the candles needed by every eligible call into a single in-memory,
// call-id-grouped slice, content-addressed so that an identical later
// request can reuse the name deterministically.
package slice

import (
	"context"
	"fmt"
	"sort"
	"time"

	"callbench/internal/candlestore"
	"callbench/internal/domain"
	"callbench/internal/idhash"
	"callbench/internal/observability"
)

// Slice holds each eligible call's candle subsequence, grouped by call
// ID. It is opened read-only and shared across run-loop workers.
type Slice struct {
	ID       string
	ByCallID map[string][]domain.Candle
}

// Materialise loads candles for every eligible window and builds the
// content-addressed slice. Token/chain come from each window's call.
func Materialise(ctx context.Context, store candlestore.Store, interval string, windows []domain.CallWindow) (*Slice, error) {
	start := time.Now()
	defer func() { observability.DefaultMetrics.SliceMaterialiseLatency.Observe(time.Since(start).Seconds()) }()

	ids := make([]string, len(windows))
	for i, w := range windows {
		ids[i] = w.Call.ID
	}
	sort.Strings(ids)

	var fromMs, toMs int64
	for i, w := range windows {
		if i == 0 || w.RequiredFromMs < fromMs {
			fromMs = w.RequiredFromMs
		}
		if i == 0 || w.RequiredToMs > toMs {
			toMs = w.RequiredToMs
		}
	}

	byCallID := make(map[string][]domain.Candle, len(windows))
	for _, w := range windows {
		candles, err := store.Candles(ctx, w.Call.Mint, w.Call.Chain, interval, w.RequiredFromMs, w.RequiredToMs)
		if err != nil {
			return nil, fmt.Errorf("materialise slice for call %s: %w", w.Call.ID, err)
		}
		byCallID[w.Call.ID] = candles
		observability.DefaultMetrics.SliceCandlesLoaded.Add(float64(len(candles)))
	}

	return &Slice{
		ID:       idhash.SliceID(ids, fromMs, toMs, interval),
		ByCallID: byCallID,
	}, nil
}

// Load returns the candle subsequence for a single call (C8 step 1); no
// cross-call sharing occurs.
func (s *Slice) Load(callID string) ([]domain.Candle, bool) {
	candles, ok := s.ByCallID[callID]
	return candles, ok
}
