package feed

import (
	"strconv"
	"time"

	"callbench/internal/domain"
	"callbench/internal/observability"
)

type seriesKey struct {
	token string
	chain string
}

// bucket accumulates one in-progress OHLCV bar for a (token, chain)
// series at the configured interval.
type bucket struct {
	bucketStartMs int64
	open          float64
	high          float64
	low           float64
	close         float64
	volume        float64
}

// normalizer buckets ticks into fixed-width candles and forwards each
// completed bar to the sink the instant a tick arrives in the next
// bucket — there is no timer-driven flush, so a quiet series simply
// never emits its final partial bar until Close.
type normalizer struct {
	intervalMs int64
	interval   string
	sink       Sink

	open map[seriesKey]*bucket
}

func newNormalizer(interval time.Duration, sink Sink) *normalizer {
	return &normalizer{
		intervalMs: interval.Milliseconds(),
		interval:   formatInterval(interval),
		sink:       sink,
		open:       make(map[seriesKey]*bucket),
	}
}

func (n *normalizer) ingest(t Tick) {
	key := seriesKey{token: t.Token, chain: t.Chain}
	start := (t.TsMs / n.intervalMs) * n.intervalMs

	b, ok := n.open[key]
	if !ok {
		n.open[key] = &bucket{bucketStartMs: start, open: t.PriceUSD, high: t.PriceUSD, low: t.PriceUSD, close: t.PriceUSD, volume: 1}
		return
	}

	if start != b.bucketStartMs {
		n.emit(key, b)
		n.open[key] = &bucket{bucketStartMs: start, open: t.PriceUSD, high: t.PriceUSD, low: t.PriceUSD, close: t.PriceUSD, volume: 1}
		return
	}

	if t.PriceUSD > b.high {
		b.high = t.PriceUSD
	}
	if t.PriceUSD < b.low {
		b.low = t.PriceUSD
	}
	b.close = t.PriceUSD
	b.volume++
}

func (n *normalizer) flushAll() {
	for key, b := range n.open {
		n.emit(key, b)
		delete(n.open, key)
	}
}

func (n *normalizer) emit(key seriesKey, b *bucket) {
	if n.sink == nil {
		return
	}
	candle := candleFromBucket(b)
	n.sink.Append(key.token, key.chain, n.interval, candle)
	observability.RecordFeedCandleEmitted()
}

func candleFromBucket(b *bucket) domain.Candle {
	return domain.Candle{
		Timestamp: b.bucketStartMs / 1000,
		Open:      b.open,
		High:      b.high,
		Low:       b.low,
		Close:     b.close,
		Volume:    b.volume,
	}
}

func formatInterval(d time.Duration) string {
	switch {
	case d%time.Hour == 0:
		return strconv.FormatInt(int64(d/time.Hour), 10) + "h"
	case d%time.Minute == 0:
		return strconv.FormatInt(int64(d/time.Minute), 10) + "m"
	default:
		return strconv.FormatInt(int64(d/time.Second), 10) + "s"
	}
}
