package domain

// Candle is a fixed-interval OHLCV summary. Timestamp is integer seconds
// since epoch, aligned to the interval boundary. Open/High/Low/Close are
// non-negative finite reals; Volume is a non-negative real.
//
// A Candle is immutable once loaded and may be shared by any number of
// readers; callers take a slice view of a sequence rather than copying it.
type Candle struct {
	Timestamp int64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// TimestampMs returns the candle's close-time boundary in milliseconds,
// the unit every other timestamp in the system is expressed in. Candle
// timestamps from the store are integer seconds; the boundary is crossed
// by multiplying by 1000.
func (c Candle) TimestampMs() int64 {
	return c.Timestamp * 1000
}
