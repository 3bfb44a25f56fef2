package domain

// FeeConfig is a two-variant sum type resolving to the scalar per-side
// cost the executor applies. Exactly one of Simple or Venue is non-nil;
// package feeconfig is the single place that reduces either shape to
// totalFeeBps.
type FeeConfig struct {
	Simple *SimpleFeeConfig
	Venue  *VenueFeeConfig
}

// SimpleFeeConfig is the `{ takerFeeBps, slippageBps }` shape: the result
// is their sum.
type SimpleFeeConfig struct {
	TakerFeeBps int
	SlippageBps int
}

// VenueFeeConfig carries an embedded execution model: cost and slippage
// sub-objects plus optional latency/partial-fill/failure parameters that
// the executor does not price.
type VenueFeeConfig struct {
	Cost      VenueCostModel
	Slippage  VenueSlippageModel
	Execution *VenueExecutionModel // optional, informational only
}

// VenueCostModel supplies the taker fee. A nil TakerFeeBps defaults to 25.
type VenueCostModel struct {
	TakerFeeBps *int
}

// VenueSlippageModel supplies the entry slippage. A nil EntrySlippageBps
// defaults to 0.
type VenueSlippageModel struct {
	EntrySlippageBps *int
}

// VenueExecutionModel describes latency/partial-fill/failure behavior of
// a venue. The executor does not simulate these, and no artifact record
// carries them.
type VenueExecutionModel struct {
	LatencyMs              int64
	PartialFillProbability float64
	FailureProbability     float64
}

// Default venue fee values per C2.
const (
	DefaultVenueTakerFeeBps      = 25
	DefaultVenueEntrySlippageBps = 0
)

// FeeConfigDefault is the simple-shape preset used when no venue model
// is configured: 25 bps taker, 0 bps slippage, matching the venue
// defaults so the two shapes agree absent explicit overrides.
var FeeConfigDefault = FeeConfig{
	Simple: &SimpleFeeConfig{
		TakerFeeBps: DefaultVenueTakerFeeBps,
		SlippageBps: DefaultVenueEntrySlippageBps,
	},
}
