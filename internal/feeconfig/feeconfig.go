// Package feeconfig resolves a venue-parameterised execution model to the
// scalar per-side cost used by the executor (C2).
package feeconfig

import (
	"callbench/internal/domain"
)

// TotalFeeBps resolves config to the nonnegative integer bps charged on a
// single side of a trade.
//
//   - Simple shape: takerFeeBps + slippageBps.
//   - Venue shape: takerFeeBps + entrySlippageBps from the model's
//     cost/slippage sub-objects, defaulting to 25 / 0 respectively.
//
// A nil/zero-value config resolves to the venue defaults (25 bps).
func TotalFeeBps(config domain.FeeConfig) int {
	if config.Simple != nil {
		return config.Simple.TakerFeeBps + config.Simple.SlippageBps
	}
	if config.Venue != nil {
		taker := domain.DefaultVenueTakerFeeBps
		if config.Venue.Cost.TakerFeeBps != nil {
			taker = *config.Venue.Cost.TakerFeeBps
		}
		slippage := domain.DefaultVenueEntrySlippageBps
		if config.Venue.Slippage.EntrySlippageBps != nil {
			slippage = *config.Venue.Slippage.EntrySlippageBps
		}
		return taker + slippage
	}
	return domain.DefaultVenueTakerFeeBps + domain.DefaultVenueEntrySlippageBps
}

// RoundTripFeeBps is the fee charged at both entry and exit: 2 x
// TotalFeeBps, unless a policy explicitly compounds trade-by-trade (see
// policy.WashRebound, which applies fees inside its multiplier instead).
func RoundTripFeeBps(config domain.FeeConfig) int {
	return 2 * TotalFeeBps(config)
}
