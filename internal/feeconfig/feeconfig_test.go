package feeconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"callbench/internal/domain"
)

func TestTotalFeeBps_Simple(t *testing.T) {
	cfg := domain.FeeConfig{Simple: &domain.SimpleFeeConfig{TakerFeeBps: 30, SlippageBps: 10}}
	assert.Equal(t, 40, TotalFeeBps(cfg))
}

func TestTotalFeeBps_VenueDefaults(t *testing.T) {
	cfg := domain.FeeConfig{Venue: &domain.VenueFeeConfig{}}
	assert.Equal(t, 25, TotalFeeBps(cfg))
}

func TestTotalFeeBps_VenueOverrides(t *testing.T) {
	taker := 40
	slippage := 15
	cfg := domain.FeeConfig{Venue: &domain.VenueFeeConfig{
		Cost:     domain.VenueCostModel{TakerFeeBps: &taker},
		Slippage: domain.VenueSlippageModel{EntrySlippageBps: &slippage},
	}}
	assert.Equal(t, 55, TotalFeeBps(cfg))
}

func TestRoundTripFeeBps(t *testing.T) {
	cfg := domain.FeeConfig{Simple: &domain.SimpleFeeConfig{TakerFeeBps: 30, SlippageBps: 10}}
	assert.Equal(t, 80, RoundTripFeeBps(cfg))
}
