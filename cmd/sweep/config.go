package main

import (
	"encoding/json"
	"fmt"
	"os"

	"callbench/internal/domain"
	"callbench/internal/sweep"
)

// callInput is the on-disk JSON shape for one call; domain.Call itself
// carries no JSON tags since package domain touches no I/O.
type callInput struct {
	ID          string `json:"id"`
	Caller      string `json:"caller"`
	Mint        string `json:"mint"`
	Chain       string `json:"chain"`
	AlertTimeMs int64  `json:"alertTimeMs"`
	CreatedAt   int64  `json:"createdAt"`
}

func loadCalls(path string) ([]domain.Call, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read calls file: %w", err)
	}
	var inputs []callInput
	if err := json.Unmarshal(data, &inputs); err != nil {
		return nil, fmt.Errorf("parse calls file: %w", err)
	}
	calls := make([]domain.Call, len(inputs))
	for i, in := range inputs {
		calls[i] = domain.Call{
			ID: in.ID, Caller: in.Caller, Mint: in.Mint, Chain: in.Chain,
			AlertTimeMs: in.AlertTimeMs, CreatedAt: in.CreatedAt,
		}
	}
	return calls, nil
}

// policyInput is the on-disk JSON shape for a tagged Policy.
type policyInput struct {
	Kind         string                     `json:"kind"`
	FixedStop    *domain.FixedStopParams    `json:"fixedStop,omitempty"`
	TimeStop     *domain.TimeStopParams     `json:"timeStop,omitempty"`
	TrailingStop *domain.TrailingStopParams `json:"trailingStop,omitempty"`
	Ladder       *domain.LadderParams       `json:"ladder,omitempty"`
	Combo        *comboInput                `json:"combo,omitempty"`
	WashRebound  *domain.WashReboundParams  `json:"washRebound,omitempty"`
}

type comboInput struct {
	Policies []policyInput `json:"policies"`
}

func (p policyInput) toDomain() domain.Policy {
	pol := domain.Policy{Kind: domain.PolicyKind(p.Kind)}
	switch pol.Kind {
	case domain.PolicyFixedStop:
		pol.FixedStop = p.FixedStop
	case domain.PolicyTimeStop:
		pol.TimeStop = p.TimeStop
	case domain.PolicyTrailingStop:
		pol.TrailingStop = p.TrailingStop
	case domain.PolicyLadder:
		pol.Ladder = p.Ladder
	case domain.PolicyCombo:
		if p.Combo != nil {
			sub := make([]domain.Policy, len(p.Combo.Policies))
			for i, s := range p.Combo.Policies {
				sub[i] = s.toDomain()
			}
			pol.Combo = &domain.ComboParams{Policies: sub}
		}
	case domain.PolicyWashRebound:
		pol.WashRebound = p.WashRebound
	}
	return pol
}

type overlaySetInput struct {
	ID       string        `json:"id"`
	Policies []policyInput `json:"policies"`
}

type feeConfigInput struct {
	Simple *domain.SimpleFeeConfig `json:"simple,omitempty"`
	Venue  *domain.VenueFeeConfig  `json:"venue,omitempty"`
}

type sweepConfigInput struct {
	Intervals    []string          `json:"intervals"`
	IntervalMs   map[string]int64  `json:"intervalMs"`
	LagsMs       []int64           `json:"lagsMs"`
	OverlaySets  []overlaySetInput `json:"overlaySets"`
	StrategySpec struct {
		IndicatorWarmupBars int   `json:"indicatorWarmupBars"`
		EntryDelayBars      int   `json:"entryDelayBars"`
		MaxHoldBars         int   `json:"maxHoldBars"`
		MaxHoldMs           int64 `json:"maxHoldMs"`
	} `json:"strategySpec"`
	FeeConfig feeConfigInput `json:"feeConfig"`
	Workers   int            `json:"workers"`
}

func loadSweepConfig(path string) (sweep.Config, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return sweep.Config{}, nil, fmt.Errorf("read sweep config: %w", err)
	}
	var in sweepConfigInput
	if err := json.Unmarshal(data, &in); err != nil {
		return sweep.Config{}, nil, fmt.Errorf("parse sweep config: %w", err)
	}

	overlaySets := make([]sweep.OverlaySet, len(in.OverlaySets))
	for i, ov := range in.OverlaySets {
		policies := make([]domain.Policy, len(ov.Policies))
		for j, p := range ov.Policies {
			policies[j] = p.toDomain()
		}
		overlaySets[i] = sweep.OverlaySet{ID: ov.ID, Policies: policies}
	}

	cfg := sweep.Config{
		Intervals:   in.Intervals,
		IntervalMs:  in.IntervalMs,
		LagsMs:      in.LagsMs,
		OverlaySets: overlaySets,
		StrategySpec: domain.StrategySpec{
			IndicatorWarmupBars: in.StrategySpec.IndicatorWarmupBars,
			EntryDelayBars:      in.StrategySpec.EntryDelayBars,
			MaxHoldBars:         in.StrategySpec.MaxHoldBars,
			MaxHoldMs:           in.StrategySpec.MaxHoldMs,
		},
		FeeConfig: domain.FeeConfig{Simple: in.FeeConfig.Simple, Venue: in.FeeConfig.Venue},
		Workers:   in.Workers,
	}
	if cfg.FeeConfig.Simple == nil && cfg.FeeConfig.Venue == nil {
		cfg.FeeConfig = domain.FeeConfigDefault
	}
	return cfg, data, nil
}
