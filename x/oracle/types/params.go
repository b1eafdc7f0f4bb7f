package types

import (
	"cosmossdk.io/math"
)

// MaxPricePrecision is the precision of LegacyDec; published prices cannot be finer.
const MaxPricePrecision = math.LegacyPrecision

// Params defines the tunable parameters of the oracle module.
type Params struct {
	// QuorumThreshold is the number of distinct reporters that closes a round
	// early. Zero disables early closing; rounds then close on deadline only.
	QuorumThreshold uint32 `json:"quorum_threshold"`
	// MinParticipation is the minimum number of observations required to publish.
	MinParticipation uint32 `json:"min_participation"`
	// RoundDuration is the number of blocks a round stays open.
	RoundDuration uint64 `json:"round_duration"`
	// MaxDeviation bounds an observation's relative distance from the latest
	// published price, at most 1 (100%). Zero disables the band.
	MaxDeviation math.LegacyDec `json:"max_deviation"`
	// HistoryRetention is the number of published prices kept in state.
	HistoryRetention uint32 `json:"history_retention"`
	// PricePrecision is the number of decimal places of a published price.
	PricePrecision uint32 `json:"price_precision"`
}

// DefaultParams returns default oracle parameters
func DefaultParams() Params {
	return Params{
		QuorumThreshold:  3,
		MinParticipation: 2,
		RoundDuration:    10, // 10 blocks
		MaxDeviation:     math.LegacyMustNewDecFromStr("0.10"),
		HistoryRetention: 100,
		PricePrecision:   8,
	}
}

// Validate validates oracle module parameters
func (p Params) Validate() error {
	if p.MinParticipation == 0 {
		return ErrInvalidParams.Wrap("min participation must be positive")
	}
	if p.QuorumThreshold != 0 && p.QuorumThreshold < p.MinParticipation {
		return ErrInvalidParams.Wrapf("quorum threshold %d is below min participation %d", p.QuorumThreshold, p.MinParticipation)
	}
	if p.RoundDuration == 0 {
		return ErrInvalidParams.Wrap("round duration must be positive")
	}
	if p.MaxDeviation.IsNil() || p.MaxDeviation.IsNegative() {
		return ErrInvalidParams.Wrap("max deviation must be non-negative")
	}
	// keeps the band computation within LegacyDec range for any stored price
	if p.MaxDeviation.GT(math.LegacyOneDec()) {
		return ErrInvalidParams.Wrapf("max deviation %s exceeds 1", p.MaxDeviation)
	}
	if p.HistoryRetention == 0 {
		return ErrInvalidParams.Wrap("history retention must be positive")
	}
	if p.PricePrecision > MaxPricePrecision {
		return ErrInvalidParams.Wrapf("price precision %d exceeds %d", p.PricePrecision, MaxPricePrecision)
	}
	return nil
}
