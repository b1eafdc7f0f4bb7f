package types

import (
	"fmt"
)

// GenesisState defines the oracle module's genesis state.
type GenesisState struct {
	Params    Params     `json:"params"`
	Operators []Operator `json:"operators"`
	// CurrentRound is nil for a fresh chain; round 1 opens at InitGenesis.
	CurrentRound *Round           `json:"current_round,omitempty"`
	Observations []Observation    `json:"observations"`
	PriceHistory []PublishedPrice `json:"price_history"`
	RoundResults []RoundResult    `json:"round_results"`
}

// DefaultGenesis returns the default genesis state
func DefaultGenesis() *GenesisState {
	return &GenesisState{
		Params:       DefaultParams(),
		Operators:    []Operator{},
		Observations: []Observation{},
		PriceHistory: []PublishedPrice{},
		RoundResults: []RoundResult{},
	}
}

// Validate performs basic genesis state validation returning an error upon any
// failure.
func (gs GenesisState) Validate() error {
	if err := gs.Params.Validate(); err != nil {
		return err
	}

	operators := make(map[string]struct{}, len(gs.Operators))
	for _, op := range gs.Operators {
		if err := op.Validate(); err != nil {
			return ErrInvalidGenesis.Wrap(err.Error())
		}
		if _, dup := operators[op.Address]; dup {
			return ErrInvalidGenesis.Wrapf("duplicate operator %s", op.Address)
		}
		operators[op.Address] = struct{}{}
	}

	if gs.CurrentRound == nil {
		if len(gs.Observations) > 0 {
			return ErrInvalidGenesis.Wrap("observations require a current round")
		}
	} else if err := gs.CurrentRound.Validate(); err != nil {
		return ErrInvalidGenesis.Wrap(err.Error())
	}

	reporters := make(map[string]struct{}, len(gs.Observations))
	for _, obs := range gs.Observations {
		if obs.RoundID != gs.CurrentRound.ID {
			return ErrInvalidGenesis.Wrapf("observation from %s targets round %d, current round is %d", obs.Reporter, obs.RoundID, gs.CurrentRound.ID)
		}
		if _, ok := operators[obs.Reporter]; !ok {
			return ErrInvalidGenesis.Wrapf("observation from unregistered reporter %s", obs.Reporter)
		}
		if _, dup := reporters[obs.Reporter]; dup {
			return ErrInvalidGenesis.Wrapf("duplicate observation from %s", obs.Reporter)
		}
		if obs.Value.IsNil() || obs.Value.IsNegative() {
			return ErrInvalidGenesis.Wrapf("observation from %s has invalid value", obs.Reporter)
		}
		reporters[obs.Reporter] = struct{}{}
	}

	if len(gs.PriceHistory) > int(gs.Params.HistoryRetention) {
		return ErrInvalidGenesis.Wrapf("price history has %d entries, retention is %d", len(gs.PriceHistory), gs.Params.HistoryRetention)
	}
	if err := validateRoundIDs(gs.CurrentRound, len(gs.PriceHistory), func(i int) uint64 { return gs.PriceHistory[i].RoundID }); err != nil {
		return ErrInvalidGenesis.Wrapf("price history: %s", err)
	}
	for _, p := range gs.PriceHistory {
		if p.Value.IsNil() || p.Value.IsNegative() {
			return ErrInvalidGenesis.Wrapf("published price for round %d has invalid value", p.RoundID)
		}
		if p.ContributingCount == 0 {
			return ErrInvalidGenesis.Wrapf("published price for round %d has no contributors", p.RoundID)
		}
	}

	if len(gs.RoundResults) > int(gs.Params.HistoryRetention) {
		return ErrInvalidGenesis.Wrapf("round results have %d entries, retention is %d", len(gs.RoundResults), gs.Params.HistoryRetention)
	}
	if err := validateRoundIDs(gs.CurrentRound, len(gs.RoundResults), func(i int) uint64 { return gs.RoundResults[i].RoundID }); err != nil {
		return ErrInvalidGenesis.Wrapf("round results: %s", err)
	}

	return nil
}

// validateRoundIDs checks that ids are unique and all belong to closed rounds.
func validateRoundIDs(current *Round, n int, id func(int) uint64) error {
	seen := make(map[uint64]struct{}, n)
	for i := 0; i < n; i++ {
		roundID := id(i)
		if roundID == 0 {
			return fmt.Errorf("round id must be positive")
		}
		if current == nil || roundID >= current.ID {
			return fmt.Errorf("round %d is not closed", roundID)
		}
		if _, dup := seen[roundID]; dup {
			return fmt.Errorf("duplicate round %d", roundID)
		}
		seen[roundID] = struct{}{}
	}
	return nil
}
