package keeper

import (
	"context"
	"fmt"
	"sort"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/paw-oracle/x/oracle/types"
)

// InitGenesis initializes the oracle module's state from a genesis state.
// A genesis without a current round opens round 1 at the genesis height.
func (k Keeper) InitGenesis(ctx context.Context, data types.GenesisState) error {
	if err := data.Validate(); err != nil {
		return err
	}

	if err := k.SetParams(ctx, data.Params); err != nil {
		return fmt.Errorf("failed to set params: %w", err)
	}

	for _, op := range data.Operators {
		if err := k.setOperator(ctx, op); err != nil {
			return fmt.Errorf("failed to set operator %s: %w", op.Address, err)
		}
	}
	k.metrics.ActiveOperators.Set(float64(len(data.Operators)))

	if data.CurrentRound == nil {
		if _, err := k.openRound(ctx, 1); err != nil {
			return fmt.Errorf("failed to open first round: %w", err)
		}
	} else {
		if err := k.setCurrentRound(ctx, *data.CurrentRound); err != nil {
			return fmt.Errorf("failed to set current round: %w", err)
		}
		k.metrics.CurrentRound.Set(float64(data.CurrentRound.ID))
	}

	for _, obs := range data.Observations {
		reporter, err := sdk.AccAddressFromBech32(obs.Reporter)
		if err != nil {
			return types.ErrInvalidGenesis.Wrapf("observation reporter %s: %s", obs.Reporter, err)
		}
		if _, err := k.setObservation(ctx, reporter, obs); err != nil {
			return fmt.Errorf("failed to set observation from %s: %w", obs.Reporter, err)
		}
	}

	// append oldest first so the retained window matches the export
	prices := append([]types.PublishedPrice{}, data.PriceHistory...)
	sort.Slice(prices, func(i, j int) bool { return prices[i].RoundID < prices[j].RoundID })
	for _, price := range prices {
		if err := k.appendPublishedPrice(ctx, price, data.Params.HistoryRetention); err != nil {
			return fmt.Errorf("failed to set published price for round %d: %w", price.RoundID, err)
		}
	}

	results := append([]types.RoundResult{}, data.RoundResults...)
	sort.Slice(results, func(i, j int) bool { return results[i].RoundID < results[j].RoundID })
	for _, res := range results {
		if err := k.appendRoundResult(ctx, res, data.Params.HistoryRetention); err != nil {
			return fmt.Errorf("failed to set round result %d: %w", res.RoundID, err)
		}
	}

	return nil
}

// ExportGenesis exports the oracle module's state to a genesis state
func (k Keeper) ExportGenesis(ctx context.Context) (*types.GenesisState, error) {
	params, err := k.GetParams(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get params: %w", err)
	}

	round, err := k.GetCurrentRound(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current round: %w", err)
	}

	observations, err := k.GetRoundObservations(ctx, round.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get observations: %w", err)
	}

	prices, err := k.PriceHistory(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get price history: %w", err)
	}

	results, err := k.GetRoundResults(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get round results: %w", err)
	}

	return &types.GenesisState{
		Params:       params,
		Operators:    k.GetAllOperators(ctx),
		CurrentRound: &round,
		Observations: observations,
		PriceHistory: prices,
		RoundResults: results,
	}, nil
}
