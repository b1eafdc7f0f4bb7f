package keeper

import (
	"context"
	"fmt"

	"github.com/paw-chain/paw-oracle/x/oracle/types"
)

// GetParams gets all parameters from the store
func (k Keeper) GetParams(ctx context.Context) (types.Params, error) {
	var params types.Params
	found, err := k.get(ctx, types.ParamsKey, &params)
	if err != nil {
		return types.Params{}, err
	}
	if !found {
		return types.DefaultParams(), nil
	}
	return params, nil
}

// SetParams sets the module parameters. A lower history retention evicts the
// oldest entries immediately.
func (k Keeper) SetParams(ctx context.Context, params types.Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	if err := k.set(ctx, types.ParamsKey, params); err != nil {
		return fmt.Errorf("failed to marshal params: %w", err)
	}

	k.priceHistory().trim(ctx, params.HistoryRetention)
	k.roundResults().trim(ctx, params.HistoryRetention)
	return nil
}
