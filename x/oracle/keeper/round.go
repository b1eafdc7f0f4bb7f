package keeper

import (
	"context"
	"fmt"

	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/paw-oracle/x/oracle/types"
)

// GetCurrentRound returns the open round.
func (k Keeper) GetCurrentRound(ctx context.Context) (types.Round, error) {
	var round types.Round
	found, err := k.get(ctx, types.CurrentRoundKey, &round)
	if err != nil {
		return types.Round{}, err
	}
	if !found {
		return types.Round{}, types.ErrRoundNotFound.Wrap("no open round")
	}
	return round, nil
}

func (k Keeper) setCurrentRound(ctx context.Context, round types.Round) error {
	return k.set(ctx, types.CurrentRoundKey, round)
}

// openRound opens round id at the current height with a fresh deadline and
// quorum target taken from params.
func (k Keeper) openRound(ctx context.Context, id uint64) (types.Round, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	params, err := k.GetParams(ctx)
	if err != nil {
		return types.Round{}, err
	}

	round := types.NewRound(id, sdkCtx.BlockHeight(), params)
	if err := k.setCurrentRound(ctx, round); err != nil {
		return types.Round{}, err
	}

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeRoundOpened,
			sdk.NewAttribute(types.AttributeKeyRound, fmt.Sprintf("%d", round.ID)),
			sdk.NewAttribute(types.AttributeKeyClosesAt, fmt.Sprintf("%d", round.ClosesAt)),
		),
	)
	k.metrics.CurrentRound.Set(float64(round.ID))
	return round, nil
}

// GetObservation returns the observation a reporter recorded for a round.
func (k Keeper) GetObservation(ctx context.Context, roundID uint64, reporter sdk.AccAddress) (types.Observation, bool, error) {
	var obs types.Observation
	found, err := k.get(ctx, types.GetObservationKey(roundID, reporter), &obs)
	return obs, found, err
}

// setObservation records an observation, replacing any earlier one from the
// same reporter in the same round. It reports whether a value was replaced.
func (k Keeper) setObservation(ctx context.Context, reporter sdk.AccAddress, obs types.Observation) (bool, error) {
	key := types.GetObservationKey(obs.RoundID, reporter)
	replaced := k.getStore(ctx).Has(key)
	return replaced, k.set(ctx, key, obs)
}

// GetRoundObservations returns all observations recorded for a round.
func (k Keeper) GetRoundObservations(ctx context.Context, roundID uint64) ([]types.Observation, error) {
	iterator := storetypes.KVStorePrefixIterator(k.getStore(ctx), types.GetRoundObservationsPrefix(roundID))
	defer iterator.Close()

	observations := []types.Observation{}
	for ; iterator.Valid(); iterator.Next() {
		var obs types.Observation
		if err := k.cdc.UnmarshalJSON(iterator.Value(), &obs); err != nil {
			return nil, types.ErrStateCorruption.Wrapf("observation %X: %s", iterator.Key(), err)
		}
		observations = append(observations, obs)
	}
	return observations, nil
}

// countRoundObservations counts the distinct reporters of a round.
func (k Keeper) countRoundObservations(ctx context.Context, roundID uint64) int {
	iterator := storetypes.KVStorePrefixIterator(k.getStore(ctx), types.GetRoundObservationsPrefix(roundID))
	defer iterator.Close()

	count := 0
	for ; iterator.Valid(); iterator.Next() {
		count++
	}
	return count
}

// pruneRoundObservations deletes a closed round's raw observations.
func (k Keeper) pruneRoundObservations(ctx context.Context, roundID uint64) int {
	store := k.getStore(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, types.GetRoundObservationsPrefix(roundID))

	var keys [][]byte
	for ; iterator.Valid(); iterator.Next() {
		keys = append(keys, iterator.Key())
	}
	iterator.Close()

	for _, key := range keys {
		store.Delete(key)
	}
	return len(keys)
}

// GetRoundResults returns up to limit closed round results, most recent first.
func (k Keeper) GetRoundResults(ctx context.Context, limit uint32) ([]types.RoundResult, error) {
	results := []types.RoundResult{}
	err := k.roundResults().iterateReverse(ctx, limit, func(bz []byte) error {
		var res types.RoundResult
		if err := k.cdc.UnmarshalJSON(bz, &res); err != nil {
			return err
		}
		results = append(results, res)
		return nil
	})
	return results, err
}

func (k Keeper) appendRoundResult(ctx context.Context, res types.RoundResult, retention uint32) error {
	bz, err := k.cdc.MarshalJSON(res)
	if err != nil {
		return err
	}
	k.roundResults().append(ctx, res.RoundID, bz, retention)
	return nil
}
