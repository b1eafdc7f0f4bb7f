package keeper

import (
	"context"
	"fmt"

	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/paw-oracle/x/oracle/types"
)

// AddOperator registers an operator. The operator may submit in the current
// round. Re-adding an operator whose removal is pending cancels the removal.
func (k Keeper) AddOperator(ctx context.Context, operator sdk.AccAddress, pubKey []byte) error {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	existing, found, err := k.GetOperator(ctx, operator)
	if err != nil {
		return err
	}
	if found && !existing.PendingRemoval {
		return types.ErrAlreadyRegistered.Wrapf("operator %s", operator)
	}

	op := types.Operator{
		Address: operator.String(),
		PubKey:  pubKey,
		AddedAt: sdkCtx.BlockHeight(),
	}
	if found {
		// keep the original registration height when a removal is cancelled
		op.AddedAt = existing.AddedAt
	}
	if err := op.Validate(); err != nil {
		return err
	}
	if err := k.setOperator(ctx, op); err != nil {
		return err
	}

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeOperatorAdded,
			sdk.NewAttribute(types.AttributeKeyOperator, op.Address),
			sdk.NewAttribute(types.AttributeKeyBlockHeight, fmt.Sprintf("%d", sdkCtx.BlockHeight())),
		),
	)
	k.Logger(ctx).Info("operator added", "operator", op.Address, "removal_cancelled", found)
	k.metrics.ActiveOperators.Set(float64(len(k.GetAllOperators(ctx))))
	return nil
}

// RemoveOperator schedules an operator for removal. The operator stays active
// for the rest of the current round and is deleted when the next round opens,
// so observations already recorded this round keep counting. It returns the
// id of the first round the operator can no longer submit to.
func (k Keeper) RemoveOperator(ctx context.Context, operator sdk.AccAddress) (uint64, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	op, found, err := k.GetOperator(ctx, operator)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, types.ErrNotRegistered.Wrapf("operator %s", operator)
	}

	round, err := k.GetCurrentRound(ctx)
	if err != nil {
		return 0, err
	}
	effective := round.ID + 1

	if op.PendingRemoval {
		return effective, nil
	}

	op.PendingRemoval = true
	if err := k.setOperator(ctx, op); err != nil {
		return 0, err
	}

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeOperatorRemoval,
			sdk.NewAttribute(types.AttributeKeyOperator, op.Address),
			sdk.NewAttribute(types.AttributeKeyEffectiveRound, fmt.Sprintf("%d", effective)),
		),
	)
	k.Logger(ctx).Info("operator removal scheduled", "operator", op.Address, "effective_round", effective)
	return effective, nil
}

// IsActive reports whether the account may submit observations right now.
func (k Keeper) IsActive(ctx context.Context, account sdk.AccAddress) bool {
	return k.getStore(ctx).Has(types.GetOperatorKey(account))
}

// GetOperator returns the registry entry for an account.
func (k Keeper) GetOperator(ctx context.Context, account sdk.AccAddress) (types.Operator, bool, error) {
	var op types.Operator
	found, err := k.get(ctx, types.GetOperatorKey(account), &op)
	return op, found, err
}

// GetAllOperators returns every registered operator, including those pending removal.
func (k Keeper) GetAllOperators(ctx context.Context) []types.Operator {
	operators := []types.Operator{}
	k.iterateOperators(ctx, func(op types.Operator) bool {
		operators = append(operators, op)
		return false
	})
	return operators
}

func (k Keeper) iterateOperators(ctx context.Context, cb func(types.Operator) (stop bool)) {
	iterator := storetypes.KVStorePrefixIterator(k.getStore(ctx), types.OperatorKeyPrefix)
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		var op types.Operator
		if err := k.cdc.UnmarshalJSON(iterator.Value(), &op); err != nil {
			k.Logger(ctx).Error("skipping undecodable operator", "key", fmt.Sprintf("%X", iterator.Key()), "error", err)
			continue
		}
		if cb(op) {
			break
		}
	}
}

func (k Keeper) setOperator(ctx context.Context, op types.Operator) error {
	addr, err := sdk.AccAddressFromBech32(op.Address)
	if err != nil {
		return types.ErrInvalidAddress.Wrap(err.Error())
	}
	return k.set(ctx, types.GetOperatorKey(addr), op)
}

// applyPendingRemovals deletes operators marked for removal. It runs only at
// round boundaries.
func (k Keeper) applyPendingRemovals(ctx context.Context) []string {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	var removed []string
	k.iterateOperators(ctx, func(op types.Operator) bool {
		if op.PendingRemoval {
			removed = append(removed, op.Address)
		}
		return false
	})

	store := k.getStore(ctx)
	for _, addr := range removed {
		acc := sdk.MustAccAddressFromBech32(addr)
		store.Delete(types.GetOperatorKey(acc))
		sdkCtx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeOperatorRemoved,
				sdk.NewAttribute(types.AttributeKeyOperator, addr),
			),
		)
	}

	if len(removed) > 0 {
		k.Logger(ctx).Info("operators removed at round boundary", "count", len(removed))
		k.metrics.ActiveOperators.Set(float64(len(k.GetAllOperators(ctx))))
	}
	return removed
}
