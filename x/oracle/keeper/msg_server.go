package keeper

import (
	"context"
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/paw-oracle/x/oracle/types"
	sharedkeeper "github.com/paw-chain/paw-oracle/x/shared/keeper"
)

type msgServer struct {
	Keeper
}

// NewMsgServerImpl returns an implementation of the MsgServer interface
func NewMsgServerImpl(keeper Keeper) types.MsgServer {
	return &msgServer{Keeper: keeper}
}

var _ types.MsgServer = msgServer{}

// SubmitObservation handles a price observation from an operator
func (ms msgServer) SubmitObservation(goCtx context.Context, msg *types.MsgSubmitObservation) (*types.MsgSubmitObservationResponse, error) {
	reporter, err := sdk.AccAddressFromBech32(msg.Reporter)
	if err != nil {
		return nil, types.ErrInvalidAddress.Wrapf("invalid reporter address: %s", err)
	}

	res, err := ms.Submit(goCtx, reporter, msg.RoundID, msg.Value, msg.Signature)
	if err != nil {
		return nil, err
	}

	return &types.MsgSubmitObservationResponse{
		Replaced:    res.Replaced,
		RoundClosed: res.RoundClosed,
	}, nil
}

// AddOperator registers an operator (authority only)
func (ms msgServer) AddOperator(goCtx context.Context, msg *types.MsgAddOperator) (*types.MsgAddOperatorResponse, error) {
	if err := ms.checkAuthority(msg.Authority); err != nil {
		return nil, err
	}

	operator, err := sdk.AccAddressFromBech32(msg.Operator)
	if err != nil {
		return nil, types.ErrInvalidAddress.Wrapf("invalid operator address: %s", err)
	}

	if err := ms.Keeper.AddOperator(goCtx, operator, msg.PubKey); err != nil {
		return nil, err
	}
	return &types.MsgAddOperatorResponse{}, nil
}

// RemoveOperator schedules an operator's removal (authority only)
func (ms msgServer) RemoveOperator(goCtx context.Context, msg *types.MsgRemoveOperator) (*types.MsgRemoveOperatorResponse, error) {
	if err := ms.checkAuthority(msg.Authority); err != nil {
		return nil, err
	}

	operator, err := sdk.AccAddressFromBech32(msg.Operator)
	if err != nil {
		return nil, types.ErrInvalidAddress.Wrapf("invalid operator address: %s", err)
	}

	effective, err := ms.Keeper.RemoveOperator(goCtx, operator)
	if err != nil {
		return nil, err
	}
	return &types.MsgRemoveOperatorResponse{EffectiveRound: effective}, nil
}

// UpdateParams replaces the module params (authority only)
func (ms msgServer) UpdateParams(goCtx context.Context, msg *types.MsgUpdateParams) (*types.MsgUpdateParamsResponse, error) {
	if err := ms.checkAuthority(msg.Authority); err != nil {
		return nil, err
	}

	if err := ms.SetParams(goCtx, msg.Params); err != nil {
		return nil, err
	}

	ctx := sdk.UnwrapSDKContext(goCtx)
	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeParamsUpdated,
			sdk.NewAttribute(types.AttributeKeyBlockHeight, fmt.Sprintf("%d", ctx.BlockHeight())),
		),
	)
	ms.Logger(goCtx).Info("params updated",
		"quorum_threshold", msg.Params.QuorumThreshold,
		"min_participation", msg.Params.MinParticipation,
		"round_duration", msg.Params.RoundDuration,
	)
	return &types.MsgUpdateParamsResponse{}, nil
}

func (ms msgServer) checkAuthority(authority string) error {
	if err := sharedkeeper.ValidateAuthority(ms.GetAuthority(), authority); err != nil {
		return types.ErrUnauthorizedAuthority.Wrap(err.Error())
	}
	return nil
}
