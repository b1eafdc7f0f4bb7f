package oracle

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/paw-oracle/x/oracle/keeper"
	"github.com/paw-chain/paw-oracle/x/oracle/types"
)

// Handler executes one oracle message against the ledger.
type Handler func(ctx sdk.Context, msg types.Msg) (*sdk.Result, error)

// NewHandler returns a handler that routes oracle messages to the msg server.
// Account-level signature checks are the host chain's ante handler's job; the
// handler only enforces oracle rules.
func NewHandler(k keeper.Keeper) Handler {
	ms := keeper.NewMsgServerImpl(k)

	return func(ctx sdk.Context, msg types.Msg) (*sdk.Result, error) {
		ctx = ctx.WithEventManager(sdk.NewEventManager())

		var (
			res interface{}
			err error
		)
		switch msg := msg.(type) {
		case *types.MsgSubmitObservation:
			res, err = ms.SubmitObservation(ctx, msg)
		case *types.MsgAddOperator:
			res, err = ms.AddOperator(ctx, msg)
		case *types.MsgRemoveOperator:
			res, err = ms.RemoveOperator(ctx, msg)
		case *types.MsgUpdateParams:
			res, err = ms.UpdateParams(ctx, msg)
		default:
			return nil, types.ErrUnknownMsg.Wrapf("unrecognized %s message type: %T", types.ModuleName, msg)
		}
		if err != nil {
			return nil, err
		}

		data, err := types.ModuleCdc.MarshalJSON(res)
		if err != nil {
			return nil, err
		}
		return &sdk.Result{
			Data:   data,
			Events: ctx.EventManager().ABCIEvents(),
		}, nil
	}
}

// HandleTx decodes an amino JSON message envelope and executes it. State
// changes are written only if the message succeeds.
func HandleTx(ctx sdk.Context, h Handler, txBytes []byte) (*sdk.Result, error) {
	msg, err := types.DecodeMsg(txBytes)
	if err != nil {
		return nil, err
	}

	cacheCtx, write := ctx.CacheContext()
	res, err := h(cacheCtx, msg)
	if err != nil {
		return nil, err
	}
	write()
	return res, nil
}
