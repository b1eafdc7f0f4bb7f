package keeper

import (
	"context"
	"time"

	"github.com/cosmos/cosmos-sdk/telemetry"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/paw-oracle/x/oracle/types"
	"github.com/paw-chain/paw-oracle/x/shared/abci"
)

// EndBlocker closes the open round once its deadline height is reached.
// Rounds that reached quorum were already closed on the submission path.
func (k Keeper) EndBlocker(ctx context.Context) error {
	defer telemetry.ModuleMeasureSince(types.ModuleName, time.Now(), telemetry.MetricKeyEndBlocker)

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	handler := abci.NewBlockerErrorHandler(sdkCtx, types.ModuleName)

	round, err := k.GetCurrentRound(ctx)
	if handler.Handle("load_round", abci.SeverityHigh, err) {
		return nil
	}
	if !round.DeadlineReached(sdkCtx.BlockHeight()) {
		return nil
	}

	// Close in a cached context so a failure leaves the round untouched and
	// the close is retried on the next block.
	cacheCtx, write := sdkCtx.CacheContext()
	if _, err := k.CloseRound(cacheCtx, round.ID, types.CloseReasonDeadline); handler.Handle("close_round", abci.SeverityMedium, err) {
		return nil
	}
	write()
	return nil
}
