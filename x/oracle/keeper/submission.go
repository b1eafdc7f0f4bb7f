package keeper

import (
	"context"
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/paw-oracle/x/oracle/types"
)

// SubmitResult describes the effect of an accepted observation.
type SubmitResult struct {
	// Replaced is set when the reporter already had an observation in the round.
	Replaced bool
	// RoundClosed is set when the observation completed the round's quorum.
	RoundClosed bool
}

// Submit validates and records an observation. Checks run in order and the
// first failure rejects the submission without recording anything:
//
//  1. the reporter is an active operator (and, when it registered a key,
//     the signature verifies)
//  2. the round id is the open round
//  3. the value lies within the sanity band around the latest published price
//
// An accepted observation replaces the reporter's earlier one in the round. If
// the round then has a quorum of reporters it is closed before returning.
func (k Keeper) Submit(
	ctx context.Context,
	reporter sdk.AccAddress,
	roundID uint64,
	value sdkmath.LegacyDec,
	signature []byte,
) (SubmitResult, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := k.checkReporter(ctx, reporter, roundID, value, signature); err != nil {
		k.metrics.SubmissionRejections.WithLabelValues(reporterRejectionReason(err)).Inc()
		return SubmitResult{}, err
	}

	round, err := k.GetCurrentRound(ctx)
	if err != nil {
		return SubmitResult{}, err
	}
	switch {
	case roundID < round.ID:
		k.metrics.SubmissionRejections.WithLabelValues("stale_round").Inc()
		return SubmitResult{}, types.ErrStaleRound.Wrapf("round %d, current round is %d", roundID, round.ID)
	case roundID > round.ID:
		k.metrics.SubmissionRejections.WithLabelValues("future_round").Inc()
		return SubmitResult{}, types.ErrFutureRound.Wrapf("round %d, current round is %d", roundID, round.ID)
	}

	if value.IsNil() || value.IsNegative() {
		k.metrics.SubmissionRejections.WithLabelValues("invalid_price").Inc()
		return SubmitResult{}, types.ErrInvalidPrice.Wrap("value must be non-negative")
	}
	if err := k.checkSanityBand(ctx, value); err != nil {
		k.metrics.SubmissionRejections.WithLabelValues("out_of_bounds").Inc()
		return SubmitResult{}, err
	}

	obs := types.Observation{
		Reporter:    reporter.String(),
		RoundID:     roundID,
		Value:       value,
		SubmittedAt: sdkCtx.BlockHeight(),
	}
	replaced, err := k.setObservation(ctx, reporter, obs)
	if err != nil {
		return SubmitResult{}, err
	}

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeObservationSubmitted,
			sdk.NewAttribute(types.AttributeKeyReporter, obs.Reporter),
			sdk.NewAttribute(types.AttributeKeyRound, fmt.Sprintf("%d", roundID)),
			sdk.NewAttribute(types.AttributeKeyValue, value.String()),
			sdk.NewAttribute(types.AttributeKeyReplaced, fmt.Sprintf("%t", replaced)),
		),
	)
	k.metrics.ObservationsSubmitted.WithLabelValues(fmt.Sprintf("%t", replaced)).Inc()

	result := SubmitResult{Replaced: replaced}

	// The ledger has no background execution between submissions, so quorum
	// is evaluated synchronously on the submission path.
	if round.QuorumReached(k.countRoundObservations(ctx, roundID)) {
		closed, err := k.CloseRound(ctx, roundID, types.CloseReasonQuorum)
		if err != nil {
			return SubmitResult{}, err
		}
		result.RoundClosed = closed
	}

	return result, nil
}

// checkReporter rejects reporters that are not active operators and
// signatures that do not match the operator's registered key.
func (k Keeper) checkReporter(
	ctx context.Context,
	reporter sdk.AccAddress,
	roundID uint64,
	value sdkmath.LegacyDec,
	signature []byte,
) error {
	op, found, err := k.GetOperator(ctx, reporter)
	if err != nil {
		return err
	}
	if !found {
		return types.ErrUnauthorized.Wrapf("reporter %s", reporter)
	}

	pubKey := op.GetPubKey()
	if pubKey == nil {
		return nil
	}
	chainID := sdk.UnwrapSDKContext(ctx).ChainID()
	signBytes := types.ObservationSignBytes(chainID, reporter.String(), roundID, value)
	if len(signature) == 0 || !pubKey.VerifySignature(signBytes, signature) {
		return types.ErrInvalidSignature.Wrapf("reporter %s round %d", reporter, roundID)
	}
	return nil
}

// reporterRejectionReason is the metrics label of a checkReporter failure.
func reporterRejectionReason(err error) string {
	switch {
	case errors.Is(err, types.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, types.ErrInvalidSignature):
		return "invalid_signature"
	default:
		return "internal"
	}
}

// checkSanityBand bounds value to the latest published price ± max deviation.
// There is no band before the first publication, when the latest price is
// zero, or when max deviation is zero.
func (k Keeper) checkSanityBand(ctx context.Context, value sdkmath.LegacyDec) error {
	params, err := k.GetParams(ctx)
	if err != nil {
		return err
	}
	if params.MaxDeviation.IsZero() {
		return nil
	}

	latest, found, err := k.LatestPrice(ctx)
	if err != nil {
		return err
	}
	if !found || latest.Value.IsZero() {
		return nil
	}

	allowed := latest.Value.Mul(params.MaxDeviation)
	if value.Sub(latest.Value).Abs().GT(allowed) {
		return types.ErrOutOfBounds.Wrapf("value %s deviates from %s (round %d) by more than %s",
			value, latest.Value, latest.RoundID, params.MaxDeviation)
	}
	return nil
}
