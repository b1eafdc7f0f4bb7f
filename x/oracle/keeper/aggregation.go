package keeper

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/telemetry"
	sdk "github.com/cosmos/cosmos-sdk/types"
	metrics "github.com/hashicorp/go-metrics"

	"github.com/paw-chain/paw-oracle/x/oracle/types"
)

// CloseRound closes the open round, publishing the median of its observations
// when participation meets the round's floor, and opens the next round.
// Closing a round that is already closed is a no-op and reports false.
func (k Keeper) CloseRound(ctx context.Context, roundID uint64, reason types.CloseReason) (bool, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	defer telemetry.ModuleMeasureSince(types.ModuleName, time.Now(), "close_round")

	round, err := k.GetCurrentRound(ctx)
	if err != nil {
		return false, err
	}
	switch {
	case roundID < round.ID:
		return false, nil
	case roundID > round.ID:
		return false, types.ErrFutureRound.Wrapf("cannot close round %d, current round is %d", roundID, round.ID)
	}

	params, err := k.GetParams(ctx)
	if err != nil {
		return false, err
	}

	observations, err := k.GetRoundObservations(ctx, roundID)
	if err != nil {
		return false, err
	}

	result := types.RoundResult{
		RoundID:           roundID,
		ClosedAt:          sdkCtx.BlockHeight(),
		Reason:            reason,
		ContributingCount: uint32(len(observations)),
	}

	if len(observations) >= int(round.MinParticipation) {
		values := make([]sdkmath.LegacyDec, len(observations))
		for i, obs := range observations {
			values[i] = obs.Value
		}

		median, err := ComputeMedian(values, params.PricePrecision)
		if err != nil {
			return false, err
		}

		price := types.PublishedPrice{
			RoundID:           roundID,
			Value:             median,
			PublishedAt:       sdkCtx.BlockHeight(),
			ContributingCount: uint32(len(observations)),
		}
		if err := k.appendPublishedPrice(ctx, price, params.HistoryRetention); err != nil {
			return false, err
		}
		result.Published = true

		sdkCtx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypePricePublished,
				sdk.NewAttribute(types.AttributeKeyRound, fmt.Sprintf("%d", roundID)),
				sdk.NewAttribute(types.AttributeKeyValue, median.String()),
				sdk.NewAttribute(types.AttributeKeyContributingCount, fmt.Sprintf("%d", len(observations))),
				sdk.NewAttribute(types.AttributeKeyBlockHeight, fmt.Sprintf("%d", sdkCtx.BlockHeight())),
			),
		)
		if f, err := median.Float64(); err == nil {
			k.metrics.PublishedPrice.Set(f)
		}
		k.metrics.ContributingCount.Set(float64(len(observations)))
	} else {
		k.Logger(ctx).Info("round closed without publishing",
			"round", roundID,
			"observations", len(observations),
			"min_participation", round.MinParticipation,
		)
	}

	if err := k.appendRoundResult(ctx, result, params.HistoryRetention); err != nil {
		return false, err
	}
	k.pruneRoundObservations(ctx, roundID)

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeRoundClosed,
			sdk.NewAttribute(types.AttributeKeyRound, fmt.Sprintf("%d", roundID)),
			sdk.NewAttribute(types.AttributeKeyReason, string(reason)),
			sdk.NewAttribute(types.AttributeKeyPublished, fmt.Sprintf("%t", result.Published)),
			sdk.NewAttribute(types.AttributeKeyContributingCount, fmt.Sprintf("%d", len(observations))),
		),
	)
	k.metrics.RoundsClosed.WithLabelValues(string(reason), fmt.Sprintf("%t", result.Published)).Inc()
	telemetry.IncrCounterWithLabels(
		[]string{types.ModuleName, "round_closed"},
		1,
		[]metrics.Label{
			telemetry.NewLabel("reason", string(reason)),
			telemetry.NewLabel("published", fmt.Sprintf("%t", result.Published)),
		},
	)

	// removals take effect exactly at the boundary, before the next round opens
	k.applyPendingRemovals(ctx)

	if _, err := k.openRound(ctx, roundID+1); err != nil {
		return false, err
	}
	return true, nil
}

// ComputeMedian returns the median of values rounded to precision decimal
// places. For an even count it is the mean of the two central values. The
// result is rounded exactly once, half to even, from the exact rational value,
// so every node derives the same published price. Changing this rule changes
// consensus output and requires a coordinated upgrade.
//
// Rounding is monotone: the result lies between the rounded smallest and
// largest honest values, which may be up to half a unit of precision outside
// the unrounded honest range.
func ComputeMedian(values []sdkmath.LegacyDec, precision uint32) (sdkmath.LegacyDec, error) {
	if len(values) == 0 {
		return sdkmath.LegacyDec{}, types.ErrInvalidPrice.Wrap("median of empty set")
	}
	if precision > types.MaxPricePrecision {
		return sdkmath.LegacyDec{}, types.ErrInvalidParams.Wrapf("price precision %d exceeds %d", precision, types.MaxPricePrecision)
	}

	sorted := make([]sdkmath.LegacyDec, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].LT(sorted[j])
	})

	// work on the underlying integers scaled by 10^LegacyPrecision
	n := len(sorted)
	num := sorted[n/2].BigInt()
	den := big.NewInt(1)
	if n%2 == 0 {
		num.Add(num, sorted[n/2-1].BigInt())
		den.SetInt64(2)
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(types.MaxPricePrecision-precision)), nil)
	den.Mul(den, scale)

	return sdkmath.LegacyNewDecFromBigIntWithPrec(quoRoundHalfEven(num, den), int64(precision)), nil
}

// quoRoundHalfEven divides num by a positive den, rounding ties to the even
// quotient. num must be non-negative.
func quoRoundHalfEven(num, den *big.Int) *big.Int {
	quo, rem := new(big.Int).QuoRem(num, den, new(big.Int))
	twiceRem := rem.Lsh(rem, 1)
	switch twiceRem.Cmp(den) {
	case 1:
		quo.Add(quo, big.NewInt(1))
	case 0:
		if quo.Bit(0) == 1 {
			quo.Add(quo, big.NewInt(1))
		}
	}
	return quo
}
