package keeper

// This file exports private keeper methods for testing purposes.

import (
	"context"
	"math/big"
)

// Exported for testing: tie-breaking division used by the median
func QuoRoundHalfEven(num, den *big.Int) *big.Int {
	return quoRoundHalfEven(num, den)
}

// Exported for testing: distinct reporters of a round
func (k Keeper) CountRoundObservations(ctx context.Context, roundID uint64) int {
	return k.countRoundObservations(ctx, roundID)
}

// Exported for testing: stored size of the price history
func (k Keeper) PriceHistoryCount(ctx context.Context) uint64 {
	return k.priceHistory().count(ctx)
}

// Exported for testing: raw store write, used to corrupt state in invariant tests
func (k Keeper) SetRaw(ctx context.Context, key, value []byte) {
	k.getStore(ctx).Set(key, value)
}

// Exported for testing: the module's metrics
func (k Keeper) Metrics() *OracleMetrics {
	return k.metrics
}
