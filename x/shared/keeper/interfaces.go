package keeper

import (
	"context"

	sdkmath "cosmossdk.io/math"
)

// PriceFeedV1 is the read-only view of the oracle that other modules depend on
// instead of the concrete keeper.
type PriceFeedV1 interface {
	// LatestPriceInfo returns the most recently published price and whether
	// one exists.
	LatestPriceInfo(ctx context.Context) (PriceInfo, bool)
}

// PriceInfo holds a published price as seen by consumers.
type PriceInfo struct {
	Price       sdkmath.LegacyDec
	RoundID     uint64
	BlockHeight int64
	// Stale is set when later rounds closed without publishing.
	Stale bool
}
