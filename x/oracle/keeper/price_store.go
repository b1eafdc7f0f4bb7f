package keeper

import (
	"context"
	"encoding/binary"

	storetypes "cosmossdk.io/store/types"

	"github.com/paw-chain/paw-oracle/x/oracle/types"
)

// boundedHistory is an append-only log keyed by round id that keeps at most
// `retention` entries, evicting the oldest first.
type boundedHistory struct {
	k        Keeper
	prefix   []byte
	countKey []byte
}

func (k Keeper) priceHistory() boundedHistory {
	return boundedHistory{k: k, prefix: types.PublishedPriceKeyPrefix, countKey: types.PublishedPriceCountKey}
}

func (k Keeper) roundResults() boundedHistory {
	return boundedHistory{k: k, prefix: types.RoundResultKeyPrefix, countKey: types.RoundResultCountKey}
}

func (h boundedHistory) count(ctx context.Context) uint64 {
	bz := h.k.getStore(ctx).Get(h.countKey)
	if len(bz) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(bz)
}

func (h boundedHistory) setCount(ctx context.Context, n uint64) {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, n)
	h.k.getStore(ctx).Set(h.countKey, bz)
}

func (h boundedHistory) key(roundID uint64) []byte {
	return append(append([]byte{}, h.prefix...), types.RoundKey(roundID)...)
}

func (h boundedHistory) append(ctx context.Context, roundID uint64, bz []byte, retention uint32) {
	store := h.k.getStore(ctx)
	key := h.key(roundID)
	if !store.Has(key) {
		h.setCount(ctx, h.count(ctx)+1)
	}
	store.Set(key, bz)
	h.trim(ctx, retention)
}

// trim evicts the oldest entries until at most retention remain.
func (h boundedHistory) trim(ctx context.Context, retention uint32) int {
	count := h.count(ctx)
	if count <= uint64(retention) {
		return 0
	}
	excess := count - uint64(retention)

	store := h.k.getStore(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, h.prefix)
	keysToDelete := make([][]byte, 0, excess)
	for ; iterator.Valid() && uint64(len(keysToDelete)) < excess; iterator.Next() {
		keysToDelete = append(keysToDelete, iterator.Key())
	}
	iterator.Close()

	for _, key := range keysToDelete {
		store.Delete(key)
	}
	h.setCount(ctx, count-uint64(len(keysToDelete)))
	return len(keysToDelete)
}

// iterateReverse visits up to limit entries, newest first. A zero limit
// visits everything retained.
func (h boundedHistory) iterateReverse(ctx context.Context, limit uint32, cb func(bz []byte) error) error {
	iterator := storetypes.KVStoreReversePrefixIterator(h.k.getStore(ctx), h.prefix)
	defer iterator.Close()

	visited := uint32(0)
	for ; iterator.Valid(); iterator.Next() {
		if limit > 0 && visited >= limit {
			break
		}
		if err := cb(iterator.Value()); err != nil {
			return types.ErrStateCorruption.Wrapf("history entry %X: %s", iterator.Key(), err)
		}
		visited++
	}
	return nil
}

// LatestPrice returns the most recently published price.
func (k Keeper) LatestPrice(ctx context.Context) (types.PublishedPrice, bool, error) {
	prices, err := k.PriceHistory(ctx, 1)
	if err != nil || len(prices) == 0 {
		return types.PublishedPrice{}, false, err
	}
	return prices[0], true, nil
}

// PriceHistory returns up to limit published prices, most recent first. A
// zero limit returns the whole retained history.
func (k Keeper) PriceHistory(ctx context.Context, limit uint32) ([]types.PublishedPrice, error) {
	prices := []types.PublishedPrice{}
	err := k.priceHistory().iterateReverse(ctx, limit, func(bz []byte) error {
		var price types.PublishedPrice
		if err := k.cdc.UnmarshalJSON(bz, &price); err != nil {
			return err
		}
		prices = append(prices, price)
		return nil
	})
	return prices, err
}

// appendPublishedPrice stores a newly aggregated price and evicts the oldest
// entries beyond the retention window.
func (k Keeper) appendPublishedPrice(ctx context.Context, price types.PublishedPrice, retention uint32) error {
	bz, err := k.cdc.MarshalJSON(price)
	if err != nil {
		return err
	}
	k.priceHistory().append(ctx, price.RoundID, bz, retention)
	return nil
}
