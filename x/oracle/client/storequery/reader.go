// Package storequery reads oracle state from a node through raw ABCI store
// queries, decoding values the same way the keeper stores them.
package storequery

import (
	"context"
	"fmt"
	"sort"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/paw-oracle/x/oracle/types"
)

var (
	// KeyPath reads a single key from the oracle store.
	KeyPath = fmt.Sprintf("/store/%s/key", types.StoreKey)
	// SubspacePath reads every key under a prefix of the oracle store.
	SubspacePath = fmt.Sprintf("/store/%s/subspace", types.StoreKey)
)

// ABCIQuerier performs an ABCI query and returns the response value. A
// missing key yields a nil value and no error.
type ABCIQuerier func(ctx context.Context, path string, data []byte) ([]byte, error)

// Reader answers oracle queries from raw store reads.
type Reader struct {
	query ABCIQuerier
}

var _ types.QueryServer = Reader{}

// NewReader returns a Reader backed by query.
func NewReader(query ABCIQuerier) Reader {
	return Reader{query: query}
}

func (r Reader) get(ctx context.Context, key []byte, ptr interface{}) (bool, error) {
	bz, err := r.query(ctx, KeyPath, key)
	if err != nil {
		return false, err
	}
	if len(bz) == 0 {
		return false, nil
	}
	if err := types.ModuleCdc.UnmarshalJSON(bz, ptr); err != nil {
		return false, types.ErrStateCorruption.Wrapf("undecodable value at key %X: %s", key, err)
	}
	return true, nil
}

// subspace returns the values under prefix in key order.
func (r Reader) subspace(ctx context.Context, prefix []byte) ([][]byte, error) {
	bz, err := r.query(ctx, SubspacePath, prefix)
	if err != nil {
		return nil, err
	}

	pairs, err := UnmarshalPairs(bz)
	if err != nil {
		return nil, fmt.Errorf("failed to decode subspace %X: %w", prefix, err)
	}
	sort.Slice(pairs.Pairs, func(i, j int) bool {
		return string(pairs.Pairs[i].Key) < string(pairs.Pairs[j].Key)
	})

	values := make([][]byte, len(pairs.Pairs))
	for i, p := range pairs.Pairs {
		values[i] = p.Value
	}
	return values, nil
}

func decodeAll[T any](values [][]byte) ([]T, error) {
	out := make([]T, 0, len(values))
	for _, bz := range values {
		var v T
		if err := types.ModuleCdc.UnmarshalJSON(bz, &v); err != nil {
			return nil, types.ErrStateCorruption.Wrap(err.Error())
		}
		out = append(out, v)
	}
	return out, nil
}

// newestFirst reverses items in place and truncates to limit (0 = all).
func newestFirst[T any](items []T, limit uint32) []T {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	if limit > 0 && int(limit) < len(items) {
		items = items[:limit]
	}
	return items
}

// Params reads the module params, falling back to defaults before the first update.
func (r Reader) Params(ctx context.Context) (*types.QueryParamsResponse, error) {
	var params types.Params
	found, err := r.get(ctx, types.ParamsKey, &params)
	if err != nil {
		return nil, err
	}
	if !found {
		params = types.DefaultParams()
	}
	return &types.QueryParamsResponse{Params: params}, nil
}

// CurrentRound reads the open round and the number of observations recorded for it.
func (r Reader) CurrentRound(ctx context.Context) (*types.QueryCurrentRoundResponse, error) {
	var round types.Round
	found, err := r.get(ctx, types.CurrentRoundKey, &round)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, types.ErrRoundNotFound.Wrap("no open round")
	}

	observations, err := r.subspace(ctx, types.GetRoundObservationsPrefix(round.ID))
	if err != nil {
		return nil, err
	}
	return &types.QueryCurrentRoundResponse{Round: round, Observations: uint32(len(observations))}, nil
}

// LatestPrice reads the most recent published price and its staleness.
func (r Reader) LatestPrice(ctx context.Context) (*types.QueryLatestPriceResponse, error) {
	round, err := r.CurrentRound(ctx)
	if err != nil {
		return nil, err
	}

	history, err := r.PriceHistory(ctx, &types.QueryPriceHistoryRequest{Limit: 1})
	if err != nil {
		return nil, err
	}

	res := &types.QueryLatestPriceResponse{CurrentRound: round.Round.ID}
	if len(history.Prices) > 0 {
		price := history.Prices[0]
		res.Price = &price
		res.Stale = price.IsStale(round.Round.ID)
	}
	return res, nil
}

// PriceHistory reads published prices, most recent first.
func (r Reader) PriceHistory(ctx context.Context, req *types.QueryPriceHistoryRequest) (*types.QueryPriceHistoryResponse, error) {
	values, err := r.subspace(ctx, types.PublishedPriceKeyPrefix)
	if err != nil {
		return nil, err
	}
	prices, err := decodeAll[types.PublishedPrice](values)
	if err != nil {
		return nil, err
	}
	return &types.QueryPriceHistoryResponse{Prices: newestFirst(prices, req.Limit)}, nil
}

// Operators reads every registered operator.
func (r Reader) Operators(ctx context.Context) (*types.QueryOperatorsResponse, error) {
	values, err := r.subspace(ctx, types.OperatorKeyPrefix)
	if err != nil {
		return nil, err
	}
	operators, err := decodeAll[types.Operator](values)
	if err != nil {
		return nil, err
	}
	return &types.QueryOperatorsResponse{Operators: operators}, nil
}

// Operator reads a single operator.
func (r Reader) Operator(ctx context.Context, req *types.QueryOperatorRequest) (*types.QueryOperatorResponse, error) {
	addr, err := sdk.AccAddressFromBech32(req.Address)
	if err != nil {
		return nil, types.ErrInvalidAddress.Wrap(err.Error())
	}

	var op types.Operator
	found, err := r.get(ctx, types.GetOperatorKey(addr), &op)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, types.ErrNotRegistered.Wrapf("operator %s", req.Address)
	}
	return &types.QueryOperatorResponse{Operator: op, Active: true}, nil
}

// RoundObservations reads the observations recorded for a round.
func (r Reader) RoundObservations(ctx context.Context, req *types.QueryRoundObservationsRequest) (*types.QueryRoundObservationsResponse, error) {
	values, err := r.subspace(ctx, types.GetRoundObservationsPrefix(req.RoundID))
	if err != nil {
		return nil, err
	}
	observations, err := decodeAll[types.Observation](values)
	if err != nil {
		return nil, err
	}
	return &types.QueryRoundObservationsResponse{Observations: observations}, nil
}

// RoundResults reads closed round results, most recent first.
func (r Reader) RoundResults(ctx context.Context, req *types.QueryRoundResultsRequest) (*types.QueryRoundResultsResponse, error) {
	values, err := r.subspace(ctx, types.RoundResultKeyPrefix)
	if err != nil {
		return nil, err
	}
	results, err := decodeAll[types.RoundResult](values)
	if err != nil {
		return nil, err
	}
	return &types.QueryRoundResultsResponse{Results: newestFirst(results, req.Limit)}, nil
}

// Observation reads one reporter's observation for a round.
func (r Reader) Observation(ctx context.Context, roundID uint64, reporter sdk.AccAddress) (types.Observation, bool, error) {
	var obs types.Observation
	found, err := r.get(ctx, types.GetObservationKey(roundID, reporter), &obs)
	return obs, found, err
}
