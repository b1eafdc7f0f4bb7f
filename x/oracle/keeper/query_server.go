package keeper

import (
	"context"
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/paw-chain/paw-oracle/x/oracle/types"
	sharedkeeper "github.com/paw-chain/paw-oracle/x/shared/keeper"
)

type queryServer struct {
	Keeper
}

// NewQueryServerImpl returns an implementation of the QueryServer interface
func NewQueryServerImpl(keeper Keeper) types.QueryServer {
	return &queryServer{Keeper: keeper}
}

var _ types.QueryServer = queryServer{}

// sanitizeLimit applies the default and maximum history limits.
func sanitizeLimit(limit uint32) uint32 {
	if limit == 0 {
		return types.DefaultQueryLimit
	}
	if limit > types.MaxQueryLimit {
		return types.MaxQueryLimit
	}
	return limit
}

// Params queries the module params
func (qs queryServer) Params(goCtx context.Context) (*types.QueryParamsResponse, error) {
	params, err := qs.GetParams(goCtx)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &types.QueryParamsResponse{Params: params}, nil
}

// LatestPrice queries the most recently published price and whether it is stale
func (qs queryServer) LatestPrice(goCtx context.Context) (*types.QueryLatestPriceResponse, error) {
	round, err := qs.GetCurrentRound(goCtx)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	price, found, err := qs.Keeper.LatestPrice(goCtx)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	res := &types.QueryLatestPriceResponse{CurrentRound: round.ID}
	if found {
		res.Price = &price
		res.Stale = price.IsStale(round.ID)
	}
	return res, nil
}

// PriceHistory queries published prices, most recent first
func (qs queryServer) PriceHistory(goCtx context.Context, req *types.QueryPriceHistoryRequest) (*types.QueryPriceHistoryResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "empty request")
	}

	prices, err := qs.Keeper.PriceHistory(goCtx, sanitizeLimit(req.Limit))
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &types.QueryPriceHistoryResponse{Prices: prices}, nil
}

// Operators queries every registered operator
func (qs queryServer) Operators(goCtx context.Context) (*types.QueryOperatorsResponse, error) {
	return &types.QueryOperatorsResponse{Operators: qs.GetAllOperators(goCtx)}, nil
}

// Operator queries a single operator
func (qs queryServer) Operator(goCtx context.Context, req *types.QueryOperatorRequest) (*types.QueryOperatorResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "empty request")
	}
	if req.Address == "" {
		return nil, status.Error(codes.InvalidArgument, "operator address cannot be empty")
	}

	addr, err := sdk.AccAddressFromBech32(req.Address)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("invalid operator address: %s", err))
	}

	op, found, err := qs.GetOperator(goCtx, addr)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	if !found {
		return nil, status.Error(codes.NotFound, types.ErrNotRegistered.Wrapf("operator %s", req.Address).Error())
	}
	return &types.QueryOperatorResponse{Operator: op, Active: true}, nil
}

// CurrentRound queries the open round and how many reporters submitted to it
func (qs queryServer) CurrentRound(goCtx context.Context) (*types.QueryCurrentRoundResponse, error) {
	round, err := qs.GetCurrentRound(goCtx)
	if err != nil {
		return nil, status.Error(codes.NotFound, err.Error())
	}
	return &types.QueryCurrentRoundResponse{
		Round:        round,
		Observations: uint32(qs.countRoundObservations(goCtx, round.ID)),
	}, nil
}

// RoundObservations queries the pending observations of a round
func (qs queryServer) RoundObservations(goCtx context.Context, req *types.QueryRoundObservationsRequest) (*types.QueryRoundObservationsResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "empty request")
	}

	observations, err := qs.GetRoundObservations(goCtx, req.RoundID)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &types.QueryRoundObservationsResponse{Observations: observations}, nil
}

// RoundResults queries closed round results, most recent first
func (qs queryServer) RoundResults(goCtx context.Context, req *types.QueryRoundResultsRequest) (*types.QueryRoundResultsResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "empty request")
	}

	results, err := qs.GetRoundResults(goCtx, sanitizeLimit(req.Limit))
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &types.QueryRoundResultsResponse{Results: results}, nil
}

var _ sharedkeeper.PriceFeedV1 = Keeper{}

// LatestPriceInfo implements the price feed consumed by other modules.
func (k Keeper) LatestPriceInfo(ctx context.Context) (sharedkeeper.PriceInfo, bool) {
	price, found, err := k.LatestPrice(ctx)
	if err != nil || !found {
		return sharedkeeper.PriceInfo{}, false
	}

	info := sharedkeeper.PriceInfo{
		Price:       price.Value,
		RoundID:     price.RoundID,
		BlockHeight: price.PublishedAt,
	}
	if round, err := k.GetCurrentRound(ctx); err == nil {
		info.Stale = price.IsStale(round.ID)
	}
	return info, true
}
