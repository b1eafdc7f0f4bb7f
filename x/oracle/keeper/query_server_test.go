package keeper_test

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/paw-chain/paw-oracle/x/oracle/keeper"
	"github.com/paw-chain/paw-oracle/x/oracle/types"
)

func (suite *KeeperTestSuite) TestQueryLatestPriceStaleness() {
	qs := keeper.NewQueryServerImpl(*suite.keeper)
	addrs := suite.addOperators("a", "b", "c")

	res, err := qs.LatestPrice(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().Nil(res.Price)
	suite.Require().False(res.Stale)

	for _, addr := range addrs {
		_, err := suite.submit(addr, "100")
		suite.Require().NoError(err)
	}

	res, err = qs.LatestPrice(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().NotNil(res.Price)
	suite.Require().False(res.Stale)
	suite.Require().Equal(uint64(2), res.CurrentRound)

	// round 2 closes empty, so the round 1 price goes stale
	suite.endRoundAtDeadline()
	res, err = qs.LatestPrice(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().True(res.Stale)
	suite.Require().Equal(uint64(1), res.Price.RoundID)

	info, found := suite.keeper.LatestPriceInfo(suite.ctx)
	suite.Require().True(found)
	suite.Require().True(info.Stale)
	suite.Require().True(info.Price.Equal(dec("100")))
}

func (suite *KeeperTestSuite) TestQueryOperatorsAndRounds() {
	qs := keeper.NewQueryServerImpl(*suite.keeper)
	addrs := suite.addOperators("a", "b")

	ops, err := qs.Operators(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().Len(ops.Operators, 2)

	op, err := qs.Operator(suite.ctx, &types.QueryOperatorRequest{Address: addrs[0].String()})
	suite.Require().NoError(err)
	suite.Require().True(op.Active)

	_, err = qs.Operator(suite.ctx, &types.QueryOperatorRequest{Address: operatorAddr("ghost").String()})
	suite.Require().Equal(codes.NotFound, status.Code(err))

	_, err = qs.Operator(suite.ctx, &types.QueryOperatorRequest{Address: "bogus"})
	suite.Require().Equal(codes.InvalidArgument, status.Code(err))

	_, err = qs.Operator(suite.ctx, nil)
	suite.Require().Equal(codes.InvalidArgument, status.Code(err))

	_, err = suite.submit(addrs[0], "100")
	suite.Require().NoError(err)

	round, err := qs.CurrentRound(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().Equal(uint64(1), round.Round.ID)
	suite.Require().Equal(uint32(1), round.Observations)

	obs, err := qs.RoundObservations(suite.ctx, &types.QueryRoundObservationsRequest{RoundID: 1})
	suite.Require().NoError(err)
	suite.Require().Len(obs.Observations, 1)
	suite.Require().Equal(addrs[0].String(), obs.Observations[0].Reporter)

	suite.endRoundAtDeadline()
	results, err := qs.RoundResults(suite.ctx, &types.QueryRoundResultsRequest{})
	suite.Require().NoError(err)
	suite.Require().Len(results.Results, 1)
	suite.Require().False(results.Results[0].Published)

	history, err := qs.PriceHistory(suite.ctx, &types.QueryPriceHistoryRequest{Limit: 5})
	suite.Require().NoError(err)
	suite.Require().Empty(history.Prices)

	params, err := qs.Params(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().Equal(types.DefaultParams().RoundDuration, params.Params.RoundDuration)
}
