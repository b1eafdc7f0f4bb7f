package keeper_test

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/paw-oracle/x/oracle/keeper"
	"github.com/paw-chain/paw-oracle/x/oracle/types"
)

func (suite *KeeperTestSuite) TestMsgServerAuthority() {
	ms := keeper.NewMsgServerImpl(*suite.keeper)
	gov := suite.keeper.GetAuthority()
	impostor := operatorAddr("impostor").String()
	a := operatorAddr("a").String()

	_, err := ms.AddOperator(suite.ctx, types.NewMsgAddOperator(impostor, a, nil))
	suite.Require().ErrorIs(err, types.ErrUnauthorizedAuthority)
	suite.Require().False(suite.keeper.IsActive(suite.ctx, operatorAddr("a")))

	_, err = ms.AddOperator(suite.ctx, types.NewMsgAddOperator(gov, a, nil))
	suite.Require().NoError(err)

	_, err = ms.RemoveOperator(suite.ctx, types.NewMsgRemoveOperator(impostor, a))
	suite.Require().ErrorIs(err, types.ErrUnauthorizedAuthority)

	res, err := ms.RemoveOperator(suite.ctx, types.NewMsgRemoveOperator(gov, a))
	suite.Require().NoError(err)
	suite.Require().Equal(uint64(2), res.EffectiveRound)

	params := types.DefaultParams()
	params.RoundDuration = 50
	_, err = ms.UpdateParams(suite.ctx, &types.MsgUpdateParams{Authority: impostor, Params: params})
	suite.Require().ErrorIs(err, types.ErrUnauthorizedAuthority)

	_, err = ms.UpdateParams(suite.ctx, &types.MsgUpdateParams{Authority: gov, Params: params})
	suite.Require().NoError(err)
	got, err := suite.keeper.GetParams(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().Equal(uint64(50), got.RoundDuration)

	params.MinParticipation = 0
	_, err = ms.UpdateParams(suite.ctx, &types.MsgUpdateParams{Authority: gov, Params: params})
	suite.Require().ErrorIs(err, types.ErrInvalidParams)
}

func (suite *KeeperTestSuite) TestMsgServerSubmitObservation() {
	ms := keeper.NewMsgServerImpl(*suite.keeper)
	addrs := suite.addOperators("a", "b", "c")

	for i, value := range []string{"100", "102", "1000000"} {
		res, err := ms.SubmitObservation(suite.ctx, types.NewMsgSubmitObservation(addrs[i].String(), 1, dec(value)))
		suite.Require().NoError(err)
		suite.Require().Equal(i == 2, res.RoundClosed)
	}

	_, err := ms.SubmitObservation(suite.ctx, types.NewMsgSubmitObservation(operatorAddr("x").String(), 2, dec("100")))
	suite.Require().ErrorIs(err, types.ErrUnauthorized)

	_, err = ms.SubmitObservation(suite.ctx, types.NewMsgSubmitObservation("bogus", 2, dec("100")))
	suite.Require().ErrorIs(err, types.ErrInvalidAddress)
}

func (suite *KeeperTestSuite) TestSubmitEmitsEvents() {
	addrs := suite.addOperators("a", "b", "c")
	suite.ctx = suite.ctx.WithEventManager(sdk.NewEventManager())

	for _, addr := range addrs {
		_, err := suite.submit(addr, "100")
		suite.Require().NoError(err)
	}

	seen := map[string]int{}
	for _, ev := range suite.ctx.EventManager().Events() {
		seen[ev.Type]++
	}
	suite.Require().Equal(3, seen[types.EventTypeObservationSubmitted])
	suite.Require().Equal(1, seen[types.EventTypePricePublished])
	suite.Require().Equal(1, seen[types.EventTypeRoundClosed])
	suite.Require().Equal(1, seen[types.EventTypeRoundOpened])
}
