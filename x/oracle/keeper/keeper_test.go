package keeper_test

import (
	"fmt"
	"strings"
	"testing"

	"cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/crypto/keys/secp256k1"
	sdk "github.com/cosmos/cosmos-sdk/types"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	keepertest "github.com/paw-chain/paw-oracle/testutil/keeper"
	"github.com/paw-chain/paw-oracle/x/oracle/keeper"
	"github.com/paw-chain/paw-oracle/x/oracle/types"
)

type KeeperTestSuite struct {
	suite.Suite
	keeper *keeper.Keeper
	ctx    sdk.Context
}

func (suite *KeeperTestSuite) SetupTest() {
	suite.setup(types.DefaultParams())
}

func (suite *KeeperTestSuite) setup(params types.Params) {
	gs := types.DefaultGenesis()
	gs.Params = params
	suite.keeper, suite.ctx = keepertest.OracleKeeperWithGenesis(suite.T(), gs)
}

func TestKeeperTestSuite(t *testing.T) {
	suite.Run(t, new(KeeperTestSuite))
}

func operatorAddr(name string) sdk.AccAddress {
	return sdk.AccAddress([]byte(fmt.Sprintf("operator_%-11s", name))[:20])
}

func dec(s string) math.LegacyDec {
	return math.LegacyMustNewDecFromStr(s)
}

func (suite *KeeperTestSuite) addOperators(names ...string) []sdk.AccAddress {
	addrs := make([]sdk.AccAddress, len(names))
	for i, name := range names {
		addrs[i] = operatorAddr(name)
		suite.Require().NoError(suite.keeper.AddOperator(suite.ctx, addrs[i], nil))
	}
	return addrs
}

func (suite *KeeperTestSuite) currentRound() types.Round {
	round, err := suite.keeper.GetCurrentRound(suite.ctx)
	suite.Require().NoError(err)
	return round
}

func (suite *KeeperTestSuite) submit(addr sdk.AccAddress, value string) (keeper.SubmitResult, error) {
	return suite.keeper.Submit(suite.ctx, addr, suite.currentRound().ID, dec(value), nil)
}

// endRoundAtDeadline moves to the round's deadline height and runs EndBlocker.
func (suite *KeeperTestSuite) endRoundAtDeadline() {
	round := suite.currentRound()
	suite.ctx = suite.ctx.WithBlockHeight(round.ClosesAt)
	suite.Require().NoError(suite.keeper.EndBlocker(suite.ctx))
	suite.Require().Equal(round.ID+1, suite.currentRound().ID)
}

func (suite *KeeperTestSuite) TestGenesisOpensFirstRound() {
	round := suite.currentRound()
	suite.Require().Equal(uint64(1), round.ID)
	suite.Require().Equal(int64(1), round.OpenedAt)
	suite.Require().Equal(int64(1)+int64(types.DefaultParams().RoundDuration), round.ClosesAt)

	_, found, err := suite.keeper.LatestPrice(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().False(found)
}

func (suite *KeeperTestSuite) TestOperatorRegistry() {
	a := operatorAddr("a")

	suite.Require().False(suite.keeper.IsActive(suite.ctx, a))
	suite.Require().NoError(suite.keeper.AddOperator(suite.ctx, a, nil))
	suite.Require().True(suite.keeper.IsActive(suite.ctx, a))

	err := suite.keeper.AddOperator(suite.ctx, a, nil)
	suite.Require().ErrorIs(err, types.ErrAlreadyRegistered)

	_, err = suite.keeper.RemoveOperator(suite.ctx, operatorAddr("ghost"))
	suite.Require().ErrorIs(err, types.ErrNotRegistered)

	effective, err := suite.keeper.RemoveOperator(suite.ctx, a)
	suite.Require().NoError(err)
	suite.Require().Equal(uint64(2), effective)
	suite.Require().True(suite.keeper.IsActive(suite.ctx, a), "removal is deferred to the round boundary")

	// removing again is a no-op that reports the same boundary
	again, err := suite.keeper.RemoveOperator(suite.ctx, a)
	suite.Require().NoError(err)
	suite.Require().Equal(effective, again)

	suite.endRoundAtDeadline()
	suite.Require().False(suite.keeper.IsActive(suite.ctx, a))
	suite.Require().Empty(suite.keeper.GetAllOperators(suite.ctx))
}

func (suite *KeeperTestSuite) TestReAddCancelsPendingRemoval() {
	a := operatorAddr("a")
	suite.Require().NoError(suite.keeper.AddOperator(suite.ctx, a, nil))
	_, err := suite.keeper.RemoveOperator(suite.ctx, a)
	suite.Require().NoError(err)

	suite.Require().NoError(suite.keeper.AddOperator(suite.ctx, a, nil))
	op, found, err := suite.keeper.GetOperator(suite.ctx, a)
	suite.Require().NoError(err)
	suite.Require().True(found)
	suite.Require().False(op.PendingRemoval)

	suite.endRoundAtDeadline()
	suite.Require().True(suite.keeper.IsActive(suite.ctx, a))
}

func (suite *KeeperTestSuite) TestSubmitRejectsNonOperator() {
	suite.addOperators("a")

	_, err := suite.submit(operatorAddr("outsider"), "100")
	suite.Require().ErrorIs(err, types.ErrUnauthorized)

	// authorization is checked before every other rule
	_, err = suite.keeper.Submit(suite.ctx, operatorAddr("outsider"), 99, dec("100"), nil)
	suite.Require().ErrorIs(err, types.ErrUnauthorized)
	suite.Require().Zero(suite.keeper.CountRoundObservations(suite.ctx, 1))
}

func (suite *KeeperTestSuite) TestSubmitRoundMismatch() {
	addrs := suite.addOperators("a", "b")
	suite.endRoundAtDeadline()
	suite.Require().Equal(uint64(2), suite.currentRound().ID)

	_, err := suite.keeper.Submit(suite.ctx, addrs[0], 1, dec("100"), nil)
	suite.Require().ErrorIs(err, types.ErrStaleRound)

	_, err = suite.keeper.Submit(suite.ctx, addrs[0], 3, dec("100"), nil)
	suite.Require().ErrorIs(err, types.ErrFutureRound)

	suite.Require().Zero(suite.keeper.CountRoundObservations(suite.ctx, 2))
}

func (suite *KeeperTestSuite) TestSubmitReplacesEarlierObservation() {
	addrs := suite.addOperators("a", "b", "c")

	res, err := suite.submit(addrs[0], "100")
	suite.Require().NoError(err)
	suite.Require().False(res.Replaced)

	res, err = suite.submit(addrs[0], "101")
	suite.Require().NoError(err)
	suite.Require().True(res.Replaced)
	suite.Require().False(res.RoundClosed)

	suite.Require().Equal(1, suite.keeper.CountRoundObservations(suite.ctx, 1))
	obs, found, err := suite.keeper.GetObservation(suite.ctx, 1, addrs[0])
	suite.Require().NoError(err)
	suite.Require().True(found)
	suite.Require().True(obs.Value.Equal(dec("101")))
}

func (suite *KeeperTestSuite) TestQuorumPublishesMedian() {
	addrs := suite.addOperators("a", "b", "c")

	_, err := suite.submit(addrs[0], "100")
	suite.Require().NoError(err)
	_, err = suite.submit(addrs[1], "102")
	suite.Require().NoError(err)
	res, err := suite.submit(addrs[2], "1000000")
	suite.Require().NoError(err)
	suite.Require().True(res.RoundClosed)

	price, found, err := suite.keeper.LatestPrice(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().True(found)
	suite.Require().True(price.Value.Equal(dec("102")), "got %s", price.Value)
	suite.Require().Equal(uint32(3), price.ContributingCount)
	suite.Require().Equal(uint64(1), price.RoundID)

	suite.Require().Equal(uint64(2), suite.currentRound().ID)
	suite.Require().Zero(suite.keeper.CountRoundObservations(suite.ctx, 1), "closed round observations are pruned")

	results, err := suite.keeper.GetRoundResults(suite.ctx, 0)
	suite.Require().NoError(err)
	suite.Require().Len(results, 1)
	suite.Require().Equal(types.CloseReasonQuorum, results[0].Reason)
	suite.Require().True(results[0].Published)
}

func (suite *KeeperTestSuite) TestDeadlineBelowFloorPublishesNothing() {
	params := types.DefaultParams()
	params.MinParticipation = 3
	params.QuorumThreshold = 0
	suite.setup(params)
	addrs := suite.addOperators("a", "b", "c")

	_, err := suite.submit(addrs[0], "100")
	suite.Require().NoError(err)
	_, err = suite.submit(addrs[1], "101")
	suite.Require().NoError(err)

	// not yet at the deadline
	suite.ctx = suite.ctx.WithBlockHeight(suite.currentRound().ClosesAt - 1)
	suite.Require().NoError(suite.keeper.EndBlocker(suite.ctx))
	suite.Require().Equal(uint64(1), suite.currentRound().ID)

	suite.endRoundAtDeadline()

	_, found, err := suite.keeper.LatestPrice(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().False(found)

	results, err := suite.keeper.GetRoundResults(suite.ctx, 0)
	suite.Require().NoError(err)
	suite.Require().Len(results, 1)
	suite.Require().Equal(types.CloseReasonDeadline, results[0].Reason)
	suite.Require().False(results[0].Published)
	suite.Require().Equal(uint32(2), results[0].ContributingCount)
}

func (suite *KeeperTestSuite) TestRemovedOperatorCountsUntilBoundary() {
	params := types.DefaultParams()
	params.QuorumThreshold = 0
	suite.setup(params)
	addrs := suite.addOperators("a", "d")
	a, d := addrs[0], addrs[1]

	_, err := suite.submit(d, "100")
	suite.Require().NoError(err)

	_, err = suite.keeper.RemoveOperator(suite.ctx, d)
	suite.Require().NoError(err)

	// still active for the rest of the round
	res, err := suite.submit(d, "104")
	suite.Require().NoError(err)
	suite.Require().True(res.Replaced)
	_, err = suite.submit(a, "100")
	suite.Require().NoError(err)

	suite.endRoundAtDeadline()

	price, found, err := suite.keeper.LatestPrice(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().True(found)
	suite.Require().Equal(uint32(2), price.ContributingCount)
	suite.Require().True(price.Value.Equal(dec("102")), "got %s", price.Value)

	_, err = suite.submit(d, "102")
	suite.Require().ErrorIs(err, types.ErrUnauthorized)
}

func (suite *KeeperTestSuite) TestSanityBand() {
	addrs := suite.addOperators("a", "b", "c")
	for _, addr := range addrs {
		_, err := suite.submit(addr, "100")
		suite.Require().NoError(err)
	}
	suite.Require().Equal(uint64(2), suite.currentRound().ID)

	// default max deviation is 10%
	_, err := suite.submit(addrs[0], "110.000000000000000001")
	suite.Require().ErrorIs(err, types.ErrOutOfBounds)
	_, err = suite.submit(addrs[0], "89")
	suite.Require().ErrorIs(err, types.ErrOutOfBounds)

	_, err = suite.submit(addrs[0], "110")
	suite.Require().NoError(err)
	_, err = suite.submit(addrs[1], "90")
	suite.Require().NoError(err)
}

func (suite *KeeperTestSuite) TestSanityBandWidestDeviationNearDecLimit() {
	params := types.DefaultParams()
	params.MaxDeviation = math.LegacyOneDec()
	suite.setup(params)
	addrs := suite.addOperators("a", "b", "c")

	huge := "1" + strings.Repeat("0", 50)
	for _, addr := range addrs {
		_, err := suite.submit(addr, huge)
		suite.Require().NoError(err)
	}
	suite.Require().Equal(uint64(2), suite.currentRound().ID)

	suite.Require().NotPanics(func() {
		_, err := suite.submit(addrs[0], "1")
		suite.Require().NoError(err)
	})
	_, err := suite.submit(addrs[1], "2"+strings.Repeat("0", 50))
	suite.Require().NoError(err)
	_, err = suite.submit(addrs[2], "2"+strings.Repeat("0", 49)+"1")
	suite.Require().ErrorIs(err, types.ErrOutOfBounds)

	params.MaxDeviation = math.LegacyNewDecFromInt(math.NewIntWithDecimal(1, 30))
	suite.Require().ErrorIs(suite.keeper.SetParams(suite.ctx, params), types.ErrInvalidParams)
}

func (suite *KeeperTestSuite) TestSanityBandDisabled() {
	params := types.DefaultParams()
	params.MaxDeviation = math.LegacyZeroDec()
	suite.setup(params)
	addrs := suite.addOperators("a", "b", "c")
	for _, addr := range addrs {
		_, err := suite.submit(addr, "100")
		suite.Require().NoError(err)
	}

	_, err := suite.submit(addrs[0], "1000000")
	suite.Require().NoError(err)
}

func (suite *KeeperTestSuite) TestCloseRoundIsIdempotent() {
	addrs := suite.addOperators("a", "b")
	_, err := suite.submit(addrs[0], "100")
	suite.Require().NoError(err)
	_, err = suite.submit(addrs[1], "100")
	suite.Require().NoError(err)

	closed, err := suite.keeper.CloseRound(suite.ctx, 1, types.CloseReasonDeadline)
	suite.Require().NoError(err)
	suite.Require().True(closed)

	history, err := suite.keeper.PriceHistory(suite.ctx, 0)
	suite.Require().NoError(err)

	closed, err = suite.keeper.CloseRound(suite.ctx, 1, types.CloseReasonDeadline)
	suite.Require().NoError(err)
	suite.Require().False(closed)
	suite.Require().Equal(uint64(2), suite.currentRound().ID)

	after, err := suite.keeper.PriceHistory(suite.ctx, 0)
	suite.Require().NoError(err)
	suite.Require().Equal(history, after)

	_, err = suite.keeper.CloseRound(suite.ctx, 5, types.CloseReasonDeadline)
	suite.Require().ErrorIs(err, types.ErrFutureRound)
}

func (suite *KeeperTestSuite) TestHistoryRetention() {
	params := types.DefaultParams()
	params.HistoryRetention = 3
	params.MaxDeviation = math.LegacyZeroDec()
	suite.setup(params)
	addrs := suite.addOperators("a", "b", "c")

	for i := 1; i <= 5; i++ {
		for _, addr := range addrs {
			_, err := suite.submit(addr, fmt.Sprintf("%d", i*10))
			suite.Require().NoError(err)
		}
	}

	history, err := suite.keeper.PriceHistory(suite.ctx, 0)
	suite.Require().NoError(err)
	suite.Require().Len(history, 3)
	suite.Require().Equal(uint64(5), history[0].RoundID)
	suite.Require().Equal(uint64(3), history[2].RoundID)
	suite.Require().Equal(uint64(3), suite.keeper.PriceHistoryCount(suite.ctx))

	limited, err := suite.keeper.PriceHistory(suite.ctx, 2)
	suite.Require().NoError(err)
	suite.Require().Len(limited, 2)

	// lowering retention evicts immediately
	params.HistoryRetention = 1
	suite.Require().NoError(suite.keeper.SetParams(suite.ctx, params))
	history, err = suite.keeper.PriceHistory(suite.ctx, 0)
	suite.Require().NoError(err)
	suite.Require().Len(history, 1)
	suite.Require().Equal(uint64(5), history[0].RoundID)
}

func (suite *KeeperTestSuite) TestSignedObservations() {
	priv := secp256k1.GenPrivKey()
	a := operatorAddr("signer")
	suite.Require().NoError(suite.keeper.AddOperator(suite.ctx, a, priv.PubKey().Bytes()))

	value := dec("100")
	signBytes := types.ObservationSignBytes(keepertest.TestChainID, a.String(), 1, value)
	sig, err := priv.Sign(signBytes)
	suite.Require().NoError(err)

	_, err = suite.keeper.Submit(suite.ctx, a, 1, value, nil)
	suite.Require().ErrorIs(err, types.ErrInvalidSignature)

	// a signature over a different value does not verify
	_, err = suite.keeper.Submit(suite.ctx, a, 1, dec("101"), sig)
	suite.Require().ErrorIs(err, types.ErrInvalidSignature)

	_, err = suite.keeper.Submit(suite.ctx, a, 1, value, sig)
	suite.Require().NoError(err)
}

func (suite *KeeperTestSuite) TestRejectionsLabelledByReason() {
	rejections := suite.keeper.Metrics().SubmissionRejections
	count := func(reason string) float64 {
		return promtestutil.ToFloat64(rejections.WithLabelValues(reason))
	}
	unauthorized, invalidSig := count("unauthorized"), count("invalid_signature")

	priv := secp256k1.GenPrivKey()
	a := operatorAddr("signer")
	suite.Require().NoError(suite.keeper.AddOperator(suite.ctx, a, priv.PubKey().Bytes()))

	_, err := suite.keeper.Submit(suite.ctx, a, 1, dec("100"), []byte("not a signature"))
	suite.Require().ErrorIs(err, types.ErrInvalidSignature)
	suite.Require().Equal(invalidSig+1, count("invalid_signature"))
	suite.Require().Equal(unauthorized, count("unauthorized"))

	_, err = suite.keeper.Submit(suite.ctx, operatorAddr("outsider"), 1, dec("100"), nil)
	suite.Require().ErrorIs(err, types.ErrUnauthorized)
	suite.Require().Equal(unauthorized+1, count("unauthorized"))
	suite.Require().Equal(invalidSig+1, count("invalid_signature"))
}

func (suite *KeeperTestSuite) TestSubmitRejectsNegativeValue() {
	addrs := suite.addOperators("a")
	_, err := suite.submit(addrs[0], "-1")
	suite.Require().ErrorIs(err, types.ErrInvalidPrice)
}

func (suite *KeeperTestSuite) TestRoundSnapshotsParams() {
	params := types.DefaultParams()
	params.QuorumThreshold = 2
	suite.setup(params)
	addrs := suite.addOperators("a", "b", "c")

	params.QuorumThreshold = 3
	suite.Require().NoError(suite.keeper.SetParams(suite.ctx, params))

	// round 1 still closes on the quorum it opened with
	_, err := suite.submit(addrs[0], "100")
	suite.Require().NoError(err)
	res, err := suite.submit(addrs[1], "100")
	suite.Require().NoError(err)
	suite.Require().True(res.RoundClosed)

	suite.Require().Equal(uint32(3), suite.currentRound().QuorumThreshold)
}

func (suite *KeeperTestSuite) TestInvariantsHoldAfterActivity() {
	params := types.DefaultParams()
	params.HistoryRetention = 2
	suite.setup(params)
	addrs := suite.addOperators("a", "b", "c")

	for i := 0; i < 4; i++ {
		for _, addr := range addrs {
			_, err := suite.submit(addr, "100")
			suite.Require().NoError(err)
		}
	}
	_, err := suite.submit(addrs[0], "100")
	suite.Require().NoError(err)
	suite.endRoundAtDeadline()

	msg, broken := keeper.AllInvariants(*suite.keeper)(suite.ctx)
	suite.Require().False(broken, msg)
}

func (suite *KeeperTestSuite) TestInvariantDetectsForeignObservation() {
	addrs := suite.addOperators("a")
	obs := types.Observation{Reporter: addrs[0].String(), RoundID: 7, Value: dec("1")}
	suite.keeper.SetRaw(suite.ctx, types.GetObservationKey(7, addrs[0]), types.ModuleCdc.MustMarshalJSON(obs))

	_, broken := keeper.ObservationRoundInvariant(*suite.keeper)(suite.ctx)
	suite.Require().True(broken)
}

func TestNewKeeperRejectsBadAuthority(t *testing.T) {
	k, _ := keepertest.OracleKeeper(t)
	require.Equal(t, types.DefaultAuthority(), k.GetAuthority())

	require.Panics(t, func() {
		keeper.NewKeeper(types.ModuleCdc, nil, "not-an-address")
	})
}

func TestKeeperWritesModuleStore(t *testing.T) {
	k, ctx, storeKey := keepertest.OracleKeeperWithStoreKey(t)
	require.NoError(t, k.InitGenesis(ctx, *types.DefaultGenesis()))

	store := ctx.KVStore(storeKey)
	require.True(t, store.Has(types.ParamsKey))
	require.True(t, store.Has(types.CurrentRoundKey))

	// writes made directly to the module store are visible through the service
	addr := operatorAddr("raw")
	bz, err := types.ModuleCdc.MarshalJSON(types.Operator{Address: addr.String()})
	require.NoError(t, err)
	store.Set(types.GetOperatorKey(addr), bz)
	require.True(t, k.IsActive(ctx, addr))
}
