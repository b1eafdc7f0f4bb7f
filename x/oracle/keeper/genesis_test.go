package keeper_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	keepertest "github.com/paw-chain/paw-oracle/testutil/keeper"
	"github.com/paw-chain/paw-oracle/x/oracle/types"
)

func TestGenesisRoundTrip(t *testing.T) {
	k, ctx := keepertest.OracleKeeperWithGenesis(t, nil)

	a, b, c := operatorAddr("a"), operatorAddr("b"), operatorAddr("c")
	require.NoError(t, k.AddOperator(ctx, a, nil))
	require.NoError(t, k.AddOperator(ctx, b, nil))
	require.NoError(t, k.AddOperator(ctx, c, nil))

	// round 1 publishes, round 2 has one pending observation
	_, err := k.Submit(ctx, a, 1, dec("100"), nil)
	require.NoError(t, err)
	_, err = k.Submit(ctx, b, 1, dec("101"), nil)
	require.NoError(t, err)
	_, err = k.Submit(ctx, c, 1, dec("102"), nil)
	require.NoError(t, err)
	_, err = k.Submit(ctx, a, 2, dec("103"), nil)
	require.NoError(t, err)
	_, err = k.RemoveOperator(ctx, c)
	require.NoError(t, err)

	exported, err := k.ExportGenesis(ctx)
	require.NoError(t, err)
	require.NoError(t, exported.Validate())
	require.Equal(t, uint64(2), exported.CurrentRound.ID)
	require.Len(t, exported.Operators, 3)
	require.Len(t, exported.Observations, 1)
	require.Len(t, exported.PriceHistory, 1)
	require.Len(t, exported.RoundResults, 1)

	// amino JSON round trip, as done by the module's genesis handlers
	bz, err := types.ModuleCdc.MarshalJSON(exported)
	require.NoError(t, err)
	var imported types.GenesisState
	require.NoError(t, types.ModuleCdc.UnmarshalJSON(bz, &imported))

	k2, ctx2 := keepertest.OracleKeeperWithGenesis(t, &imported)
	reexported, err := k2.ExportGenesis(ctx2)
	require.NoError(t, err)
	require.Equal(t, string(bz), string(types.ModuleCdc.MustMarshalJSON(reexported)))

	op, found, err := k2.GetOperator(ctx2, c)
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, op.PendingRemoval)

	price, found, err := k2.LatestPrice(ctx2)
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, price.Value.Equal(dec("101")))
}

func TestGenesisValidate(t *testing.T) {
	a := operatorAddr("a").String()
	round := types.NewRound(4, 10, types.DefaultParams())

	tests := []struct {
		name    string
		mutate  func(gs *types.GenesisState)
		wantErr bool
	}{
		{
			name:   "default",
			mutate: func(gs *types.GenesisState) {},
		},
		{
			name: "invalid params",
			mutate: func(gs *types.GenesisState) {
				gs.Params.MinParticipation = 0
			},
			wantErr: true,
		},
		{
			name: "duplicate operator",
			mutate: func(gs *types.GenesisState) {
				gs.Operators = []types.Operator{{Address: a}, {Address: a}}
			},
			wantErr: true,
		},
		{
			name: "observation without round",
			mutate: func(gs *types.GenesisState) {
				gs.Operators = []types.Operator{{Address: a}}
				gs.Observations = []types.Observation{{Reporter: a, RoundID: 1, Value: dec("1")}}
			},
			wantErr: true,
		},
		{
			name: "observation for another round",
			mutate: func(gs *types.GenesisState) {
				gs.Operators = []types.Operator{{Address: a}}
				gs.CurrentRound = &round
				gs.Observations = []types.Observation{{Reporter: a, RoundID: 3, Value: dec("1")}}
			},
			wantErr: true,
		},
		{
			name: "observation from unregistered reporter",
			mutate: func(gs *types.GenesisState) {
				gs.CurrentRound = &round
				gs.Observations = []types.Observation{{Reporter: a, RoundID: 4, Value: dec("1")}}
			},
			wantErr: true,
		},
		{
			name: "history for open round",
			mutate: func(gs *types.GenesisState) {
				gs.CurrentRound = &round
				gs.PriceHistory = []types.PublishedPrice{{RoundID: 4, Value: dec("1"), ContributingCount: 2}}
			},
			wantErr: true,
		},
		{
			name: "history beyond retention",
			mutate: func(gs *types.GenesisState) {
				gs.Params.HistoryRetention = 1
				gs.CurrentRound = &round
				gs.PriceHistory = []types.PublishedPrice{
					{RoundID: 2, Value: dec("1"), ContributingCount: 2},
					{RoundID: 3, Value: dec("1"), ContributingCount: 2},
				}
			},
			wantErr: true,
		},
		{
			name: "valid state",
			mutate: func(gs *types.GenesisState) {
				gs.Operators = []types.Operator{{Address: a}}
				gs.CurrentRound = &round
				gs.Observations = []types.Observation{{Reporter: a, RoundID: 4, Value: dec("1")}}
				gs.PriceHistory = []types.PublishedPrice{{RoundID: 3, Value: dec("1"), ContributingCount: 2}}
				gs.RoundResults = []types.RoundResult{{RoundID: 3, Reason: types.CloseReasonQuorum, Published: true, ContributingCount: 2}}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := types.DefaultGenesis()
			tt.mutate(gs)
			err := gs.Validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}
