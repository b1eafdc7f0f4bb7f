package keeper

import (
	"context"
	"fmt"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/codec"
	"github.com/cosmos/cosmos-sdk/runtime"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/kv"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/paw-oracle/x/oracle/client/storequery"
	"github.com/paw-chain/paw-oracle/x/oracle/keeper"
	"github.com/paw-chain/paw-oracle/x/oracle/types"
)

// TestChainID is the chain id of contexts returned by OracleKeeper.
const TestChainID = "paw-oracle-test"

// OracleKeeper creates a test keeper for the oracle module backed by an
// in-memory store. The returned context is at height 1.
func OracleKeeper(t require.TestingT) (*keeper.Keeper, sdk.Context) {
	k, ctx, _ := OracleKeeperWithStoreKey(t)
	return k, ctx
}

// OracleKeeperWithStoreKey is OracleKeeper that also returns the module's
// store key, for tests that read raw state.
func OracleKeeperWithStoreKey(t require.TestingT) (*keeper.Keeper, sdk.Context, storetypes.StoreKey) {
	storeKey := storetypes.NewKVStoreKey(types.StoreKey)

	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), metrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	require.NoError(t, stateStore.LoadLatestVersion())

	cdc := codec.NewLegacyAmino()
	types.RegisterLegacyAminoCodec(cdc)

	k := keeper.NewKeeper(cdc, runtime.NewKVStoreService(storeKey), types.DefaultAuthority())

	ctx := sdk.NewContext(stateStore, cmtproto.Header{
		ChainID: TestChainID,
		Height:  1,
		Time:    time.Unix(1_700_000_000, 0).UTC(),
	}, false, log.NewNopLogger())

	return k, ctx, storeKey
}

// OracleKeeperWithGenesis creates a test keeper and runs InitGenesis with the
// given state, so a round is open.
func OracleKeeperWithGenesis(t require.TestingT, gs *types.GenesisState) (*keeper.Keeper, sdk.Context) {
	k, ctx := OracleKeeper(t)
	if gs == nil {
		gs = types.DefaultGenesis()
	}
	require.NoError(t, k.InitGenesis(ctx, *gs))
	return k, ctx
}

// StoreQuerier serves the node's raw store query paths from a context, so
// clients of the oracle store can be tested against a real keeper.
func StoreQuerier(ctx sdk.Context, storeKey storetypes.StoreKey) storequery.ABCIQuerier {
	return func(_ context.Context, path string, data []byte) ([]byte, error) {
		store := ctx.KVStore(storeKey)
		switch path {
		case storequery.KeyPath:
			return store.Get(data), nil
		case storequery.SubspacePath:
			pairs := kv.Pairs{Pairs: []kv.Pair{}}
			iter := storetypes.KVStorePrefixIterator(store, data)
			defer iter.Close()
			for ; iter.Valid(); iter.Next() {
				pairs.Pairs = append(pairs.Pairs, kv.Pair{Key: iter.Key(), Value: iter.Value()})
			}
			return storequery.MarshalPairs(pairs), nil
		default:
			return nil, fmt.Errorf("unsupported query path %s", path)
		}
	}
}
