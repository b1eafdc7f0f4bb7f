package keeper

import (
	"context"
	"fmt"

	"cosmossdk.io/core/store"
	"cosmossdk.io/log"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	"github.com/cosmos/cosmos-sdk/runtime"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/paw-oracle/x/oracle/types"
)

// Keeper maintains the state of the oracle module
type Keeper struct {
	cdc          *codec.LegacyAmino
	storeService store.KVStoreService
	authority    string // registry and params authority (usually the governance module account)
	metrics      *OracleMetrics
}

// NewKeeper creates a new oracle Keeper instance
func NewKeeper(
	cdc *codec.LegacyAmino,
	storeService store.KVStoreService,
	authority string,
) *Keeper {
	if _, err := sdk.AccAddressFromBech32(authority); err != nil {
		panic(fmt.Sprintf("invalid oracle authority address %q: %s", authority, err))
	}

	return &Keeper{
		cdc:          cdc,
		storeService: storeService,
		authority:    authority,
		metrics:      NewOracleMetrics(),
	}
}

// Logger returns a module-specific logger
func (k Keeper) Logger(ctx context.Context) log.Logger {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return sdkCtx.Logger().With("module", fmt.Sprintf("x/%s", types.ModuleName))
}

// GetAuthority returns the module's authority
func (k Keeper) GetAuthority() string {
	return k.authority
}

// getStore adapts the store service to the SDK KVStore so the prefix
// iterators in cosmossdk.io/store can be used on it.
func (k Keeper) getStore(ctx context.Context) storetypes.KVStore {
	return runtime.KVStoreAdapter(k.storeService.OpenKVStore(ctx))
}

func (k Keeper) set(ctx context.Context, key []byte, value interface{}) error {
	bz, err := k.cdc.MarshalJSON(value)
	if err != nil {
		return err
	}
	k.getStore(ctx).Set(key, bz)
	return nil
}

func (k Keeper) get(ctx context.Context, key []byte, ptr interface{}) (bool, error) {
	bz := k.getStore(ctx).Get(key)
	if bz == nil {
		return false, nil
	}
	if err := k.cdc.UnmarshalJSON(bz, ptr); err != nil {
		return false, types.ErrStateCorruption.Wrapf("undecodable value at key %X: %s", key, err)
	}
	return true, nil
}
