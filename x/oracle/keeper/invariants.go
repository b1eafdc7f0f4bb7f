package keeper

import (
	"fmt"
	"strings"

	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/paw-oracle/x/oracle/types"
)

// RegisterInvariants registers all oracle module invariants
func RegisterInvariants(ir sdk.InvariantRegistry, k Keeper) {
	ir.RegisterRoute(types.ModuleName, "history-bounded", HistoryBoundedInvariant(k))
	ir.RegisterRoute(types.ModuleName, "published-participation", PublishedParticipationInvariant(k))
	ir.RegisterRoute(types.ModuleName, "observations-current-round", ObservationRoundInvariant(k))
}

// AllInvariants runs all invariants of the oracle module
func AllInvariants(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		res, stop := HistoryBoundedInvariant(k)(ctx)
		if stop {
			return res, stop
		}
		res, stop = PublishedParticipationInvariant(k)(ctx)
		if stop {
			return res, stop
		}
		return ObservationRoundInvariant(k)(ctx)
	}
}

// HistoryBoundedInvariant checks that the retained history never exceeds the
// retention param and that the stored counters match the entries.
func HistoryBoundedInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		params, err := k.GetParams(ctx)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "history-bounded", err.Error()), true
		}

		var issues []string
		for name, h := range map[string]boundedHistory{
			"price history": k.priceHistory(),
			"round results": k.roundResults(),
		} {
			entries := countPrefix(k.getStore(ctx), h.prefix)
			if entries > uint64(params.HistoryRetention) {
				issues = append(issues, fmt.Sprintf("%s holds %d entries, retention is %d", name, entries, params.HistoryRetention))
			}
			if stored := h.count(ctx); stored != entries {
				issues = append(issues, fmt.Sprintf("%s counter is %d, found %d entries", name, stored, entries))
			}
		}

		return sdk.FormatInvariant(types.ModuleName, "history-bounded",
			fmt.Sprintf("found %d issues\n%s", len(issues), strings.Join(issues, "\n"))), len(issues) > 0
	}
}

// PublishedParticipationInvariant checks that every published price has a
// contributing count of at least one and was published by a closed round.
func PublishedParticipationInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		var issues []string

		round, err := k.GetCurrentRound(ctx)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "published-participation", err.Error()), true
		}

		prices, err := k.PriceHistory(ctx, 0)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "published-participation", err.Error()), true
		}
		for _, p := range prices {
			if p.ContributingCount == 0 {
				issues = append(issues, fmt.Sprintf("round %d published without contributors", p.RoundID))
			}
			if p.RoundID >= round.ID {
				issues = append(issues, fmt.Sprintf("round %d published but round %d is open", p.RoundID, round.ID))
			}
			if p.Value.IsNil() || p.Value.IsNegative() {
				issues = append(issues, fmt.Sprintf("round %d published an invalid value", p.RoundID))
			}
		}

		return sdk.FormatInvariant(types.ModuleName, "published-participation",
			fmt.Sprintf("found %d issues\n%s", len(issues), strings.Join(issues, "\n"))), len(issues) > 0
	}
}

// ObservationRoundInvariant checks that pending observations only exist for
// the open round and only from registered reporters.
func ObservationRoundInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		var issues []string

		round, err := k.GetCurrentRound(ctx)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "observations-current-round", err.Error()), true
		}

		iter := storetypes.KVStorePrefixIterator(k.getStore(ctx), types.ObservationKeyPrefix)
		defer iter.Close()

		for ; iter.Valid(); iter.Next() {
			var obs types.Observation
			if err := k.cdc.UnmarshalJSON(iter.Value(), &obs); err != nil {
				issues = append(issues, fmt.Sprintf("undecodable observation %X", iter.Key()))
				continue
			}
			if obs.RoundID != round.ID {
				issues = append(issues, fmt.Sprintf("observation from %s for round %d, open round is %d", obs.Reporter, obs.RoundID, round.ID))
			}
			reporter, err := sdk.AccAddressFromBech32(obs.Reporter)
			if err != nil || !k.IsActive(ctx, reporter) {
				issues = append(issues, fmt.Sprintf("observation from unregistered reporter %s", obs.Reporter))
			}
		}

		return sdk.FormatInvariant(types.ModuleName, "observations-current-round",
			fmt.Sprintf("found %d issues\n%s", len(issues), strings.Join(issues, "\n"))), len(issues) > 0
	}
}

func countPrefix(store storetypes.KVStore, prefix []byte) uint64 {
	iter := storetypes.KVStorePrefixIterator(store, prefix)
	defer iter.Close()

	var n uint64
	for ; iter.Valid(); iter.Next() {
		n++
	}
	return n
}
