package cli

import (
	"context"
	"encoding/json"

	abci "github.com/cometbft/cometbft/abci/types"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"

	"github.com/paw-chain/paw-oracle/x/oracle/client/storequery"
	"github.com/paw-chain/paw-oracle/x/oracle/types"
)

// GetQueryCmd returns the cli query commands for the oracle module
func GetQueryCmd() *cobra.Command {
	oracleQueryCmd := &cobra.Command{
		Use:                        types.ModuleName,
		Short:                      "Querying commands for the oracle module",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	oracleQueryCmd.AddCommand(
		GetCmdQueryParams(),
		GetCmdQueryLatestPrice(),
		GetCmdQueryPriceHistory(),
		GetCmdQueryOperators(),
		GetCmdQueryOperator(),
		GetCmdQueryCurrentRound(),
		GetCmdQueryRoundObservations(),
		GetCmdQueryRoundResults(),
	)

	return oracleQueryCmd
}

// NewClientReader returns a store reader that queries the node behind clientCtx.
func NewClientReader(clientCtx client.Context) storequery.Reader {
	return storequery.NewReader(func(_ context.Context, path string, data []byte) ([]byte, error) {
		res, err := clientCtx.QueryABCI(abci.RequestQuery{
			Path:   path,
			Data:   data,
			Height: clientCtx.Height,
		})
		if err != nil {
			return nil, err
		}
		return res.Value, nil
	})
}

// queryCmd builds a query command that runs fn against the node's store.
func queryCmd(use, short, long string, args cobra.PositionalArgs, fn func(cmd *cobra.Command, r storequery.Reader, args []string) (interface{}, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long:  long,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientQueryContext(cmd)
			if err != nil {
				return err
			}

			res, err := fn(cmd, NewClientReader(clientCtx), args)
			if err != nil {
				return err
			}

			bz, err := types.ModuleCdc.MarshalJSON(res)
			if err != nil {
				return err
			}
			return clientCtx.PrintRaw(json.RawMessage(bz))
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// GetCmdQueryParams returns the command to query module parameters
func GetCmdQueryParams() *cobra.Command {
	return queryCmd("params", "Query the current oracle module parameters",
		`Example:
  $ pawd query oracle params`,
		cobra.NoArgs,
		func(cmd *cobra.Command, r storequery.Reader, _ []string) (interface{}, error) {
			return r.Params(cmd.Context())
		},
	)
}

// GetCmdQueryLatestPrice returns the command to query the latest published price
func GetCmdQueryLatestPrice() *cobra.Command {
	return queryCmd("latest-price", "Query the most recently published price",
		`The response reports stale=true when rounds closed after the price was
published without producing a newer one.

Example:
  $ pawd query oracle latest-price`,
		cobra.NoArgs,
		func(cmd *cobra.Command, r storequery.Reader, _ []string) (interface{}, error) {
			return r.LatestPrice(cmd.Context())
		},
	)
}

// GetCmdQueryPriceHistory returns the command to query published price history
func GetCmdQueryPriceHistory() *cobra.Command {
	cmd := queryCmd("price-history", "Query published prices, most recent first", "",
		cobra.NoArgs,
		func(cmd *cobra.Command, r storequery.Reader, _ []string) (interface{}, error) {
			limit, _ := cmd.Flags().GetUint32(FlagLimit)
			return r.PriceHistory(cmd.Context(), &types.QueryPriceHistoryRequest{Limit: limit})
		},
	)
	cmd.Flags().Uint32(FlagLimit, types.DefaultQueryLimit, "Maximum number of prices to return (0 for all retained)")
	return cmd
}

// GetCmdQueryOperators returns the command to query all operators
func GetCmdQueryOperators() *cobra.Command {
	return queryCmd("operators", "Query all registered operators", "",
		cobra.NoArgs,
		func(cmd *cobra.Command, r storequery.Reader, _ []string) (interface{}, error) {
			return r.Operators(cmd.Context())
		},
	)
}

// GetCmdQueryOperator returns the command to query a single operator
func GetCmdQueryOperator() *cobra.Command {
	return queryCmd("operator [address]", "Query a registered operator", "",
		cobra.ExactArgs(1),
		func(cmd *cobra.Command, r storequery.Reader, args []string) (interface{}, error) {
			return r.Operator(cmd.Context(), &types.QueryOperatorRequest{Address: args[0]})
		},
	)
}

// GetCmdQueryCurrentRound returns the command to query the open round
func GetCmdQueryCurrentRound() *cobra.Command {
	return queryCmd("current-round", "Query the open round", "",
		cobra.NoArgs,
		func(cmd *cobra.Command, r storequery.Reader, _ []string) (interface{}, error) {
			return r.CurrentRound(cmd.Context())
		},
	)
}

// GetCmdQueryRoundObservations returns the command to query a round's observations
func GetCmdQueryRoundObservations() *cobra.Command {
	return queryCmd("round-observations [round-id]", "Query the observations recorded for an open round", "",
		cobra.ExactArgs(1),
		func(cmd *cobra.Command, r storequery.Reader, args []string) (interface{}, error) {
			roundID, err := cast.ToUint64E(args[0])
			if err != nil {
				return nil, err
			}
			return r.RoundObservations(cmd.Context(), &types.QueryRoundObservationsRequest{RoundID: roundID})
		},
	)
}

// GetCmdQueryRoundResults returns the command to query closed round results
func GetCmdQueryRoundResults() *cobra.Command {
	cmd := queryCmd("round-results", "Query how recent rounds closed, most recent first", "",
		cobra.NoArgs,
		func(cmd *cobra.Command, r storequery.Reader, _ []string) (interface{}, error) {
			limit, _ := cmd.Flags().GetUint32(FlagLimit)
			return r.RoundResults(cmd.Context(), &types.QueryRoundResultsRequest{Limit: limit})
		},
	)
	cmd.Flags().Uint32(FlagLimit, types.DefaultQueryLimit, "Maximum number of results to return (0 for all retained)")
	return cmd
}
