package cli_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/paw-chain/paw-oracle/x/oracle/client/cli"
	"github.com/paw-chain/paw-oracle/x/oracle/types"
)

func TestCommandTree(t *testing.T) {
	txCmd := cli.GetTxCmd()
	require.Equal(t, types.ModuleName, txCmd.Use)

	var txNames []string
	for _, c := range txCmd.Commands() {
		txNames = append(txNames, c.Name())
	}
	require.ElementsMatch(t, []string{"submit-observation", "add-operator", "remove-operator", "update-params"}, txNames)

	queryCmd := cli.GetQueryCmd()
	var queryNames []string
	for _, c := range queryCmd.Commands() {
		queryNames = append(queryNames, c.Name())
	}
	require.ElementsMatch(t, []string{
		"params", "latest-price", "price-history", "operators",
		"operator", "current-round", "round-observations", "round-results",
	}, queryNames)
}

func TestCommandArgs(t *testing.T) {
	submit := cli.CmdSubmitObservation()
	require.Error(t, submit.Args(submit, []string{"1"}))
	require.NoError(t, submit.Args(submit, []string{"1", "100.5"}))

	add := cli.CmdAddOperator()
	require.NoError(t, add.Args(add, []string{"cosmos1abc"}))
	require.Error(t, add.Args(add, []string{"a", "b", "c"}))

	authority, err := add.Flags().GetString(cli.FlagAuthority)
	require.NoError(t, err)
	require.Equal(t, types.DefaultAuthority(), authority)

	history := cli.GetCmdQueryPriceHistory()
	limit, err := history.Flags().GetUint32(cli.FlagLimit)
	require.NoError(t, err)
	require.Equal(t, uint32(types.DefaultQueryLimit), limit)
}
