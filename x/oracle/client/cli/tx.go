package cli

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"cosmossdk.io/math"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"

	"github.com/paw-chain/paw-oracle/x/oracle/types"
)

// GetTxCmd returns the transaction commands for the oracle module
func GetTxCmd() *cobra.Command {
	oracleTxCmd := &cobra.Command{
		Use:                        types.ModuleName,
		Short:                      "Oracle transaction subcommands",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	oracleTxCmd.AddCommand(
		CmdSubmitObservation(),
		CmdAddOperator(),
		CmdRemoveOperator(),
		CmdUpdateParams(),
	)

	return oracleTxCmd
}

// CmdSubmitObservation returns a CLI command handler for submitting an observation
func CmdSubmitObservation() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit-observation [round-id] [value]",
		Short: "Submit a price observation for the open round",
		Long: `Submit a price observation as a registered operator.

The value is a non-negative decimal with up to 18 decimal places. Operators that
registered a signing key must pass --operator-key-file, a file holding the
hex-encoded secp256k1 private key.

Examples:
  $ pawd tx oracle submit-observation 42 101.25 --from operator
  $ pawd tx oracle submit-observation 42 101.25 --from operator --operator-key-file ./operator.key`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			roundID, err := cast.ToUint64E(args[0])
			if err != nil {
				return fmt.Errorf("invalid round id %s: %w", args[0], err)
			}

			value, err := math.LegacyNewDecFromStr(args[1])
			if err != nil {
				return fmt.Errorf("invalid value %s: %w (must be a decimal number)", args[1], err)
			}

			msg := types.NewMsgSubmitObservation(clientCtx.GetFromAddress().String(), roundID, value)

			keyFile, _ := cmd.Flags().GetString(FlagOperatorKeyFile)
			if keyFile != "" {
				bz, err := os.ReadFile(keyFile)
				if err != nil {
					return fmt.Errorf("failed to read operator key: %w", err)
				}
				priv, err := types.PrivKeyFromHex(string(bz))
				if err != nil {
					return err
				}
				if err := msg.Sign(clientCtx.ChainID, priv); err != nil {
					return fmt.Errorf("failed to sign observation: %w", err)
				}
			}

			return broadcastMsg(clientCtx, msg)
		},
	}

	cmd.Flags().String(FlagOperatorKeyFile, "", "File holding the operator's hex-encoded secp256k1 signing key")
	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdAddOperator returns a CLI command handler for registering an operator
func CmdAddOperator() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-operator [operator] [pubkey-hex]",
		Short: "Register an oracle operator (authority only)",
		Long: `Register an account as an oracle operator. The optional pubkey is a
hex-encoded compressed secp256k1 key; once set, every observation from the
operator must be signed with it.

Use --generate-only to produce the message for a governance proposal.

Example:
  $ pawd tx oracle add-operator cosmos1... 02ab... --generate-only`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			var pubKey []byte
			if len(args) == 2 {
				pubKey, err = hex.DecodeString(args[1])
				if err != nil {
					return fmt.Errorf("invalid pubkey %s: %w", args[1], err)
				}
			}

			msg := types.NewMsgAddOperator(authorityFlag(cmd), args[0], pubKey)
			return broadcastMsg(clientCtx, msg)
		},
	}

	cmd.Flags().String(FlagAuthority, types.DefaultAuthority(), "Authority address allowed to change the operator set")
	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdRemoveOperator returns a CLI command handler for removing an operator
func CmdRemoveOperator() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove-operator [operator]",
		Short: "Schedule an operator's removal at the next round boundary (authority only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := types.NewMsgRemoveOperator(authorityFlag(cmd), args[0])
			return broadcastMsg(clientCtx, msg)
		},
	}

	cmd.Flags().String(FlagAuthority, types.DefaultAuthority(), "Authority address allowed to change the operator set")
	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdUpdateParams returns a CLI command handler for replacing the module params
func CmdUpdateParams() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update-params [params-json-file]",
		Short: "Replace the oracle params (authority only)",
		Long: `Replace the oracle params with the contents of a JSON file, for example:

  {
    "quorum_threshold": 3,
    "min_participation": 2,
    "round_duration": "10",
    "max_deviation": "0.100000000000000000",
    "history_retention": 100,
    "price_precision": 8
  }`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			bz, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var params types.Params
			if err := types.ModuleCdc.UnmarshalJSON(bz, &params); err != nil {
				return fmt.Errorf("failed to parse params: %w", err)
			}

			msg := &types.MsgUpdateParams{Authority: authorityFlag(cmd), Params: params}
			return broadcastMsg(clientCtx, msg)
		},
	}

	cmd.Flags().String(FlagAuthority, types.DefaultAuthority(), "Authority address allowed to update params")
	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

func authorityFlag(cmd *cobra.Command) string {
	authority, _ := cmd.Flags().GetString(FlagAuthority)
	return authority
}

// broadcastMsg validates msg and either prints its envelope (--generate-only)
// or broadcasts it to the node.
func broadcastMsg(clientCtx client.Context, msg types.Msg) error {
	if err := msg.ValidateBasic(); err != nil {
		return err
	}

	txBytes, err := types.EncodeMsg(msg)
	if err != nil {
		return err
	}

	if clientCtx.GenerateOnly {
		return clientCtx.PrintRaw(json.RawMessage(txBytes))
	}

	res, err := clientCtx.BroadcastTxSync(txBytes)
	if err != nil {
		return err
	}
	return clientCtx.PrintProto(res)
}
