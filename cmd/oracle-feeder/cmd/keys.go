package cmd

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/cosmos/cosmos-sdk/crypto/keys/secp256k1"
	"github.com/spf13/cobra"

	"github.com/paw-chain/paw-oracle/feeder"
	"github.com/paw-chain/paw-oracle/x/oracle/types"
)

const flagHDPath = "hd-path"

func keysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage the operator's observation signing key",
	}

	cmd.AddCommand(generateKeyCmd(), recoverKeyCmd(), showKeyCmd())
	return cmd
}

func generateKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [key-file]",
		Short: "Generate a secp256k1 observation signing key",
		Long: `Generate a secp256k1 key from a new mnemonic and write it hex-encoded to
key-file. The mnemonic is printed to stderr for backup; the public key to pass
to add-operator is printed to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mnemonic, err := feeder.NewMnemonic()
			if err != nil {
				return err
			}
			hdPath, _ := cmd.Flags().GetString(flagHDPath)
			priv, err := feeder.PrivKeyFromMnemonic(mnemonic, hdPath)
			if err != nil {
				return err
			}

			if err := writeKeyFile(args[0], priv); err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "**Write this mnemonic down and keep it safe**\n\n%s\n\n", mnemonic)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(priv.PubKey().Bytes()))
			return err
		},
	}

	cmd.Flags().String(flagHDPath, feeder.DefaultHDPath, "BIP44 derivation path of the key")
	return cmd
}

func recoverKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recover [key-file]",
		Short: "Recover an observation signing key from a mnemonic read on stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mnemonic, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && mnemonic == "" {
				return fmt.Errorf("failed to read mnemonic: %w", err)
			}
			hdPath, _ := cmd.Flags().GetString(flagHDPath)
			priv, err := feeder.PrivKeyFromMnemonic(mnemonic, hdPath)
			if err != nil {
				return err
			}

			if err := writeKeyFile(args[0], priv); err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(priv.PubKey().Bytes()))
			return err
		},
	}

	cmd.Flags().String(flagHDPath, feeder.DefaultHDPath, "BIP44 derivation path of the key")
	return cmd
}

func showKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [key-file]",
		Short: "Print the public key of an observation signing key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bz, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			priv, err := types.PrivKeyFromHex(string(bz))
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(priv.PubKey().Bytes()))
			return err
		},
	}
}

// writeKeyFile writes priv hex-encoded to path. It never overwrites a key.
func writeKeyFile(path string, priv *secp256k1.PrivKey) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create key file: %w", err)
	}
	defer f.Close()

	_, err = fmt.Fprintln(f, hex.EncodeToString(priv.Bytes()))
	return err
}
