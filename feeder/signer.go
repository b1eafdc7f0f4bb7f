package feeder

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/crypto/hd"
	"github.com/cosmos/cosmos-sdk/crypto/keys/secp256k1"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/go-bip39"

	"github.com/paw-chain/paw-oracle/x/oracle/types"
)

// DefaultHDPath is the derivation path of observation keys recovered from a
// mnemonic.
const DefaultHDPath = sdk.FullFundraiserPath

// NewMnemonic returns a fresh 24 word mnemonic.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// PrivKeyFromMnemonic derives the secp256k1 key at hdPath from mnemonic.
func PrivKeyFromMnemonic(mnemonic, hdPath string) (*secp256k1.PrivKey, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, errors.New("invalid mnemonic")
	}
	if hdPath == "" {
		hdPath = DefaultHDPath
	}

	seed := bip39.NewSeed(mnemonic, "")
	master, ch := hd.ComputeMastersFromSeed(seed)
	priv, err := hd.DerivePrivateKeyForPath(master, ch, hdPath)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key at %s: %w", hdPath, err)
	}
	return &secp256k1.PrivKey{Key: priv}, nil
}

// Signer builds observations for one reporter, signing them when the
// operator registered a key.
type Signer struct {
	reporter sdk.AccAddress
	chainID  string
	key      *secp256k1.PrivKey
}

// NewSigner returns a signer for reporter. key may be nil for operators
// without a registered public key.
func NewSigner(reporter sdk.AccAddress, chainID string, key *secp256k1.PrivKey) *Signer {
	return &Signer{reporter: reporter, chainID: chainID, key: key}
}

// NewSignerFromConfig parses the reporter address and loads the optional
// operator key file.
func NewSignerFromConfig(cfg Config) (*Signer, error) {
	reporter, err := sdk.AccAddressFromBech32(cfg.Reporter)
	if err != nil {
		return nil, fmt.Errorf("invalid reporter %s: %w", cfg.Reporter, err)
	}

	var key *secp256k1.PrivKey
	if cfg.OperatorKeyFile != "" {
		bz, err := os.ReadFile(cfg.OperatorKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read operator key: %w", err)
		}
		if key, err = types.PrivKeyFromHex(string(bz)); err != nil {
			return nil, err
		}
	}

	return NewSigner(reporter, cfg.ChainID, key), nil
}

// Reporter returns the reporter account.
func (s *Signer) Reporter() sdk.AccAddress { return s.reporter }

// Signs reports whether observations carry a signature.
func (s *Signer) Signs() bool { return s.key != nil }

// Observation returns a validated observation for roundID.
func (s *Signer) Observation(roundID uint64, value math.LegacyDec) (*types.MsgSubmitObservation, error) {
	msg := types.NewMsgSubmitObservation(s.reporter.String(), roundID, value)
	if s.key != nil {
		if err := msg.Sign(s.chainID, s.key); err != nil {
			return nil, fmt.Errorf("failed to sign observation: %w", err)
		}
	}
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	return msg, nil
}
