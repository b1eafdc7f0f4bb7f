package types

import (
	"encoding/hex"
	"strings"

	"github.com/cosmos/cosmos-sdk/crypto/keys/secp256k1"
	cryptotypes "github.com/cosmos/cosmos-sdk/crypto/types"
)

// PrivKeyFromHex parses a hex-encoded secp256k1 private key, as stored in
// operator key files.
func PrivKeyFromHex(s string) (*secp256k1.PrivKey, error) {
	bz, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, ErrInvalidPubKey.Wrapf("operator key is not hex: %s", err)
	}
	if len(bz) != secp256k1.PrivKeySize {
		return nil, ErrInvalidPubKey.Wrapf("operator key must be %d bytes, got %d", secp256k1.PrivKeySize, len(bz))
	}
	return &secp256k1.PrivKey{Key: bz}, nil
}

// Sign attaches the reporter's signature over the observation for chainID.
func (msg *MsgSubmitObservation) Sign(chainID string, priv cryptotypes.PrivKey) error {
	sig, err := priv.Sign(msg.SignBytes(chainID))
	if err != nil {
		return err
	}
	msg.Signature = sig
	return nil
}
