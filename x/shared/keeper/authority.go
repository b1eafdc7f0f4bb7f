// Package keeper provides helpers shared by module keepers.
package keeper

import (
	govtypes "github.com/cosmos/cosmos-sdk/x/gov/types"
)

// ValidateAuthority checks that a governance-gated message was signed by the
// expected authority. It returns govtypes.ErrInvalidSigner on mismatch, so
// callers can wrap it in their own module error.
//
//	if err := sharedkeeper.ValidateAuthority(k.GetAuthority(), msg.Authority); err != nil {
//	    return nil, types.ErrUnauthorizedAuthority.Wrap(err.Error())
//	}
func ValidateAuthority(expected, actual string) error {
	if expected == "" || expected != actual {
		return govtypes.ErrInvalidSigner.Wrapf("invalid authority; expected %s, got %s", expected, actual)
	}
	return nil
}
