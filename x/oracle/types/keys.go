package types

import (
	"encoding/binary"

	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	govtypes "github.com/cosmos/cosmos-sdk/x/gov/types"
)

const (
	// ModuleName defines the module name
	ModuleName = "oracle"

	// StoreKey defines the primary module store key
	StoreKey = ModuleName

	// RouterKey defines the module's message routing key
	RouterKey = ModuleName

	// QuerierRoute defines the module's query routing key
	QuerierRoute = ModuleName
)

var (
	// ModuleNamespace is the namespace byte for the oracle module (0x03)
	ModuleNamespace = byte(0x03)

	// ParamsKey is the key for module parameters
	ParamsKey = []byte{0x03, 0x01}

	// OperatorKeyPrefix is the prefix for operator registry entries
	OperatorKeyPrefix = []byte{0x03, 0x02}

	// CurrentRoundKey holds the currently open round
	CurrentRoundKey = []byte{0x03, 0x03}

	// ObservationKeyPrefix is the prefix for pending observations, keyed by round then reporter
	ObservationKeyPrefix = []byte{0x03, 0x04}

	// PublishedPriceKeyPrefix is the prefix for published price history, keyed by round
	PublishedPriceKeyPrefix = []byte{0x03, 0x05}

	// PublishedPriceCountKey tracks the number of retained published prices
	PublishedPriceCountKey = []byte{0x03, 0x06}

	// RoundResultKeyPrefix is the prefix for closed round results, keyed by round
	RoundResultKeyPrefix = []byte{0x03, 0x07}

	// RoundResultCountKey tracks the number of retained round results
	RoundResultCountKey = []byte{0x03, 0x08}
)

// DefaultAuthority returns the governance module address as the only allowed
// authority for operator registry changes and parameter updates.
func DefaultAuthority() string {
	return authtypes.NewModuleAddress(govtypes.ModuleName).String()
}

// GetOperatorKey returns the store key for an operator
func GetOperatorKey(operator sdk.AccAddress) []byte {
	return append(append([]byte{}, OperatorKeyPrefix...), operator...)
}

// RoundKey encodes a round id so that keys sort by round.
func RoundKey(roundID uint64) []byte {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, roundID)
	return bz
}

// GetRoundObservationsPrefix returns the prefix for all observations of a round
func GetRoundObservationsPrefix(roundID uint64) []byte {
	return append(append([]byte{}, ObservationKeyPrefix...), RoundKey(roundID)...)
}

// GetObservationKey returns the store key for a reporter's observation in a round
func GetObservationKey(roundID uint64, reporter sdk.AccAddress) []byte {
	return append(GetRoundObservationsPrefix(roundID), reporter...)
}

// GetPublishedPriceKey returns the store key for the price published by a round
func GetPublishedPriceKey(roundID uint64) []byte {
	return append(append([]byte{}, PublishedPriceKeyPrefix...), RoundKey(roundID)...)
}

// GetRoundResultKey returns the store key for a closed round's result
func GetRoundResultKey(roundID uint64) []byte {
	return append(append([]byte{}, RoundResultKeyPrefix...), RoundKey(roundID)...)
}
