package types

import (
	"errors"

	sdkerrors "cosmossdk.io/errors"
)

// Oracle module sentinel errors
var (
	// Submission errors
	ErrUnauthorized     = sdkerrors.Register(ModuleName, 2, "reporter is not an active operator")
	ErrStaleRound       = sdkerrors.Register(ModuleName, 3, "round already closed")
	ErrFutureRound      = sdkerrors.Register(ModuleName, 4, "round not yet open")
	ErrOutOfBounds      = sdkerrors.Register(ModuleName, 5, "value outside sanity band")
	ErrInvalidPrice     = sdkerrors.Register(ModuleName, 6, "invalid price")
	ErrInvalidSignature = sdkerrors.Register(ModuleName, 7, "invalid observation signature")

	// Registry errors
	ErrAlreadyRegistered     = sdkerrors.Register(ModuleName, 10, "operator already registered")
	ErrNotRegistered         = sdkerrors.Register(ModuleName, 11, "operator not registered")
	ErrUnauthorizedAuthority = sdkerrors.Register(ModuleName, 12, "invalid authority")
	ErrInvalidAddress        = sdkerrors.Register(ModuleName, 13, "invalid address")
	ErrInvalidPubKey         = sdkerrors.Register(ModuleName, 14, "invalid operator public key")

	// Round and state errors
	ErrRoundNotFound   = sdkerrors.Register(ModuleName, 20, "round not found")
	ErrInvalidParams   = sdkerrors.Register(ModuleName, 21, "invalid params")
	ErrInvalidGenesis  = sdkerrors.Register(ModuleName, 22, "invalid genesis state")
	ErrUnknownMsg      = sdkerrors.Register(ModuleName, 23, "unknown oracle message")
	ErrStateCorruption = sdkerrors.Register(ModuleName, 24, "state corruption detected")
)

// RecoverySuggestions provides actionable recovery steps for rejections a
// reporting agent can act on.
var RecoverySuggestions = map[error]string{
	ErrUnauthorized:     "Reporter is not in the operator registry. Ask the registry authority to add the account, or check that the agent signs with the registered key.",
	ErrStaleRound:       "The round already closed. Query the current round and resubmit with its id.",
	ErrFutureRound:      "The round has not opened yet. Query the current round and resubmit with its id.",
	ErrOutOfBounds:      "Value deviates from the last published price by more than the allowed band. Verify the price source before resubmitting.",
	ErrInvalidSignature: "Observation signature did not verify against the registered operator key. Check the agent key and chain id.",
}

// GetRecoverySuggestion returns the recovery suggestion for an error
func GetRecoverySuggestion(err error) string {
	for target, suggestion := range RecoverySuggestions {
		if errors.Is(err, target) {
			return suggestion
		}
	}
	return ""
}
