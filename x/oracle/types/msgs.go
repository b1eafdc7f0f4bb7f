package types

import (
	"context"

	"cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/crypto/keys/secp256k1"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Message types
const (
	TypeMsgSubmitObservation = "submit_observation"
	TypeMsgAddOperator       = "add_operator"
	TypeMsgRemoveOperator    = "remove_operator"
	TypeMsgUpdateParams      = "update_params"
)

// Msg is implemented by every oracle transaction message.
type Msg interface {
	Route() string
	Type() string
	ValidateBasic() error
	GetSigners() []sdk.AccAddress
}

var (
	_ Msg = &MsgSubmitObservation{}
	_ Msg = &MsgAddOperator{}
	_ Msg = &MsgRemoveOperator{}
	_ Msg = &MsgUpdateParams{}
)

// MsgSubmitObservation reports one price observation for a round.
type MsgSubmitObservation struct {
	Reporter string         `json:"reporter"`
	RoundID  uint64         `json:"round_id"`
	Value    math.LegacyDec `json:"value"`
	// Signature over ObservationSignBytes, required when the operator registered a key.
	Signature []byte `json:"signature,omitempty"`
}

// MsgSubmitObservationResponse reports what the submission changed.
type MsgSubmitObservationResponse struct {
	Replaced    bool `json:"replaced"`
	RoundClosed bool `json:"round_closed"`
}

// NewMsgSubmitObservation creates a new MsgSubmitObservation instance
func NewMsgSubmitObservation(reporter string, roundID uint64, value math.LegacyDec) *MsgSubmitObservation {
	return &MsgSubmitObservation{
		Reporter: reporter,
		RoundID:  roundID,
		Value:    value,
	}
}

// Route implements Msg
func (msg *MsgSubmitObservation) Route() string { return RouterKey }

// Type implements Msg
func (msg *MsgSubmitObservation) Type() string { return TypeMsgSubmitObservation }

// GetSigners implements Msg
// Assumes address is valid (validated in ValidateBasic)
func (msg *MsgSubmitObservation) GetSigners() []sdk.AccAddress {
	reporter, _ := sdk.AccAddressFromBech32(msg.Reporter)
	return []sdk.AccAddress{reporter}
}

// ValidateBasic implements Msg
func (msg *MsgSubmitObservation) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Reporter); err != nil {
		return ErrInvalidAddress.Wrapf("invalid reporter address: %s", err)
	}
	if msg.RoundID == 0 {
		return ErrFutureRound.Wrap("round id must be positive")
	}
	if msg.Value.IsNil() || msg.Value.IsNegative() {
		return ErrInvalidPrice.Wrap("value must be non-negative")
	}
	return nil
}

// SignBytes returns the bytes an operator signs for this observation.
func (msg *MsgSubmitObservation) SignBytes(chainID string) []byte {
	return ObservationSignBytes(chainID, msg.Reporter, msg.RoundID, msg.Value)
}

// MsgAddOperator registers a new operator.
type MsgAddOperator struct {
	Authority string `json:"authority"`
	Operator  string `json:"operator"`
	PubKey    []byte `json:"pub_key,omitempty"`
}

// MsgAddOperatorResponse is the response type for MsgAddOperator.
type MsgAddOperatorResponse struct{}

// NewMsgAddOperator creates a new MsgAddOperator instance
func NewMsgAddOperator(authority, operator string, pubKey []byte) *MsgAddOperator {
	return &MsgAddOperator{
		Authority: authority,
		Operator:  operator,
		PubKey:    pubKey,
	}
}

// Route implements Msg
func (msg *MsgAddOperator) Route() string { return RouterKey }

// Type implements Msg
func (msg *MsgAddOperator) Type() string { return TypeMsgAddOperator }

// GetSigners implements Msg
func (msg *MsgAddOperator) GetSigners() []sdk.AccAddress {
	authority, _ := sdk.AccAddressFromBech32(msg.Authority)
	return []sdk.AccAddress{authority}
}

// ValidateBasic implements Msg
func (msg *MsgAddOperator) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Authority); err != nil {
		return ErrInvalidAddress.Wrapf("invalid authority address: %s", err)
	}
	if _, err := sdk.AccAddressFromBech32(msg.Operator); err != nil {
		return ErrInvalidAddress.Wrapf("invalid operator address: %s", err)
	}
	if len(msg.PubKey) != 0 && len(msg.PubKey) != secp256k1.PubKeySize {
		return ErrInvalidPubKey.Wrapf("expected %d bytes, got %d", secp256k1.PubKeySize, len(msg.PubKey))
	}
	return nil
}

// MsgRemoveOperator schedules an operator for removal at the next round boundary.
type MsgRemoveOperator struct {
	Authority string `json:"authority"`
	Operator  string `json:"operator"`
}

// MsgRemoveOperatorResponse carries the round in which the removal takes effect.
type MsgRemoveOperatorResponse struct {
	EffectiveRound uint64 `json:"effective_round"`
}

// NewMsgRemoveOperator creates a new MsgRemoveOperator instance
func NewMsgRemoveOperator(authority, operator string) *MsgRemoveOperator {
	return &MsgRemoveOperator{
		Authority: authority,
		Operator:  operator,
	}
}

// Route implements Msg
func (msg *MsgRemoveOperator) Route() string { return RouterKey }

// Type implements Msg
func (msg *MsgRemoveOperator) Type() string { return TypeMsgRemoveOperator }

// GetSigners implements Msg
func (msg *MsgRemoveOperator) GetSigners() []sdk.AccAddress {
	authority, _ := sdk.AccAddressFromBech32(msg.Authority)
	return []sdk.AccAddress{authority}
}

// ValidateBasic implements Msg
func (msg *MsgRemoveOperator) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Authority); err != nil {
		return ErrInvalidAddress.Wrapf("invalid authority address: %s", err)
	}
	if _, err := sdk.AccAddressFromBech32(msg.Operator); err != nil {
		return ErrInvalidAddress.Wrapf("invalid operator address: %s", err)
	}
	return nil
}

// MsgUpdateParams replaces the module params (authority only).
type MsgUpdateParams struct {
	Authority string `json:"authority"`
	Params    Params `json:"params"`
}

// MsgUpdateParamsResponse is the response type for MsgUpdateParams.
type MsgUpdateParamsResponse struct{}

// Route implements Msg
func (msg *MsgUpdateParams) Route() string { return RouterKey }

// Type implements Msg
func (msg *MsgUpdateParams) Type() string { return TypeMsgUpdateParams }

// GetSigners implements Msg
func (msg *MsgUpdateParams) GetSigners() []sdk.AccAddress {
	authority, _ := sdk.AccAddressFromBech32(msg.Authority)
	return []sdk.AccAddress{authority}
}

// ValidateBasic implements Msg
func (msg *MsgUpdateParams) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Authority); err != nil {
		return ErrInvalidAddress.Wrapf("invalid authority address: %s", err)
	}
	return msg.Params.Validate()
}

// MsgServer is the transaction service of the oracle module.
type MsgServer interface {
	SubmitObservation(context.Context, *MsgSubmitObservation) (*MsgSubmitObservationResponse, error)
	AddOperator(context.Context, *MsgAddOperator) (*MsgAddOperatorResponse, error)
	RemoveOperator(context.Context, *MsgRemoveOperator) (*MsgRemoveOperatorResponse, error)
	UpdateParams(context.Context, *MsgUpdateParams) (*MsgUpdateParamsResponse, error)
}
