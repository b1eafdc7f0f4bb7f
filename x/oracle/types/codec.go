package types

import (
	"cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// RegisterLegacyAminoCodec registers the x/oracle message interface and concrete
// types on the provided LegacyAmino codec. These names form the transaction
// envelope accepted by DecodeMsg.
func RegisterLegacyAminoCodec(cdc *codec.LegacyAmino) {
	cdc.RegisterInterface((*Msg)(nil), nil)
	cdc.RegisterConcrete(&MsgSubmitObservation{}, "oracle/MsgSubmitObservation", nil)
	cdc.RegisterConcrete(&MsgAddOperator{}, "oracle/MsgAddOperator", nil)
	cdc.RegisterConcrete(&MsgRemoveOperator{}, "oracle/MsgRemoveOperator", nil)
	cdc.RegisterConcrete(&MsgUpdateParams{}, "oracle/MsgUpdateParams", nil)
}

var (
	amino = codec.NewLegacyAmino()
	// ModuleCdc references the global x/oracle module codec
	ModuleCdc = amino
)

func init() {
	RegisterLegacyAminoCodec(amino)
	amino.Seal()
}

// EncodeMsg encodes a message into its amino JSON envelope.
func EncodeMsg(msg Msg) ([]byte, error) {
	return ModuleCdc.MarshalJSON(msg)
}

// DecodeMsg decodes an amino JSON envelope and runs stateless validation.
func DecodeMsg(bz []byte) (Msg, error) {
	var msg Msg
	if err := ModuleCdc.UnmarshalJSON(bz, &msg); err != nil {
		return nil, ErrUnknownMsg.Wrap(err.Error())
	}
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	return msg, nil
}

type observationSignDoc struct {
	ChainID  string         `json:"chain_id"`
	Reporter string         `json:"reporter"`
	RoundID  uint64         `json:"round_id"`
	Value    math.LegacyDec `json:"value"`
}

// ObservationSignBytes returns the canonical bytes an operator signs to vouch
// for an observation. The chain id keeps signatures from being replayed on
// another network.
func ObservationSignBytes(chainID, reporter string, roundID uint64, value math.LegacyDec) []byte {
	bz := ModuleCdc.MustMarshalJSON(observationSignDoc{
		ChainID:  chainID,
		Reporter: reporter,
		RoundID:  roundID,
		Value:    value,
	})
	return sdk.MustSortJSON(bz)
}
