package storequery

import (
	"fmt"

	"github.com/cosmos/cosmos-sdk/types/kv"
	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of cosmos.base.kv.v1beta1.Pairs and Pair, the encoding of
// subspace query responses.
const (
	pairsFieldPairs protowire.Number = 1
	pairFieldKey    protowire.Number = 1
	pairFieldValue  protowire.Number = 2
)

// MarshalPairs encodes pairs the way a node answers a subspace query.
func MarshalPairs(pairs kv.Pairs) []byte {
	var out []byte
	for _, p := range pairs.Pairs {
		var pair []byte
		if len(p.Key) > 0 {
			pair = protowire.AppendTag(pair, pairFieldKey, protowire.BytesType)
			pair = protowire.AppendBytes(pair, p.Key)
		}
		if len(p.Value) > 0 {
			pair = protowire.AppendTag(pair, pairFieldValue, protowire.BytesType)
			pair = protowire.AppendBytes(pair, p.Value)
		}
		out = protowire.AppendTag(out, pairsFieldPairs, protowire.BytesType)
		out = protowire.AppendBytes(out, pair)
	}
	return out
}

// UnmarshalPairs decodes a subspace query response. Unknown fields are
// skipped.
func UnmarshalPairs(bz []byte) (kv.Pairs, error) {
	pairs := kv.Pairs{Pairs: []kv.Pair{}}
	err := consumeFields(bz, func(num protowire.Number, value []byte) error {
		if num != pairsFieldPairs {
			return nil
		}
		pair, err := unmarshalPair(value)
		if err != nil {
			return err
		}
		pairs.Pairs = append(pairs.Pairs, pair)
		return nil
	})
	return pairs, err
}

func unmarshalPair(bz []byte) (kv.Pair, error) {
	var pair kv.Pair
	err := consumeFields(bz, func(num protowire.Number, value []byte) error {
		switch num {
		case pairFieldKey:
			pair.Key = append([]byte{}, value...)
		case pairFieldValue:
			pair.Value = append([]byte{}, value...)
		}
		return nil
	})
	return pair, err
}

// consumeFields calls fn with every length-delimited field of bz and skips
// fields of any other wire type.
func consumeFields(bz []byte, fn func(protowire.Number, []byte) error) error {
	for len(bz) > 0 {
		num, typ, n := protowire.ConsumeTag(bz)
		if n < 0 {
			return fmt.Errorf("invalid tag: %w", protowire.ParseError(n))
		}
		bz = bz[n:]

		if typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, bz)
			if n < 0 {
				return fmt.Errorf("invalid field %d: %w", num, protowire.ParseError(n))
			}
			bz = bz[n:]
			continue
		}

		value, n := protowire.ConsumeBytes(bz)
		if n < 0 {
			return fmt.Errorf("invalid field %d: %w", num, protowire.ParseError(n))
		}
		if err := fn(num, value); err != nil {
			return err
		}
		bz = bz[n:]
	}
	return nil
}
