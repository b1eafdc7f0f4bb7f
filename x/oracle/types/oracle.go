package types

import (
	"fmt"

	"cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/crypto/keys/secp256k1"
	cryptotypes "github.com/cosmos/cosmos-sdk/crypto/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Operator is an account authorized to submit price observations.
type Operator struct {
	Address string `json:"address"`
	// PubKey is an optional compressed secp256k1 key. When set, every
	// observation from this operator must carry a signature made with it.
	PubKey []byte `json:"pub_key,omitempty"`
	// PendingRemoval marks an operator that stays active until the next round opens.
	PendingRemoval bool  `json:"pending_removal,omitempty"`
	AddedAt        int64 `json:"added_at"`
}

// GetPubKey returns the operator's signing key, or nil if none is registered.
func (o Operator) GetPubKey() cryptotypes.PubKey {
	if len(o.PubKey) == 0 {
		return nil
	}
	return &secp256k1.PubKey{Key: o.PubKey}
}

// Validate performs stateless validation of an operator record.
func (o Operator) Validate() error {
	if _, err := sdk.AccAddressFromBech32(o.Address); err != nil {
		return ErrInvalidAddress.Wrapf("operator %q: %s", o.Address, err)
	}
	if len(o.PubKey) != 0 && len(o.PubKey) != secp256k1.PubKeySize {
		return ErrInvalidPubKey.Wrapf("operator %s: expected %d bytes, got %d", o.Address, secp256k1.PubKeySize, len(o.PubKey))
	}
	return nil
}

// Observation is one reporter's raw price for a round.
type Observation struct {
	Reporter    string         `json:"reporter"`
	RoundID     uint64         `json:"round_id"`
	Value       math.LegacyDec `json:"value"`
	SubmittedAt int64          `json:"submitted_at"`
}

// Round is a bounded collection window.
type Round struct {
	ID       uint64 `json:"id"`
	OpenedAt int64  `json:"opened_at"`
	ClosesAt int64  `json:"closes_at"`
	// QuorumThreshold and MinParticipation are snapshotted from params when
	// the round opens so a params change never alters a round in flight.
	QuorumThreshold  uint32 `json:"quorum_threshold"`
	MinParticipation uint32 `json:"min_participation"`
}

// NewRound opens a round at the given height using the current params.
func NewRound(id uint64, height int64, params Params) Round {
	return Round{
		ID:               id,
		OpenedAt:         height,
		ClosesAt:         height + int64(params.RoundDuration),
		QuorumThreshold:  params.QuorumThreshold,
		MinParticipation: params.MinParticipation,
	}
}

// QuorumReached reports whether count distinct reporters close the round early.
func (r Round) QuorumReached(count int) bool {
	return r.QuorumThreshold > 0 && count >= int(r.QuorumThreshold)
}

// DeadlineReached reports whether the round's deadline has passed at height.
func (r Round) DeadlineReached(height int64) bool {
	return height >= r.ClosesAt
}

// Validate performs stateless validation of a round.
func (r Round) Validate() error {
	if r.ID == 0 {
		return fmt.Errorf("round id must be positive")
	}
	if r.ClosesAt <= r.OpenedAt {
		return fmt.Errorf("round %d closes at %d, not after open height %d", r.ID, r.ClosesAt, r.OpenedAt)
	}
	if r.MinParticipation == 0 {
		return fmt.Errorf("round %d has zero min participation", r.ID)
	}
	return nil
}

// PublishedPrice is the aggregated, consensus-visible price of a closed round.
type PublishedPrice struct {
	RoundID           uint64         `json:"round_id"`
	Value             math.LegacyDec `json:"value"`
	PublishedAt       int64          `json:"published_at"`
	ContributingCount uint32         `json:"contributing_count"`
}

// RoundResult records how a round closed.
type RoundResult struct {
	RoundID           uint64      `json:"round_id"`
	ClosedAt          int64       `json:"closed_at"`
	Reason            CloseReason `json:"reason"`
	Published         bool        `json:"published"`
	ContributingCount uint32      `json:"contributing_count"`
}

// IsStale reports whether rounds after the price's round closed without
// publishing, given the id of the open round.
func (p PublishedPrice) IsStale(currentRound uint64) bool {
	return p.RoundID+1 < currentRound
}
