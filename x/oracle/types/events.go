package types

// Event types for the oracle module
const (
	EventTypeObservationSubmitted = "observation_submitted"
	EventTypeRoundOpened          = "round_opened"
	EventTypeRoundClosed          = "round_closed"
	EventTypePricePublished       = "price_published"
	EventTypeOperatorAdded        = "operator_added"
	EventTypeOperatorRemoval      = "operator_removal_scheduled"
	EventTypeOperatorRemoved      = "operator_removed"
	EventTypeParamsUpdated        = "params_updated"

	AttributeKeyReporter          = "reporter"
	AttributeKeyOperator          = "operator"
	AttributeKeyRound             = "round"
	AttributeKeyValue             = "value"
	AttributeKeyReplaced          = "replaced"
	AttributeKeyReason            = "reason"
	AttributeKeyPublished         = "published"
	AttributeKeyContributingCount = "contributing_count"
	AttributeKeyBlockHeight       = "block_height"
	AttributeKeyClosesAt          = "closes_at"
	AttributeKeyEffectiveRound    = "effective_round"
)

// CloseReason records why a round closed.
type CloseReason string

const (
	CloseReasonQuorum   CloseReason = "quorum"
	CloseReasonDeadline CloseReason = "deadline"
)
