package types

import "context"

// DefaultQueryLimit caps history queries that do not set a limit.
const DefaultQueryLimit = 20

// MaxQueryLimit caps every history query.
const MaxQueryLimit = 1000

// QueryParamsResponse is the response type for the Params query.
type QueryParamsResponse struct {
	Params Params `json:"params"`
}

// QueryLatestPriceResponse is the response type for the LatestPrice query.
type QueryLatestPriceResponse struct {
	Price *PublishedPrice `json:"price,omitempty"`
	// Stale is set when a round closed after Price was published without
	// producing a newer price.
	Stale        bool   `json:"stale"`
	CurrentRound uint64 `json:"current_round"`
}

// QueryPriceHistoryRequest is the request type for the PriceHistory query.
type QueryPriceHistoryRequest struct {
	Limit uint32 `json:"limit"`
}

// QueryPriceHistoryResponse lists published prices, most recent first.
type QueryPriceHistoryResponse struct {
	Prices []PublishedPrice `json:"prices"`
}

// QueryOperatorsResponse is the response type for the Operators query.
type QueryOperatorsResponse struct {
	Operators []Operator `json:"operators"`
}

// QueryOperatorRequest is the request type for the Operator query.
type QueryOperatorRequest struct {
	Address string `json:"address"`
}

// QueryOperatorResponse is the response type for the Operator query.
type QueryOperatorResponse struct {
	Operator Operator `json:"operator"`
	Active   bool     `json:"active"`
}

// QueryCurrentRoundResponse is the response type for the CurrentRound query.
type QueryCurrentRoundResponse struct {
	Round        Round  `json:"round"`
	Observations uint32 `json:"observations"`
}

// QueryRoundObservationsRequest is the request type for the RoundObservations query.
type QueryRoundObservationsRequest struct {
	RoundID uint64 `json:"round_id"`
}

// QueryRoundObservationsResponse lists the pending observations of a round.
type QueryRoundObservationsResponse struct {
	Observations []Observation `json:"observations"`
}

// QueryRoundResultsRequest is the request type for the RoundResults query.
type QueryRoundResultsRequest struct {
	Limit uint32 `json:"limit"`
}

// QueryRoundResultsResponse lists closed round results, most recent first.
type QueryRoundResultsResponse struct {
	Results []RoundResult `json:"results"`
}

// QueryServer is the query service of the oracle module.
type QueryServer interface {
	Params(context.Context) (*QueryParamsResponse, error)
	LatestPrice(context.Context) (*QueryLatestPriceResponse, error)
	PriceHistory(context.Context, *QueryPriceHistoryRequest) (*QueryPriceHistoryResponse, error)
	Operators(context.Context) (*QueryOperatorsResponse, error)
	Operator(context.Context, *QueryOperatorRequest) (*QueryOperatorResponse, error)
	CurrentRound(context.Context) (*QueryCurrentRoundResponse, error)
	RoundObservations(context.Context, *QueryRoundObservationsRequest) (*QueryRoundObservationsResponse, error)
	RoundResults(context.Context, *QueryRoundResultsRequest) (*QueryRoundResultsResponse, error)
}
