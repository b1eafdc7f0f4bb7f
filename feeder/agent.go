package feeder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"golang.org/x/time/rate"

	"github.com/paw-chain/paw-oracle/x/oracle/client/storequery"
	"github.com/paw-chain/paw-oracle/x/oracle/types"
)

// Outcome describes what the agent did for one block.
type Outcome string

const (
	OutcomeSubmitted        Outcome = "submitted"
	OutcomeAlreadySubmitted Outcome = "already_submitted"
	OutcomeNotOperator      Outcome = "not_operator"
	OutcomeRateLimited      Outcome = "rate_limited"
	// OutcomeRoundMoved means the round closed between reading it and the
	// submission landing. The next block reports for the new round.
	OutcomeRoundMoved Outcome = "round_moved"
	OutcomeRejected   Outcome = "rejected"
	OutcomeFailed     Outcome = "failed"
)

// AgentOptions tune the agent loop.
type AgentOptions struct {
	// SubmitRate caps broadcasts per second.
	SubmitRate float64
	// ResubmitEachBlock reports on every block. Otherwise the agent reports
	// once per round and relies on last-submission-wins only after a failure.
	ResubmitEachBlock bool
	// TickTimeout bounds the work done for a single block.
	TickTimeout time.Duration
}

// Submission is the last observation the chain accepted from this agent.
type Submission struct {
	RoundID uint64         `json:"round_id"`
	Value   math.LegacyDec `json:"value"`
	Height  int64          `json:"height"`
	Time    time.Time      `json:"time"`
}

// Status is a snapshot of the agent's progress.
type Status struct {
	LastHeight     int64       `json:"last_height"`
	LastTick       time.Time   `json:"last_tick"`
	LastOutcome    Outcome     `json:"last_outcome,omitempty"`
	CurrentRound   uint64      `json:"current_round"`
	LastSubmission *Submission `json:"last_submission,omitempty"`
	LastError      string      `json:"last_error,omitempty"`
}

// Agent reports one price observation per block import.
type Agent struct {
	logger  log.Logger
	chain   ChainClient
	reader  storequery.Reader
	source  PriceSource
	signer  *Signer
	limiter *rate.Limiter
	metrics *FeederMetrics
	opts    AgentOptions

	mu     sync.RWMutex
	status Status
}

// NewAgent creates a reporting agent.
func NewAgent(logger log.Logger, chain ChainClient, source PriceSource, signer *Signer, opts AgentOptions, metrics *FeederMetrics) *Agent {
	if opts.SubmitRate <= 0 {
		opts.SubmitRate = defaultSubmitRate
	}
	if opts.TickTimeout <= 0 {
		opts.TickTimeout = defaultRPCTimeout
	}
	burst := int(opts.SubmitRate)
	if burst < 1 {
		burst = 1
	}

	return &Agent{
		logger:  logger.With("module", "oracle-feeder"),
		chain:   chain,
		reader:  storequery.NewReader(chain.QueryStore),
		source:  source,
		signer:  signer,
		limiter: rate.NewLimiter(rate.Limit(opts.SubmitRate), burst),
		metrics: metrics,
		opts:    opts,
	}
}

// Run handles every imported block until ctx is cancelled. Per-block
// failures are logged and never stop the loop.
func (a *Agent) Run(ctx context.Context) error {
	heights, err := a.chain.SubscribeBlocks(ctx)
	if err != nil {
		return err
	}

	a.logger.Info("oracle feeder started", "reporter", a.signer.Reporter().String(), "signed", a.signer.Signs())

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("oracle feeder stopped")
			return nil
		case height, ok := <-heights:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("block subscription closed")
			}

			tickCtx, cancel := context.WithTimeout(ctx, a.opts.TickTimeout)
			outcome, err := a.Tick(tickCtx, height)
			cancel()
			if err != nil {
				a.logger.Error("failed to report price", "height", height, "outcome", outcome, "error", err)
			}
		}
	}
}

// Tick runs the agent for one block at height.
func (a *Agent) Tick(ctx context.Context, height int64) (outcome Outcome, err error) {
	defer func() {
		a.metrics.Submissions.WithLabelValues(string(outcome)).Inc()
		a.metrics.LastHandledBlock.Set(float64(height))
		a.record(height, outcome, err)
	}()

	current, err := a.reader.CurrentRound(ctx)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("failed to read current round: %w", err)
	}
	roundID := current.Round.ID
	a.metrics.CurrentRound.Set(float64(roundID))
	a.mu.Lock()
	a.status.CurrentRound = roundID
	a.mu.Unlock()

	reporter := a.signer.Reporter()
	op, err := a.reader.Operator(ctx, &types.QueryOperatorRequest{Address: reporter.String()})
	switch {
	case errors.Is(err, types.ErrNotRegistered):
		a.logger.Debug("reporter is not a registered operator", "reporter", reporter.String())
		return OutcomeNotOperator, nil
	case err != nil:
		return OutcomeFailed, fmt.Errorf("failed to read operator: %w", err)
	}
	if len(op.Operator.PubKey) != 0 && !a.signer.Signs() {
		return OutcomeFailed, fmt.Errorf("operator %s registered a signing key but no operator key is configured", reporter)
	}

	if !a.opts.ResubmitEachBlock {
		_, found, err := a.reader.Observation(ctx, roundID, reporter)
		if err != nil {
			return OutcomeFailed, fmt.Errorf("failed to read observation: %w", err)
		}
		if found {
			return OutcomeAlreadySubmitted, nil
		}
	}

	if !a.limiter.Allow() {
		return OutcomeRateLimited, nil
	}

	price, err := a.source.FetchPrice(ctx)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("failed to fetch price: %w", err)
	}

	msg, err := a.signer.Observation(roundID, price)
	if err != nil {
		return OutcomeFailed, err
	}
	tx, err := types.EncodeMsg(msg)
	if err != nil {
		return OutcomeFailed, err
	}

	if err := a.chain.BroadcastTx(ctx, tx); err != nil {
		if errors.Is(err, types.ErrStaleRound) || errors.Is(err, types.ErrFutureRound) {
			a.logger.Info("round moved before submission landed", "round", roundID, "height", height)
			return OutcomeRoundMoved, nil
		}
		return OutcomeRejected, fmt.Errorf("observation for round %d rejected: %w", roundID, err)
	}

	a.logger.Info("submitted observation", "round", roundID, "value", price.String(), "height", height)
	a.metrics.SubmittedPrice.Set(price.MustFloat64())

	a.mu.Lock()
	a.status.LastSubmission = &Submission{
		RoundID: roundID,
		Value:   price,
		Height:  height,
		Time:    time.Now().UTC(),
	}
	a.mu.Unlock()

	return OutcomeSubmitted, nil
}

func (a *Agent) record(height int64, outcome Outcome, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.status.LastHeight = height
	a.status.LastTick = time.Now().UTC()
	a.status.LastOutcome = outcome
	a.status.LastError = ""
	if err != nil {
		a.status.LastError = err.Error()
	}
}

// Status returns a copy of the agent's progress.
func (a *Agent) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()

	status := a.status
	if status.LastSubmission != nil {
		sub := *status.LastSubmission
		status.LastSubmission = &sub
	}
	return status
}
