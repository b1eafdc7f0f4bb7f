// Package abci provides error handling shared by block hooks.
package abci

import (
	"fmt"

	"github.com/cosmos/cosmos-sdk/telemetry"
	sdk "github.com/cosmos/cosmos-sdk/types"
	metrics "github.com/hashicorp/go-metrics"
)

// EventTypeBlockerError is emitted whenever a block hook swallows an error.
const EventTypeBlockerError = "abci_blocker_error"

// ErrorSeverity classifies a block hook failure.
type ErrorSeverity int

const (
	// SeverityLow covers bookkeeping failures that are retried on the next block.
	SeverityLow ErrorSeverity = iota
	// SeverityMedium covers failures that delay a round but lose no data.
	SeverityMedium
	// SeverityHigh covers failures that leave module state inconsistent.
	SeverityHigh
)

func (s ErrorSeverity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// BlockerErrorHandler reports errors raised inside BeginBlock/EndBlock.
// Block hooks must not return errors, since that halts the chain, so failures
// are logged, emitted as an event and counted instead.
type BlockerErrorHandler struct {
	ctx        sdk.Context
	moduleName string
}

// NewBlockerErrorHandler creates an error handler bound to one block.
func NewBlockerErrorHandler(ctx sdk.Context, moduleName string) *BlockerErrorHandler {
	return &BlockerErrorHandler{ctx: ctx, moduleName: moduleName}
}

// Handle reports err if it is non-nil and returns whether it did.
//
//	if h.Handle("close_round", abci.SeverityMedium, k.CloseRound(...)) {
//	    return nil
//	}
func (h *BlockerErrorHandler) Handle(operation string, severity ErrorSeverity, err error) bool {
	if err == nil {
		return false
	}

	logger := h.ctx.Logger().With("module", fmt.Sprintf("x/%s", h.moduleName))
	kv := []interface{}{"operation", operation, "severity", severity.String(), "error", err.Error()}
	switch severity {
	case SeverityHigh:
		logger.Error("block hook failed", kv...)
	case SeverityMedium:
		logger.Warn("block hook failed", kv...)
	default:
		logger.Debug("block hook failed", kv...)
	}

	h.ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			EventTypeBlockerError,
			sdk.NewAttribute("module", h.moduleName),
			sdk.NewAttribute("operation", operation),
			sdk.NewAttribute("severity", severity.String()),
			sdk.NewAttribute("error", err.Error()),
			sdk.NewAttribute("height", fmt.Sprintf("%d", h.ctx.BlockHeight())),
		),
	)

	telemetry.IncrCounterWithLabels(
		[]string{h.moduleName, "blocker_error"},
		1,
		[]metrics.Label{
			telemetry.NewLabel("operation", operation),
			telemetry.NewLabel("severity", severity.String()),
		},
	)
	return true
}
