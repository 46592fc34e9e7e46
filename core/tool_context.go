package core

import (
	"context"

	"github.com/stratusdb/leadflow/logging"
)

// ToolContext provides a constrained, auditable surface for tool / function
// implementations invoked during a loop run. It carries the ambient
// cancellation context, the function call identifier correlating the model's
// request with the tool execution, and a logger.
type ToolContext struct {
	ctx            context.Context
	runID          string
	functionCallID string

	*loggerAdapter
}

// NewToolContext constructs a tool context bound to a run and a unique
// functionCallID.
func NewToolContext(ctx context.Context, runID, functionCallID string, logger logging.Logger) *ToolContext {
	return &ToolContext{
		ctx:            ctx,
		runID:          runID,
		functionCallID: functionCallID,
		loggerAdapter:  newLoggerAdapter(logger),
	}
}

// Context returns the context associated with the tool invocation.
func (tc *ToolContext) Context() context.Context { return tc.ctx }

// RunID returns the run ID associated with the tool invocation.
func (tc *ToolContext) RunID() string { return tc.runID }

// FunctionCallID returns the function call ID associated with the tool invocation.
func (tc *ToolContext) FunctionCallID() string { return tc.functionCallID }
