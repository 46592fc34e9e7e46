package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/stratusdb/leadflow/core"
	"github.com/stratusdb/leadflow/logging"
	"github.com/stratusdb/leadflow/model"
	"github.com/stratusdb/leadflow/tool"
)

// ErrMaxTurns is returned when the loop hits its turn cap before the model
// produces a final answer.
var ErrMaxTurns = errors.New("agent loop exceeded max model turns")

// DefaultMaxTurns bounds the number of model turns per run. Each turn is one
// model call plus the execution of any tools it requested.
const DefaultMaxTurns = 10

// LoopOptions configures a Loop instance.
//
// Use functional options with NewLoop to override defaults.
type LoopOptions struct {
	MaxTurns int
	Logger   logging.Logger
}

// Loop runs the tool-call/response cycle for one inference task. A Loop is
// immutable after construction and safe for concurrent use; each Run builds
// its own history, which is discarded when the run ends.
type Loop struct {
	llm      model.Model // Reasoning service boundary
	tools    tool.Set    // Registered tools keyed by name
	maxTurns int         // Hard bound on model turns per run
	logger   logging.Logger
}

// NewLoop creates a reasoning loop over the given model and tool set.
func NewLoop(llm model.Model, tools tool.Set, optFns ...func(o *LoopOptions)) *Loop {
	opts := LoopOptions{
		MaxTurns: DefaultMaxTurns,
		Logger:   logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if tools == nil {
		tools = tool.Set{}
	}

	return &Loop{
		llm:      llm,
		tools:    tools,
		maxTurns: opts.MaxTurns,
		logger:   opts.Logger,
	}
}

// Run executes the loop to completion or failure. The instruction is the
// stage's fixed persona (system message); the task is the per-invocation user
// message. The result is the text of the final assistant message.
func (l *Loop) Run(ctx context.Context, runID, instruction, task string) (string, error) {
	history := []core.Content{core.NewTextContent("user", task)}
	limiter := core.NewTurnLimiter(l.maxTurns)
	toolDefs := l.toolDefinitions()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		if err := limiter.Increment(); err != nil {
			l.logger.Error("agent.loop.max_turns", "run", runID, "max_turns", l.maxTurns)
			return "", fmt.Errorf("%w after %d turns", ErrMaxTurns, l.maxTurns)
		}

		start := time.Now()
		resp, err := l.llm.Generate(ctx, model.Request{
			Instructions: instruction,
			Contents:     history,
			Tools:        toolDefs,
		})
		if err != nil {
			return "", fmt.Errorf("model generation failed: %w", err)
		}

		l.logger.Debug(
			"agent.loop.turn",
			"run", runID,
			"turn", limiter.Count(),
			"duration_ms", time.Since(start).Milliseconds(),
			"finish_reason", resp.FinishReason,
		)

		history = append(history, resp.Content)

		fnCalls := resp.Content.FunctionCalls()
		if len(fnCalls) == 0 {
			// Final textual answer: the loop is done.
			return resp.Content.Text(), nil
		}

		// Dispatch each requested tool and append its result as a tool-role
		// message, in request order. No cross-iteration reordering.
		for _, fc := range fnCalls {
			fr := l.executeCall(ctx, runID, fc)
			history = append(history, core.Content{
				Role:  "tool",
				Parts: []core.Part{core.FunctionResponsePart{FunctionResponse: fr}},
			})
		}
	}
}

// executeCall resolves and runs a single tool call. Failures of any kind
// (unknown tool, bad arguments, execution error, panic) are folded into an
// error-bearing FunctionResponse; the model decides how to proceed.
func (l *Loop) executeCall(ctx context.Context, runID string, fc core.FunctionCall) core.FunctionResponse {
	fr := core.FunctionResponse{ID: fc.ID, Name: fc.Name}

	impl, ok := l.tools[fc.Name]
	if !ok {
		l.logger.Warn("agent.loop.unknown_tool", "run", runID, "tool", fc.Name)
		fr.Error = fmt.Sprintf("unknown tool requested: %s", fc.Name)
		return fr
	}

	args := map[string]any{}
	if fc.Arguments != "" {
		if err := json.Unmarshal([]byte(fc.Arguments), &args); err != nil {
			fr.Error = fmt.Sprintf("failed to unmarshal args: %v", err)
			return fr
		}
	}

	toolCtx := core.NewToolContext(ctx, runID, fc.ID, l.logger)

	start := time.Now()
	var (
		result any
		err    error
	)
	func() { // panic safety
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("tool panicked: %v", r)
				l.logger.Error("agent.loop.tool_panic", "run", runID, "tool", fc.Name, "stack", string(debug.Stack()))
			}
		}()
		result, err = impl.Call(toolCtx, args)
	}()

	l.logger.Info(
		"agent.loop.tool_executed",
		"run", runID,
		"tool", fc.Name,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err != nil,
	)

	if err != nil {
		fr.Error = err.Error()
		return fr
	}

	fr.Response = result

	return fr
}

// toolDefinitions declares the tool set to the reasoning service.
func (l *Loop) toolDefinitions() []model.ToolDefinition {
	if len(l.tools) == 0 {
		return nil
	}

	defs := make([]model.ToolDefinition, 0, len(l.tools))
	for _, t := range l.tools {
		defs = append(defs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}

	return defs
}
