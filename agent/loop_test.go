package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratusdb/leadflow/core"
	"github.com/stratusdb/leadflow/model"
	"github.com/stratusdb/leadflow/tool"
)

func echoTool(calls *[]string) tool.Tool {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"msg": map[string]any{"type": "string"},
		},
		"required": []string{"msg"},
	}

	return tool.NewFunctionTool("echo", "Echo the message back", params,
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			msg, _ := args["msg"].(string)
			if calls != nil {
				*calls = append(*calls, msg)
			}
			return "echo: " + msg, nil
		},
	)
}

func TestLoopFinalAnswerWithoutTools(t *testing.T) {
	mock := model.NewMockModel("mock", "mock")
	mock.EnqueueText("final answer")

	loop := NewLoop(mock, nil)

	out, err := loop.Run(context.Background(), "run-1", "persona", "task")
	require.NoError(t, err)
	assert.Equal(t, "final answer", out)
}

func TestLoopExecutesRequestedTool(t *testing.T) {
	var calls []string

	mock := model.NewMockModel("mock", "mock")
	mock.EnqueueToolCall("call-1", "echo", `{"msg": "hello"}`)
	mock.EnqueueText("done")

	loop := NewLoop(mock, tool.NewSet(echoTool(&calls)))

	out, err := loop.Run(context.Background(), "run-1", "persona", "task")
	require.NoError(t, err)

	assert.Equal(t, "done", out)
	assert.Equal(t, []string{"hello"}, calls)
}

func TestLoopDispatchesToolsInRequestOrder(t *testing.T) {
	var calls []string

	mock := model.NewMockModel("mock", "mock")
	mock.Enqueue(model.Response{
		Content: core.Content{
			Role: "assistant",
			Parts: []core.Part{
				core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: "c1", Name: "echo", Arguments: `{"msg": "first"}`}},
				core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: "c2", Name: "echo", Arguments: `{"msg": "second"}`}},
			},
		},
		FinishReason: "tool_calls",
	})
	mock.EnqueueText("done")

	loop := NewLoop(mock, tool.NewSet(echoTool(&calls)))

	_, err := loop.Run(context.Background(), "run-1", "persona", "task")
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestLoopUnknownToolDoesNotAbortRun(t *testing.T) {
	mock := model.NewMockModel("mock", "mock")
	mock.EnqueueToolCall("call-1", "does_not_exist", `{}`)
	mock.EnqueueText("recovered")

	loop := NewLoop(mock, tool.NewSet(echoTool(nil)))

	out, err := loop.Run(context.Background(), "run-1", "persona", "task")
	require.NoError(t, err)
	assert.Equal(t, "recovered", out)
}

func TestLoopToolFailureDoesNotAbortRun(t *testing.T) {
	failing := tool.NewFunctionTool("broken", "Always fails",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			return nil, tool.NewToolError("broken", "boom", "EXECUTION_ERROR")
		},
	)

	mock := model.NewMockModel("mock", "mock")
	mock.EnqueueToolCall("call-1", "broken", `{}`)
	mock.EnqueueText("handled the failure")

	loop := NewLoop(mock, tool.NewSet(failing))

	out, err := loop.Run(context.Background(), "run-1", "persona", "task")
	require.NoError(t, err)
	assert.Equal(t, "handled the failure", out)
}

func TestLoopMaxTurnsExceeded(t *testing.T) {
	mock := model.NewMockModel("mock", "mock")
	for i := 0; i < 3; i++ {
		mock.EnqueueToolCall("call", "echo", `{"msg": "again"}`)
	}

	loop := NewLoop(mock, tool.NewSet(echoTool(nil)), func(o *LoopOptions) {
		o.MaxTurns = 3
	})

	_, err := loop.Run(context.Background(), "run-1", "persona", "task")
	assert.ErrorIs(t, err, ErrMaxTurns)
}

func TestLoopContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock := model.NewMockModel("mock", "mock")
	mock.EnqueueText("never reached")

	loop := NewLoop(mock, nil)

	_, err := loop.Run(ctx, "run-1", "persona", "task")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoopToolPanicIsContained(t *testing.T) {
	panicking := tool.NewFunctionTool("panics", "Panics on call",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			panic("tool blew up")
		},
	)

	mock := model.NewMockModel("mock", "mock")
	mock.EnqueueToolCall("call-1", "panics", `{}`)
	mock.EnqueueText("survived")

	loop := NewLoop(mock, tool.NewSet(panicking))

	out, err := loop.Run(context.Background(), "run-1", "persona", "task")
	require.NoError(t, err)
	assert.Equal(t, "survived", out)
}
