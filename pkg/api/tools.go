package api

import (
	"context"

	"concierge/pkg/llm"
)

// Tool is any capability the agent can execute. Spec supplies the JSON
// Schema advertised to the model; Execute performs the actual logic.
// Execute results are serialized to JSON before being fed back to the model.
type Tool interface {
	Spec() llm.ToolSpec
	Execute(ctx context.Context, args map[string]any) (any, error)
}

// ToolRecord is the audit entry written for every tool dispatch,
// successful or not.
type ToolRecord struct {
	ToolCallID string `json:"tool_call_id"`
	TurnID     string `json:"turn_id,omitempty"`
	ToolName   string `json:"tool_name"`
	Arguments  string `json:"arguments"`
	Output     string `json:"output,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
	Timestamp  int64  `json:"timestamp"`
}

// ToolRegistry manages the tools advertised to the model and dispatches
// tool calls issued by it.
type ToolRegistry interface {
	Register(tool Tool) error
	Get(name string) (Tool, bool)
	DescribeAll() []llm.ToolSpec
	Dispatch(ctx context.Context, call llm.ToolCall) ToolRecord
}
