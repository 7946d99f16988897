package llm

import (
	"time"
)

//----------------------------------------------------------------
// Message - conversation record shared by engine, stores and providers
//----------------------------------------------------------------

// Message is one entry in a conversation log.
//
// Role is one of "user", "assistant", "tool" or "system". A "tool" message
// always carries the ToolCallID of the assistant tool call it answers.
type Message struct {
	MessageID string `json:"message_id,omitempty"`
	TurnID    string `json:"turn_id,omitempty"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp,omitempty"`

	// ToolCalls holds tool invocation requests produced by the model
	// (role "assistant" only).
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID links a role "tool" message back to the request it resolves.
	ToolCallID string `json:"tool_call_id,omitempty"`
	ToolName   string `json:"tool_name,omitempty"`
}

// ToolCall is a model-issued request to invoke a named tool.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON object text, as emitted by the provider

	// Meta carries provider-specific payloads that must be echoed back on the
	// next call (e.g. Gemini function-call parts). Never serialized.
	Meta map[string]any `json:"-"`
}

// ToolSpec describes one callable tool to the model.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

//----------------------------------------------------------------
// StreamChunk - incremental provider output
//----------------------------------------------------------------

// StreamChunk is one increment of a streaming completion. A chunk may carry
// assistant text, internal reasoning text, tool calls, a fatal error, or the
// final usage report; concatenating all Text fields yields the full reply.
type StreamChunk struct {
	Text     string `json:"text,omitempty"`
	Thinking string `json:"thinking,omitempty"`

	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	IsFinal      bool   `json:"is_final"`
	FinishReason string `json:"finish_reason,omitempty"`
	Usage        *Usage `json:"usage,omitempty"`

	// ErrText is a human-readable error for the caller; Err preserves the
	// underlying error for transient-error classification. A chunk with
	// Err != nil terminates the stream.
	ErrText string `json:"error,omitempty"`
	Err     error  `json:"-"`
}

// Usage is the normalized per-call token accounting.
type Usage struct {
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
	ThoughtsTokens   int    `json:"thoughts_tokens,omitempty"`
	StopReason       string `json:"stop_reason,omitempty"`
}

//----------------------------------------------------------------
// Constructors
//----------------------------------------------------------------

// NewTextMessage builds a plain text message for the given role.
func NewTextMessage(role, text string) Message {
	return Message{
		Role:      role,
		Content:   text,
		Timestamp: time.Now().Unix(),
	}
}

// NewSystemMessage builds a system (persona) message.
func NewSystemMessage(text string) Message {
	return NewTextMessage(RoleSystem, text)
}

// NewUserMessage builds a user message.
func NewUserMessage(text string) Message {
	return NewTextMessage(RoleUser, text)
}

// NewTextChunk wraps an assistant text delta.
func NewTextChunk(text string) StreamChunk {
	return StreamChunk{Text: text}
}

// NewThinkingChunk wraps a reasoning delta.
func NewThinkingChunk(text string) StreamChunk {
	return StreamChunk{Thinking: text}
}

// NewFinalChunk marks the end of a stream with its stop reason and usage.
func NewFinalChunk(reason string, usage *Usage) StreamChunk {
	return StreamChunk{IsFinal: true, FinishReason: reason, Usage: usage}
}

// NewErrorChunk reports a stream failure. The chunk terminates the stream.
func NewErrorChunk(msg string, err error) StreamChunk {
	return StreamChunk{ErrText: msg, Err: err}
}
