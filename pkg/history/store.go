package history

import (
	"context"
	"errors"

	"concierge/pkg/api"
	"concierge/pkg/llm"
)

// ErrStorageUnavailable indicates the backend could not serve the operation
// (connection lost, timeout). Callers must not guess at conversation state
// when they see it.
var ErrStorageUnavailable = errors.New("history storage unavailable")

// Store is the durable conversation log. Messages are append-only and
// ordered per conversation; tool dispatches are recorded in a separate
// audit log under the same conversation key.
//
// All methods honor ctx cancellation. Backends wrap connectivity failures
// in ErrStorageUnavailable.
type Store interface {
	Connect(ctx context.Context) error
	Close() error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// AppendMessage appends one message to the conversation log.
	AppendMessage(ctx context.Context, conversationID string, msg llm.Message) error

	// AppendToolRecord appends one entry to the tool audit log.
	AppendToolRecord(ctx context.Context, conversationID string, rec api.ToolRecord) error

	// Messages returns the full ordered log for a conversation. A missing
	// conversation yields an empty slice, not an error.
	Messages(ctx context.Context, conversationID string) ([]llm.Message, error)

	// GetContext returns the repaired tail of the conversation bounded to
	// the most recent maxTurns turns. A turn starts at a user message, so
	// truncation never splits a tool call from its result.
	GetContext(ctx context.Context, conversationID string, maxTurns int) ([]llm.Message, error)

	// ToolHistory returns up to limit most recent tool records (all if
	// limit <= 0).
	ToolHistory(ctx context.Context, conversationID string, limit int) ([]api.ToolRecord, error)

	// Trim drops the oldest messages so at most maxMessages remain.
	Trim(ctx context.Context, conversationID string, maxMessages int) error

	// Type reports the backend name ("memory", "redis", "sqlite").
	Type() string
}
