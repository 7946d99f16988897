package api

import (
	"context"
)

// ChatRequest is the standardized inbound message all transports produce.
type ChatRequest struct {
	AgentKind      string `json:"agent_kind"`
	AgentID        string `json:"agent_id"`
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id,omitempty"`
	Content        string `json:"message"`
}

// GatewayInfo is the introspection payload served on the info endpoint.
type GatewayInfo struct {
	AgentKinds   []string `json:"agent_kinds"`
	CachedAgents int      `json:"cached_agents"`
	StorageType  string   `json:"storage_type"`
}

// Gateway routes chat requests to agents and serializes turns per
// conversation. Transports talk to the engine only through this interface.
type Gateway interface {
	// Chat runs one turn and streams the reply. The returned channel is
	// closed after the terminal done or error event.
	Chat(ctx context.Context, req ChatRequest) (<-chan OutputEvent, error)
	// ChatSync runs one turn and returns the buffered final reply.
	ChatSync(ctx context.Context, req ChatRequest) (string, error)
	Info() GatewayInfo
	Health(ctx context.Context) error
}

// Channel is the lifecycle interface for transports (HTTP, Telegram).
type Channel interface {
	ID() string
	Start(gw Gateway) error
	Stop() error
}
