package llm

// Role constants for Message.Role. Providers must map their native roles to
// these values in both directions.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
	RoleSystem    = "system"
)

// StopReason constants define normalized reasons for generation termination.
// All providers normalize their native stop reasons to these values.
const (
	StopReasonStop   = "stop"   // Normal completion
	StopReasonLength = "length" // Output truncated due to token limit
)
