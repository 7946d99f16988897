package monitor

import "time"

// MonitorMessage is one traffic event broadcast to monitors.
type MonitorMessage struct {
	Timestamp      time.Time
	MessageType    string // "USER", "ASSISTANT" or "TOOL"
	AgentKind      string
	ConversationID string
	Content        string
}

// Monitor observes message traffic across all channels.
type Monitor interface {
	Start() error
	Stop() error
	OnMessage(msg MonitorMessage)
}
