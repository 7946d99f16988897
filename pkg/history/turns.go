package history

import (
	"concierge/pkg/llm"
)

// RepairMessages drops entries that would make the log unplayable against a
// provider: tool results whose originating call is missing, and assistant
// tool-call messages whose results never arrived (e.g. a crash between the
// call commit and the result commit).
func RepairMessages(messages []llm.Message) []llm.Message {
	// First pass: which tool calls got answered
	answered := make(map[string]bool)
	for _, m := range messages {
		if m.Role == llm.RoleTool && m.ToolCallID != "" {
			answered[m.ToolCallID] = true
		}
	}

	repaired := make([]llm.Message, 0, len(messages))
	issued := make(map[string]bool)
	for _, m := range messages {
		switch m.Role {
		case llm.RoleAssistant:
			if len(m.ToolCalls) > 0 {
				complete := true
				for _, tc := range m.ToolCalls {
					if !answered[tc.ID] {
						complete = false
						break
					}
				}
				if !complete {
					// Keep any text the model produced, drop the dangling calls
					if m.Content == "" {
						continue
					}
					m.ToolCalls = nil
					repaired = append(repaired, m)
					continue
				}
				for _, tc := range m.ToolCalls {
					issued[tc.ID] = true
				}
			}
			repaired = append(repaired, m)
		case llm.RoleTool:
			// Orphaned or out-of-order results are skipped
			if m.ToolCallID == "" || !issued[m.ToolCallID] {
				continue
			}
			repaired = append(repaired, m)
		default:
			repaired = append(repaired, m)
		}
	}
	return repaired
}

// RecentTurns returns the suffix of messages covering at most maxTurns
// turns. A turn begins at each user message; assistant and tool messages
// ride with the turn they answer. Fewer turns than requested returns
// everything; maxTurns <= 0 returns everything.
func RecentTurns(messages []llm.Message, maxTurns int) []llm.Message {
	if maxTurns <= 0 {
		return messages
	}

	var starts []int
	for i, m := range messages {
		if m.Role == llm.RoleUser {
			starts = append(starts, i)
		}
	}

	if len(starts) <= maxTurns {
		return messages
	}

	return messages[starts[len(starts)-maxTurns]:]
}

// boundedContext is the shared GetContext implementation: repair first so a
// broken pair cannot shift turn boundaries, then bound.
func boundedContext(messages []llm.Message, maxTurns int) []llm.Message {
	return RecentTurns(RepairMessages(messages), maxTurns)
}
