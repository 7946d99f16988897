package history

import (
	"testing"

	"concierge/pkg/llm"
)

func user(text string) llm.Message {
	return llm.Message{Role: llm.RoleUser, Content: text}
}

func assistant(text string, calls ...llm.ToolCall) llm.Message {
	return llm.Message{Role: llm.RoleAssistant, Content: text, ToolCalls: calls}
}

func toolResult(callID, text string) llm.Message {
	return llm.Message{Role: llm.RoleTool, ToolCallID: callID, Content: text}
}

func roles(msgs []llm.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Role
	}
	return out
}

func equalRoles(a []llm.Message, want []string) bool {
	if len(a) != len(want) {
		return false
	}
	for i := range want {
		if a[i].Role != want[i] {
			return false
		}
	}
	return true
}

func TestRecentTurns(t *testing.T) {
	threeTurns := []llm.Message{
		user("q1"), assistant("a1"),
		user("q2"), assistant("", llm.ToolCall{ID: "c1", Name: "search_faq"}), toolResult("c1", "{}"), assistant("a2"),
		user("q3"), assistant("a3"),
	}

	tests := []struct {
		name     string
		msgs     []llm.Message
		maxTurns int
		want     []string
	}{
		{
			name:     "fewer turns than limit returns everything",
			msgs:     threeTurns,
			maxTurns: 5,
			want:     roles(threeTurns),
		},
		{
			name:     "zero limit returns everything",
			msgs:     threeTurns,
			maxTurns: 0,
			want:     roles(threeTurns),
		},
		{
			name:     "limit one keeps only the last turn",
			msgs:     threeTurns,
			maxTurns: 1,
			want:     []string{"user", "assistant"},
		},
		{
			name:     "cut lands on a turn boundary, never inside a tool exchange",
			msgs:     threeTurns,
			maxTurns: 2,
			want:     []string{"user", "assistant", "tool", "assistant", "user", "assistant"},
		},
		{
			name:     "empty log",
			msgs:     nil,
			maxTurns: 3,
			want:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RecentTurns(tt.msgs, tt.maxTurns)
			if !equalRoles(got, tt.want) {
				t.Errorf("RecentTurns() roles = %v, want %v", roles(got), tt.want)
			}
		})
	}
}

func TestRepairMessages(t *testing.T) {
	t.Run("intact log passes through", func(t *testing.T) {
		msgs := []llm.Message{
			user("q"),
			assistant("", llm.ToolCall{ID: "c1", Name: "search_faq"}),
			toolResult("c1", "{}"),
			assistant("a"),
		}
		got := RepairMessages(msgs)
		if len(got) != len(msgs) {
			t.Fatalf("repaired %d messages, want %d", len(got), len(msgs))
		}
	})

	t.Run("orphaned tool result is dropped", func(t *testing.T) {
		msgs := []llm.Message{
			user("q"),
			toolResult("ghost", "{}"),
			assistant("a"),
		}
		got := RepairMessages(msgs)
		if !equalRoles(got, []string{"user", "assistant"}) {
			t.Errorf("roles = %v, want [user assistant]", roles(got))
		}
	})

	t.Run("unanswered tool call is dropped entirely when textless", func(t *testing.T) {
		msgs := []llm.Message{
			user("q"),
			assistant("", llm.ToolCall{ID: "c1", Name: "create_ticket"}),
		}
		got := RepairMessages(msgs)
		if !equalRoles(got, []string{"user"}) {
			t.Errorf("roles = %v, want [user]", roles(got))
		}
	})

	t.Run("unanswered tool call keeps its text without the calls", func(t *testing.T) {
		msgs := []llm.Message{
			user("q"),
			assistant("let me check", llm.ToolCall{ID: "c1", Name: "create_ticket"}),
		}
		got := RepairMessages(msgs)
		if len(got) != 2 {
			t.Fatalf("repaired %d messages, want 2", len(got))
		}
		if got[1].Content != "let me check" || len(got[1].ToolCalls) != 0 {
			t.Errorf("assistant message not stripped of dangling calls: %+v", got[1])
		}
	})

	t.Run("result arriving before its call is dropped", func(t *testing.T) {
		msgs := []llm.Message{
			toolResult("c1", "{}"),
			assistant("", llm.ToolCall{ID: "c1", Name: "search_faq"}),
		}
		got := RepairMessages(msgs)
		if !equalRoles(got, []string{"assistant"}) {
			t.Errorf("roles = %v, want [assistant]", roles(got))
		}
	})

	t.Run("partially answered multi-call message is dropped", func(t *testing.T) {
		msgs := []llm.Message{
			user("q"),
			assistant("",
				llm.ToolCall{ID: "c1", Name: "search_faq"},
				llm.ToolCall{ID: "c2", Name: "create_ticket"},
			),
			toolResult("c1", "{}"),
		}
		got := RepairMessages(msgs)
		if !equalRoles(got, []string{"user"}) {
			t.Errorf("roles = %v, want [user]", roles(got))
		}
	})
}

func TestBoundedContextRepairsBeforeBounding(t *testing.T) {
	// The dangling call in turn two must not count as turn content after
	// repair shifts the log.
	msgs := []llm.Message{
		user("q1"), assistant("a1"),
		user("q2"), assistant("", llm.ToolCall{ID: "lost", Name: "search_faq"}),
		user("q3"), assistant("a3"),
	}
	got := boundedContext(msgs, 2)
	if !equalRoles(got, []string{"user", "user", "assistant"}) {
		t.Errorf("roles = %v, want [user user assistant]", roles(got))
	}
	if got[0].Content != "q2" {
		t.Errorf("first message = %q, want q2", got[0].Content)
	}
}
