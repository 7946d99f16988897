package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"concierge/pkg/api"
	"concierge/pkg/llm"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, s.Connect(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)

	msg := llm.Message{
		MessageID: "m1",
		TurnID:    "t1",
		Role:      llm.RoleAssistant,
		Content:   "answer",
		ToolCalls: []llm.ToolCall{{ID: "c1", Name: "search_faq", Arguments: `{"query":"refund"}`}},
	}
	require.NoError(t, s.AppendMessage(ctx, "conv1", user("question")))
	require.NoError(t, s.AppendMessage(ctx, "conv1", msg))
	require.NoError(t, s.AppendMessage(ctx, "other", user("unrelated")))

	msgs, err := s.Messages(ctx, "conv1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "question", msgs[0].Content)
	require.Equal(t, msg, msgs[1])
}

func TestSQLiteStoreToolHistoryLimit(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)

	for _, id := range []string{"c1", "c2", "c3"} {
		rec := api.ToolRecord{ToolCallID: id, ToolName: "create_ticket", Output: "{}"}
		require.NoError(t, s.AppendToolRecord(ctx, "conv1", rec))
	}

	recs, err := s.ToolHistory(ctx, "conv1", 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	// Last two, oldest first
	require.Equal(t, "c2", recs[0].ToolCallID)
	require.Equal(t, "c3", recs[1].ToolCallID)

	all, err := s.ToolHistory(ctx, "conv1", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestSQLiteStoreGetContextBounds(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)

	for i := 0; i < 4; i++ {
		require.NoError(t, s.AppendMessage(ctx, "conv1", user("q")))
		require.NoError(t, s.AppendMessage(ctx, "conv1", assistant("a")))
	}

	got, err := s.GetContext(ctx, "conv1", 2)
	require.NoError(t, err)
	require.Len(t, got, 4)
	require.Equal(t, llm.RoleUser, got[0].Role)
}

func TestSQLiteStoreTrim(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.AppendMessage(ctx, "conv1", user("m")))
	}
	require.NoError(t, s.AppendMessage(ctx, "other", user("keep")))

	require.NoError(t, s.Trim(ctx, "conv1", 2))

	msgs, err := s.Messages(ctx, "conv1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	other, err := s.Messages(ctx, "other")
	require.NoError(t, err)
	require.Len(t, other, 1, "trim must not touch other conversations")
}

func TestSQLiteStorePing(t *testing.T) {
	s := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.ErrorIs(t, s.Ping(context.Background()), ErrStorageUnavailable)

	require.NoError(t, s.Connect(context.Background()))
	defer s.Close()
	require.NoError(t, s.Ping(context.Background()))
}
