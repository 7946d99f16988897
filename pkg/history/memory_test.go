package history

import (
	"context"
	"testing"

	"concierge/pkg/api"
)

func TestMemoryStoreMessages(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.AppendMessage(ctx, "conv1", user("hi")); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	if err := s.AppendMessage(ctx, "conv1", assistant("hello")); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	if err := s.AppendMessage(ctx, "conv2", user("other")); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}

	msgs, err := s.Messages(ctx, "conv1")
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Content != "hi" || msgs[1].Content != "hello" {
		t.Errorf("messages out of order: %v", msgs)
	}

	// Reads return copies; mutating them must not touch the store
	msgs[0].Content = "tampered"
	again, _ := s.Messages(ctx, "conv1")
	if again[0].Content != "hi" {
		t.Error("store contents mutated through a read copy")
	}
}

func TestMemoryStoreToolHistory(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for i := 0; i < 5; i++ {
		rec := api.ToolRecord{ToolCallID: string(rune('a' + i)), ToolName: "search_faq"}
		if err := s.AppendToolRecord(ctx, "conv1", rec); err != nil {
			t.Fatalf("AppendToolRecord: %v", err)
		}
	}

	recs, err := s.ToolHistory(ctx, "conv1", 2)
	if err != nil {
		t.Fatalf("ToolHistory: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].ToolCallID != "d" || recs[1].ToolCallID != "e" {
		t.Errorf("expected the two most recent records, got %v", recs)
	}

	all, _ := s.ToolHistory(ctx, "conv1", 0)
	if len(all) != 5 {
		t.Errorf("limit 0 should return everything, got %d", len(all))
	}
}

func TestMemoryStoreGetContext(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for i := 0; i < 3; i++ {
		s.AppendMessage(ctx, "conv1", user("q"))
		s.AppendMessage(ctx, "conv1", assistant("a"))
	}

	got, err := s.GetContext(ctx, "conv1", 2)
	if err != nil {
		t.Fatalf("GetContext: %v", err)
	}
	if len(got) != 4 {
		t.Errorf("got %d messages, want 4 (two turns)", len(got))
	}
}

func TestMemoryStoreTrim(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for i := 0; i < 6; i++ {
		s.AppendMessage(ctx, "conv1", user("m"))
	}

	if err := s.Trim(ctx, "conv1", 2); err != nil {
		t.Fatalf("Trim: %v", err)
	}
	msgs, _ := s.Messages(ctx, "conv1")
	if len(msgs) != 2 {
		t.Errorf("got %d messages after trim, want 2", len(msgs))
	}

	if err := s.Trim(ctx, "conv1", 0); err != nil {
		t.Fatalf("Trim to zero: %v", err)
	}
	msgs, _ = s.Messages(ctx, "conv1")
	if len(msgs) != 0 {
		t.Errorf("got %d messages after trim to zero, want 0", len(msgs))
	}
}
