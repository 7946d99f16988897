package llm

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// flakyClient fails a configured number of times before succeeding.
type flakyClient struct {
	name      string
	failures  int
	transient bool
	calls     atomic.Int32
}

func (c *flakyClient) StreamChat(ctx context.Context, messages []Message, tools []ToolSpec) (<-chan StreamChunk, error) {
	n := int(c.calls.Add(1))
	if n <= c.failures {
		return nil, errors.New(c.name + " unavailable")
	}
	ch := make(chan StreamChunk, 2)
	ch <- NewTextChunk("from " + c.name)
	ch <- NewFinalChunk(StopReasonStop, nil)
	close(ch)
	return ch, nil
}

func (c *flakyClient) IsTransientError(err error) bool { return c.transient }
func (c *flakyClient) Provider() string                { return c.name }

func drainText(t *testing.T, ch <-chan StreamChunk) string {
	t.Helper()
	var text string
	for chunk := range ch {
		if chunk.Err != nil {
			t.Fatalf("unexpected stream error: %v", chunk.Err)
		}
		text += chunk.Text
	}
	return text
}

func TestFallbackClientFirstProviderWins(t *testing.T) {
	primary := &flakyClient{name: "primary"}
	backup := &flakyClient{name: "backup"}
	f := &FallbackClient{Clients: []CompletionClient{primary, backup}, MaxRetries: 3, RetryDelay: time.Millisecond}

	ch, err := f.StreamChat(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}
	if got := drainText(t, ch); got != "from primary" {
		t.Errorf("reply = %q, want from primary", got)
	}
	if backup.calls.Load() != 0 {
		t.Error("backup must not be called when primary succeeds")
	}
}

func TestFallbackClientRetriesTransientErrors(t *testing.T) {
	primary := &flakyClient{name: "primary", failures: 2, transient: true}
	f := &FallbackClient{Clients: []CompletionClient{primary}, MaxRetries: 3, RetryDelay: time.Millisecond}

	ch, err := f.StreamChat(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}
	if got := drainText(t, ch); got != "from primary" {
		t.Errorf("reply = %q", got)
	}
	if primary.calls.Load() != 3 {
		t.Errorf("primary called %d times, want 3", primary.calls.Load())
	}
}

func TestFallbackClientPermanentErrorSkipsRetries(t *testing.T) {
	primary := &flakyClient{name: "primary", failures: 10, transient: false}
	backup := &flakyClient{name: "backup"}
	f := &FallbackClient{Clients: []CompletionClient{primary, backup}, MaxRetries: 3, RetryDelay: time.Millisecond}

	ch, err := f.StreamChat(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}
	if got := drainText(t, ch); got != "from backup" {
		t.Errorf("reply = %q, want from backup", got)
	}
	if primary.calls.Load() != 1 {
		t.Errorf("permanent failure retried %d times, want 1 attempt", primary.calls.Load())
	}
}

func TestFallbackClientAllProvidersFail(t *testing.T) {
	f := &FallbackClient{
		Clients: []CompletionClient{
			&flakyClient{name: "a", failures: 10},
			&flakyClient{name: "b", failures: 10},
		},
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
	}

	_, err := f.StreamChat(context.Background(), nil, nil)
	if err == nil {
		t.Fatal("expected an error when every provider fails")
	}
}
