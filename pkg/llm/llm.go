package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// CompletionClient is the contract between the turn engine and a model
// provider. StreamChat sends the message sequence plus the advertised tool
// specs and returns a finite, consume-once channel of StreamChunks. The
// channel is closed by the provider after the final or error chunk.
type CompletionClient interface {
	StreamChat(ctx context.Context, messages []Message, tools []ToolSpec) (<-chan StreamChunk, error)

	// IsTransientError reports whether err is worth retrying (rate limits,
	// 5xx, connection resets) as opposed to a permanent request failure.
	IsTransientError(err error) bool

	// Provider returns the provider tag ("openai", "ollama", "gemini").
	Provider() string
}

// FallbackClient tries a ladder of clients in order, retrying transient
// failures per client before moving to the next.
type FallbackClient struct {
	Clients    []CompletionClient
	MaxRetries int
	RetryDelay time.Duration
}

func (f *FallbackClient) StreamChat(ctx context.Context, messages []Message, tools []ToolSpec) (<-chan StreamChunk, error) {
	var lastErr error
	for i, client := range f.Clients {
		if i > 0 {
			slog.Warn("Provider failed, trying fallback", "next", client.Provider(), "position", i+1)
		}

		maxRetries := f.MaxRetries
		if maxRetries <= 0 {
			maxRetries = 1
		}

		for retry := 1; retry <= maxRetries; retry++ {
			if retry > 1 {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(time.Duration(retry-1) * f.RetryDelay):
				}
			}

			ch, err := client.StreamChat(ctx, messages, tools)
			if err == nil {
				return ch, nil
			}
			lastErr = err

			if client.IsTransientError(err) && retry < maxRetries {
				slog.Warn("Transient provider error, retrying", "provider", client.Provider(), "attempt", retry, "error", err)
				continue
			}

			slog.Error("Provider call failed", "provider", client.Provider(), "error", err)
			break
		}
	}
	return nil, fmt.Errorf("all completion providers failed: %w", lastErr)
}

// IsTransientError on the fallback ladder means every child already gave up,
// so the composite error is treated as permanent.
func (f *FallbackClient) IsTransientError(err error) bool {
	return false
}

func (f *FallbackClient) Provider() string {
	return "fallback"
}
