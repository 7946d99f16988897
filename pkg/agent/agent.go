package agent

import (
	"context"
	"fmt"
	"strings"

	"concierge/pkg/api"
	"concierge/pkg/config"
)

// Agent binds an engine to an identity. Instances are cached by the
// gateway and reused across requests for the same kind and ID.
type Agent struct {
	kind   string
	id     string
	engine *Engine
	sysCfg *config.SystemConfig
}

func (a *Agent) Kind() string { return a.kind }
func (a *Agent) ID() string   { return a.id }

// ProcessMessage runs one turn and returns the event stream. The channel
// is closed after the terminal event.
func (a *Agent) ProcessMessage(ctx context.Context, conversationID, content string) (<-chan api.OutputEvent, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("empty message")
	}
	if conversationID == "" {
		return nil, fmt.Errorf("missing conversation id")
	}

	out := make(chan api.OutputEvent, a.sysCfg.InternalChannelBuffer)
	go func() {
		defer close(out)
		_ = a.engine.RunTurn(ctx, conversationID, content, out)
	}()
	return out, nil
}

// ProcessMessageSync runs one turn buffered and returns the final reply text.
func (a *Agent) ProcessMessageSync(ctx context.Context, conversationID, content string) (string, error) {
	events, err := a.ProcessMessage(ctx, conversationID, content)
	if err != nil {
		return "", err
	}

	var reply strings.Builder
	for ev := range events {
		switch ev.Type {
		case api.EventContent:
			reply.WriteString(ev.Chunk)
		case api.EventError:
			return "", fmt.Errorf("%s", ev.Error)
		}
	}
	return reply.String(), nil
}

// Close releases agent-held resources. Engines share the store and client,
// so there is currently nothing to tear down; the cache calls this on evict.
func (a *Agent) Close() error {
	return nil
}
