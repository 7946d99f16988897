package history

import (
	"context"
	"sync"

	"concierge/pkg/api"
	"concierge/pkg/llm"
)

// MemoryStore is the process-local backend. Conversations vanish on
// restart; useful for tests and single-node development.
type MemoryStore struct {
	mu       sync.RWMutex
	messages map[string][]llm.Message
	tools    map[string][]api.ToolRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		messages: make(map[string][]llm.Message),
		tools:    make(map[string][]api.ToolRecord),
	}
}

func (s *MemoryStore) Connect(ctx context.Context) error { return nil }
func (s *MemoryStore) Close() error                      { return nil }
func (s *MemoryStore) Ping(ctx context.Context) error    { return nil }
func (s *MemoryStore) Type() string                      { return "memory" }

func (s *MemoryStore) AppendMessage(ctx context.Context, conversationID string, msg llm.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[conversationID] = append(s.messages[conversationID], msg)
	return nil
}

func (s *MemoryStore) AppendToolRecord(ctx context.Context, conversationID string, rec api.ToolRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tools[conversationID] = append(s.tools[conversationID], rec)
	return nil
}

func (s *MemoryStore) Messages(ctx context.Context, conversationID string) ([]llm.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.messages[conversationID]
	out := make([]llm.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *MemoryStore) GetContext(ctx context.Context, conversationID string, maxTurns int) ([]llm.Message, error) {
	msgs, err := s.Messages(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return boundedContext(msgs, maxTurns), nil
}

func (s *MemoryStore) ToolHistory(ctx context.Context, conversationID string, limit int) ([]api.ToolRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := s.tools[conversationID]
	if limit > 0 && len(recs) > limit {
		recs = recs[len(recs)-limit:]
	}
	out := make([]api.ToolRecord, len(recs))
	copy(out, recs)
	return out, nil
}

func (s *MemoryStore) Trim(ctx context.Context, conversationID string, maxMessages int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.messages[conversationID]
	if maxMessages >= 0 && len(msgs) > maxMessages {
		s.messages[conversationID] = append([]llm.Message(nil), msgs[len(msgs)-maxMessages:]...)
	}
	return nil
}
