package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"concierge/pkg/agent"
	"concierge/pkg/api"
	"concierge/pkg/monitor"
)

const (
	defaultAgentKind = "customer_service"
	defaultAgentID   = "default"
)

// Manager routes chat requests to cached agents and manages the transport
// channels. It implements api.Gateway.
//
// Turns within one conversation are strictly serialized: a second request
// for the same conversation waits until the first finishes.
type Manager struct {
	deps    agent.BuildDeps
	cache   *agent.Cache
	monitor monitor.Monitor

	mu       sync.Mutex
	channels map[string]api.Channel
	locks    map[string]*convLock
}

// convLock serializes one conversation's turns. Entries are refcounted and
// removed from the map once the last holder releases, so idle conversations
// leave nothing behind.
type convLock struct {
	mu   sync.Mutex
	refs int
}

// NewManager builds the gateway around the shared collaborators.
func NewManager(deps agent.BuildDeps) *Manager {
	ttl := time.Duration(deps.SysCfg.AgentCacheTTLMinutes) * time.Minute
	return &Manager{
		deps:     deps,
		cache:    agent.NewCache(deps.SysCfg.AgentCacheSize, ttl),
		channels: make(map[string]api.Channel),
		locks:    make(map[string]*convLock),
	}
}

// SetMonitor attaches a traffic monitor.
func (m *Manager) SetMonitor(mon monitor.Monitor) {
	m.monitor = mon
}

// Register adds a channel. Channels are started together via StartAll.
func (m *Manager) Register(c api.Channel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels[c.ID()] = c
}

// StartAll starts every registered channel, handing each this gateway.
func (m *Manager) StartAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, c := range m.channels {
		slog.Info("Starting channel", "channel", id)
		if err := c.Start(m); err != nil {
			return fmt.Errorf("failed to start channel %s: %w", id, err)
		}
	}
	return nil
}

// StopAll stops every channel and tears down the agent cache.
func (m *Manager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, c := range m.channels {
		slog.Info("Stopping channel", "channel", id)
		if err := c.Stop(); err != nil {
			slog.Error("Error stopping channel", "channel", id, "error", err)
		}
	}
	m.cache.Close()
}

// lockConversation blocks until this caller holds the conversation's turn
// lock. Every lockConversation is paired with one unlockConversation.
func (m *Manager) lockConversation(conversationID string) *convLock {
	m.mu.Lock()
	lock, ok := m.locks[conversationID]
	if !ok {
		lock = &convLock{}
		m.locks[conversationID] = lock
	}
	lock.refs++
	m.mu.Unlock()

	lock.mu.Lock()
	return lock
}

func (m *Manager) unlockConversation(conversationID string, lock *convLock) {
	lock.mu.Unlock()

	m.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(m.locks, conversationID)
	}
	m.mu.Unlock()
}

func (m *Manager) normalize(req *api.ChatRequest) error {
	if req.AgentKind == "" {
		req.AgentKind = defaultAgentKind
	}
	if req.AgentID == "" {
		req.AgentID = defaultAgentID
	}
	if req.ConversationID == "" {
		return fmt.Errorf("missing conversation_id")
	}
	if strings.TrimSpace(req.Content) == "" {
		return fmt.Errorf("missing message")
	}
	return nil
}

func (m *Manager) agentFor(req api.ChatRequest) (*agent.Agent, error) {
	key := req.AgentKind + "_" + req.AgentID
	return m.cache.GetOrCreate(key, func() (*agent.Agent, error) {
		return agent.New(req.AgentKind, req.AgentID, m.deps)
	})
}

func (m *Manager) broadcast(msgType string, req api.ChatRequest, content string) {
	if m.monitor == nil || content == "" {
		return
	}
	m.monitor.OnMessage(monitor.MonitorMessage{
		Timestamp:      time.Now(),
		MessageType:    msgType,
		AgentKind:      req.AgentKind,
		ConversationID: req.ConversationID,
		Content:        content,
	})
}

// Chat implements api.Gateway. The returned stream stays open until the
// turn produces its terminal event.
func (m *Manager) Chat(ctx context.Context, req api.ChatRequest) (<-chan api.OutputEvent, error) {
	if err := m.normalize(&req); err != nil {
		return nil, err
	}

	ag, err := m.agentFor(req)
	if err != nil {
		return nil, err
	}

	m.broadcast("USER", req, req.Content)

	lock := m.lockConversation(req.ConversationID)

	events, err := ag.ProcessMessage(ctx, req.ConversationID, req.Content)
	if err != nil {
		m.unlockConversation(req.ConversationID, lock)
		return nil, err
	}

	out := make(chan api.OutputEvent, m.deps.SysCfg.InternalChannelBuffer)
	go func() {
		defer close(out)
		defer m.unlockConversation(req.ConversationID, lock)

		var reply strings.Builder
		for ev := range events {
			if ev.Type == api.EventContent {
				reply.WriteString(ev.Chunk)
			}
			// Keep draining after a disconnect so the turn can finish
			select {
			case out <- ev:
			case <-ctx.Done():
			}
		}
		m.broadcast("ASSISTANT", req, reply.String())
	}()
	return out, nil
}

// ChatSync implements api.Gateway.
func (m *Manager) ChatSync(ctx context.Context, req api.ChatRequest) (string, error) {
	events, err := m.Chat(ctx, req)
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

// Info implements api.Gateway.
func (m *Manager) Info() api.GatewayInfo {
	return api.GatewayInfo{
		AgentKinds:   agent.Kinds(),
		CachedAgents: m.cache.Len(),
		StorageType:  m.deps.Store.Type(),
	}
}

// Health implements api.Gateway.
func (m *Manager) Health(ctx context.Context) error {
	return m.deps.Store.Ping(ctx)
}
