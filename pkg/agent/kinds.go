package agent

import (
	"fmt"
	"sort"
	"sync"

	"concierge/pkg/config"
	"concierge/pkg/history"
	"concierge/pkg/llm"
)

// BuildDeps carries the shared collaborators a kind builder needs.
type BuildDeps struct {
	Client llm.CompletionClient
	Store  history.Store
	AppCfg *config.Config
	SysCfg *config.SystemConfig
}

// Builder constructs a fresh agent of one kind.
type Builder func(id string, deps BuildDeps) (*Agent, error)

var (
	kindsMu      sync.RWMutex
	kindRegistry = make(map[string]Builder)
)

// RegisterKind registers a builder under a kind name, called from init().
func RegisterKind(name string, builder Builder) {
	kindsMu.Lock()
	defer kindsMu.Unlock()
	kindRegistry[name] = builder
}

// Kinds lists the registered kind names, sorted.
func Kinds() []string {
	kindsMu.RLock()
	defer kindsMu.RUnlock()
	names := make([]string, 0, len(kindRegistry))
	for name := range kindRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds an agent of the given kind. Unknown kinds report the
// available ones so API callers get an actionable message.
func New(kind, id string, deps BuildDeps) (*Agent, error) {
	kindsMu.RLock()
	builder, ok := kindRegistry[kind]
	kindsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown agent kind %q, available: %v", kind, Kinds())
	}
	return builder(id, deps)
}
