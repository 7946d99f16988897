package llm

import (
	"fmt"
	"log/slog"
	"time"

	"concierge/pkg/config"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// NewFromConfig builds the completion client described by the raw "llm"
// config array. Multiple atomic clients are wrapped in a FallbackClient in
// declaration order; a single client is returned bare.
func NewFromConfig(rawLLM jsoniter.RawMessage, system *config.SystemConfig) (CompletionClient, error) {
	if rawLLM == nil {
		return nil, fmt.Errorf("missing 'llm' config")
	}

	var groups []ProviderGroupConfig
	if err := json.Unmarshal(rawLLM, &groups); err != nil {
		return nil, fmt.Errorf("failed to parse 'llm' config: %w", err)
	}

	var clients []CompletionClient
	for _, group := range groups {
		slog.Info("Loading completion provider group", "type", group.Type, "models", len(group.Models))

		factory, ok := GetProviderFactory(group.Type)
		if !ok {
			slog.Warn("Unknown provider type, skipping", "type", group.Type)
			continue
		}

		created, err := factory.Create(group, system)
		if err != nil {
			slog.Warn("Failed to create provider clients", "type", group.Type, "error", err)
			continue
		}
		clients = append(clients, created...)
	}

	if len(clients) == 0 {
		return nil, fmt.Errorf("no completion clients could be initialized")
	}

	slog.Info("Completion clients initialized", "count", len(clients))

	if len(clients) == 1 {
		return clients[0], nil
	}

	return &FallbackClient{
		Clients:    clients,
		MaxRetries: system.MaxRetries,
		RetryDelay: time.Duration(system.RetryDelayMs) * time.Millisecond,
	}, nil
}
