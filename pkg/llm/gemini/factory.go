package gemini

import (
	"log/slog"

	"concierge/pkg/config"
	"concierge/pkg/llm"
)

// GeminiFactory handles creation of Gemini clients.
type GeminiFactory struct{}

// Create implements llm.ProviderFactory.
func (f *GeminiFactory) Create(cfg llm.ProviderGroupConfig, sys *config.SystemConfig) ([]llm.CompletionClient, error) {
	var clients []llm.CompletionClient

	useThought := false
	if effort, ok := cfg.Options["thinking_effort"].(string); ok && effort != "" && effort != "off" {
		useThought = true
	}

	keys := cfg.APIKeys
	if len(keys) == 0 {
		if k := config.FromEnv("", "MODEL_API_KEY"); k != "" {
			keys = []string{k}
		}
	}

	// Cartesian product: models x keys (models take priority)
	for _, model := range cfg.Models {
		for _, key := range keys {
			client, err := NewGeminiClient(key, model, useThought)
			if err != nil {
				slog.Error("Failed to create Gemini client", "model", model, "error", err)
				continue
			}
			clients = append(clients, client)
		}
	}
	return clients, nil
}

func init() {
	llm.RegisterProvider("gemini", &GeminiFactory{})
}
