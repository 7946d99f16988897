package llm

import (
	"concierge/pkg/config"
)

// ProviderGroupConfig is one entry of the "llm" config array: a provider type
// plus the models and credentials to instantiate under it.
type ProviderGroupConfig struct {
	Type    string         `json:"type"`
	APIKeys []string       `json:"api_keys,omitempty"`
	Models  []string       `json:"models"`
	BaseURL string         `json:"base_url,omitempty"`
	Options map[string]any `json:"options,omitempty"`
}

// ProviderFactory builds the atomic clients for one provider group.
type ProviderFactory interface {
	Create(group ProviderGroupConfig, system *config.SystemConfig) ([]CompletionClient, error)
}

var providerRegistry = make(map[string]ProviderFactory)

// RegisterProvider registers a factory under a provider type name. Called
// from provider package init(); blank-import concierge/pkg/llm/autoload to
// pull in the standard set.
func RegisterProvider(name string, factory ProviderFactory) {
	providerRegistry[name] = factory
}

// GetProviderFactory looks up a registered factory by type name.
func GetProviderFactory(name string) (ProviderFactory, bool) {
	f, ok := providerRegistry[name]
	return f, ok
}
