package web

import (
	"fmt"

	"concierge/pkg/api"
	"concierge/pkg/channels"
	"concierge/pkg/config"

	jsoniter "github.com/json-iterator/go"
)

// WebFactory builds the HTTP channel.
type WebFactory struct{}

// Create implements channels.ChannelFactory.
func (f *WebFactory) Create(rawConfig jsoniter.RawMessage, system *config.SystemConfig) (api.Channel, error) {
	var cfg WebConfig
	if len(rawConfig) > 0 {
		if err := json.Unmarshal(rawConfig, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse web config: %w", err)
		}
	}
	return NewWebChannel(cfg), nil
}

func init() {
	channels.RegisterChannel("web", &WebFactory{})
}
