package history

import (
	"fmt"
	"time"

	"concierge/pkg/config"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// StorageConfig is the "storage" section of config.json.
type StorageConfig struct {
	Type       string `json:"type"`
	URL        string `json:"url,omitempty"`
	Path       string `json:"path,omitempty"`
	TTLSeconds int    `json:"ttl_seconds,omitempty"`
}

// NewFromConfig builds the configured backend. A nil or empty section
// selects the in-memory store.
func NewFromConfig(raw jsoniter.RawMessage) (Store, error) {
	cfg := StorageConfig{Type: "memory"}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse 'storage' config: %w", err)
		}
	}

	switch cfg.Type {
	case "", "memory":
		return NewMemoryStore(), nil
	case "redis":
		url := config.FromEnv(cfg.URL, "REDIS_URL")
		if url == "" {
			return nil, fmt.Errorf("redis storage requires 'url' or REDIS_URL")
		}
		return NewRedisStore(url, time.Duration(cfg.TTLSeconds)*time.Second), nil
	case "sqlite":
		path := cfg.Path
		if path == "" {
			path = "concierge.db"
		}
		return NewSQLiteStore(path), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
