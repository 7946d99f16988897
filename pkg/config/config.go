package config

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
)

// Config defines the global application configuration structure.
// It maps directly to config.json and holds business-level settings:
// channel credentials, completion provider choices, storage backend and
// the default persona.
type Config struct {
	// Channels maps channel identifiers (e.g. "telegram", "web") to their
	// specific configuration payloads in raw JSON format.
	Channels map[string]jsoniter.RawMessage `json:"channels"`
	// LLM holds the completion provider group array in raw JSON.
	LLM jsoniter.RawMessage `json:"llm"`
	// Storage selects and configures the history backend in raw JSON.
	// Empty means the in-memory backend.
	Storage jsoniter.RawMessage `json:"storage,omitempty"`
	// SystemPrompt is the fallback persona used when an agent kind does not
	// define its own.
	SystemPrompt string `json:"system_prompt"`
}

// Validate ensures the configuration contains all mandatory fields.
func (c *Config) Validate() error {
	if len(c.LLM) == 0 {
		return fmt.Errorf("mandatory 'llm' configuration is missing or empty")
	}
	return nil
}

// SystemConfig defines engine-level technical parameters, usually stored in
// system.json.
type SystemConfig struct {
	// MaxToolIterations bounds the number of model calls within one turn.
	// When the budget is exhausted the engine answers without further tool
	// dispatch.
	MaxToolIterations int `json:"max_tool_iterations"`
	// MaxContextTurns is the number of most recent conversation turns
	// assembled into the model context.
	MaxContextTurns int `json:"max_context_turns"`
	// ToolTimeoutMs is the hard cutoff (in milliseconds) for a single tool
	// dispatch. A timed-out tool yields an error result, not a failed turn.
	ToolTimeoutMs int `json:"tool_timeout_ms"`
	// MaxRetries is the number of attempts against a provider before the
	// fallback ladder moves on.
	MaxRetries int `json:"max_retries"`
	// RetryDelayMs is the base delay (in milliseconds) between retries.
	RetryDelayMs int `json:"retry_delay_ms"`
	// LLMTimeoutMs is the hard cutoff (in milliseconds) for one model call.
	LLMTimeoutMs int `json:"llm_timeout_ms"`
	// InternalChannelBuffer sizes the Go channels buffering stream chunks.
	InternalChannelBuffer int `json:"internal_channel_buffer"`
	// AgentCacheSize caps the number of cached agent instances.
	AgentCacheSize int `json:"agent_cache_size"`
	// AgentCacheTTLMinutes evicts cached agents idle longer than this.
	AgentCacheTTLMinutes int `json:"agent_cache_ttl_minutes"`
	// TelegramMessageLimit is the maximum character count for a single
	// Telegram message. Longer responses are split into chunks.
	TelegramMessageLimit int `json:"telegram_message_limit"`
	// ShowThinking streams the model's reasoning deltas to the client.
	ShowThinking bool `json:"show_thinking"`
	// EnableTools globally toggles tool calling.
	EnableTools bool `json:"enable_tools"`
	// LogLevel sets the minimum severity for log output.
	// Accepted values: "debug", "info", "warn", "error". Default: "info".
	LogLevel string `json:"log_level"`
}

// DefaultSystemConfig returns safe defaults, used when system.json is
// missing or corrupt so the service can always start.
func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		MaxToolIterations:     4,
		MaxContextTurns:       5,
		ToolTimeoutMs:         30000,
		MaxRetries:            3,
		RetryDelayMs:          500,
		LLMTimeoutMs:          600000,
		InternalChannelBuffer: 100,
		AgentCacheSize:        256,
		AgentCacheTTLMinutes:  30,
		TelegramMessageLimit:  4000,
		ShowThinking:          true,
		EnableTools:           true,
		LogLevel:              "info",
	}
}

// Load reads and parses the JSON configuration files from the current
// working directory: config.json is mandatory, system.json falls back to
// defaults.
func Load() (*Config, *SystemConfig, error) {
	appPath := "config.json"
	if _, err := os.Stat(appPath); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("config file '%s' not found. please create one", appPath)
	}

	appFile, err := os.ReadFile(appPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(appFile, &cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	sysCfg := LoadSystemConfig("system.json")

	return &cfg, sysCfg, nil
}

// LoadSystemConfig attempts to load system settings, returns defaults if it fails.
func LoadSystemConfig(path string) *SystemConfig {
	cfg := DefaultSystemConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}

	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(file, cfg); err != nil {
		return cfg
	}

	return cfg
}

// FromEnv returns value unless it is empty, in which case the named
// environment variable is consulted. Lets secrets stay out of config.json.
func FromEnv(value, envKey string) string {
	if value != "" {
		return value
	}
	return os.Getenv(envKey)
}
