package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultSystemConfig(t *testing.T) {
	cfg := DefaultSystemConfig()

	if cfg.MaxToolIterations != 4 {
		t.Errorf("MaxToolIterations = %d, want 4", cfg.MaxToolIterations)
	}
	if cfg.MaxContextTurns != 5 {
		t.Errorf("MaxContextTurns = %d, want 5", cfg.MaxContextTurns)
	}
	if !cfg.EnableTools {
		t.Error("EnableTools should default to true")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestLoadSystemConfig(t *testing.T) {
	t.Run("missing file falls back to defaults", func(t *testing.T) {
		cfg := LoadSystemConfig(filepath.Join(t.TempDir(), "nope.json"))
		if cfg.MaxToolIterations != 4 {
			t.Errorf("MaxToolIterations = %d, want default 4", cfg.MaxToolIterations)
		}
	})

	t.Run("corrupt file falls back to defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "system.json")
		os.WriteFile(path, []byte("{not json"), 0644)
		cfg := LoadSystemConfig(path)
		if cfg.MaxContextTurns != 5 {
			t.Errorf("MaxContextTurns = %d, want default 5", cfg.MaxContextTurns)
		}
	})

	t.Run("partial file overrides only its keys", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "system.json")
		os.WriteFile(path, []byte(`{"max_tool_iterations": 7}`), 0644)
		cfg := LoadSystemConfig(path)
		if cfg.MaxToolIterations != 7 {
			t.Errorf("MaxToolIterations = %d, want 7", cfg.MaxToolIterations)
		}
		if cfg.MaxContextTurns != 5 {
			t.Errorf("MaxContextTurns = %d, want untouched default 5", cfg.MaxContextTurns)
		}
	})
}

func TestLoad(t *testing.T) {
	t.Run("missing config.json is an error", func(t *testing.T) {
		t.Chdir(t.TempDir())
		if _, _, err := Load(); err == nil {
			t.Fatal("expected error for missing config.json")
		}
	})

	t.Run("missing llm section is rejected", func(t *testing.T) {
		dir := t.TempDir()
		os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"system_prompt":"hi"}`), 0644)
		t.Chdir(dir)
		if _, _, err := Load(); err == nil {
			t.Fatal("expected validation error for missing llm config")
		}
	})

	t.Run("valid config loads with default system settings", func(t *testing.T) {
		dir := t.TempDir()
		payload := `{
			"llm": [{"type": "ollama", "models": ["llama3"]}],
			"channels": {"web": {"port": 9000}},
			"system_prompt": "be nice"
		}`
		os.WriteFile(filepath.Join(dir, "config.json"), []byte(payload), 0644)
		t.Chdir(dir)

		cfg, sysCfg, err := Load()
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.SystemPrompt != "be nice" {
			t.Errorf("SystemPrompt = %q", cfg.SystemPrompt)
		}
		if len(cfg.Channels) != 1 {
			t.Errorf("got %d channels, want 1", len(cfg.Channels))
		}
		if sysCfg.MaxToolIterations != 4 {
			t.Errorf("system config should be defaults, got %+v", sysCfg)
		}
	})
}

func TestFromEnv(t *testing.T) {
	t.Setenv("CONCIERGE_TEST_SECRET", "from-env")

	if got := FromEnv("explicit", "CONCIERGE_TEST_SECRET"); got != "explicit" {
		t.Errorf("explicit value overridden: %q", got)
	}
	if got := FromEnv("", "CONCIERGE_TEST_SECRET"); got != "from-env" {
		t.Errorf("env fallback = %q, want from-env", got)
	}
	if got := FromEnv("", "CONCIERGE_TEST_UNSET"); got != "" {
		t.Errorf("unset env should yield empty, got %q", got)
	}
}
