package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchConfigSignalsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reload := WatchConfig(ctx, path)

	// Let the watch registration settle before the write
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte(`{"system_prompt":"updated"}`), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case _, ok := <-reload:
		if !ok {
			t.Fatal("reload channel closed before signaling")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload signal after file change")
	}
}

func TestWatchConfigClosesOnCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	reload := WatchConfig(ctx, path)
	cancel()

	select {
	case _, ok := <-reload:
		if ok {
			t.Fatal("expected a closed channel, got a signal")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("reload channel not closed after cancel")
	}
}
