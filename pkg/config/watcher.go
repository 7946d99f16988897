package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce coalesces the event bursts editors produce on save
// (write, chmod, atomic rename) into one reload signal.
const reloadDebounce = 500 * time.Millisecond

// WatchConfig watches the given files and signals on the returned channel
// after a debounced change. The channel is closed when ctx is canceled.
// Signals are dropped, never queued: a pending reload absorbs later ones.
func WatchConfig(ctx context.Context, files ...string) <-chan struct{} {
	reload := make(chan struct{}, 1)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Error("Config watcher unavailable, hot reload disabled", "error", err)
		return reload
	}

	for _, file := range files {
		path, err := filepath.Abs(file)
		if err != nil {
			slog.Warn("Cannot resolve config path", "file", file, "error", err)
			continue
		}
		if err := watcher.Add(path); err != nil {
			slog.Warn("Cannot watch config file", "file", path, "error", err)
			continue
		}
		slog.Debug("Watching configuration file", "file", path)
	}

	go func() {
		defer watcher.Close()
		defer close(reload)

		// Nil until a change arrives; each further change pushes it out
		var debounce <-chan time.Time
		var changed string

		for {
			select {
			case <-ctx.Done():
				return

			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
					continue
				}
				changed = ev.Name
				debounce = time.After(reloadDebounce)

			case <-debounce:
				debounce = nil
				slog.Info("Configuration change detected", "file", changed)
				select {
				case reload <- struct{}{}:
				default:
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Error("Config watcher error", "error", err)
			}
		}
	}()

	return reload
}
