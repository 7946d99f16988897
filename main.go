package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"concierge/pkg/agent"
	"concierge/pkg/channels"
	_ "concierge/pkg/channels/autoload"
	"concierge/pkg/config"
	"concierge/pkg/gateway"
	"concierge/pkg/history"
	"concierge/pkg/llm"
	_ "concierge/pkg/llm/autoload"
	"concierge/pkg/monitor"
)

func main() {
	monitor.PrintBanner()

	cfg, sysCfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	monitor.SetupSlog(sysCfg.LogLevel)

	gw, store, err := build(cfg, sysCfg)
	if err != nil {
		slog.Error("Startup failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloadCh := config.WatchConfig(ctx, "config.json", "system.json")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-sigChan:
			slog.Info("Received shutdown signal, stopping services")
			gw.StopAll()
			store.Close()
			slog.Info("Bye!")
			return

		case <-reloadCh:
			slog.Info("Configuration changed, restarting services")
			gw.StopAll()
			store.Close()

			newCfg, newSysCfg, err := config.Load()
			if err != nil {
				slog.Error("Reload failed, keeping old process alive", "error", err)
				os.Exit(1)
			}
			monitor.SetupSlog(newSysCfg.LogLevel)

			gw, store, err = build(newCfg, newSysCfg)
			if err != nil {
				slog.Error("Restart after reload failed", "error", err)
				os.Exit(1)
			}
		}
	}
}

// build wires the full stack: store, completion client, gateway, channels.
func build(cfg *config.Config, sysCfg *config.SystemConfig) (*gateway.Manager, history.Store, error) {
	store, err := history.NewFromConfig(cfg.Storage)
	if err != nil {
		return nil, nil, err
	}

	connectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Connect(connectCtx); err != nil {
		return nil, nil, err
	}
	slog.Info("History store ready", "type", store.Type())

	client, err := llm.NewFromConfig(cfg.LLM, sysCfg)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	gw := gateway.NewManager(agent.BuildDeps{
		Client: client,
		Store:  store,
		AppCfg: cfg,
		SysCfg: sysCfg,
	})

	mon := monitor.NewCLIMonitor()
	if err := mon.Start(); err != nil {
		slog.Warn("Failed to start CLI monitor", "error", err)
	} else {
		gw.SetMonitor(mon)
	}

	channels.LoadFromConfig(gw, cfg.Channels, sysCfg)

	if err := gw.StartAll(); err != nil {
		gw.StopAll()
		store.Close()
		return nil, nil, err
	}

	slog.Info("Service started", "agent_kinds", agent.Kinds(), "storage", store.Type())
	return gw, store, nil
}
