package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/exp/slog"

	"github.com/inzamam-virk/lottery-app/internal/bootstrap"
	"github.com/inzamam-virk/lottery-app/internal/config"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(config.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, nil)
	if err != nil {
		slog.Error("Failed to initialise application", "error", err)
		os.Exit(1)
	}
	defer app.Close(context.Background())

	slog.Info("Scheduler starting", "interval", cfg.Jobs.Interval, "store", cfg.Store.Driver)
	ticker := time.NewTicker(cfg.Jobs.Interval)
	defer ticker.Stop()

	for {
		if err := app.Tick(ctx); err != nil {
			slog.Error("Scheduler tick failed", "error", err)
		}
		select {
		case <-ctx.Done():
			slog.Info("Scheduler exiting")
			return
		case <-ticker.C:
		}
	}
}
