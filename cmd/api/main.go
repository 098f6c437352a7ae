package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/exp/slog"

	"github.com/inzamam-virk/lottery-app/api/routes"
	"github.com/inzamam-virk/lottery-app/internal/bootstrap"
	"github.com/inzamam-virk/lottery-app/internal/config"
	"github.com/inzamam-virk/lottery-app/internal/handlers"
	"github.com/inzamam-virk/lottery-app/internal/realtime"
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

	hub := realtime.NewHub()
	go hub.Run(ctx)

	app, err := bootstrap.New(ctx, cfg, hub)
	if err != nil {
		slog.Error("Failed to initialise application", "error", err)
		os.Exit(1)
	}
	defer app.Close(context.Background())

	router := routes.SetupRouter(cfg, routes.HandlerDependencies{
		DrawHandler: handlers.NewDrawHandler(app.Draws, app.Settlement, app.Bets, app.Clock, app.Policy.Location),
		BetHandler:  handlers.NewBetHandler(app.Bets),
		Results:     hub.ServeWS,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		slog.Info("Server starting", "port", cfg.Server.Port, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	slog.Info("Server exiting")
}
