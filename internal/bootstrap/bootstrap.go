// Package bootstrap wires the record store, locker and services from configuration.
package bootstrap

import (
	"context"
	"fmt"

	"golang.org/x/exp/slog"

	"github.com/inzamam-virk/lottery-app/internal/clock"
	"github.com/inzamam-virk/lottery-app/internal/config"
	"github.com/inzamam-virk/lottery-app/internal/lock"
	"github.com/inzamam-virk/lottery-app/internal/repositories"
	"github.com/inzamam-virk/lottery-app/internal/repositories/memory"
	mongorepo "github.com/inzamam-virk/lottery-app/internal/repositories/mongodb"
	"github.com/inzamam-virk/lottery-app/internal/repositories/postgres"
	"github.com/inzamam-virk/lottery-app/internal/services"
	"github.com/inzamam-virk/lottery-app/pkg/mongodb"
)

// App holds the wired services and the cleanup for their backing resources.
type App struct {
	Config     *config.Config
	Policy     *clock.Policy
	Clock      clock.Clock
	Store      repositories.Store
	Draws      *services.DrawServiceImpl
	Bets       *services.BetServiceImpl
	Settlement *services.SettlementServiceImpl

	closers []func(context.Context) error
}

// New opens the configured store and locker and builds the services.
// publisher may be nil.
func New(ctx context.Context, cfg *config.Config, publisher services.Publisher) (*App, error) {
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Policy: policy, Clock: clock.System{}}

	if err := app.openStore(ctx); err != nil {
		app.Close(ctx)
		return nil, err
	}
	locker, err := app.openLocker(ctx)
	if err != nil {
		app.Close(ctx)
		return nil, err
	}

	opts := []services.SettlementOption{services.WithLocker(locker), services.WithRefundNote(cfg.Lottery.RefundNote)}
	if publisher != nil {
		opts = append(opts, services.WithPublisher(publisher))
	}
	app.Draws = services.NewDrawService(app.Store.Draws, policy, app.Clock, publisher)
	app.Bets = services.NewBetService(app.Store.Draws, app.Store.Bets, app.Store.Refunds, policy, app.Clock)
	app.Settlement = services.NewSettlementService(app.Store, policy, app.Clock, opts...)
	return app, nil
}

func (a *App) openStore(ctx context.Context) error {
	cfg := a.Config
	switch cfg.Store.Driver {
	case "mongodb":
		client, err := mongodb.NewClient(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, client.Disconnect)
		db := client.Database(cfg.MongoDB.Database)
		if err := mongorepo.EnsureIndexes(ctx, db); err != nil {
			return fmt.Errorf("failed to ensure indexes: %w", err)
		}
		a.Store = mongorepo.NewStore(db)

	case "postgres":
		db, err := postgres.Open(cfg.Postgres.DSN, cfg.Postgres.MaxOpenConns, cfg.Postgres.MaxIdleConns)
		if err != nil {
			return err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func(context.Context) error { return sqlDB.Close() })
		if err := postgres.Migrate(db); err != nil {
			return err
		}
		a.Store = postgres.NewStore(db)

	case "memory":
		slog.Warn("Using the in-memory store; data is lost on restart")
		a.Store = memory.NewStore().Repositories()

	default:
		return fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	slog.Info("Record store ready", "driver", cfg.Store.Driver)
	return nil
}

func (a *App) openLocker(ctx context.Context) (lock.Locker, error) {
	cfg := a.Config.Redis
	if cfg.Addr == "" {
		slog.Info("Redis not configured, settlement locks are process-local")
		return lock.NewLocal(), nil
	}
	locker, err := lock.NewRedisLocker(ctx, cfg.Addr, cfg.Password, cfg.DB, cfg.LockTTL)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return locker.Close() })
	slog.Info("Redis locker ready", "addr", cfg.Addr)
	return locker, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			slog.Error("Failed to close resource", "error", err)
		}
	}
	a.closers = nil
}

// Tick schedules the next draw and settles every due draw.
func (a *App) Tick(ctx context.Context) error {
	if _, err := a.Draws.ScheduleNextDraw(ctx); err != nil {
		return fmt.Errorf("schedule draws: %w", err)
	}
	result, err := a.Settlement.RunDueDraws(ctx, a.Clock.Now())
	if err != nil {
		return fmt.Errorf("run draws: %w", err)
	}
	if result.ProcessedCount > 0 {
		slog.Info("Settled due draws", "count", result.ProcessedCount)
	}
	return nil
}
