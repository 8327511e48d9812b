package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"syncshield/internal/config"
	"syncshield/internal/infrastructure/notifier"
	"syncshield/internal/metrics"
	"syncshield/internal/server"
	"syncshield/internal/transport/bot"
	"syncshield/internal/transport/bot/handler"
	"syncshield/pkg/application/connectors"
	"syncshield/pkg/application/modules"
	"syncshield/pkg/logx"
)

const readHeaderTimeout = 5 * time.Second

// Application owns the shared connections. Components are built on demand
// so one-shot commands only open what they use.
type Application struct {
	cfg      config.Config
	postgres *connectors.Postgres
	redis    *connectors.Redis

	asynqClient *asynq.Client
}

func New(cfg config.Config) *Application {
	return &Application{
		cfg: cfg,
		postgres: &connectors.Postgres{
			DSN:             cfg.Postgres.DSN,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		},
		redis: &connectors.Redis{
			Address:            cfg.Redis.Address,
			Username:           cfg.Redis.Username,
			Password:           cfg.Redis.Password,
			DatabaseNumber:     cfg.Redis.DatabaseNumber,
			PoolSize:           cfg.Redis.PoolSize,
			MinIdleConnections: 1,
			MaxIdleConnections: cfg.Redis.PoolSize,
		},
	}
}

// Run serves the bid API, the reallocation loop and the operator surfaces
// until ctx is done or one of the modules fails.
func (a *Application) Run(ctx context.Context) error {
	defer a.Close(ctx)

	registry := metrics.New(prometheus.DefaultRegisterer)

	telegramBot, alerts, err := a.newNotifier(ctx)
	if err != nil {
		return err
	}

	values := a.newValueService()
	bidGuard := a.newGuard(ctx, registry, values)
	dispatcher := a.newDispatcher(registry, bidGuard)

	monitor, err := a.newMonitor(ctx, registry, values, alerts)
	if err != nil {
		return err
	}

	ledger := a.newLedger(ctx)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := dispatcher.Run(ctx); err != nil {
			return fmt.Errorf("dispatcher.Run: %w", err)
		}

		return nil
	})

	if a.cfg.Optimizer.AutoStart {
		if err := monitor.Start(ctx); err != nil {
			return fmt.Errorf("monitor.Start: %w", err)
		}

		g.Go(func() error {
			<-ctx.Done()
			monitor.Stop()

			return nil
		})
	}

	router := server.NewRouter(
		server.NewServer(
			server.NewBidServer(bidGuard, dispatcher),
			server.NewBudgetServer(monitor, ledger),
		),
		a.cfg.Servers.LogFieldMaxLen,
	)

	modules.HTTPServer{ShutdownTimeout: a.cfg.Servers.ShutdownTimeout}.Run(ctx, g, &http.Server{
		//nolint:exhaustruct
		Addr:              a.cfg.Servers.HTTPAddress,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	})

	modules.MetricServer{ListenAddress: a.cfg.Servers.MetricsAddress}.Run(ctx, g)

	modules.ProbeServer{
		Name:          a.cfg.App.Name,
		Version:       a.cfg.App.Version,
		ListenAddress: a.cfg.Servers.ProbeAddress,
	}.Run(ctx, g)

	if a.cfg.Redis.Enabled() {
		modules.AsynqServer{
			RedisUsername: a.cfg.Redis.Username,
			RedisPassword: a.cfg.Redis.Password,
			RedisAddress:  a.cfg.Redis.Address,
			RedisDB:       a.cfg.Redis.DatabaseNumber,
		}.Run(ctx, g,
			modules.AsynqQueues{a.cfg.Redis.AlertQueue: 1},
			modules.AsynqHandler{
				Pattern: notifier.TypeBudgetAlert,
				Handle:  notifier.HandleBudgetAlert(telegramBot),
			},
		)
	}

	if a.cfg.Bot.AdminEnabled() {
		adminBot, err := bot.New(a.cfg.Bot.Token, a.cfg.Bot.AdminID, handler.New(monitor, dispatcher, ledger))
		if err != nil {
			return fmt.Errorf("bot.New: %w", err)
		}

		g.Go(func() error {
			if err := adminBot.Run(ctx); err != nil {
				return fmt.Errorf("adminBot.Run: %w", err)
			}

			return nil
		})
	}

	logger(ctx).Info("application started",
		slog.String("name", a.cfg.App.Name),
		slog.String("version", a.cfg.App.Version),
		slog.Bool("redis", a.cfg.Redis.Enabled()),
		slog.Bool("optimizer-autostart", a.cfg.Optimizer.AutoStart),
	)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("g.Wait: %w", err)
	}

	return nil
}

// Close releases every connection that was opened.
func (a *Application) Close(ctx context.Context) {
	if a.asynqClient != nil {
		if err := a.asynqClient.Close(); err != nil {
			logger(ctx).Error("asynqClient.Close", logx.Error(err))
		}

		a.asynqClient = nil
	}

	if a.redis.Opened() {
		a.redis.Close(ctx)
	}

	if a.postgres.Opened() {
		a.postgres.Close(ctx)
	}
}
