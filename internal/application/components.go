package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"syncshield/internal/domain/service/guard"
	"syncshield/internal/infrastructure/cache"
	"syncshield/internal/infrastructure/collaborator"
	"syncshield/internal/infrastructure/costsource"
	"syncshield/internal/infrastructure/notifier"
	"syncshield/internal/infrastructure/persistence"
	"syncshield/internal/metrics"
	"syncshield/internal/worker"
)

func (a *Application) collaboratorConfig(name, baseURL string) collaborator.Config {
	return collaborator.Config{
		Name:        name,
		BaseURL:     baseURL,
		Token:       a.cfg.Collaborators.Token,
		LogTraffic:  a.cfg.Collaborators.LogTraffic,
		MaxFailures: a.cfg.Collaborators.BreakerMaxFailures,
		OpenTimeout: a.cfg.Collaborators.BreakerOpenTimeout,
	}
}

func (a *Application) newValueService() *collaborator.ValueService {
	return collaborator.NewValueService(collaborator.NewClient(
		a.collaboratorConfig("value-prediction", a.cfg.Collaborators.ValueServiceURL),
	))
}

func (a *Application) newStrategyService() *collaborator.StrategyService {
	return collaborator.NewStrategyService(collaborator.NewClient(
		a.collaboratorConfig("strategy-planning", a.cfg.Collaborators.StrategyServiceURL),
	))
}

// newGuard puts the user value cache in front of the prediction service:
// Redis when configured, process memory otherwise.
func (a *Application) newGuard(
	ctx context.Context,
	registry *metrics.Registry,
	values *collaborator.ValueService,
) *guard.Guard {
	var store cache.Store = cache.NewMemoryStore(a.cfg.Redis.ValueCacheTTL)

	if a.cfg.Redis.Enabled() {
		store = cache.NewRedisStore(a.redis.Client(ctx))
	}

	predictor := cache.NewPredictor(values, store, a.cfg.Redis.ValueCacheTTL)

	return guard.New(predictor, registry).WithConfig(a.cfg.Bidding.Guard())
}

func (a *Application) newDispatcher(registry *metrics.Registry, bidGuard *guard.Guard) *worker.BidDispatcher {
	return worker.NewBidDispatcher(
		a.newStrategyService(),
		bidGuard,
		registry,
		a.cfg.Bidding.Dispatcher(),
	)
}

// newCostSource prefers COST_FILE over the platform_costs table.
func (a *Application) newCostSource(ctx context.Context) (worker.CostDataSource, error) {
	if a.cfg.Optimizer.CostFile != "" {
		file, err := costsource.Load(a.cfg.Optimizer.CostFile)
		if err != nil {
			return nil, fmt.Errorf("costsource.Load: %w", err)
		}

		logger(ctx).Info("platform costs loaded from file",
			slog.String("path", a.cfg.Optimizer.CostFile),
			slog.Int("platforms", len(file.Costs())),
		)

		return file, nil
	}

	return persistence.NewPlatformCostRepository(a.postgres.Client(ctx)), nil
}

func (a *Application) newLedger(ctx context.Context) *persistence.LedgerRepository {
	return persistence.NewLedgerRepository(a.postgres.Client(ctx))
}

// newNotifier returns the bot that talks to Telegram and the notifier the
// monitor should use. With Redis, alerts go through the asynq queue and the
// bot only serves the task handler.
func (a *Application) newNotifier(ctx context.Context) (*notifier.TelegramBot, worker.Notifier, error) {
	telegramBot, err := notifier.NewTelegramBot(a.cfg.Bot.Token, a.cfg.Bot.ChatID)
	if err != nil {
		return nil, nil, fmt.Errorf("notifier.NewTelegramBot: %w", err)
	}

	if !a.cfg.Redis.Enabled() {
		return telegramBot, telegramBot, nil
	}

	a.asynqClient = asynq.NewClient(asynq.RedisClientOpt{
		Addr:     a.cfg.Redis.Address,
		Username: a.cfg.Redis.Username,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DatabaseNumber,
	})

	logger(ctx).Info("budget alerts routed through queue", slog.String("queue", a.cfg.Redis.AlertQueue))

	return telegramBot, notifier.NewAlertQueue(a.asynqClient, a.cfg.Redis.AlertQueue), nil
}

func (a *Application) newMonitor(
	ctx context.Context,
	registry *metrics.Registry,
	values *collaborator.ValueService,
	alerts worker.Notifier,
) (*worker.EfficiencyMonitor, error) {
	platforms, err := a.cfg.Optimizer.PlatformSet()
	if err != nil {
		return nil, fmt.Errorf("cfg.Optimizer.PlatformSet: %w", err)
	}

	costs, err := a.newCostSource(ctx)
	if err != nil {
		return nil, err
	}

	monitor := worker.NewEfficiencyMonitor(
		values,
		costs,
		a.newLedger(ctx),
		alerts,
		registry,
	).
		WithConfig(a.cfg.Optimizer.Monitor()).
		WithPlatforms(platforms...)

	return monitor, nil
}
