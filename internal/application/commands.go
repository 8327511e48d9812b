package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"syncshield/internal/domain/entity"
	"syncshield/internal/infrastructure/costsource"
	"syncshield/internal/infrastructure/notifier"
	"syncshield/internal/infrastructure/persistence"
	"syncshield/internal/metrics"
)

var errNoCosts = errors.New("cost file lists no platforms")

// Report computes one efficiency snapshot without starting any loop.
func (a *Application) Report(ctx context.Context) (entity.EfficiencyReport, error) {
	telegramBot, err := notifier.NewTelegramBot(a.cfg.Bot.Token, a.cfg.Bot.ChatID)
	if err != nil {
		return entity.EfficiencyReport{}, fmt.Errorf("notifier.NewTelegramBot: %w", err)
	}

	monitor, err := a.newMonitor(ctx, metrics.NewNop(), a.newValueService(), telegramBot)
	if err != nil {
		return entity.EfficiencyReport{}, err
	}

	report, err := monitor.GetEfficiencyReport(ctx)
	if err != nil {
		return report, fmt.Errorf("monitor.GetEfficiencyReport: %w", err)
	}

	return report, nil
}

// ImportCosts copies a YAML cost file into platform_costs in one
// transaction.
func (a *Application) ImportCosts(ctx context.Context, path string) (int, error) {
	file, err := costsource.Load(path)
	if err != nil {
		return 0, fmt.Errorf("costsource.Load: %w", err)
	}

	costs := file.Costs()
	if len(costs) == 0 {
		return 0, errNoCosts
	}

	repo := persistence.NewPlatformCostRepository(a.postgres.Client(ctx))

	if err := repo.Upsert(ctx, costs); err != nil {
		return 0, fmt.Errorf("repo.Upsert: %w", err)
	}

	logger(ctx).Info("platform costs imported", slog.String("path", path), slog.Int("platforms", len(costs)))

	return len(costs), nil
}
