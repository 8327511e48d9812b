package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"syncshield/internal/domain/entity"
	"syncshield/internal/domain/service/efficiency"
	"syncshield/internal/domain/value"
	"syncshield/internal/metrics"
	"syncshield/pkg/logx"
)

const sideEffectTimeout = 10 * time.Second

var (
	ErrCycleInProgress = errors.New("reallocation cycle already in progress")
	ErrNoPlatformData  = errors.New("no platform data available")
	ErrMonitorRunning  = errors.New("monitor is already running")
)

type PlatformValuePredictor interface {
	PredictPlatformValue(ctx context.Context, platform value.Platform, lookbackDays int) (entity.PlatformValue, error)
}

type CostDataSource interface {
	GetPlatformCost(ctx context.Context, platform value.Platform) (float64, error)
	GetPlatformDailyBudget(ctx context.Context, platform value.Platform) (float64, error)
}

type Ledger interface {
	RecordReallocation(ctx context.Context, event entity.ReallocationEvent) (entity.LedgerReceipt, error)
}

type Notifier interface {
	SendBudgetAlert(ctx context.Context, alert entity.BudgetAlert) (entity.NotificationReceipt, error)
}

type MonitorConfig struct {
	EfficiencyThreshold float64
	ReallocationPercent float64
	CheckInterval       time.Duration
	LookbackDays        int
	// FetchRatePerSecond paces collaborator calls; zero disables pacing.
	FetchRatePerSecond float64
	// FetchTimeout bounds the collaborator calls for one platform. A
	// platform that runs out of time is skipped for the cycle.
	FetchTimeout time.Duration
}

func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		EfficiencyThreshold: 0.15,
		ReallocationPercent: 0.20,
		CheckInterval:       5 * time.Minute,
		LookbackDays:        30,
		FetchRatePerSecond:  20,
		FetchTimeout:        5 * time.Second,
	}
}

// EfficiencyMonitor periodically ranks platforms by value/cost and moves a
// fraction of every underperformer's daily budget to the best platform.
type EfficiencyMonitor struct {
	values   PlatformValuePredictor
	costs    CostDataSource
	ledger   Ledger
	notifier Notifier
	metrics  *metrics.Registry

	cfg       MonitorConfig
	platforms []value.Platform
	limiter   *rate.Limiter
	now       func() time.Time

	// cycleMu serializes cycles and on-demand reports. shifts and bases are
	// only touched while it is held. A platform's shift is dropped once its
	// source budget differs from the base it was committed against.
	cycleMu sync.Mutex
	shifts  map[value.Platform]float64
	bases   map[value.Platform]float64

	stateMu    sync.RWMutex
	lastReport entity.EfficiencyReport
	lastCycle  time.Time

	// Control fields
	mu         sync.Mutex
	cancelFunc context.CancelFunc
	isRunning  bool
	wg         sync.WaitGroup
	cycles     sync.WaitGroup
}

func NewEfficiencyMonitor(
	values PlatformValuePredictor,
	costs CostDataSource,
	ledger Ledger,
	notifier Notifier,
	m *metrics.Registry,
) *EfficiencyMonitor {
	mon := &EfficiencyMonitor{
		values:    values,
		costs:     costs,
		ledger:    ledger,
		notifier:  notifier,
		metrics:   m,
		platforms: value.AllPlatforms(),
		now:       time.Now,
		shifts:    make(map[value.Platform]float64),
		bases:     make(map[value.Platform]float64),
	}

	return mon.WithConfig(DefaultMonitorConfig())
}

func (m *EfficiencyMonitor) WithConfig(cfg MonitorConfig) *EfficiencyMonitor {
	m.cfg = cfg

	limit := rate.Inf
	if cfg.FetchRatePerSecond > 0 {
		limit = rate.Limit(cfg.FetchRatePerSecond)
	}
	m.limiter = rate.NewLimiter(limit, 1)

	return m
}

func (m *EfficiencyMonitor) WithPlatforms(platforms ...value.Platform) *EfficiencyMonitor {
	m.platforms = dedupPlatforms(platforms)
	return m
}

func (m *EfficiencyMonitor) WithClock(now func() time.Time) *EfficiencyMonitor {
	m.now = now
	return m
}

func (m *EfficiencyMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isRunning {
		return ErrMonitorRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	m.isRunning = true

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer func() {
			m.mu.Lock()
			m.isRunning = false
			m.cancelFunc = nil
			m.mu.Unlock()
		}()

		if err := m.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger(ctx).Error("efficiency monitor stopped", logx.Error(err))
		}
	}()

	return nil
}

// Stop cancels the loop and waits for an in-flight cycle to finish.
func (m *EfficiencyMonitor) Stop() {
	m.mu.Lock()

	if !m.isRunning {
		m.mu.Unlock()
		return
	}

	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	m.mu.Unlock()

	m.wg.Wait()
}

func (m *EfficiencyMonitor) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isRunning
}

// Run blocks until ctx is done. The first cycle starts immediately; ticks
// that arrive while a cycle is still running are dropped.
func (m *EfficiencyMonitor) Run(ctx context.Context) error {
	logger(ctx).Info("efficiency monitor started",
		slog.Duration("interval", m.cfg.CheckInterval),
		slog.Any("platforms", m.platforms),
	)

	ticker := time.NewTicker(m.cfg.CheckInterval)
	defer ticker.Stop()

	m.trigger(ctx)

	for {
		select {
		case <-ctx.Done():
			m.cycles.Wait()
			logger(ctx).Info("efficiency monitor stopped")
			return ctx.Err()
		case <-ticker.C:
			m.trigger(ctx)
		}
	}
}

func (m *EfficiencyMonitor) trigger(ctx context.Context) {
	m.cycles.Add(1)

	go func() {
		defer m.cycles.Done()

		_, err := m.RunCycle(ctx)
		switch {
		case err == nil:
		case errors.Is(err, ErrCycleInProgress):
			logger(ctx).Warn("previous reallocation cycle still running, tick skipped")
		case ctx.Err() != nil:
		default:
			logger(ctx).Error("reallocation cycle failed", logx.Error(err))
		}
	}()
}

// RunCycle executes one full cycle. It never waits for a running cycle:
// ErrCycleInProgress is returned instead.
func (m *EfficiencyMonitor) RunCycle(ctx context.Context) (entity.CycleResult, error) {
	if !m.cycleMu.TryLock() {
		m.metrics.Cycles.WithLabelValues("skipped").Inc()
		return entity.CycleResult{}, ErrCycleInProgress
	}
	defer m.cycleMu.Unlock()

	started := m.now()
	defer func() {
		m.metrics.CycleDuration.Observe(m.now().Sub(started).Seconds())
	}()

	report, err := m.collect(ctx)
	if err != nil {
		m.metrics.Cycles.WithLabelValues("failed").Inc()
		return entity.CycleResult{Report: report}, err
	}

	result := entity.CycleResult{Report: report}

	if !report.HasUnderperformers() {
		m.metrics.Cycles.WithLabelValues("healthy").Inc()
		logger(ctx).Debug("all platforms within efficiency threshold",
			slog.Float64("mean-efficiency", report.MeanEfficiency),
		)
		result.Duration = m.now().Sub(started)
		return result, nil
	}

	best, _ := report.Platform(report.Best)

	for _, p := range report.Underperformers {
		under, _ := report.Platform(p)

		event, failures, ok := m.reallocate(ctx, under, best)
		if !ok {
			continue
		}

		result.Reallocations = append(result.Reallocations, event)
		result.SideEffectFailures += failures
	}

	m.metrics.Cycles.WithLabelValues("reallocated").Inc()
	result.Duration = m.now().Sub(started)

	logger(ctx).Info("reallocation cycle completed",
		slog.Int("reallocations", len(result.Reallocations)),
		slog.Int("side-effect-failures", result.SideEffectFailures),
		slog.String("best", report.Best.String()),
	)

	return result, nil
}

// GetEfficiencyReport recomputes the snapshot on demand. It waits for a
// running cycle so it never sees a partially applied reallocation.
func (m *EfficiencyMonitor) GetEfficiencyReport(ctx context.Context) (entity.EfficiencyReport, error) {
	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()

	return m.collect(ctx)
}

func (m *EfficiencyMonitor) LastReport() (entity.EfficiencyReport, time.Time) {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.lastReport, m.lastCycle
}

// collect requires cycleMu.
func (m *EfficiencyMonitor) collect(ctx context.Context) (entity.EfficiencyReport, error) {
	fetched := make([]entity.PlatformEfficiency, 0, len(m.platforms))

	var failed []value.Platform

	for _, p := range m.platforms {
		if err := ctx.Err(); err != nil {
			return entity.EfficiencyReport{}, err
		}

		pe, err := m.fetchPlatform(ctx, p)
		if err != nil {
			if ctx.Err() != nil {
				return entity.EfficiencyReport{}, ctx.Err()
			}

			logger(ctx).Warn("platform skipped for this cycle",
				slog.String("platform", p.String()),
				logx.Error(err),
			)
			m.metrics.FetchFailures.WithLabelValues(p.String()).Inc()
			failed = append(failed, p)
			continue
		}

		m.metrics.ObservePlatform(p, pe.Efficiency, pe.DailyBudget)
		fetched = append(fetched, pe)
	}

	report := efficiency.Analyze(fetched, failed, m.cfg.EfficiencyThreshold, m.now())

	m.stateMu.Lock()
	m.lastReport = report
	m.lastCycle = report.GeneratedAt
	m.stateMu.Unlock()

	if len(fetched) == 0 {
		return report, ErrNoPlatformData
	}

	m.metrics.MeanEfficiency.Set(report.MeanEfficiency)
	m.metrics.Underperformers.Set(float64(len(report.Underperformers)))

	for _, p := range report.Underperformers {
		pe, _ := report.Platform(p)
		logger(ctx).Warn("underperforming platform",
			slog.String("platform", p.String()),
			slog.Float64("efficiency", pe.Efficiency),
			slog.Float64("cutoff", report.Cutoff),
			slog.String("deviation", fmt.Sprintf("%.1f%%", efficiency.DeviationPercent(pe.Efficiency, report.MeanEfficiency))),
		)
	}

	return report, nil
}

func (m *EfficiencyMonitor) fetchPlatform(ctx context.Context, p value.Platform) (entity.PlatformEfficiency, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return entity.PlatformEfficiency{}, fmt.Errorf("limiter.Wait: %w", err)
	}

	if m.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, m.cfg.FetchTimeout)
		defer cancel()
	}

	pv, err := m.values.PredictPlatformValue(ctx, p, m.cfg.LookbackDays)
	if err != nil {
		return entity.PlatformEfficiency{}, fmt.Errorf("values.PredictPlatformValue: %w", err)
	}

	cost, err := m.costs.GetPlatformCost(ctx, p)
	if err != nil {
		return entity.PlatformEfficiency{}, fmt.Errorf("costs.GetPlatformCost: %w", err)
	}

	budget, err := m.costs.GetPlatformDailyBudget(ctx, p)
	if err != nil {
		return entity.PlatformEfficiency{}, fmt.Errorf("costs.GetPlatformDailyBudget: %w", err)
	}

	m.rebase(ctx, p, budget)

	pe, err := efficiency.Compute(p, pv.Average, cost, budget+m.shifts[p])
	if err != nil {
		return entity.PlatformEfficiency{}, fmt.Errorf("efficiency.Compute: %w", err)
	}

	return pe, nil
}

// rebase forgets the committed shift of a platform whose source budget was
// changed outside the monitor, for example by import-costs.
func (m *EfficiencyMonitor) rebase(ctx context.Context, p value.Platform, budget float64) {
	base, seen := m.bases[p]
	m.bases[p] = budget

	if !seen || base == budget || m.shifts[p] == 0 {
		return
	}

	logger(ctx).Info("source budget changed, committed shift dropped",
		slog.String("platform", p.String()),
		slog.Float64("previous-budget", base),
		slog.Float64("budget", budget),
		slog.Float64("dropped-shift", m.shifts[p]),
	)

	delete(m.shifts, p)
}

// reallocate commits the shift in memory first. Ledger and alert failures
// are counted and logged but never undo it.
func (m *EfficiencyMonitor) reallocate(
	ctx context.Context,
	under, best entity.PlatformEfficiency,
) (entity.ReallocationEvent, int, bool) {
	amount := efficiency.ShiftAmount(under.DailyBudget, m.cfg.ReallocationPercent)
	if amount <= 0 || under.Platform == best.Platform {
		logger(ctx).Warn("nothing to reallocate",
			slog.String("platform", under.Platform.String()),
			slog.Float64("daily-budget", under.DailyBudget),
		)
		return entity.ReallocationEvent{}, 0, false
	}

	event := entity.ReallocationEvent{
		ID:        uuid.NewString(),
		From:      under.Platform,
		To:        best.Platform,
		Amount:    amount,
		Timestamp: m.now(),
	}

	m.shifts[under.Platform] -= amount
	m.shifts[best.Platform] += amount
	m.metrics.ObserveShift(event.From, event.To, amount)

	logger(ctx).Info("budget reallocated",
		slog.String("from", event.From.String()),
		slog.String("to", event.To.String()),
		slog.Float64("amount", amount),
	)

	sideCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	failures := 0

	receipt, err := m.ledger.RecordReallocation(sideCtx, event)
	if err == nil && !receipt.Success {
		err = errors.New("ledger rejected the record")
	}

	if err != nil {
		failures++
		m.metrics.SideEffectFails.WithLabelValues("ledger").Inc()
		logger(ctx).Error("ledger record failed", slog.String("event-id", event.ID), logx.Error(err))
	} else {
		event.LedgerRef = receipt.ReferenceID
	}

	alert := entity.BudgetAlert{
		Platforms: []value.Platform{under.Platform, best.Platform},
		Amount:    amount,
		Efficiencies: map[value.Platform]float64{
			under.Platform: under.Efficiency,
			best.Platform:  best.Efficiency,
		},
	}

	notification, err := m.notifier.SendBudgetAlert(sideCtx, alert)
	if err == nil && !notification.Success {
		err = errors.New("notification was not accepted")
	}

	if err != nil {
		failures++
		m.metrics.SideEffectFails.WithLabelValues("alert").Inc()
		logger(ctx).Error("budget alert failed", slog.String("event-id", event.ID), logx.Error(err))
	}

	return event, failures, true
}
