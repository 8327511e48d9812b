package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"syncshield/internal/domain/entity"
	"syncshield/internal/domain/value"
	"syncshield/internal/metrics"
	"syncshield/internal/worker"
)

type platformData struct {
	value  float64
	cost   float64
	budget float64
	err    error
	// hang blocks the value call until the caller's context is done.
	hang bool
}

type collaboratorsStub struct {
	mu        sync.Mutex
	data      map[value.Platform]platformData
	fetches   int
	ledger    []entity.ReallocationEvent
	alerts    []entity.BudgetAlert
	ledgerErr error
	alertErr  error
	// ledgerGate blocks RecordReallocation until closed when set.
	ledgerGate chan struct{}
	ledgerHit  chan struct{}
}

func newCollaborators(data map[value.Platform]platformData) *collaboratorsStub {
	return &collaboratorsStub{data: data}
}

func (c *collaboratorsStub) PredictPlatformValue(ctx context.Context, p value.Platform, lookbackDays int) (entity.PlatformValue, error) {
	c.mu.Lock()
	c.fetches++
	d, ok := c.data[p]
	c.mu.Unlock()

	if lookbackDays != 30 {
		return entity.PlatformValue{}, errors.New("unexpected lookback")
	}

	if d.hang {
		<-ctx.Done()
		return entity.PlatformValue{}, ctx.Err()
	}

	if !ok {
		return entity.PlatformValue{}, errors.New("no data")
	}

	if d.err != nil {
		return entity.PlatformValue{}, d.err
	}

	return entity.PlatformValue{Average: d.value, SampleSize: 100}, nil
}

func (c *collaboratorsStub) GetPlatformCost(_ context.Context, p value.Platform) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data[p].cost, nil
}

func (c *collaboratorsStub) GetPlatformDailyBudget(_ context.Context, p value.Platform) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data[p].budget, nil
}

func (c *collaboratorsStub) RecordReallocation(_ context.Context, event entity.ReallocationEvent) (entity.LedgerReceipt, error) {
	if c.ledgerHit != nil {
		c.ledgerHit <- struct{}{}
	}

	if c.ledgerGate != nil {
		<-c.ledgerGate
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.ledger = append(c.ledger, event)

	if c.ledgerErr != nil {
		return entity.LedgerReceipt{}, c.ledgerErr
	}

	return entity.LedgerReceipt{Success: true, ReferenceID: "ref-" + event.ID}, nil
}

func (c *collaboratorsStub) SendBudgetAlert(_ context.Context, alert entity.BudgetAlert) (entity.NotificationReceipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.alerts = append(c.alerts, alert)

	if c.alertErr != nil {
		return entity.NotificationReceipt{}, c.alertErr
	}

	return entity.NotificationReceipt{Success: true, NotificationID: "n-1"}, nil
}

func (c *collaboratorsStub) setData(p value.Platform, d platformData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[p] = d
}

// referenceData yields efficiencies meta 2.5, tiktok 4.0, google 3.2, linkedin 2.2.
func referenceData() map[value.Platform]platformData {
	return map[value.Platform]platformData{
		value.PlatformMeta:     {value: 250, cost: 100, budget: 500},
		value.PlatformTikTok:   {value: 400, cost: 100, budget: 1000},
		value.PlatformGoogle:   {value: 320, cost: 100, budget: 800},
		value.PlatformLinkedIn: {value: 220, cost: 100, budget: 300},
	}
}

var referencePlatforms = []value.Platform{
	value.PlatformMeta,
	value.PlatformTikTok,
	value.PlatformGoogle,
	value.PlatformLinkedIn,
}

func newMonitor(c *collaboratorsStub, m *metrics.Registry) *worker.EfficiencyMonitor {
	cfg := worker.DefaultMonitorConfig()
	cfg.FetchRatePerSecond = 0

	return worker.NewEfficiencyMonitor(c, c, c, c, m).
		WithConfig(cfg).
		WithPlatforms(referencePlatforms...)
}

func TestEfficiencyMonitorRunCycle(t *testing.T) {
	rq := require.New(t)
	c := newCollaborators(referenceData())
	m := metrics.NewNop()

	result, err := newMonitor(c, m).RunCycle(context.Background())
	rq.NoError(err)

	rq.InDelta(2.975, result.Report.MeanEfficiency, 1e-9)
	rq.Equal([]value.Platform{value.PlatformMeta, value.PlatformLinkedIn}, result.Report.Underperformers)
	rq.Equal(value.PlatformTikTok, result.Report.Best)

	rq.Len(result.Reallocations, 2)
	rq.Len(c.ledger, 2)
	rq.Len(c.alerts, 2)
	rq.Zero(result.SideEffectFailures)

	rq.Equal(value.PlatformMeta, c.ledger[0].From)
	rq.Equal(value.PlatformTikTok, c.ledger[0].To)
	rq.InDelta(100, c.ledger[0].Amount, 1e-9)
	rq.Equal(value.PlatformLinkedIn, c.ledger[1].From)
	rq.InDelta(60, c.ledger[1].Amount, 1e-9)

	rq.Equal("ref-"+result.Reallocations[0].ID, result.Reallocations[0].LedgerRef)
	rq.Equal([]value.Platform{value.PlatformMeta, value.PlatformTikTok}, c.alerts[0].Platforms)
	rq.InDelta(2.5, c.alerts[0].Efficiencies[value.PlatformMeta], 1e-9)

	rq.InDelta(1, testutil.ToFloat64(m.Cycles.WithLabelValues("reallocated")), 0)
	rq.InDelta(100, testutil.ToFloat64(m.ShiftedBudget.WithLabelValues("meta")), 1e-9)
}

func TestEfficiencyMonitorCommitsShifts(t *testing.T) {
	rq := require.New(t)
	c := newCollaborators(referenceData())
	mon := newMonitor(c, metrics.NewNop())
	ctx := context.Background()

	_, err := mon.RunCycle(ctx)
	rq.NoError(err)

	report, err := mon.GetEfficiencyReport(ctx)
	rq.NoError(err)

	meta, ok := report.Platform(value.PlatformMeta)
	rq.True(ok)
	rq.InDelta(400, meta.DailyBudget, 1e-9)

	tiktok, ok := report.Platform(value.PlatformTikTok)
	rq.True(ok)
	rq.InDelta(1160, tiktok.DailyBudget, 1e-9)

	linkedin, ok := report.Platform(value.PlatformLinkedIn)
	rq.True(ok)
	rq.InDelta(240, linkedin.DailyBudget, 1e-9)
}

func TestEfficiencyMonitorDropsShiftWhenSourceBudgetChanges(t *testing.T) {
	rq := require.New(t)
	c := newCollaborators(referenceData())
	mon := newMonitor(c, metrics.NewNop())
	ctx := context.Background()

	_, err := mon.RunCycle(ctx)
	rq.NoError(err)

	c.setData(value.PlatformMeta, platformData{value: 250, cost: 100, budget: 600})

	report, err := mon.GetEfficiencyReport(ctx)
	rq.NoError(err)

	meta, ok := report.Platform(value.PlatformMeta)
	rq.True(ok)
	rq.InDelta(600, meta.DailyBudget, 1e-9)

	tiktok, ok := report.Platform(value.PlatformTikTok)
	rq.True(ok)
	rq.InDelta(1160, tiktok.DailyBudget, 1e-9)

	// The new base sticks: a later snapshot still reports it unshifted.
	report, err = mon.GetEfficiencyReport(ctx)
	rq.NoError(err)

	meta, _ = report.Platform(value.PlatformMeta)
	rq.InDelta(600, meta.DailyBudget, 1e-9)
}

func TestEfficiencyMonitorHungPlatformIsSkipped(t *testing.T) {
	rq := require.New(t)

	data := referenceData()
	data[value.PlatformGoogle] = platformData{value: 320, cost: 100, budget: 800, hang: true}

	c := newCollaborators(data)
	m := metrics.NewNop()

	cfg := worker.DefaultMonitorConfig()
	cfg.FetchRatePerSecond = 0
	cfg.FetchTimeout = 20 * time.Millisecond

	mon := worker.NewEfficiencyMonitor(c, c, c, c, m).
		WithConfig(cfg).
		WithPlatforms(referencePlatforms...)

	started := time.Now()

	result, err := mon.RunCycle(context.Background())
	rq.NoError(err)
	rq.Less(time.Since(started), time.Second)

	rq.Equal([]value.Platform{value.PlatformGoogle}, result.Report.Failed)
	rq.Len(result.Report.Platforms, 3)
	rq.InDelta(1, testutil.ToFloat64(m.FetchFailures.WithLabelValues("google")), 0)

	// The lock is released, so the next cycle is not reported as in progress.
	_, err = mon.RunCycle(context.Background())
	rq.NotErrorIs(err, worker.ErrCycleInProgress)
}

func TestEfficiencyMonitorAllHealthy(t *testing.T) {
	rq := require.New(t)

	c := newCollaborators(map[value.Platform]platformData{
		value.PlatformMeta:     {value: 300, cost: 100, budget: 500},
		value.PlatformTikTok:   {value: 310, cost: 100, budget: 500},
		value.PlatformGoogle:   {value: 290, cost: 100, budget: 500},
		value.PlatformLinkedIn: {value: 305, cost: 100, budget: 500},
	})
	m := metrics.NewNop()

	result, err := newMonitor(c, m).RunCycle(context.Background())
	rq.NoError(err)

	rq.Empty(result.Reallocations)
	rq.Empty(c.ledger)
	rq.Empty(c.alerts)
	rq.InDelta(1, testutil.ToFloat64(m.Cycles.WithLabelValues("healthy")), 0)
}

func TestEfficiencyMonitorSkipsFailedPlatforms(t *testing.T) {
	rq := require.New(t)

	data := referenceData()
	data[value.PlatformTikTok] = platformData{err: errors.New("timeout")}
	c := newCollaborators(data)
	m := metrics.NewNop()

	result, err := newMonitor(c, m).RunCycle(context.Background())
	rq.NoError(err)

	// (2.5 + 3.2 + 2.2) / 3, TikTok excluded rather than counted as zero.
	rq.InDelta(7.9/3, result.Report.MeanEfficiency, 1e-9)
	rq.Equal([]value.Platform{value.PlatformTikTok}, result.Report.Failed)
	rq.Equal(value.PlatformGoogle, result.Report.Best)
	rq.Equal([]value.Platform{value.PlatformLinkedIn}, result.Report.Underperformers)
	rq.InDelta(1, testutil.ToFloat64(m.FetchFailures.WithLabelValues("tiktok")), 0)
}

func TestEfficiencyMonitorNonPositiveCostIsExcluded(t *testing.T) {
	rq := require.New(t)

	data := referenceData()
	data[value.PlatformLinkedIn] = platformData{value: 220, cost: 0, budget: 300}

	report, err := newMonitor(newCollaborators(data), metrics.NewNop()).GetEfficiencyReport(context.Background())
	rq.NoError(err)

	rq.Equal([]value.Platform{value.PlatformLinkedIn}, report.Failed)
	rq.Len(report.Platforms, 3)
}

func TestEfficiencyMonitorNoPlatformData(t *testing.T) {
	rq := require.New(t)

	c := newCollaborators(map[value.Platform]platformData{})

	result, err := newMonitor(c, metrics.NewNop()).RunCycle(context.Background())
	rq.ErrorIs(err, worker.ErrNoPlatformData)
	rq.Len(result.Report.Failed, len(referencePlatforms))
	rq.Empty(c.ledger)
}

func TestEfficiencyMonitorSideEffectFailuresContinue(t *testing.T) {
	rq := require.New(t)

	c := newCollaborators(referenceData())
	c.ledgerErr = errors.New("ledger down")
	c.alertErr = errors.New("bot blocked")
	m := metrics.NewNop()
	mon := newMonitor(c, m)
	ctx := context.Background()

	result, err := mon.RunCycle(ctx)
	rq.NoError(err)

	rq.Len(result.Reallocations, 2)
	rq.Equal(4, result.SideEffectFailures)
	rq.Len(c.ledger, 2)
	rq.Len(c.alerts, 2)
	rq.Empty(result.Reallocations[0].LedgerRef)
	rq.InDelta(2, testutil.ToFloat64(m.SideEffectFails.WithLabelValues("ledger")), 0)
	rq.InDelta(2, testutil.ToFloat64(m.SideEffectFails.WithLabelValues("alert")), 0)

	// The shift stays committed even though nothing downstream recorded it.
	report, err := mon.GetEfficiencyReport(ctx)
	rq.NoError(err)

	meta, _ := report.Platform(value.PlatformMeta)
	rq.InDelta(400, meta.DailyBudget, 1e-9)
}

func TestEfficiencyMonitorReportIdempotent(t *testing.T) {
	rq := require.New(t)

	mon := newMonitor(newCollaborators(referenceData()), metrics.NewNop())
	ctx := context.Background()

	first, err := mon.GetEfficiencyReport(ctx)
	rq.NoError(err)

	second, err := mon.GetEfficiencyReport(ctx)
	rq.NoError(err)

	rq.Equal(first.MeanEfficiency, second.MeanEfficiency)
	rq.Equal(first.Best, second.Best)
	rq.Equal(first.Underperformers, second.Underperformers)

	last, at := mon.LastReport()
	rq.Equal(second.MeanEfficiency, last.MeanEfficiency)
	rq.False(at.IsZero())
}

func TestEfficiencyMonitorCyclesNeverOverlap(t *testing.T) {
	rq := require.New(t)

	c := newCollaborators(referenceData())
	c.ledgerGate = make(chan struct{})
	c.ledgerHit = make(chan struct{}, 4)
	m := metrics.NewNop()
	mon := newMonitor(c, m)
	ctx := context.Background()

	firstDone := make(chan error, 1)

	go func() {
		_, err := mon.RunCycle(ctx)
		firstDone <- err
	}()

	// First cycle is now parked inside the ledger call, mid-reallocation.
	<-c.ledgerHit

	_, err := mon.RunCycle(ctx)
	rq.ErrorIs(err, worker.ErrCycleInProgress)
	rq.InDelta(1, testutil.ToFloat64(m.Cycles.WithLabelValues("skipped")), 0)

	reportDone := make(chan entity.EfficiencyReport, 1)

	go func() {
		report, err := mon.GetEfficiencyReport(ctx)
		if err == nil {
			reportDone <- report
		}
	}()

	select {
	case <-reportDone:
		rq.Fail("report must wait for the running cycle")
	case <-time.After(50 * time.Millisecond):
	}

	close(c.ledgerGate)
	rq.NoError(<-firstDone)

	report := <-reportDone

	// Both shifts of the cycle are visible, never just the first.
	meta, _ := report.Platform(value.PlatformMeta)
	linkedin, _ := report.Platform(value.PlatformLinkedIn)
	tiktok, _ := report.Platform(value.PlatformTikTok)
	rq.InDelta(400, meta.DailyBudget, 1e-9)
	rq.InDelta(240, linkedin.DailyBudget, 1e-9)
	rq.InDelta(1160, tiktok.DailyBudget, 1e-9)
}

func TestEfficiencyMonitorStartStop(t *testing.T) {
	rq := require.New(t)

	c := newCollaborators(referenceData())
	cfg := worker.DefaultMonitorConfig()
	cfg.FetchRatePerSecond = 0
	cfg.CheckInterval = 10 * time.Millisecond

	mon := worker.NewEfficiencyMonitor(c, c, c, c, metrics.NewNop()).
		WithConfig(cfg).
		WithPlatforms(referencePlatforms...)

	rq.NoError(mon.Start(context.Background()))
	rq.ErrorIs(mon.Start(context.Background()), worker.ErrMonitorRunning)
	rq.True(mon.IsRunning())

	rq.Eventually(func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return len(c.ledger) >= 4
	}, time.Second, 5*time.Millisecond)

	mon.Stop()
	rq.False(mon.IsRunning())

	c.mu.Lock()
	fetches := c.fetches
	c.mu.Unlock()

	time.Sleep(30 * time.Millisecond)

	c.mu.Lock()
	rq.Equal(fetches, c.fetches)
	c.mu.Unlock()
}

func TestEfficiencyMonitorPlatformSetChanges(t *testing.T) {
	rq := require.New(t)

	c := newCollaborators(referenceData())
	mon := newMonitor(c, metrics.NewNop())
	ctx := context.Background()

	rq.Equal(
		[]value.Platform{value.PlatformMeta, value.PlatformGoogle},
		mon.WithPlatforms(value.PlatformMeta, value.PlatformMeta, value.PlatformGoogle).Platforms(),
	)

	c.setData(value.PlatformGoogle, platformData{value: 500, cost: 100, budget: 800})

	report, err := mon.GetEfficiencyReport(ctx)
	rq.NoError(err)
	rq.Equal(value.PlatformGoogle, report.Best)
}
