package view_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"syncshield/internal/domain/entity"
	"syncshield/internal/domain/value"
	"syncshield/internal/transport/bot/view"
)

func testReport() entity.EfficiencyReport {
	return entity.EfficiencyReport{
		Platforms: []entity.PlatformEfficiency{
			{Platform: value.PlatformMeta, AverageValue: 250, Cost: 100, Efficiency: 2.5, DailyBudget: 500},
			{Platform: value.PlatformTikTok, AverageValue: 400, Cost: 100, Efficiency: 4, DailyBudget: 1000},
		},
		Failed:          []value.Platform{value.PlatformAmazon},
		MeanEfficiency:  3.25,
		Cutoff:          2.7625,
		Underperformers: []value.Platform{value.PlatformMeta},
		Best:            value.PlatformTikTok,
	}
}

func TestReport(t *testing.T) {
	rq := require.New(t)

	text := view.Report(testReport())

	rq.Contains(text, "📉 <code>meta</code> 2.500")
	rq.Contains(text, "🏆 <code>tiktok</code> 4.000")
	rq.Contains(text, "<b>Mean:</b> 3.250")
	rq.Contains(text, "<b>Cutoff:</b> 2.76")
	rq.Contains(text, "<b>No data:</b> amazon")
}

func TestStatusMessage(t *testing.T) {
	rq := require.New(t)

	text := view.StatusMessage(view.Status{DispatcherRunning: true, QueueLen: 3})
	rq.Contains(text, "<b>Monitor:</b> 🔴 stopped")
	rq.Contains(text, "<b>Dispatcher:</b> 🟢 running (queue 3)")
	rq.Contains(text, "<b>Last cycle:</b> never")
	rq.NotContains(text, "Underperforming")

	text = view.StatusMessage(view.Status{
		MonitorRunning: true,
		Platforms:      []value.Platform{value.PlatformMeta, value.PlatformTikTok},
		LastCycle:      time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC),
		LastReport:     testReport(),
	})
	rq.Contains(text, "2026-10-19T09:30:00Z")
	rq.Contains(text, "<b>Platforms:</b> meta, tiktok")
	rq.Contains(text, "<b>Underperforming:</b> meta")
}

func TestCycleResult(t *testing.T) {
	rq := require.New(t)

	text := view.CycleResult(entity.CycleResult{Report: testReport(), Duration: 1200 * time.Millisecond})
	rq.Contains(text, "nothing moved (1.2s)")

	text = view.CycleResult(entity.CycleResult{
		Report: testReport(),
		Reallocations: []entity.ReallocationEvent{
			{From: value.PlatformMeta, To: value.PlatformTikTok, Amount: 100, LedgerRef: "ref-1"},
			{From: value.PlatformLinkedIn, To: value.PlatformTikTok, Amount: 60},
		},
		Duration: time.Second,
	})
	rq.Contains(text, "• 100.00 <code>meta</code> → <code>tiktok</code>\n")
	rq.Contains(text, "• 60.00 <code>linkedin</code> → <code>tiktok</code> ⚠️ not in ledger")
}
