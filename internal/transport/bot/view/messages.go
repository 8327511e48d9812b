package view

import (
	"fmt"
	"html"
	"strings"
	"time"

	"syncshield/internal/domain/entity"
	"syncshield/internal/domain/value"
)

const (
	StartMessage = "👋 <b>Budget guard</b>\n\n" +
		"/report - efficiency of every platform right now\n" +
		"/status - monitor and dispatcher state\n" +
		"/rebalance - run a reallocation cycle now\n" +
		"/history - latest budget shifts"

	CycleInProgress = "⏳ A reallocation cycle is already running, try again later."
	NoPlatformData  = "❌ No platform could be fetched, nothing to report."
	HistoryEmpty    = "📭 No budget shifts recorded yet."
)

func Report(r entity.EfficiencyReport) string {
	var sb strings.Builder

	sb.WriteString("📊 <b>Platform efficiency</b>\n\n")

	for _, p := range r.Platforms {
		marker := "✅"
		switch {
		case isIn(p.Platform, r.Underperformers):
			marker = "📉"
		case p.Platform == r.Best:
			marker = "🏆"
		}

		sb.WriteString(fmt.Sprintf("%s <code>%s</code> %.3f (value %.2f / cost %.2f, budget %.2f)\n",
			marker, esc(p.Platform), p.Efficiency, p.AverageValue, p.Cost, p.DailyBudget))
	}

	sb.WriteString(fmt.Sprintf("\n<b>Mean:</b> %.3f\n<b>Cutoff:</b> %.3f\n", r.MeanEfficiency, r.Cutoff))

	if len(r.Failed) > 0 {
		names := make([]string, 0, len(r.Failed))
		for _, p := range r.Failed {
			names = append(names, esc(p))
		}

		sb.WriteString(fmt.Sprintf("⚠️ <b>No data:</b> %s\n", strings.Join(names, ", ")))
	}

	return sb.String()
}

type Status struct {
	MonitorRunning    bool
	Platforms         []value.Platform
	DispatcherRunning bool
	QueueLen          int
	LastCycle         time.Time
	LastReport        entity.EfficiencyReport
}

func StatusMessage(s Status) string {
	lastCycle := "never"
	if !s.LastCycle.IsZero() {
		lastCycle = s.LastCycle.UTC().Format(time.RFC3339)
	}

	text := fmt.Sprintf("📟 <b>Status</b>\n\n"+
		"🔁 <b>Monitor:</b> %s\n"+
		"⚡ <b>Dispatcher:</b> %s (queue %d)\n"+
		"🕒 <b>Last cycle:</b> %s\n",
		runState(s.MonitorRunning),
		runState(s.DispatcherRunning),
		s.QueueLen,
		lastCycle,
	)

	if len(s.Platforms) > 0 {
		names := make([]string, 0, len(s.Platforms))
		for _, p := range s.Platforms {
			names = append(names, esc(p))
		}

		text += fmt.Sprintf("🗂 <b>Platforms:</b> %s\n", strings.Join(names, ", "))
	}

	if !s.LastCycle.IsZero() && s.LastReport.HasUnderperformers() {
		names := make([]string, 0, len(s.LastReport.Underperformers))
		for _, p := range s.LastReport.Underperformers {
			names = append(names, esc(p))
		}

		text += fmt.Sprintf("📉 <b>Underperforming:</b> %s\n", strings.Join(names, ", "))
	}

	return text
}

func CycleResult(r entity.CycleResult) string {
	if len(r.Reallocations) == 0 {
		return fmt.Sprintf("✅ All platforms within %.3f of the mean, nothing moved (%s).",
			r.Report.MeanEfficiency-r.Report.Cutoff, r.Duration.Round(time.Millisecond))
	}

	return fmt.Sprintf("🔀 <b>Cycle finished</b> in %s\n\n%s",
		r.Duration.Round(time.Millisecond), History(r.Reallocations))
}

func History(events []entity.ReallocationEvent) string {
	var sb strings.Builder

	for _, e := range events {
		sb.WriteString(fmt.Sprintf("• %.2f <code>%s</code> → <code>%s</code>", e.Amount, esc(e.From), esc(e.To)))

		if e.LedgerRef == "" {
			sb.WriteString(" ⚠️ not in ledger")
		}

		sb.WriteString("\n")
	}

	return sb.String()
}

func runState(running bool) string {
	if running {
		return "🟢 running"
	}

	return "🔴 stopped"
}

func isIn(p value.Platform, set []value.Platform) bool {
	for _, s := range set {
		if s == p {
			return true
		}
	}

	return false
}

func esc(p value.Platform) string {
	return html.EscapeString(p.String())
}
