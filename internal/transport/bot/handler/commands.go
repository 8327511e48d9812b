package handler

import (
	"errors"
	"fmt"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"syncshield/internal/transport/bot/view"
	"syncshield/internal/worker"
	"syncshield/pkg/logx"
)

func (h *Handler) OnStart(ctx *th.Context, msg telego.Message) error {
	return h.sendHTML(ctx, msg.Chat.ID, view.StartMessage)
}

func (h *Handler) OnReport(ctx *th.Context, msg telego.Message) error {
	report, err := h.monitor.GetEfficiencyReport(ctx)
	if errors.Is(err, worker.ErrNoPlatformData) {
		return h.sendHTML(ctx, msg.Chat.ID, view.NoPlatformData)
	}

	if err != nil {
		logger(ctx).Error("monitor.GetEfficiencyReport", logx.Error(err))
		return h.sendHTML(ctx, msg.Chat.ID, fmt.Sprintf("❌ Report failed: %v", err))
	}

	return h.sendHTML(ctx, msg.Chat.ID, view.Report(report))
}

func (h *Handler) OnStatus(ctx *th.Context, msg telego.Message) error {
	report, lastCycle := h.monitor.LastReport()

	return h.sendHTML(ctx, msg.Chat.ID, view.StatusMessage(view.Status{
		MonitorRunning:    h.monitor.IsRunning(),
		Platforms:         h.monitor.Platforms(),
		DispatcherRunning: h.dispatcher.IsRunning(),
		QueueLen:          h.dispatcher.QueueLen(),
		LastCycle:         lastCycle,
		LastReport:        report,
	}))
}

func (h *Handler) OnRebalance(ctx *th.Context, msg telego.Message) error {
	result, err := h.monitor.RunCycle(ctx)

	switch {
	case errors.Is(err, worker.ErrCycleInProgress):
		return h.sendHTML(ctx, msg.Chat.ID, view.CycleInProgress)
	case errors.Is(err, worker.ErrNoPlatformData):
		return h.sendHTML(ctx, msg.Chat.ID, view.NoPlatformData)
	case err != nil:
		logger(ctx).Error("monitor.RunCycle", logx.Error(err))
		return h.sendHTML(ctx, msg.Chat.ID, fmt.Sprintf("❌ Cycle failed: %v", err))
	}

	return h.sendHTML(ctx, msg.Chat.ID, view.CycleResult(result))
}

func (h *Handler) OnHistory(ctx *th.Context, msg telego.Message) error {
	events, err := h.history.ListRecent(ctx, historyLimit)
	if err != nil {
		logger(ctx).Error("history.ListRecent", logx.Error(err))
		return h.sendHTML(ctx, msg.Chat.ID, fmt.Sprintf("❌ History failed: %v", err))
	}

	if len(events) == 0 {
		return h.sendHTML(ctx, msg.Chat.ID, view.HistoryEmpty)
	}

	return h.sendHTML(ctx, msg.Chat.ID, view.History(events))
}

func (h *Handler) sendHTML(ctx *th.Context, chatID int64, text string) error {
	_, err := ctx.Bot().SendMessage(ctx, &telego.SendMessageParams{
		ChatID:    telego.ChatID{ID: chatID},
		Text:      text,
		ParseMode: telego.ModeHTML,
	})
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	return nil
}
