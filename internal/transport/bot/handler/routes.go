package handler

import (
	th "github.com/mymmrac/telego/telegohandler"

	"syncshield/internal/transport/bot/middleware"
)

func (h *Handler) RegisterRoutes(bh *th.BotHandler, adminID int64) {
	adminGroup := bh.Group(th.AnyMessage())
	adminGroup.Use(middleware.AdminOnly(adminID))

	adminGroup.HandleMessage(h.OnStart, th.CommandEqual("start"))
	adminGroup.HandleMessage(h.OnReport, th.CommandEqual("report"))
	adminGroup.HandleMessage(h.OnStatus, th.CommandEqual("status"))
	adminGroup.HandleMessage(h.OnRebalance, th.CommandEqual("rebalance"))
	adminGroup.HandleMessage(h.OnHistory, th.CommandEqual("history"))
}
