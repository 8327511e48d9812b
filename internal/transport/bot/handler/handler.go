package handler

import (
	"context"
	"time"

	"syncshield/internal/domain/entity"
	"syncshield/internal/domain/value"
	"syncshield/pkg/contextx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

const historyLimit = 10

type Monitor interface {
	GetEfficiencyReport(ctx context.Context) (entity.EfficiencyReport, error)
	RunCycle(ctx context.Context) (entity.CycleResult, error)
	LastReport() (entity.EfficiencyReport, time.Time)
	Platforms() []value.Platform
	IsRunning() bool
}

type Dispatcher interface {
	IsRunning() bool
	QueueLen() int
}

type History interface {
	ListRecent(ctx context.Context, limit int) ([]entity.ReallocationEvent, error)
}

type Handler struct {
	monitor    Monitor
	dispatcher Dispatcher
	history    History
}

func New(monitor Monitor, dispatcher Dispatcher, history History) *Handler {
	return &Handler{
		monitor:    monitor,
		dispatcher: dispatcher,
		history:    history,
	}
}
