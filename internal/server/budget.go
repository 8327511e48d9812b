package server

import (
	"context"
	"net/http"
	"strconv"

	"git.appkode.ru/pub/go/failure"

	"syncshield/internal/domain/entity"
	"syncshield/pkg/errcodes"
	"syncshield/pkg/httpx/reply"
	"syncshield/pkg/lox"
)

const maxReallocationsLimit = 200

type BudgetMonitor interface {
	GetEfficiencyReport(ctx context.Context) (entity.EfficiencyReport, error)
	RunCycle(ctx context.Context) (entity.CycleResult, error)
}

type ReallocationHistory interface {
	ListRecent(ctx context.Context, limit int) ([]entity.ReallocationEvent, error)
}

type BudgetServer struct {
	monitor BudgetMonitor
	history ReallocationHistory
}

func NewBudgetServer(monitor BudgetMonitor, history ReallocationHistory) BudgetServer {
	return BudgetServer{
		monitor: monitor,
		history: history,
	}
}

func (s BudgetServer) getV1BudgetEfficiency(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	report, err := s.monitor.GetEfficiencyReport(ctx)
	if err != nil {
		return err
	}

	reply.JSON(ctx, w, http.StatusOK, NewRESTEfficiencyReport(report))

	return nil
}

func (s BudgetServer) postV1BudgetCycle(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	result, err := s.monitor.RunCycle(ctx)
	if err != nil {
		return err
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTCycleResult(result))

	return nil
}

func (s BudgetServer) getV1BudgetReallocations(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	limit := 0

	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxReallocationsLimit {
			return failure.NewInvalidArgumentError(
				"invalid limit "+raw,
				failure.WithCode(errcodes.ValidationError),
				failure.WithDescription("limit must be between 1 and 200"),
			)
		}

		limit = n
	}

	events, err := s.history.ListRecent(ctx, limit)
	if err != nil {
		return err
	}

	reply.JSON(ctx, w, http.StatusOK, lox.Map(events, newRESTReallocationEvent))

	return nil
}
