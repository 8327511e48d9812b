package server

import (
	"context"
	"errors"
	"net/http"

	"syncshield/internal/worker"
	"syncshield/pkg/errcodes"
	"syncshield/pkg/httpx/reply"
)

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, worker.ErrDeadlineExceeded):
		reply.ErrorWithStatus(ctx, w, http.StatusGatewayTimeout, errcodes.TimeoutExceeded,
			"bid could not be decided within its deadline", err)
	case errors.Is(err, worker.ErrQueueFull):
		reply.ErrorWithStatus(ctx, w, http.StatusServiceUnavailable, errcodes.QueueFull,
			"bid intake queue is full", err)
	case errors.Is(err, worker.ErrDispatcherStopped):
		reply.ErrorWithStatus(ctx, w, http.StatusServiceUnavailable, errcodes.DispatcherStopped,
			"bid dispatcher is not running", err)
	case errors.Is(err, worker.ErrCollaboratorUnavailable):
		reply.ErrorWithStatus(ctx, w, http.StatusServiceUnavailable, errcodes.CollaboratorFailure,
			"a required collaborator is unavailable", err)
	case errors.Is(err, worker.ErrCycleInProgress):
		reply.ErrorWithStatus(ctx, w, http.StatusConflict, errcodes.CycleInProgress,
			"a reallocation cycle is already running", err)
	case errors.Is(err, worker.ErrNoPlatformData):
		reply.ErrorWithStatus(ctx, w, http.StatusServiceUnavailable, errcodes.NoPlatformData,
			"no platform data could be fetched", err)
	default:
		reply.Error(ctx, w, err)
	}
}
