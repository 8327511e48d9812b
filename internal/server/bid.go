package server

import (
	"context"
	"log/slog"
	"net/http"

	"syncshield/internal/domain/entity"
	"syncshield/pkg/contextx"
	"syncshield/pkg/httpx/reply"
	"syncshield/pkg/httpx/req"
	"syncshield/pkg/logx"
	"syncshield/pkg/rest"
)

type BidGuard interface {
	EvaluateBid(ctx context.Context, userID string, requestedBid float64) (entity.BidDecision, error)
}

type BidExecutor interface {
	ExecuteBid(ctx context.Context, req entity.BidRequest) (entity.BidResponse, error)
}

type BidServer struct {
	guard      BidGuard
	dispatcher BidExecutor
}

func NewBidServer(guard BidGuard, dispatcher BidExecutor) BidServer {
	return BidServer{
		guard:      guard,
		dispatcher: dispatcher,
	}
}

func (s BidServer) postV1BidsEvaluate(w http.ResponseWriter, r *http.Request) error {
	var body rest.EvaluateBidRequest
	if err := req.Read(r, &body); err != nil {
		return err
	}

	ctx := withUser(r.Context(), body.UserID)

	decision, err := s.guard.EvaluateBid(ctx, body.UserID, body.RequestedBid)
	if err != nil {
		return err
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTBidDecision(decision))

	return nil
}

func (s BidServer) postV1BidsExecute(w http.ResponseWriter, r *http.Request) error {
	var body rest.ExecuteBidRequest
	if err := req.Read(r, &body); err != nil {
		return err
	}

	ctx := withUser(r.Context(), body.UserID)

	resp, err := s.dispatcher.ExecuteBid(ctx, newDomainBidRequest(body))
	if err != nil {
		return err
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTBidResponse(resp))

	return nil
}

func withUser(ctx context.Context, userID string) context.Context {
	ctx = contextx.WithUserID(ctx, contextx.UserID(userID))

	return contextx.WithLogger(ctx, logger(ctx).With(slog.String(logx.FieldUserID, userID)))
}
