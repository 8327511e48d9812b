package server

import (
	"syncshield/internal/domain/entity"
	"syncshield/internal/domain/value"
	"syncshield/pkg/lox"
	"syncshield/pkg/rest"
)

func newRESTBidDecision(d entity.BidDecision) rest.BidDecision {
	return rest.BidDecision{
		Approved:       d.Approved,
		OriginalBid:    d.OriginalBid,
		ApprovedBid:    d.ApprovedBid,
		MaxAllowedCPA:  d.MaxAllowedCPA,
		PredictedValue: d.PredictedValue,
		RiskLevel:      d.RiskLevel.String(),
		Explanation:    d.Explanation,
		Degraded:       d.Degraded,
	}
}

func newRESTBidResponse(r entity.BidResponse) rest.BidResponse {
	return rest.BidResponse{
		Status:    string(r.Status),
		BidAmount: r.BidAmount,
		Strategy:  r.Strategy,
		Decision:  newRESTBidDecision(r.Decision),
	}
}

func newDomainBidRequest(r rest.ExecuteBidRequest) entity.BidRequest {
	return entity.BidRequest{
		UserID:       r.UserID,
		Context:      r.Context,
		Features:     r.Features,
		RequestedBid: r.RequestedBid,
	}
}

// NewRESTEfficiencyReport is shared with the report command.
func NewRESTEfficiencyReport(r entity.EfficiencyReport) rest.EfficiencyReport {
	return rest.EfficiencyReport{
		Platforms: lox.Map(r.Platforms, func(p entity.PlatformEfficiency) rest.PlatformEfficiency {
			return rest.PlatformEfficiency{
				Platform:     p.Platform.String(),
				AverageValue: p.AverageValue,
				Cost:         p.Cost,
				Efficiency:   p.Efficiency,
				DailyBudget:  p.DailyBudget,
			}
		}),
		Failed:          lox.Map(r.Failed, value.Platform.String),
		MeanEfficiency:  r.MeanEfficiency,
		Cutoff:          r.Cutoff,
		Underperformers: lox.Map(r.Underperformers, value.Platform.String),
		Best:            r.Best.String(),
		GeneratedAt:     r.GeneratedAt,
	}
}

func newRESTReallocationEvent(e entity.ReallocationEvent) rest.ReallocationEvent {
	return rest.ReallocationEvent{
		ID:        e.ID,
		From:      e.From.String(),
		To:        e.To.String(),
		Amount:    e.Amount,
		Timestamp: e.Timestamp,
		LedgerRef: e.LedgerRef,
	}
}

func newRESTCycleResult(r entity.CycleResult) rest.CycleResult {
	return rest.CycleResult{
		Report:             NewRESTEfficiencyReport(r.Report),
		Reallocations:      lox.Map(r.Reallocations, newRESTReallocationEvent),
		SideEffectFailures: r.SideEffectFailures,
		DurationMs:         r.Duration.Milliseconds(),
	}
}
