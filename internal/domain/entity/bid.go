package entity

import "syncshield/internal/domain/value"

type BidRequest struct {
	UserID       string
	Context      string
	Features     map[string]any
	RequestedBid float64
}

// BidDecision is the admission outcome for a single bid. It is built per
// request and never stored.
type BidDecision struct {
	Approved       bool
	OriginalBid    float64
	ApprovedBid    float64
	MaxAllowedCPA  float64
	PredictedValue float64
	RiskLevel      value.RiskLevel
	Explanation    string
	// Degraded is set when the predicted value was replaced by the
	// conservative fallback.
	Degraded bool
}

type BidResponse struct {
	Status    value.BidStatus
	BidAmount float64
	Strategy  string
	Decision  BidDecision
}
