// Package rest holds the HTTP API models.
package rest

import "time"

type EvaluateBidRequest struct {
	UserID       string  `json:"userId" validate:"required"`
	RequestedBid float64 `json:"requestedBid" validate:"gt=0"`
}

type ExecuteBidRequest struct {
	UserID       string         `json:"userId" validate:"required"`
	Context      string         `json:"context" validate:"required"`
	Features     map[string]any `json:"features,omitempty"`
	RequestedBid float64        `json:"requestedBid" validate:"gt=0"`
}

type BidDecision struct {
	Approved       bool    `json:"approved"`
	OriginalBid    float64 `json:"originalBid"`
	ApprovedBid    float64 `json:"approvedBid"`
	MaxAllowedCPA  float64 `json:"maxAllowedCpa"`
	PredictedValue float64 `json:"predictedValue"`
	RiskLevel      string  `json:"riskLevel"`
	Explanation    string  `json:"explanation"`
	Degraded       bool    `json:"degraded"`
}

type BidResponse struct {
	Status    string      `json:"status"`
	BidAmount float64     `json:"bidAmount"`
	Strategy  string      `json:"strategy"`
	Decision  BidDecision `json:"decision"`
}

type PlatformEfficiency struct {
	Platform     string  `json:"platform"`
	AverageValue float64 `json:"averageValue"`
	Cost         float64 `json:"cost"`
	Efficiency   float64 `json:"efficiency"`
	DailyBudget  float64 `json:"dailyBudget"`
}

type EfficiencyReport struct {
	Platforms       []PlatformEfficiency `json:"platforms"`
	Failed          []string             `json:"failed"`
	MeanEfficiency  float64              `json:"meanEfficiency"`
	Cutoff          float64              `json:"cutoff"`
	Underperformers []string             `json:"underperformers"`
	Best            string               `json:"best,omitempty"`
	GeneratedAt     time.Time            `json:"generatedAt"`
}

type ReallocationEvent struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Amount    float64   `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
	LedgerRef string    `json:"ledgerRef,omitempty"`
}

type CycleResult struct {
	Report             EfficiencyReport    `json:"report"`
	Reallocations      []ReallocationEvent `json:"reallocations"`
	SideEffectFailures int                 `json:"sideEffectFailures"`
	DurationMs         int64               `json:"durationMs"`
}

// Error is the error body of every non-2xx response.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	SupportID string    `json:"supportId"`
}

type ErrorCode string
