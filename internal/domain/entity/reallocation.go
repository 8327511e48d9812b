package entity

import (
	"time"

	"syncshield/internal/domain/value"
)

type ReallocationEvent struct {
	ID        string
	From      value.Platform
	To        value.Platform
	Amount    float64
	Timestamp time.Time
	LedgerRef string
}

type LedgerReceipt struct {
	Success     bool
	ReferenceID string
}

type BudgetAlert struct {
	Platforms    []value.Platform           `json:"platforms"`
	Amount       float64                    `json:"amount"`
	Efficiencies map[value.Platform]float64 `json:"efficiencies"`
}

type NotificationReceipt struct {
	Success        bool
	NotificationID string
}

// CycleResult summarizes one run of the reallocation loop.
type CycleResult struct {
	Report             EfficiencyReport
	Reallocations      []ReallocationEvent
	SideEffectFailures int
	Duration           time.Duration
}
