package value

// RiskLevel classifies how close an admitted bid sits to its allowed ceiling.
type RiskLevel string

const (
	RiskSafe     RiskLevel = "safe"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskCapped   RiskLevel = "capped"
	RiskRejected RiskLevel = "rejected"
)

func (r RiskLevel) String() string {
	return string(r)
}

// BidStatus is the dispatcher-level outcome of a bid execution.
type BidStatus string

const (
	BidApproved BidStatus = "approved"
	BidCapped   BidStatus = "capped"
	BidRejected BidStatus = "rejected"
)
