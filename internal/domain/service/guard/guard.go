package guard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"git.appkode.ru/pub/go/failure"

	"syncshield/internal/domain/entity"
	"syncshield/internal/domain/value"
	"syncshield/internal/metrics"
	"syncshield/pkg/contextx"
	"syncshield/pkg/errcodes"
	"syncshield/pkg/logx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

var ErrInvalidPrediction = errors.New("invalid predicted value")

const (
	// cappedFraction is applied to the ceiling when a bid exceeds it.
	cappedFraction = 0.95

	safeUtilization     = 0.50
	moderateUtilization = 0.80
)

type ValuePredictor interface {
	PredictValue(ctx context.Context, userID string) (float64, error)
}

type Config struct {
	SafetyMargin      float64
	MinLTVRequired    float64
	MaxBidCap         float64
	ConservativeValue float64
	PredictTimeout    time.Duration
}

func DefaultConfig() Config {
	return Config{
		SafetyMargin:      0.70,
		MinLTVRequired:    50.0,
		MaxBidCap:         100.0,
		ConservativeValue: 50.0,
		PredictTimeout:    30 * time.Millisecond,
	}
}

// Guard decides whether and how much may be bid for a user without risking
// a cost above that user's predicted value.
type Guard struct {
	predictor ValuePredictor
	cfg       Config
	metrics   *metrics.Registry
}

func New(predictor ValuePredictor, m *metrics.Registry) *Guard {
	return &Guard{
		predictor: predictor,
		cfg:       DefaultConfig(),
		metrics:   m,
	}
}

func (g *Guard) WithConfig(cfg Config) *Guard {
	g.cfg = cfg
	return g
}

func (g *Guard) Config() Config {
	return g.cfg
}

// EvaluateBid never fails because of the value collaborator: an unavailable
// prediction is replaced by the conservative value and the decision is
// marked degraded. Only malformed input returns an error.
func (g *Guard) EvaluateBid(ctx context.Context, userID string, requestedBid float64) (entity.BidDecision, error) {
	if err := ValidateBid(userID, requestedBid); err != nil {
		return entity.BidDecision{}, err
	}

	predicted, degraded := g.predictValue(ctx, userID)

	decision := Decide(g.cfg, predicted, requestedBid)
	if degraded {
		decision.Degraded = true
		decision.Explanation += "; value prediction unavailable, conservative value used"
	}

	g.metrics.ObserveDecision(decision.RiskLevel, degraded)

	if decision.RiskLevel == value.RiskRejected || decision.RiskLevel == value.RiskCapped {
		logger(ctx).Debug("bid limited",
			slog.String(logx.FieldUserID, userID),
			slog.String("risk-level", decision.RiskLevel.String()),
			slog.Float64("requested-bid", requestedBid),
			slog.Float64("approved-bid", decision.ApprovedBid),
		)
	}

	return decision, nil
}

// EvaluateWithPrediction is the strict variant used when the caller must
// fail closed: a missing or invalid prediction is returned as an error and
// no decision is made. The caller's deadline is the only timeout.
func (g *Guard) EvaluateWithPrediction(ctx context.Context, userID string, requestedBid float64) (entity.BidDecision, error) {
	if err := ValidateBid(userID, requestedBid); err != nil {
		return entity.BidDecision{}, err
	}

	predicted, err := g.fetchValue(ctx, userID)
	if err != nil {
		return entity.BidDecision{}, err
	}

	decision := Decide(g.cfg, predicted, requestedBid)
	g.metrics.ObserveDecision(decision.RiskLevel, false)

	return decision, nil
}

func (g *Guard) predictValue(ctx context.Context, userID string) (float64, bool) {
	if g.cfg.PredictTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, g.cfg.PredictTimeout)
		defer cancel()
	}

	predicted, err := g.fetchValue(ctx, userID)
	if err != nil {
		logger(ctx).Warn("value prediction unavailable, using conservative value",
			slog.String(logx.FieldUserID, userID),
			slog.Float64("conservative-value", g.cfg.ConservativeValue),
			logx.Error(err),
		)

		return g.cfg.ConservativeValue, true
	}

	return predicted, false
}

func (g *Guard) fetchValue(ctx context.Context, userID string) (float64, error) {
	predicted, err := g.predictor.PredictValue(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("predictor.PredictValue: %w", err)
	}

	if math.IsNaN(predicted) || math.IsInf(predicted, 0) || predicted < 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPrediction, predicted)
	}

	return predicted, nil
}

// Decide applies the admission rules to an already known predicted value.
func Decide(cfg Config, predicted, requestedBid float64) entity.BidDecision {
	maxCPA := math.Min(predicted*cfg.SafetyMargin, cfg.MaxBidCap)

	decision := entity.BidDecision{
		OriginalBid:    requestedBid,
		MaxAllowedCPA:  maxCPA,
		PredictedValue: predicted,
	}

	switch {
	case predicted < cfg.MinLTVRequired || maxCPA <= 0:
		decision.RiskLevel = value.RiskRejected
		decision.Explanation = fmt.Sprintf(
			"predicted value %.2f is below the required minimum %.2f",
			predicted, cfg.MinLTVRequired,
		)
	case requestedBid <= maxCPA:
		utilization := requestedBid / maxCPA

		decision.Approved = true
		decision.ApprovedBid = requestedBid
		decision.RiskLevel = classify(utilization)
		decision.Explanation = fmt.Sprintf(
			"bid %.2f uses %.0f%% of the allowed CPA %.2f",
			requestedBid, utilization*100, maxCPA,
		)
	default:
		decision.Approved = true
		decision.ApprovedBid = cappedFraction * maxCPA
		decision.RiskLevel = value.RiskCapped
		decision.Explanation = fmt.Sprintf(
			"bid %.2f exceeds the allowed CPA %.2f, capped to %.2f",
			requestedBid, maxCPA, decision.ApprovedBid,
		)
	}

	return decision
}

func classify(utilization float64) value.RiskLevel {
	switch {
	case utilization <= safeUtilization:
		return value.RiskSafe
	case utilization <= moderateUtilization:
		return value.RiskModerate
	default:
		return value.RiskHigh
	}
}

func ValidateBid(userID string, requestedBid float64) error {
	if strings.TrimSpace(userID) == "" {
		return failure.NewInvalidArgumentError(
			"user id is required",
			failure.WithCode(errcodes.InvalidUserID),
			failure.WithDescription("userId must not be empty"),
		)
	}

	if math.IsNaN(requestedBid) || math.IsInf(requestedBid, 0) || requestedBid <= 0 {
		return failure.NewInvalidArgumentError(
			fmt.Sprintf("invalid bid amount %v", requestedBid),
			failure.WithCode(errcodes.InvalidBidAmount),
			failure.WithDescription("requestedBid must be a positive number"),
		)
	}

	return nil
}
