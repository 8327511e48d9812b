package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"syncshield/pkg/contextx"
	"syncshield/pkg/logx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

const keyPrefix = "syncshield:value:"

type Store interface {
	// Get reports ok=false on a miss; err is reserved for store failures.
	Get(ctx context.Context, key string) (float64, bool, error)
	Set(ctx context.Context, key string, value float64, ttl time.Duration) error
}

type ValuePredictor interface {
	PredictValue(ctx context.Context, userID string) (float64, error)
}

// Predictor serves user value predictions from a store and falls through to
// the prediction service on a miss. Store failures never fail a prediction.
type Predictor struct {
	next  ValuePredictor
	store Store
	ttl   time.Duration
}

func NewPredictor(next ValuePredictor, store Store, ttl time.Duration) *Predictor {
	return &Predictor{
		next:  next,
		store: store,
		ttl:   ttl,
	}
}

func (p *Predictor) PredictValue(ctx context.Context, userID string) (float64, error) {
	key := keyPrefix + userID

	cached, ok, err := p.store.Get(ctx, key)
	if err != nil {
		logger(ctx).Warn("value cache read failed", slog.String(logx.FieldUserID, userID), logx.Error(err))
	}

	if ok {
		return cached, nil
	}

	predicted, err := p.next.PredictValue(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("next.PredictValue: %w", err)
	}

	if err := p.store.Set(ctx, key, predicted, p.ttl); err != nil {
		logger(ctx).Warn("value cache write failed", slog.String(logx.FieldUserID, userID), logx.Error(err))
	}

	return predicted, nil
}
