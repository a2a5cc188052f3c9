package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type RetentionStore interface {
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Retention removes read notifications older than the configured age.
// Unread notifications are never removed.
type Retention struct {
	store  RetentionStore
	keep   time.Duration
	logger *zap.Logger
	now    func() time.Time
}

func NewRetention(store RetentionStore, days int, logger *zap.Logger) *Retention {
	if days <= 0 {
		days = 90
	}
	return &Retention{
		store:  store,
		keep:   time.Duration(days) * 24 * time.Hour,
		logger: logger,
		now:    time.Now,
	}
}

func (r *Retention) Sweep(ctx context.Context) (int64, error) {
	cutoff := r.now().Add(-r.keep)
	n, err := r.store.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		r.logger.Error("notification sweep failed", zap.Time("cutoff", cutoff), zap.Error(err))
		return 0, err
	}
	r.logger.Info("notification sweep finished", zap.Int64("deleted", n), zap.Time("cutoff", cutoff))
	return n, nil
}
