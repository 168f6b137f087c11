package maintenance

import (
	"context"
	"time"

	"store-api/internal/observability"
)

// Cleaner is implemented by the credential store.
type Cleaner interface {
	CleanupExpiredRefreshTokens(ctx context.Context, now time.Time, batchSize int) (int64, error)
}

type Result struct {
	ClearedRefreshTokens int64     `json:"cleared_refresh_tokens"`
	RanAt                time.Time `json:"ran_at"`
}

// Sweeper clears stored refresh tokens that expired. It is shared by the
// HTTP trigger and the in-process schedule.
type Sweeper struct {
	store     Cleaner
	logger    *observability.Logger
	batchSize int
	now       func() time.Time
}

func NewSweeper(store Cleaner, logger *observability.Logger, batchSize int) *Sweeper {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &Sweeper{store: store, logger: logger, batchSize: batchSize, now: time.Now}
}

func (s *Sweeper) Run(ctx context.Context) (Result, error) {
	now := s.now().UTC()
	cleared, err := s.store.CleanupExpiredRefreshTokens(ctx, now, s.batchSize)
	if err != nil {
		s.logger.Error("auth_cleanup_failed", map[string]any{"error": err.Error()})
		return Result{}, err
	}

	s.logger.Info("auth_cleanup_completed", map[string]any{
		"cleared_refresh_tokens": cleared,
		"batch_size":             s.batchSize,
	})
	return Result{ClearedRefreshTokens: cleared, RanAt: now}, nil
}
