package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tillpoint-api/internal/domain/entity"
)

// IdempotencyRepository stores replayable responses keyed by cashier and key.
type IdempotencyRepository interface {
	Find(ctx context.Context, userID uuid.UUID, key string) (*entity.IdempotencyKey, error)
	Save(ctx context.Context, ikey *entity.IdempotencyKey) error
	// DeleteExpired removes keys that expired before the given time and
	// returns how many were removed.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
