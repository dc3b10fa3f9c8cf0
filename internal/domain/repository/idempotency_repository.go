package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/entity"
)

// IdempotencyRepository defines the interface for idempotency key operations
type IdempotencyRepository interface {
	// GetByKey retrieves an idempotency key by its key string and user ID
	GetByKey(ctx context.Context, key string, userID uuid.UUID) (*entity.IdempotencyKey, error)
	// Create stores a new idempotency key. A key already held by the user
	// fails with database.ErrDuplicate.
	Create(ctx context.Context, ikey *entity.IdempotencyKey) error
	// Complete records the response for a claimed key
	Complete(ctx context.Context, id uuid.UUID, code int, body string) error
	// Release drops a claim whose request did not succeed
	Release(ctx context.Context, id uuid.UUID) error
	// DeleteExpired removes expired idempotency keys
	DeleteExpired(ctx context.Context, now time.Time) error
}
