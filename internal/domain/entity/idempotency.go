package entity

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyKey is a stored 2xx response of a till request, replayed when
// the same cashier sends the same key again.
type IdempotencyKey struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_idempotency_user_key"`
	Key    string    `gorm:"size:255;not null;uniqueIndex:idx_idempotency_user_key"`
	// Route is "METHOD /path/pattern", e.g. "POST /api/v1/settlement/confirm".
	Route        string    `gorm:"size:255;not null"`
	BodyDigest   string    `gorm:"size:64"`
	StatusCode   int       `gorm:"not null"`
	ResponseBody string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	ExpiresAt    time.Time `gorm:"not null;index"`
}

func (IdempotencyKey) TableName() string {
	return "idempotency_keys"
}

// Matches reports whether a retried request is the one the key was stored for.
func (k *IdempotencyKey) Matches(route, digest string) bool {
	return k.Route == route && (k.BodyDigest == "" || k.BodyDigest == digest)
}

func (k *IdempotencyKey) IsExpired(now time.Time) bool {
	return now.After(k.ExpiresAt)
}
