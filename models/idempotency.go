package models

import (
	"time"

	"gorm.io/datatypes"
)

// IdempotencyRecord stores the first successful response for a creation key.
// Written once after the guarded operation succeeds; never updated.
type IdempotencyRecord struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Key       string         `json:"key" gorm:"size:36;uniqueIndex"` // canonical UUID, lowercased
	Response  datatypes.JSON `json:"-" gorm:"type:jsonb"`            // exact success body, replayed verbatim
	CreatedAt time.Time      `json:"created_at"`
	ExpiresAt time.Time      `json:"expires_at" gorm:"index"`
}

// Expired reports whether the record is logically dead at now.
func (r *IdempotencyRecord) Expired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}
