package models

import (
	"time"

	"github.com/google/uuid"
)

// UserPattern is a learned classification rule for a user.
// Upserted keyed by (user_id, pattern_type, pattern_key).
type UserPattern struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	PatternType string    `json:"pattern_type"` // merchant | keyword
	PatternKey  string    `json:"pattern_key"`  // normalized merchant name or keyword
	Category    string    `json:"category"`
	Confidence  float64   `json:"confidence"`
	HitCount    int       `json:"hit_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PatternCorrection records a user overriding an automatic classification
type PatternCorrection struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	OldCategory   string    `json:"old_category"`
	NewCategory   string    `json:"new_category"`
	CreatedAt     time.Time `json:"created_at"`
}
