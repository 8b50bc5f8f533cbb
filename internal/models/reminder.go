package models

import (
	"time"

	"github.com/google/uuid"
)

// Reminder is a scheduled nudge to be delivered to a user
type Reminder struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Kind      string    `json:"kind"` // continue_flow | goal_progress | payment_due
	Message   string    `json:"message"`
	DueAt     time.Time `json:"due_at"`
	Sent      bool      `json:"sent"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
