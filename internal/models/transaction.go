package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction represents a bank or credit-card transaction imported for a user
type Transaction struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"` // ISO code, ILS unless imported from a foreign statement
	Type      string          `json:"type"`     // income | expense
	Merchant  string          `json:"merchant"`
	Category  string          `json:"category"`
	Status    string          `json:"status"` // pending_review | approved | rejected
	Date      time.Time       `json:"date"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

const (
	TransactionIncome  = "income"
	TransactionExpense = "expense"
)

const (
	TransactionPendingReview = "pending_review"
	TransactionApproved      = "approved"
	TransactionRejected      = "rejected"
)
