package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Loan represents an outstanding loan reported by the user, used by the
// loan-consolidation flow
type Loan struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"user_id"`
	Lender         string          `json:"lender"`
	Balance        decimal.Decimal `json:"balance"`
	InterestRate   float64         `json:"interest_rate"` // annual, percent
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
	TermMonths     int             `json:"term_months"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
