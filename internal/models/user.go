package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User represents a coached user in the system
type User struct {
	ID           uuid.UUID `json:"id"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"` // Not serialized

	// Self-declared financial profile, collected during onboarding.
	DeclaredMonthlyIncome decimal.Decimal `json:"declared_monthly_income"`
	FixedExpenses         decimal.Decimal `json:"fixed_expenses"`
	MinimumLiving         decimal.Decimal `json:"minimum_living"`

	// Baseline income used by the income-change monitor.
	IncomeBaseline decimal.Decimal `json:"income_baseline"`

	EmailReminders bool `json:"email_reminders"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot derives the balancing input from the stored profile. A missing
// minimum-living figure falls back to 40% of declared income.
func (u *User) Snapshot() FinancialSnapshot {
	minimum := u.MinimumLiving
	if minimum.IsZero() {
		minimum = u.DeclaredMonthlyIncome.Mul(decimal.NewFromFloat(0.4))
	}
	return FinancialSnapshot{
		MonthlyIncome: u.DeclaredMonthlyIncome,
		FixedExpenses: u.FixedExpenses,
		MinimumLiving: minimum,
	}
}
