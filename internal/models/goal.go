package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GoalType categorizes a savings or debt target
type GoalType string

const (
	GoalEmergencyFund GoalType = "emergency_fund"
	GoalDebt          GoalType = "debt"
	GoalVacation      GoalType = "vacation"
	GoalEducation     GoalType = "education"
	GoalCustom        GoalType = "custom"
)

// GoalStatus is the lifecycle state of a goal
type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalPaused    GoalStatus = "paused"
)

// Goal represents a user-defined savings or debt target
type Goal struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"user_id"`
	Name          string          `json:"name"`
	Type          GoalType        `json:"goal_type"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	Priority      int             `json:"priority"` // 1-10, 1 = highest
	Deadline      *time.Time      `json:"deadline,omitempty"`
	StartDate     time.Time       `json:"start_date"`

	// MinAllocation is a guaranteed monthly floor; zero means no guarantee.
	MinAllocation decimal.Decimal `json:"min_allocation"`
	IsFlexible    bool            `json:"is_flexible"`
	AutoAdjust    bool            `json:"auto_adjust"`

	// MonthlyAllocation is the last amount computed by the balancer.
	MonthlyAllocation decimal.Decimal `json:"monthly_allocation"`

	Status    GoalStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RemainingAmount returns how much is still needed, never negative.
func (g *Goal) RemainingAmount() decimal.Decimal {
	remaining := g.TargetAmount.Sub(g.CurrentAmount)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// MonthsToDeadline returns calendar months until the deadline, rounding
// partial months up. Returns 0 if the deadline has passed and defaultMonths
// if there is none.
func (g *Goal) MonthsToDeadline(now time.Time, defaultMonths int) int {
	if g.Deadline == nil {
		return defaultMonths
	}
	d := *g.Deadline
	if !d.After(now) {
		return 0
	}
	months := (d.Year()-now.Year())*12 + int(d.Month()) - int(now.Month())
	if d.Day() > now.Day() {
		months++
	}
	if months < 1 {
		months = 1
	}
	return months
}
