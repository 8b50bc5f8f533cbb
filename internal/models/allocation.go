package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocationSummary aggregates one balancing run. Derived, never persisted
// as an entity; recomputed in full on every run.
type AllocationSummary struct {
	TotalIncome       decimal.Decimal `json:"total_income"`
	FixedExpenses     decimal.Decimal `json:"fixed_expenses"`
	MinimumLiving     decimal.Decimal `json:"minimum_living"`
	SafetyMargin      decimal.Decimal `json:"safety_margin"`
	AvailableForGoals decimal.Decimal `json:"available_for_goals"`
	TotalAllocated    decimal.Decimal `json:"total_allocated"`
	RemainingBudget   decimal.Decimal `json:"remaining_budget"`
}

// GoalAllocation is the per-goal result of a balancing run
type GoalAllocation struct {
	GoalID                 uuid.UUID       `json:"goal_id"`
	GoalName               string          `json:"goal_name"`
	MonthlyAllocation      decimal.Decimal `json:"monthly_allocation"`
	PreviousAllocation     decimal.Decimal `json:"previous_allocation"`
	MonthsToComplete       int             `json:"months_to_complete"`
	ExpectedCompletionDate *time.Time      `json:"expected_completion_date,omitempty"`
	UrgencyScore           float64         `json:"urgency_score"`
	IsAchievable           bool            `json:"is_achievable"`
	Warnings               []string        `json:"warnings,omitempty"`
}

// SuggestionType labels an advisory produced from a balancing run
type SuggestionType string

const (
	SuggestIncreaseIncome SuggestionType = "increase_income"
	SuggestReduceExpenses SuggestionType = "reduce_expenses"
	SuggestReduceGoals    SuggestionType = "reduce_goals"
	SuggestChangePriority SuggestionType = "change_priority"
	SuggestAdjustDeadline SuggestionType = "adjust_deadline"
	SuggestAddGoal        SuggestionType = "add_goal"
)

// Suggestion is a human-actionable recommendation derived from shortfalls
type Suggestion struct {
	Type     SuggestionType  `json:"type"`
	GoalID   *uuid.UUID      `json:"goal_id,omitempty"`
	Amount   decimal.Decimal `json:"amount"`
	Message  string          `json:"message"`
	Priority int             `json:"priority"` // 1 = most important
}

// SafetyCheck is the residual-income verdict for a balancing run
type SafetyCheck struct {
	Passed         bool            `json:"passed"`
	ComfortLevel   string          `json:"comfort_level"` // critical | tight | comfortable | excellent
	ResidualIncome decimal.Decimal `json:"residual_income"`
	Message        string          `json:"message"`
}

const (
	ComfortCritical    = "critical"
	ComfortTight       = "tight"
	ComfortComfortable = "comfortable"
	ComfortExcellent   = "excellent"
)

// AllocationResult is the full output of one balancing run
type AllocationResult struct {
	Summary     AllocationSummary `json:"summary"`
	Allocations []GoalAllocation  `json:"allocations"`
	SafetyCheck SafetyCheck       `json:"safety_check"`
	Suggestions []Suggestion      `json:"suggestions,omitempty"`
}

// AllocationHistory is an append-only audit row for one goal in one run
type AllocationHistory struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"user_id"`
	GoalID     uuid.UUID       `json:"goal_id"`
	Allocation decimal.Decimal `json:"allocation"`
	Reason     string          `json:"reason"` // manual | auto_rebalance | income_change
	CreatedAt  time.Time       `json:"created_at"`
}
