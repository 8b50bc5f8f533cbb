package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/liorazar/cashcoach/internal/models"
	"github.com/shopspring/decimal"
)

const goalColumns = `id, user_id, name, goal_type, target_amount, current_amount,
	priority, deadline, start_date, min_allocation, is_flexible, auto_adjust,
	monthly_allocation, status, created_at, updated_at`

// CreateGoal creates a new goal for a user
func (r *Repository) CreateGoal(goal *models.Goal) error {
	query := `
		INSERT INTO coach.goals (id, user_id, name, goal_type, target_amount,
			current_amount, priority, deadline, start_date, min_allocation,
			is_flexible, auto_adjust, monthly_allocation, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at`
	if goal.ID == uuid.Nil {
		goal.ID = uuid.New()
	}
	err := r.db.QueryRow(query, goal.ID, goal.UserID, goal.Name, goal.Type,
		goal.TargetAmount, goal.CurrentAmount, goal.Priority, goal.Deadline,
		goal.StartDate, goal.MinAllocation, goal.IsFlexible, goal.AutoAdjust,
		goal.MonthlyAllocation, goal.Status).
		Scan(&goal.CreatedAt, &goal.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create goal: %w", err)
	}
	return nil
}

func scanGoals(rows *sql.Rows) ([]models.Goal, error) {
	var goals []models.Goal
	for rows.Next() {
		var g models.Goal
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.Type, &g.TargetAmount,
			&g.CurrentAmount, &g.Priority, &g.Deadline, &g.StartDate,
			&g.MinAllocation, &g.IsFlexible, &g.AutoAdjust,
			&g.MonthlyAllocation, &g.Status, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// ListGoals returns all goals for a user, oldest first
func (r *Repository) ListGoals(userID uuid.UUID) ([]models.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM coach.goals WHERE user_id = $1 ORDER BY created_at`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()
	return scanGoals(rows)
}

// ListActiveGoals returns the user's active goals, oldest first
func (r *Repository) ListActiveGoals(userID uuid.UUID) ([]models.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM coach.goals WHERE user_id = $1 AND status = $2 ORDER BY created_at`
	rows, err := r.db.Query(query, userID, models.GoalActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list active goals: %w", err)
	}
	defer rows.Close()
	return scanGoals(rows)
}

// FindGoalByID retrieves one goal
func (r *Repository) FindGoalByID(id uuid.UUID) (*models.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM coach.goals WHERE id = $1`
	var g models.Goal
	err := r.db.QueryRow(query, id).Scan(&g.ID, &g.UserID, &g.Name, &g.Type,
		&g.TargetAmount, &g.CurrentAmount, &g.Priority, &g.Deadline, &g.StartDate,
		&g.MinAllocation, &g.IsFlexible, &g.AutoAdjust, &g.MonthlyAllocation,
		&g.Status, &g.CreatedAt, &g.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("goal not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find goal: %w", err)
	}
	return &g, nil
}

// UpdateGoalAllocation stores the balancer's latest result for a goal
func (r *Repository) UpdateGoalAllocation(goalID uuid.UUID, allocation decimal.Decimal) error {
	query := `
		UPDATE coach.goals
		SET monthly_allocation = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	if _, err := r.db.Exec(query, goalID, allocation); err != nil {
		return fmt.Errorf("failed to update goal allocation: %w", err)
	}
	return nil
}

// UpdateGoalProgress updates the accumulated amount and status of a goal
func (r *Repository) UpdateGoalProgress(goalID uuid.UUID, current decimal.Decimal, status models.GoalStatus) error {
	query := `
		UPDATE coach.goals
		SET current_amount = $2, status = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	if _, err := r.db.Exec(query, goalID, current, status); err != nil {
		return fmt.Errorf("failed to update goal progress: %w", err)
	}
	return nil
}

// UpdateGoal updates the user-editable fields of a goal
func (r *Repository) UpdateGoal(goal *models.Goal) error {
	query := `
		UPDATE coach.goals
		SET name = $2, target_amount = $3, priority = $4, deadline = $5,
			min_allocation = $6, is_flexible = $7, auto_adjust = $8,
			status = $9, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	if _, err := r.db.Exec(query, goal.ID, goal.Name, goal.TargetAmount,
		goal.Priority, goal.Deadline, goal.MinAllocation, goal.IsFlexible,
		goal.AutoAdjust, goal.Status); err != nil {
		return fmt.Errorf("failed to update goal: %w", err)
	}
	return nil
}
