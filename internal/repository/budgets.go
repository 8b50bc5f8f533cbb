package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/liorazar/cashcoach/internal/models"
	"github.com/shopspring/decimal"
)

// CreateBudget creates a monthly budget with its category lines in one
// transaction.
func (r *Repository) CreateBudget(budget *models.Budget, categories []models.BudgetCategory) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if budget.ID == uuid.Nil {
		budget.ID = uuid.New()
	}
	query := `
		INSERT INTO coach.budgets (id, user_id, month, total_income,
			total_planned, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at`
	if err := tx.QueryRow(query, budget.ID, budget.UserID, budget.Month,
		budget.TotalIncome, budget.TotalPlanned).
		Scan(&budget.CreatedAt, &budget.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create budget: %w", err)
	}

	catQuery := `
		INSERT INTO coach.budget_categories (id, budget_id, name, planned,
			spent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`
	for i := range categories {
		if categories[i].ID == uuid.Nil {
			categories[i].ID = uuid.New()
		}
		categories[i].BudgetID = budget.ID
		if _, err := tx.Exec(catQuery, categories[i].ID, budget.ID,
			categories[i].Name, categories[i].Planned, categories[i].Spent); err != nil {
			return fmt.Errorf("failed to create budget category: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit budget: %w", err)
	}
	return nil
}

// FindBudget retrieves a user's budget for one month
func (r *Repository) FindBudget(userID uuid.UUID, month string) (*models.Budget, error) {
	query := `
		SELECT id, user_id, month, total_income, total_planned, created_at, updated_at
		FROM coach.budgets
		WHERE user_id = $1 AND month = $2`
	b := &models.Budget{}
	err := r.db.QueryRow(query, userID, month).Scan(&b.ID, &b.UserID, &b.Month,
		&b.TotalIncome, &b.TotalPlanned, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("budget not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find budget: %w", err)
	}
	return b, nil
}

// ListBudgetCategories returns the category lines of a budget
func (r *Repository) ListBudgetCategories(budgetID uuid.UUID) ([]models.BudgetCategory, error) {
	query := `
		SELECT id, budget_id, name, planned, spent, created_at, updated_at
		FROM coach.budget_categories
		WHERE budget_id = $1
		ORDER BY name`
	rows, err := r.db.Query(query, budgetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list budget categories: %w", err)
	}
	defer rows.Close()

	var out []models.BudgetCategory
	for rows.Next() {
		var c models.BudgetCategory
		if err := rows.Scan(&c.ID, &c.BudgetID, &c.Name, &c.Planned, &c.Spent,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan budget category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AddCategorySpend accumulates spending onto a budget category line
func (r *Repository) AddCategorySpend(categoryID uuid.UUID, amount decimal.Decimal) error {
	query := `
		UPDATE coach.budget_categories
		SET spent = spent + $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	if _, err := r.db.Exec(query, categoryID, amount); err != nil {
		return fmt.Errorf("failed to add category spend: %w", err)
	}
	return nil
}
