package repository

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/liorazar/cashcoach/internal/models"
)

// MonthlyStats aggregates income and expense totals per calendar month for
// the dashboard, newest month first.
func (r *Repository) MonthlyStats(userID uuid.UUID, from time.Time) ([]models.IncomeExpenseStats, error) {
	query := `
		SELECT to_char(date, 'YYYY-MM') AS month,
			COALESCE(SUM(amount) FILTER (WHERE type = $2), 0) AS income,
			COALESCE(SUM(amount) FILTER (WHERE type = $3), 0) AS expense
		FROM coach.transactions
		WHERE user_id = $1 AND date >= $4
		GROUP BY to_char(date, 'YYYY-MM')
		ORDER BY month DESC`
	rows, err := r.db.Query(query, userID,
		models.TransactionIncome, models.TransactionExpense, from)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate monthly stats: %w", err)
	}
	defer rows.Close()

	var out []models.IncomeExpenseStats
	for rows.Next() {
		var s models.IncomeExpenseStats
		if err := rows.Scan(&s.Month, &s.Income, &s.Expense); err != nil {
			return nil, fmt.Errorf("failed to scan monthly stats: %w", err)
		}
		s.NetBalance = s.Income.Sub(s.Expense)
		out = append(out, s)
	}
	return out, rows.Err()
}
