package repository

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/liorazar/cashcoach/internal/models"
)

// CreateLoan stores a loan reported by the user during the consolidation flow
func (r *Repository) CreateLoan(loan *models.Loan) error {
	query := `
		INSERT INTO coach.loans (id, user_id, lender, balance, interest_rate,
			monthly_payment, term_months, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at`
	if loan.ID == uuid.Nil {
		loan.ID = uuid.New()
	}
	if err := r.db.QueryRow(query, loan.ID, loan.UserID, loan.Lender,
		loan.Balance, loan.InterestRate, loan.MonthlyPayment, loan.TermMonths).
		Scan(&loan.CreatedAt, &loan.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

// ListLoans returns the user's reported loans, largest balance first
func (r *Repository) ListLoans(userID uuid.UUID) ([]models.Loan, error) {
	query := `
		SELECT id, user_id, lender, balance, interest_rate, monthly_payment,
			term_months, created_at, updated_at
		FROM coach.loans
		WHERE user_id = $1
		ORDER BY balance DESC`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	defer rows.Close()

	var out []models.Loan
	for rows.Next() {
		var l models.Loan
		if err := rows.Scan(&l.ID, &l.UserID, &l.Lender, &l.Balance,
			&l.InterestRate, &l.MonthlyPayment, &l.TermMonths,
			&l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
