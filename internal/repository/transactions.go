package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/liorazar/cashcoach/internal/models"
)

const transactionColumns = `id, user_id, amount, currency, type, merchant,
	category, status, date, created_at, updated_at`

// InsertTransaction stores one imported transaction
func (r *Repository) InsertTransaction(txn *models.Transaction) error {
	query := `
		INSERT INTO coach.transactions (id, user_id, amount, currency, type,
			merchant, category, status, date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at`
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	err := r.db.QueryRow(query, txn.ID, txn.UserID, txn.Amount, txn.Currency,
		txn.Type, txn.Merchant, txn.Category, txn.Status, txn.Date).
		Scan(&txn.CreatedAt, &txn.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

func scanTransactions(rows *sql.Rows) ([]models.Transaction, error) {
	var txns []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Amount, &t.Currency, &t.Type,
			&t.Merchant, &t.Category, &t.Status, &t.Date,
			&t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// ListTransactionsSince returns a user's transactions dated on or after `from`
func (r *Repository) ListTransactionsSince(userID uuid.UUID, from time.Time) ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM coach.transactions
		WHERE user_id = $1 AND date >= $2
		ORDER BY date`
	rows, err := r.db.Query(query, userID, from)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// ListIncomeSince returns income transactions dated on or after `from`
func (r *Repository) ListIncomeSince(userID uuid.UUID, from time.Time) ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM coach.transactions
		WHERE user_id = $1 AND type = $2 AND date >= $3
		ORDER BY date`
	rows, err := r.db.Query(query, userID, models.TransactionIncome, from)
	if err != nil {
		return nil, fmt.Errorf("failed to list income transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// ListPendingReview returns transactions awaiting user classification
func (r *Repository) ListPendingReview(userID uuid.UUID) ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM coach.transactions
		WHERE user_id = $1 AND status = $2
		ORDER BY date`
	rows, err := r.db.Query(query, userID, models.TransactionPendingReview)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// FindTransactionByID retrieves one transaction
func (r *Repository) FindTransactionByID(id uuid.UUID) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM coach.transactions WHERE id = $1`
	var t models.Transaction
	err := r.db.QueryRow(query, id).Scan(&t.ID, &t.UserID, &t.Amount, &t.Currency,
		&t.Type, &t.Merchant, &t.Category, &t.Status, &t.Date, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("transaction not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}
	return &t, nil
}

// UpdateTransactionReview sets the category and review status of a transaction
func (r *Repository) UpdateTransactionReview(id uuid.UUID, category, status string) error {
	query := `
		UPDATE coach.transactions
		SET category = $2, status = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	if _, err := r.db.Exec(query, id, category, status); err != nil {
		return fmt.Errorf("failed to update transaction review: %w", err)
	}
	return nil
}
