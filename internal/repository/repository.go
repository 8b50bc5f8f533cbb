package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/liorazar/cashcoach/internal/models"
	"github.com/shopspring/decimal"
)

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(user *models.User) error {
	query := `
		INSERT INTO coach.users (id, phone, email, name, password_hash,
			declared_monthly_income, fixed_expenses, minimum_living,
			income_baseline, email_reminders, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at`
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	err := r.db.QueryRow(query, user.ID, user.Phone, user.Email, user.Name, user.PasswordHash,
		user.DeclaredMonthlyIncome, user.FixedExpenses, user.MinimumLiving,
		user.IncomeBaseline, user.EmailReminders).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

const userColumns = `id, phone, email, name, password_hash,
	declared_monthly_income, fixed_expenses, minimum_living,
	income_baseline, email_reminders, created_at, updated_at`

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Phone, &user.Email, &user.Name, &user.PasswordHash,
		&user.DeclaredMonthlyIncome, &user.FixedExpenses, &user.MinimumLiving,
		&user.IncomeBaseline, &user.EmailReminders, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// FindUserByEmail retrieves a user by email
func (r *Repository) FindUserByEmail(email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM coach.users WHERE email = $1`
	return scanUser(r.db.QueryRow(query, email))
}

// FindUserByPhone retrieves a user by WhatsApp phone number
func (r *Repository) FindUserByPhone(phone string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM coach.users WHERE phone = $1`
	return scanUser(r.db.QueryRow(query, phone))
}

// FindUserByID retrieves a user by id
func (r *Repository) FindUserByID(id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM coach.users WHERE id = $1`
	return scanUser(r.db.QueryRow(query, id))
}

// UpdateFinancialProfile updates the self-declared profile figures
func (r *Repository) UpdateFinancialProfile(user *models.User) error {
	query := `
		UPDATE coach.users
		SET name = $2, declared_monthly_income = $3, fixed_expenses = $4,
			minimum_living = $5, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	if _, err := r.db.Exec(query, user.ID, user.Name, user.DeclaredMonthlyIncome,
		user.FixedExpenses, user.MinimumLiving); err != nil {
		return fmt.Errorf("failed to update financial profile: %w", err)
	}
	return nil
}

// UpdateIncomeBaseline persists a new baseline after an approved reallocation
func (r *Repository) UpdateIncomeBaseline(userID uuid.UUID, baseline decimal.Decimal) error {
	query := `
		UPDATE coach.users
		SET income_baseline = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	if _, err := r.db.Exec(query, userID, baseline); err != nil {
		return fmt.Errorf("failed to update income baseline: %w", err)
	}
	return nil
}

// ListUserIDs returns the ids of all users, for the scheduled monitors
func (r *Repository) ListUserIDs() ([]uuid.UUID, error) {
	rows, err := r.db.Query(`SELECT id FROM coach.users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
