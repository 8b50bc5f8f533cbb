package repository

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/liorazar/cashcoach/internal/models"
)

// CreateReminder schedules a nudge for later delivery
func (r *Repository) CreateReminder(rem *models.Reminder) error {
	query := `
		INSERT INTO coach.reminders (id, user_id, kind, message, due_at, sent,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, false, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at`
	if rem.ID == uuid.Nil {
		rem.ID = uuid.New()
	}
	if err := r.db.QueryRow(query, rem.ID, rem.UserID, rem.Kind, rem.Message,
		rem.DueAt).Scan(&rem.CreatedAt, &rem.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create reminder: %w", err)
	}
	return nil
}

// HasRecentReminder reports whether a reminder of the given kind was created
// for the user after `since`, sent or not. Used to avoid repeat nudges.
func (r *Repository) HasRecentReminder(userID uuid.UUID, kind string, since time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM coach.reminders
			WHERE user_id = $1 AND kind = $2 AND created_at > $3)`
	var exists bool
	if err := r.db.QueryRow(query, userID, kind, since).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check recent reminders: %w", err)
	}
	return exists, nil
}

// ListDueReminders returns unsent reminders whose due time has passed
func (r *Repository) ListDueReminders(now time.Time) ([]models.Reminder, error) {
	query := `
		SELECT id, user_id, kind, message, due_at, sent, created_at, updated_at
		FROM coach.reminders
		WHERE sent = false AND due_at <= $1
		ORDER BY due_at`
	rows, err := r.db.Query(query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list due reminders: %w", err)
	}
	defer rows.Close()

	var out []models.Reminder
	for rows.Next() {
		var rem models.Reminder
		if err := rows.Scan(&rem.ID, &rem.UserID, &rem.Kind, &rem.Message,
			&rem.DueAt, &rem.Sent, &rem.CreatedAt, &rem.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		out = append(out, rem)
	}
	return out, rows.Err()
}

// MarkReminderSent flags a reminder as delivered
func (r *Repository) MarkReminderSent(id uuid.UUID) error {
	query := `
		UPDATE coach.reminders
		SET sent = true, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	if _, err := r.db.Exec(query, id); err != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	return nil
}
