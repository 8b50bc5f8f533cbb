package repository

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/liorazar/cashcoach/internal/models"
)

// InsertAllocationHistory appends one audit row for an allocation decision
func (r *Repository) InsertAllocationHistory(h *models.AllocationHistory) error {
	query := `
		INSERT INTO coach.goal_allocations_history (id, user_id, goal_id,
			allocation, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP)
		RETURNING created_at`
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	if err := r.db.QueryRow(query, h.ID, h.UserID, h.GoalID, h.Allocation,
		h.Reason).Scan(&h.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert allocation history: %w", err)
	}
	return nil
}

// ListAllocationHistory returns the audit trail for one goal, newest first
func (r *Repository) ListAllocationHistory(goalID uuid.UUID) ([]models.AllocationHistory, error) {
	query := `
		SELECT id, user_id, goal_id, allocation, reason, created_at
		FROM coach.goal_allocations_history
		WHERE goal_id = $1
		ORDER BY created_at DESC`
	rows, err := r.db.Query(query, goalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list allocation history: %w", err)
	}
	defer rows.Close()

	var out []models.AllocationHistory
	for rows.Next() {
		var h models.AllocationHistory
		if err := rows.Scan(&h.ID, &h.UserID, &h.GoalID, &h.Allocation,
			&h.Reason, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan allocation history: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
