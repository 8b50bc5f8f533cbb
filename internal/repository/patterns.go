package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/liorazar/cashcoach/internal/models"
)

// UpsertPattern stores or reinforces a learned classification rule,
// keyed by (user_id, pattern_type, pattern_key).
func (r *Repository) UpsertPattern(p *models.UserPattern) error {
	query := `
		INSERT INTO coach.user_patterns (id, user_id, pattern_type, pattern_key,
			category, confidence, hit_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id, pattern_type, pattern_key) DO UPDATE
		SET category = EXCLUDED.category,
			confidence = EXCLUDED.confidence,
			hit_count = coach.user_patterns.hit_count + 1,
			updated_at = CURRENT_TIMESTAMP`
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if _, err := r.db.Exec(query, p.ID, p.UserID, p.PatternType, p.PatternKey,
		p.Category, p.Confidence, p.HitCount); err != nil {
		return fmt.Errorf("failed to upsert pattern: %w", err)
	}
	return nil
}

// FindPattern looks up a learned rule for one key
func (r *Repository) FindPattern(userID uuid.UUID, patternType, patternKey string) (*models.UserPattern, error) {
	query := `
		SELECT id, user_id, pattern_type, pattern_key, category, confidence,
			hit_count, created_at, updated_at
		FROM coach.user_patterns
		WHERE user_id = $1 AND pattern_type = $2 AND pattern_key = $3`
	p := &models.UserPattern{}
	err := r.db.QueryRow(query, userID, patternType, patternKey).Scan(&p.ID,
		&p.UserID, &p.PatternType, &p.PatternKey, &p.Category, &p.Confidence,
		&p.HitCount, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find pattern: %w", err)
	}
	return p, nil
}

// InsertCorrection records a user override of an automatic classification
func (r *Repository) InsertCorrection(c *models.PatternCorrection) error {
	query := `
		INSERT INTO coach.pattern_corrections (id, user_id, transaction_id,
			old_category, new_category, created_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP)
		RETURNING created_at`
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if err := r.db.QueryRow(query, c.ID, c.UserID, c.TransactionID,
		c.OldCategory, c.NewCategory).Scan(&c.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert correction: %w", err)
	}
	return nil
}
