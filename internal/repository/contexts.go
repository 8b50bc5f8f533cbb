package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/liorazar/cashcoach/internal/models"
)

// GetContext loads the conversation context row for a user, creating an
// idle one if the user has never talked to the assistant.
func (r *Repository) GetContext(userID uuid.UUID) (*models.ConversationContext, error) {
	query := `
		SELECT id, user_id, state, payload, postpone_count, last_interaction, created_at, updated_at
		FROM coach.conversation_context
		WHERE user_id = $1`
	ctx := &models.ConversationContext{}
	var raw []byte
	err := r.db.QueryRow(query, userID).Scan(&ctx.ID, &ctx.UserID, &ctx.State,
		&raw, &ctx.PostponeCount, &ctx.LastInteraction, &ctx.CreatedAt, &ctx.UpdatedAt)
	if err == sql.ErrNoRows {
		ctx = &models.ConversationContext{
			ID:              uuid.New(),
			UserID:          userID,
			State:           "idle",
			Payload:         models.ContextPayload{Kind: models.PayloadNone},
			LastInteraction: time.Now(),
		}
		if err := r.SaveContext(ctx); err != nil {
			return nil, err
		}
		return ctx, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation context: %w", err)
	}

	ctx.Payload, err = models.UnmarshalPayload(raw)
	if err != nil {
		return nil, err
	}
	return ctx, nil
}

// SaveContext upserts the conversation context row, keyed by user.
func (r *Repository) SaveContext(ctx *models.ConversationContext) error {
	raw, err := ctx.Payload.Marshal()
	if err != nil {
		return fmt.Errorf("failed to serialize context payload: %w", err)
	}

	query := `
		INSERT INTO coach.conversation_context (id, user_id, state, payload,
			postpone_count, last_interaction, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id) DO UPDATE
		SET state = EXCLUDED.state,
			payload = EXCLUDED.payload,
			postpone_count = EXCLUDED.postpone_count,
			last_interaction = EXCLUDED.last_interaction,
			updated_at = CURRENT_TIMESTAMP`
	if ctx.ID == uuid.Nil {
		ctx.ID = uuid.New()
	}
	if _, err := r.db.Exec(query, ctx.ID, ctx.UserID, ctx.State, raw,
		ctx.PostponeCount, ctx.LastInteraction); err != nil {
		return fmt.Errorf("failed to save conversation context: %w", err)
	}
	return nil
}
