package repository

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/liorazar/cashcoach/internal/models"
)

// UpsertForecast stores one forecasted month, keyed by (user_id, month)
func (r *Repository) UpsertForecast(f *models.IncomeForecast) error {
	query := `
		INSERT INTO coach.user_income_forecast (id, user_id, month,
			forecasted_income, confidence_score, based_on, variance_low,
			variance_high, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id, month) DO UPDATE
		SET forecasted_income = EXCLUDED.forecasted_income,
			confidence_score = EXCLUDED.confidence_score,
			based_on = EXCLUDED.based_on,
			variance_low = EXCLUDED.variance_low,
			variance_high = EXCLUDED.variance_high,
			updated_at = CURRENT_TIMESTAMP`
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	if _, err := r.db.Exec(query, f.ID, f.UserID, f.Month, f.ForecastedIncome,
		f.ConfidenceScore, f.BasedOn, f.VarianceLow, f.VarianceHigh); err != nil {
		return fmt.Errorf("failed to upsert forecast: %w", err)
	}
	return nil
}

// ListForecasts returns a user's stored forecasts in month order
func (r *Repository) ListForecasts(userID uuid.UUID) ([]models.IncomeForecast, error) {
	query := `
		SELECT id, user_id, month, forecasted_income, confidence_score,
			based_on, variance_low, variance_high, created_at, updated_at
		FROM coach.user_income_forecast
		WHERE user_id = $1
		ORDER BY month`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list forecasts: %w", err)
	}
	defer rows.Close()

	var out []models.IncomeForecast
	for rows.Next() {
		var f models.IncomeForecast
		if err := rows.Scan(&f.ID, &f.UserID, &f.Month, &f.ForecastedIncome,
			&f.ConfidenceScore, &f.BasedOn, &f.VarianceLow, &f.VarianceHigh,
			&f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan forecast: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
