package models

import (
	"time"

	"github.com/google/uuid"
)

// ForecastBasis tags how a monthly income forecast was derived
type ForecastBasis string

const (
	BasisDeclared          ForecastBasis = "declared"
	BasisHistoricalAverage ForecastBasis = "historical_average"
	BasisSeasonalPattern   ForecastBasis = "seasonal_pattern"
	BasisTrendingUp        ForecastBasis = "trending_up"
	BasisTrendingDown      ForecastBasis = "trending_down"
)

// IncomeForecast is one forecasted month of income for a user.
// Upserted keyed by (user_id, month).
type IncomeForecast struct {
	ID               uuid.UUID     `json:"id"`
	UserID           uuid.UUID     `json:"user_id"`
	Month            string        `json:"month"` // YYYY-MM
	ForecastedIncome float64       `json:"forecasted_income"`
	ConfidenceScore  float64       `json:"confidence_score"` // 0.3 - 0.95
	BasedOn          ForecastBasis `json:"based_on"`
	VarianceLow      float64       `json:"variance_low"`
	VarianceHigh     float64       `json:"variance_high"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}
