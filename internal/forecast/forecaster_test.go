package forecast

import (
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/liorazar/cashcoach/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var testFrom = time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)

func testForecaster(cfg Config) *Forecaster {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewForecaster(cfg, log)
}

// incomeHistory builds one income transaction per month, ending the month
// before testFrom.
func incomeHistory(userID uuid.UUID, amounts []float64) []models.Transaction {
	txns := make([]models.Transaction, 0, len(amounts))
	for i, amount := range amounts {
		date := testFrom.AddDate(0, i-len(amounts), 0)
		txns = append(txns, models.Transaction{
			UserID: userID,
			Type:   models.TransactionIncome,
			Amount: decimal.NewFromFloat(amount),
			Date:   date,
		})
	}
	return txns
}

func TestForecastDeclaredFallback(t *testing.T) {
	userID := uuid.New()
	f := testForecaster(DefaultConfig())

	got := f.Forecast(userID, nil, decimal.NewFromInt(9000), testFrom)

	if len(got) != DefaultConfig().HorizonMonths {
		t.Fatalf("forecast months = %d, want %d", len(got), DefaultConfig().HorizonMonths)
	}
	for i := range got {
		if got[i].BasedOn != models.BasisDeclared {
			t.Errorf("month %s basis = %s, want declared", got[i].Month, got[i].BasedOn)
		}
		if got[i].ForecastedIncome != 9000 {
			t.Errorf("month %s income = %f, want the flat declared 9000", got[i].Month, got[i].ForecastedIncome)
		}
		if got[i].ConfidenceScore != DefaultConfig().DeclaredConfidence {
			t.Errorf("month %s confidence = %f, want %f", got[i].Month, got[i].ConfidenceScore, DefaultConfig().DeclaredConfidence)
		}
	}
	if got[0].Month != "2026-04" {
		t.Errorf("first forecast month = %s, want 2026-04", got[0].Month)
	}
}

func TestForecastNoHistoryNoDeclared(t *testing.T) {
	f := testForecaster(DefaultConfig())
	if got := f.Forecast(uuid.New(), nil, decimal.Zero, testFrom); got != nil {
		t.Errorf("expected no forecast without history or declared income, got %d months", len(got))
	}
}

func TestForecastFlatHistory(t *testing.T) {
	userID := uuid.New()
	f := testForecaster(DefaultConfig())
	txns := incomeHistory(userID, []float64{8000, 8000, 8000, 8000, 8000, 8000})

	got := f.Forecast(userID, txns, decimal.Zero, testFrom)
	if len(got) == 0 {
		t.Fatal("expected forecasts from six months of history")
	}
	for i := range got {
		if got[i].BasedOn != models.BasisHistoricalAverage {
			t.Errorf("month %s basis = %s, want historical_average", got[i].Month, got[i].BasedOn)
		}
		if got[i].ForecastedIncome < 7999 || got[i].ForecastedIncome > 8001 {
			t.Errorf("month %s income = %f, want ~8000", got[i].Month, got[i].ForecastedIncome)
		}
	}
}

func TestForecastDetectsUpwardTrend(t *testing.T) {
	userID := uuid.New()
	f := testForecaster(DefaultConfig())
	txns := incomeHistory(userID, []float64{6000, 7000, 8000, 9000, 10000, 11000})

	got := f.Forecast(userID, txns, decimal.Zero, testFrom)
	if len(got) == 0 {
		t.Fatal("expected forecasts")
	}
	if got[0].BasedOn != models.BasisTrendingUp {
		t.Errorf("basis = %s, want trending_up", got[0].BasedOn)
	}
	if got[0].ForecastedIncome <= 8500 {
		t.Errorf("first forecast = %f, should extrapolate above the 8500 average", got[0].ForecastedIncome)
	}
}

func TestForecastDetectsDownwardTrend(t *testing.T) {
	userID := uuid.New()
	f := testForecaster(DefaultConfig())
	txns := incomeHistory(userID, []float64{11000, 10000, 9000, 8000, 7000, 6000})

	got := f.Forecast(userID, txns, decimal.Zero, testFrom)
	if len(got) == 0 {
		t.Fatal("expected forecasts")
	}
	if got[0].BasedOn != models.BasisTrendingDown {
		t.Errorf("basis = %s, want trending_down", got[0].BasedOn)
	}
}

func TestForecastConfidenceDecays(t *testing.T) {
	userID := uuid.New()
	cfg := DefaultConfig()
	cfg.ConfidenceMin = 0 // keep every month so the decay is visible
	f := testForecaster(cfg)
	txns := incomeHistory(userID, []float64{8000, 8000, 8000, 8000})

	got := f.Forecast(userID, txns, decimal.Zero, testFrom)
	if len(got) != cfg.HorizonMonths {
		t.Fatalf("forecast months = %d, want %d", len(got), cfg.HorizonMonths)
	}
	for i := 1; i < len(got); i++ {
		if got[i].ConfidenceScore > got[i-1].ConfidenceScore {
			t.Errorf("confidence rose from month %d to %d: %f -> %f",
				i, i+1, got[i-1].ConfidenceScore, got[i].ConfidenceScore)
		}
	}
	for i := range got {
		if got[i].ConfidenceScore < cfg.FloorConfidence || got[i].ConfidenceScore > cfg.BaseConfidence {
			t.Errorf("confidence %f out of [%f, %f]", got[i].ConfidenceScore, cfg.FloorConfidence, cfg.BaseConfidence)
		}
	}
}

func TestForecastDropsLowConfidenceMonths(t *testing.T) {
	userID := uuid.New()
	cfg := DefaultConfig()
	cfg.ConfidenceMin = 0.9
	f := testForecaster(cfg)
	txns := incomeHistory(userID, []float64{8000, 8000, 8000, 8000})

	got := f.Forecast(userID, txns, decimal.Zero, testFrom)
	for i := range got {
		if got[i].ConfidenceScore < cfg.ConfidenceMin {
			t.Errorf("month %s kept with confidence %f below the %f cutoff",
				got[i].Month, got[i].ConfidenceScore, cfg.ConfidenceMin)
		}
	}
	if len(got) >= cfg.HorizonMonths {
		t.Error("a strict confidence cutoff should drop far months")
	}
}

func TestForecastSeasonality(t *testing.T) {
	userID := uuid.New()
	f := testForecaster(DefaultConfig())

	// Two full years: every December doubles.
	amounts := make([]float64, 0, 24)
	for i := 0; i < 24; i++ {
		date := testFrom.AddDate(0, i-24, 0)
		amount := 8000.0
		if date.Month() == time.December {
			amount = 16000
		}
		amounts = append(amounts, amount)
	}
	txns := incomeHistory(userID, amounts)

	got := f.Forecast(userID, txns, decimal.Zero, testFrom)
	var december, january *models.IncomeForecast
	for i := range got {
		switch got[i].Month {
		case "2026-12":
			december = &got[i]
		case "2027-01":
			january = &got[i]
		}
	}
	if december == nil {
		t.Fatal("expected a December forecast within the horizon")
	}
	if december.BasedOn != models.BasisSeasonalPattern {
		t.Errorf("December basis = %s, want seasonal_pattern", december.BasedOn)
	}
	if january != nil && december.ForecastedIncome <= january.ForecastedIncome {
		t.Errorf("December forecast %f should exceed January %f",
			december.ForecastedIncome, january.ForecastedIncome)
	}
}

func TestForecastVarianceBandsBracketValue(t *testing.T) {
	userID := uuid.New()
	f := testForecaster(DefaultConfig())
	txns := incomeHistory(userID, []float64{8000, 8200, 7800, 8100})

	got := f.Forecast(userID, txns, decimal.Zero, testFrom)
	for i := range got {
		if got[i].VarianceLow > got[i].ForecastedIncome || got[i].VarianceHigh < got[i].ForecastedIncome {
			t.Errorf("month %s variance band [%f, %f] does not bracket %f",
				got[i].Month, got[i].VarianceLow, got[i].VarianceHigh, got[i].ForecastedIncome)
		}
	}
}

func TestForecastIgnoresExpenses(t *testing.T) {
	userID := uuid.New()
	f := testForecaster(DefaultConfig())
	txns := incomeHistory(userID, []float64{8000, 8000, 8000})
	txns = append(txns, models.Transaction{
		UserID: userID,
		Type:   models.TransactionExpense,
		Amount: decimal.NewFromInt(100000),
		Date:   testFrom.AddDate(0, -1, 0),
	})

	got := f.Forecast(userID, txns, decimal.Zero, testFrom)
	if len(got) == 0 {
		t.Fatal("expected forecasts")
	}
	for i := range got {
		if got[i].ForecastedIncome > 9000 {
			t.Errorf("month %s income = %f, expense rows must not inflate the forecast", got[i].Month, got[i].ForecastedIncome)
		}
	}
}
