package forecast

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/liorazar/cashcoach/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Config holds the forecaster's tunable knobs
type Config struct {
	// HorizonMonths is how many future months to forecast.
	HorizonMonths int
	// ConfidenceMin drops forecasts below this confidence from the result.
	ConfidenceMin float64
	// TrendThreshold is the |trend|/average ratio above which a trend label
	// overrides the seasonal one.
	TrendThreshold float64
	// DecayRate controls the exponential confidence decay per month ahead.
	DecayRate float64

	BaseConfidence     float64
	FloorConfidence    float64
	DeclaredConfidence float64
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		HorizonMonths:      12,
		ConfidenceMin:      0.6,
		TrendThreshold:     0.05,
		DecayRate:          0.05,
		BaseConfidence:     0.95,
		FloorConfidence:    0.3,
		DeclaredConfidence: 0.7,
	}
}

// Forecaster produces forward monthly income forecasts from trailing
// transaction history, falling back to the user's declared income when no
// history exists.
type Forecaster struct {
	cfg Config
	log *logrus.Logger
}

// NewForecaster initializes a forecaster
func NewForecaster(cfg Config, log *logrus.Logger) *Forecaster {
	return &Forecaster{cfg: cfg, log: log}
}

// monthKey formats a time as the YYYY-MM upsert key.
func monthKey(t time.Time) string {
	return t.Format("2006-01")
}

// Forecast builds forecasts for the months after `from`. Only income
// transactions contribute; expense rows are ignored.
func (f *Forecaster) Forecast(userID uuid.UUID, txns []models.Transaction, declaredIncome decimal.Decimal, from time.Time) []models.IncomeForecast {
	series := monthlySeries(txns)
	if len(series) == 0 {
		return f.declaredFallback(userID, declaredIncome, from)
	}

	avg := mean(series.values())
	trend := trendSlope(series.values())
	seasonal := seasonalFactors(series, avg)

	trendRatio := 0.0
	if avg > 0 {
		trendRatio = math.Abs(trend) / avg
	}

	var out []models.IncomeForecast
	for ahead := 1; ahead <= f.cfg.HorizonMonths; ahead++ {
		month := from.AddDate(0, ahead, 0)
		value := avg + trend*float64(ahead)

		basis := models.BasisHistoricalAverage
		if factor, ok := seasonal[int(month.Month())]; ok {
			value *= factor
			basis = models.BasisSeasonalPattern
		}
		if trendRatio > f.cfg.TrendThreshold {
			if trend > 0 {
				basis = models.BasisTrendingUp
			} else {
				basis = models.BasisTrendingDown
			}
		}
		if value < 0 {
			value = 0
		}

		confidence := f.confidence(ahead, trendRatio)
		if confidence < f.cfg.ConfidenceMin {
			continue
		}

		spread := value * (1 - confidence)
		out = append(out, models.IncomeForecast{
			UserID:           userID,
			Month:            monthKey(month),
			ForecastedIncome: value,
			ConfidenceScore:  confidence,
			BasedOn:          basis,
			VarianceLow:      value - spread,
			VarianceHigh:     value + spread,
		})
	}

	f.log.Debugf("Forecasted %d months for user %s (avg %.2f, trend %.2f)", len(out), userID, avg, trend)
	return out
}

// confidence decays exponentially with distance into the future and with
// trend volatility, floored and capped per configuration.
func (f *Forecaster) confidence(monthsAhead int, trendRatio float64) float64 {
	c := f.cfg.BaseConfidence * math.Exp(-(f.cfg.DecayRate*float64(monthsAhead) + trendRatio))
	if c < f.cfg.FloorConfidence {
		c = f.cfg.FloorConfidence
	}
	if c > f.cfg.BaseConfidence {
		c = f.cfg.BaseConfidence
	}
	return c
}

// declaredFallback emits flat forecasts from the self-declared income.
func (f *Forecaster) declaredFallback(userID uuid.UUID, declared decimal.Decimal, from time.Time) []models.IncomeForecast {
	value := declared.InexactFloat64()
	if value <= 0 {
		return nil
	}
	out := make([]models.IncomeForecast, 0, f.cfg.HorizonMonths)
	for ahead := 1; ahead <= f.cfg.HorizonMonths; ahead++ {
		month := from.AddDate(0, ahead, 0)
		spread := value * (1 - f.cfg.DeclaredConfidence)
		out = append(out, models.IncomeForecast{
			UserID:           userID,
			Month:            monthKey(month),
			ForecastedIncome: value,
			ConfidenceScore:  f.cfg.DeclaredConfidence,
			BasedOn:          models.BasisDeclared,
			VarianceLow:      value - spread,
			VarianceHigh:     value + spread,
		})
	}
	return out
}

// monthPoint is one observed month of income
type monthPoint struct {
	key   string // YYYY-MM
	month int    // calendar month 1-12
	total float64
}

type monthSeries []monthPoint

func (s monthSeries) values() []float64 {
	vals := make([]float64, len(s))
	for i := range s {
		vals[i] = s[i].total
	}
	return vals
}

// monthlySeries groups income transactions by calendar month, oldest first.
func monthlySeries(txns []models.Transaction) monthSeries {
	totals := make(map[string]*monthPoint)
	for i := range txns {
		if txns[i].Type != models.TransactionIncome {
			continue
		}
		key := monthKey(txns[i].Date)
		p, ok := totals[key]
		if !ok {
			p = &monthPoint{key: key, month: int(txns[i].Date.Month())}
			totals[key] = p
		}
		p.total += txns[i].Amount.InexactFloat64()
	}

	series := make(monthSeries, 0, len(totals))
	for _, p := range totals {
		series = append(series, *p)
	}
	sort.Slice(series, func(a, b int) bool { return series[a].key < series[b].key })
	return series
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// trendSlope is the least-squares slope over the monthly series.
// Fewer than three observed months yields no trend.
func trendSlope(vals []float64) float64 {
	n := len(vals)
	if n < 3 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, v := range vals {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}
	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (fn*sumXY - sumX*sumY) / denom
}

// seasonalFactors computes the mean ratio-to-average per calendar month.
// Requires a full year of observed months; otherwise no seasonality is used.
func seasonalFactors(series monthSeries, avg float64) map[int]float64 {
	if len(series) < 12 || avg <= 0 {
		return nil
	}
	sums := make(map[int]float64)
	counts := make(map[int]int)
	for _, p := range series {
		sums[p.month] += p.total / avg
		counts[p.month]++
	}
	factors := make(map[int]float64, len(sums))
	for m, sum := range sums {
		factors[m] = sum / float64(counts[m])
	}
	return factors
}
