package allocation

import (
	"fmt"

	"github.com/liorazar/cashcoach/internal/models"
	"github.com/shopspring/decimal"
)

// CheckSafety validates that the income left after fixed expenses and goal
// allocations still covers the minimum-living estimate, and classifies how
// comfortable the residual is relative to total income.
func CheckSafety(income, fixed, allocated, minimumLiving decimal.Decimal, cfg Config) models.SafetyCheck {
	residual := income.Sub(fixed).Sub(allocated)

	var ratio float64
	if income.IsPositive() {
		ratio, _ = residual.Div(income).Float64()
	}

	critical := minimumLiving.Mul(decimal.NewFromFloat(cfg.CriticalResidualRatio))

	check := models.SafetyCheck{ResidualIncome: residual}
	switch {
	case residual.LessThan(critical):
		check.ComfortLevel = models.ComfortCritical
		check.Message = fmt.Sprintf("residual income %s does not cover basic living expenses", residual.StringFixed(0))
	case residual.LessThan(minimumLiving):
		check.ComfortLevel = models.ComfortTight
		check.Message = fmt.Sprintf("residual income %s is below the minimum living estimate %s", residual.StringFixed(0), minimumLiving.StringFixed(0))
	case ratio >= cfg.ExcellentRatio:
		check.Passed = true
		check.ComfortLevel = models.ComfortExcellent
		check.Message = "allocation leaves a wide margin over living expenses"
	case ratio >= cfg.ComfortableRatio:
		check.Passed = true
		check.ComfortLevel = models.ComfortComfortable
		check.Message = "allocation leaves a comfortable margin over living expenses"
	default:
		// Above the minimum but with a thin margin.
		check.Passed = true
		check.ComfortLevel = models.ComfortTight
		check.Message = "allocation covers living expenses with little to spare"
	}
	return check
}
