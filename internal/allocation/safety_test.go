package allocation

import (
	"testing"

	"github.com/liorazar/cashcoach/internal/models"
	"github.com/shopspring/decimal"
)

func TestCheckSafetyLadder(t *testing.T) {
	income := decimal.NewFromInt(10000)
	fixed := decimal.NewFromInt(3000)
	minimum := decimal.NewFromInt(2500)
	cfg := DefaultConfig()

	cases := []struct {
		name       string
		allocated  int64
		wantPassed bool
		wantLevel  string
	}{
		{"critical", 6800, false, models.ComfortCritical},       // residual 200 under 15% of minimum
		{"tight failing", 5500, false, models.ComfortTight},     // residual 1500 under minimum
		{"tight passing", 4400, true, models.ComfortTight},      // residual 2600, ratio 0.26
		{"comfortable", 4000, true, models.ComfortComfortable},  // residual 3000, ratio 0.30
		{"excellent", 2000, true, models.ComfortExcellent},      // residual 5000, ratio 0.50
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			check := CheckSafety(income, fixed, decimal.NewFromInt(c.allocated), minimum, cfg)
			if check.Passed != c.wantPassed {
				t.Errorf("passed = %v, want %v", check.Passed, c.wantPassed)
			}
			if check.ComfortLevel != c.wantLevel {
				t.Errorf("comfort level = %q, want %q", check.ComfortLevel, c.wantLevel)
			}
			wantResidual := income.Sub(fixed).Sub(decimal.NewFromInt(c.allocated))
			if !check.ResidualIncome.Equal(wantResidual) {
				t.Errorf("residual = %s, want %s", check.ResidualIncome, wantResidual)
			}
			if check.Message == "" {
				t.Error("every verdict should carry a message")
			}
		})
	}
}

func TestCheckSafetyZeroIncome(t *testing.T) {
	check := CheckSafety(decimal.Zero, decimal.Zero, decimal.Zero, decimal.NewFromInt(2000), DefaultConfig())
	if check.Passed {
		t.Error("zero income must not pass the safety check")
	}
	if check.ComfortLevel != models.ComfortCritical {
		t.Errorf("comfort level = %q, want critical", check.ComfortLevel)
	}
}
