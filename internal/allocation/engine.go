package allocation

import (
	"time"

	"github.com/liorazar/cashcoach/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Engine runs complete balancing passes: budget derivation, the two
// allocation rounds, the safety check and suggestion derivation.
type Engine struct {
	cfg Config
	log *logrus.Logger
}

// NewEngine initializes an allocation engine
func NewEngine(cfg Config, log *logrus.Logger) *Engine {
	return &Engine{cfg: cfg, log: log}
}

// Config exposes the engine's configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Run balances the monthly budget across the given active goals.
// The available budget is income minus fixed expenses minus the safety
// margin (the minimum-living estimate), floored at zero.
func (e *Engine) Run(goals []models.Goal, snap models.FinancialSnapshot, now time.Time) *models.AllocationResult {
	available := snap.MonthlyIncome.Sub(snap.FixedExpenses).Sub(snap.MinimumLiving)
	if available.IsNegative() {
		available = decimal.Zero
	}

	active := goals[:0:0]
	for i := range goals {
		if goals[i].Status == models.GoalActive {
			active = append(active, goals[i])
		}
	}

	allocs := Allocate(active, available, now, e.cfg)

	total := decimal.Zero
	for i := range allocs {
		total = total.Add(allocs[i].MonthlyAllocation)
	}

	safety := CheckSafety(snap.MonthlyIncome, snap.FixedExpenses, total, snap.MinimumLiving, e.cfg)
	suggestions := DeriveSuggestions(active, allocs, safety, available, now, e.cfg)

	result := &models.AllocationResult{
		Summary: models.AllocationSummary{
			TotalIncome:       snap.MonthlyIncome,
			FixedExpenses:     snap.FixedExpenses,
			MinimumLiving:     snap.MinimumLiving,
			SafetyMargin:      snap.MinimumLiving,
			AvailableForGoals: available,
			TotalAllocated:    total,
			RemainingBudget:   available.Sub(total),
		},
		Allocations: allocs,
		SafetyCheck: safety,
		Suggestions: suggestions,
	}

	e.log.Debugf("Balanced %d goals: allocated %s of %s available", len(active), total.StringFixed(2), available.StringFixed(2))
	return result
}
