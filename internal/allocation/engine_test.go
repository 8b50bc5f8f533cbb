package allocation

import (
	"io"
	"testing"

	"github.com/liorazar/cashcoach/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func testEngine() *Engine {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewEngine(DefaultConfig(), log)
}

func TestEngineRunDerivesBudget(t *testing.T) {
	snap := models.FinancialSnapshot{
		MonthlyIncome: decimal.NewFromInt(12000),
		FixedExpenses: decimal.NewFromInt(5000),
		MinimumLiving: decimal.NewFromInt(4000),
	}
	goals := []models.Goal{newGoal("fund", 36000, 1, 12)}

	result := testEngine().Run(goals, snap, testNow)

	if want := decimal.NewFromInt(3000); !result.Summary.AvailableForGoals.Equal(want) {
		t.Errorf("available budget = %s, want %s", result.Summary.AvailableForGoals, want)
	}
	if !result.Summary.TotalAllocated.Equal(decimal.NewFromInt(3000)) {
		t.Errorf("total allocated = %s, want the full 3000", result.Summary.TotalAllocated)
	}
	if !result.Summary.RemainingBudget.IsZero() {
		t.Errorf("remaining budget = %s, want 0", result.Summary.RemainingBudget)
	}
}

func TestEngineRunNegativeBudgetFloored(t *testing.T) {
	snap := models.FinancialSnapshot{
		MonthlyIncome: decimal.NewFromInt(6000),
		FixedExpenses: decimal.NewFromInt(5000),
		MinimumLiving: decimal.NewFromInt(4000),
	}
	goals := []models.Goal{newGoal("fund", 10000, 1, 12)}

	result := testEngine().Run(goals, snap, testNow)

	if !result.Summary.AvailableForGoals.IsZero() {
		t.Errorf("available budget = %s, want 0", result.Summary.AvailableForGoals)
	}
	if result.SafetyCheck.Passed {
		t.Error("safety check should fail when income cannot cover expenses")
	}
	if len(result.Suggestions) == 0 {
		t.Error("zero budget should produce suggestions")
	}
}

func TestEngineRunSkipsInactiveGoals(t *testing.T) {
	snap := models.FinancialSnapshot{
		MonthlyIncome: decimal.NewFromInt(12000),
		FixedExpenses: decimal.NewFromInt(4000),
		MinimumLiving: decimal.NewFromInt(4000),
	}
	paused := newGoal("paused", 10000, 1, 12)
	paused.Status = models.GoalPaused
	active := newGoal("active", 10000, 1, 12)

	result := testEngine().Run([]models.Goal{paused, active}, snap, testNow)

	if len(result.Allocations) != 1 {
		t.Fatalf("allocations = %d, want 1 (paused goal excluded)", len(result.Allocations))
	}
	if result.Allocations[0].GoalID != active.ID {
		t.Error("the active goal should be the one allocated")
	}
}
