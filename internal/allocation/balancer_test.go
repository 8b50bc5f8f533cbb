package allocation

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/liorazar/cashcoach/internal/models"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

func newGoal(name string, target float64, priority int, months int) models.Goal {
	g := models.Goal{
		ID:           uuid.New(),
		Name:         name,
		TargetAmount: decimal.NewFromFloat(target),
		Priority:     priority,
		StartDate:    testNow,
		IsFlexible:   true,
		Status:       models.GoalActive,
	}
	if months > 0 {
		deadline := testNow.AddDate(0, months, 0)
		g.Deadline = &deadline
	}
	return g
}

func allocFor(t *testing.T, allocs []models.GoalAllocation, id uuid.UUID) models.GoalAllocation {
	t.Helper()
	for i := range allocs {
		if allocs[i].GoalID == id {
			return allocs[i]
		}
	}
	t.Fatalf("no allocation for goal %s", id)
	return models.GoalAllocation{}
}

func totalAllocated(allocs []models.GoalAllocation) decimal.Decimal {
	sum := decimal.Zero
	for i := range allocs {
		sum = sum.Add(allocs[i].MonthlyAllocation)
	}
	return sum
}

func TestAllocateFundsIdealsWhenBudgetMatches(t *testing.T) {
	// A needs 1000/month for 12 months, B needs 500/month over the default
	// horizon. A budget of exactly 1500 must fund both in full even though
	// A's share exceeds the single-goal cap.
	a := newGoal("car", 12000, 1, 12)
	b := newGoal("trip", 6000, 5, 0)

	allocs := Allocate([]models.Goal{a, b}, decimal.NewFromInt(1500), testNow, DefaultConfig())

	if got := allocFor(t, allocs, a.ID).MonthlyAllocation; !got.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("goal A allocation = %s, want 1000", got)
	}
	if got := allocFor(t, allocs, b.ID).MonthlyAllocation; !got.Equal(decimal.NewFromInt(500)) {
		t.Errorf("goal B allocation = %s, want 500", got)
	}
}

func TestAllocateNeverExceedsBudget(t *testing.T) {
	goals := []models.Goal{
		newGoal("a", 50000, 1, 6),
		newGoal("b", 30000, 3, 12),
		newGoal("c", 20000, 7, 0),
	}
	budget := decimal.NewFromInt(2000)

	allocs := Allocate(goals, budget, testNow, DefaultConfig())

	if total := totalAllocated(allocs); total.GreaterThan(budget) {
		t.Errorf("total allocated %s exceeds budget %s", total, budget)
	}
}

func TestAllocateShareCapHoldsUnderCompetition(t *testing.T) {
	// Three equal goals far from their ideal pace: nobody may take more than
	// 40% of the budget while the others can still absorb it.
	goals := []models.Goal{
		newGoal("a", 100000, 5, 0),
		newGoal("b", 100000, 5, 0),
		newGoal("c", 100000, 5, 0),
	}
	budget := decimal.NewFromInt(1000)
	cfg := DefaultConfig()

	allocs := Allocate(goals, budget, testNow, cfg)

	cap := budget.Mul(decimal.NewFromFloat(cfg.MaxBudgetShare))
	for i := range allocs {
		if allocs[i].MonthlyAllocation.GreaterThan(cap) {
			t.Errorf("goal %s allocation %s exceeds cap %s", allocs[i].GoalName, allocs[i].MonthlyAllocation, cap)
		}
	}
}

func TestAllocateGuaranteedMinimum(t *testing.T) {
	a := newGoal("protected", 50000, 5, 0)
	a.MinAllocation = decimal.NewFromInt(300)
	b := newGoal("other", 50000, 5, 0)

	allocs := Allocate([]models.Goal{a, b}, decimal.NewFromInt(400), testNow, DefaultConfig())

	if got := allocFor(t, allocs, a.ID).MonthlyAllocation; got.LessThan(decimal.NewFromInt(300)) {
		t.Errorf("protected goal got %s, want at least its 300 minimum", got)
	}
}

func TestAllocateUnfundableMinimumStaysZero(t *testing.T) {
	a := newGoal("first", 50000, 5, 0)
	a.MinAllocation = decimal.NewFromInt(300)
	b := newGoal("second", 50000, 5, 0)
	b.MinAllocation = decimal.NewFromInt(300)

	allocs := Allocate([]models.Goal{a, b}, decimal.NewFromInt(500), testNow, DefaultConfig())

	second := allocFor(t, allocs, b.ID)
	if !second.MonthlyAllocation.IsZero() {
		t.Errorf("second goal allocation = %s, want 0 when its minimum cannot be met", second.MonthlyAllocation)
	}
	if len(second.Warnings) == 0 {
		t.Error("second goal should carry a warning about its unmet minimum")
	}
	// The freed budget must still flow to the funded goal.
	if got := allocFor(t, allocs, a.ID).MonthlyAllocation; !got.Equal(decimal.NewFromInt(500)) {
		t.Errorf("first goal allocation = %s, want the full 500", got)
	}
}

func TestAllocateZeroBudget(t *testing.T) {
	goals := []models.Goal{newGoal("a", 10000, 1, 12)}
	if allocs := Allocate(goals, decimal.Zero, testNow, DefaultConfig()); allocs != nil {
		t.Errorf("expected no allocations on zero budget, got %d", len(allocs))
	}
}

func TestAllocateSortedByUrgency(t *testing.T) {
	pressing := newGoal("pressing", 10000, 1, 2)
	pressing.StartDate = testNow.AddDate(0, -10, 0)
	goals := []models.Goal{
		newGoal("relaxed", 10000, 9, 0),
		pressing,
		newGoal("middling", 10000, 5, 0),
	}
	allocs := Allocate(goals, decimal.NewFromInt(3000), testNow, DefaultConfig())

	for i := 1; i < len(allocs); i++ {
		if allocs[i].UrgencyScore > allocs[i-1].UrgencyScore {
			t.Errorf("allocations not sorted by urgency: %f before %f",
				allocs[i-1].UrgencyScore, allocs[i].UrgencyScore)
		}
	}
	if allocs[0].GoalName != "pressing" {
		t.Errorf("most urgent goal = %q, want %q", allocs[0].GoalName, "pressing")
	}
}

func TestAllocateAchievability(t *testing.T) {
	// Large target, near deadline, small budget: not achievable.
	tight := newGoal("tight", 100000, 1, 2)
	// No deadline: always achievable, funded or not.
	open := newGoal("open", 100000, 9, 0)

	allocs := Allocate([]models.Goal{tight, open}, decimal.NewFromInt(1000), testNow, DefaultConfig())

	if allocFor(t, allocs, tight.ID).IsAchievable {
		t.Error("deadlined goal with insufficient funding reported achievable")
	}
	if !allocFor(t, allocs, open.ID).IsAchievable {
		t.Error("open-ended goal reported unachievable")
	}
}

func TestAllocateCompletionProjection(t *testing.T) {
	g := newGoal("laptop", 6000, 1, 0)
	allocs := Allocate([]models.Goal{g}, decimal.NewFromInt(500), testNow, DefaultConfig())

	a := allocFor(t, allocs, g.ID)
	if a.MonthsToComplete != 12 {
		t.Errorf("months to complete = %d, want 12", a.MonthsToComplete)
	}
	if a.ExpectedCompletionDate == nil {
		t.Fatal("expected a completion date")
	}
	if want := testNow.AddDate(0, 12, 0); !a.ExpectedCompletionDate.Equal(want) {
		t.Errorf("completion date = %s, want %s", a.ExpectedCompletionDate, want)
	}
}

func TestIdealMonthlyUsesDeadline(t *testing.T) {
	g := newGoal("fund", 12000, 1, 12)
	if got := idealMonthly(&g, testNow, 12); !got.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("ideal monthly = %s, want 1000", got)
	}
}

func TestIdealMonthlyAccountsForProgress(t *testing.T) {
	g := newGoal("fund", 12000, 1, 12)
	g.CurrentAmount = decimal.NewFromInt(6000)
	if got := idealMonthly(&g, testNow, 12); !got.Equal(decimal.NewFromInt(500)) {
		t.Errorf("ideal monthly = %s, want 500", got)
	}
}
