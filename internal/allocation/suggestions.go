package allocation

import (
	"fmt"
	"time"

	"github.com/liorazar/cashcoach/internal/models"
	"github.com/shopspring/decimal"
)

// DeriveSuggestions turns allocation shortfalls into actionable
// recommendations. Purely derived: the same inputs always yield the same
// suggestions, in the same order.
func DeriveSuggestions(goals []models.Goal, allocs []models.GoalAllocation, safety models.SafetyCheck, budget decimal.Decimal, now time.Time, cfg Config) []models.Suggestion {
	if len(goals) == 0 {
		return []models.Suggestion{{
			Type:     models.SuggestAddGoal,
			Message:  "no savings goals defined yet; add a first goal to start allocating",
			Priority: 1,
		}}
	}

	if !budget.IsPositive() {
		return zeroBudgetSuggestions(goals)
	}

	var out []models.Suggestion

	byID := make(map[string]*models.Goal, len(goals))
	for i := range goals {
		byID[goals[i].ID.String()] = &goals[i]
	}

	// One increase-income suggestion sized to the total monthly shortfall
	// across unachievable goals.
	shortfall := decimal.Zero
	for i := range allocs {
		if allocs[i].IsAchievable {
			continue
		}
		g, ok := byID[allocs[i].GoalID.String()]
		if !ok {
			continue
		}
		need := idealMonthly(g, now, cfg.DefaultHorizonMonths).Sub(allocs[i].MonthlyAllocation)
		if need.IsPositive() {
			shortfall = shortfall.Add(need)
		}
	}
	if shortfall.IsPositive() {
		out = append(out, models.Suggestion{
			Type:     models.SuggestIncreaseIncome,
			Amount:   shortfall.Round(2),
			Message:  fmt.Sprintf("an extra %s per month would make all goals reachable", shortfall.StringFixed(0)),
			Priority: 1,
		})
	}

	// Too many goals competing under a tight margin.
	if len(goals) > 3 && safety.ComfortLevel == models.ComfortTight {
		out = append(out, models.Suggestion{
			Type:     models.SuggestChangePriority,
			Message:  "several goals are competing for a tight budget; consider pausing or deprioritizing some",
			Priority: 2,
		})
	}

	// One deadline suggestion per urgent goal that cannot make it.
	for i := range allocs {
		if allocs[i].IsAchievable || allocs[i].UrgencyScore < cfg.UrgentThreshold {
			continue
		}
		g, ok := byID[allocs[i].GoalID.String()]
		if !ok || g.Deadline == nil {
			continue
		}
		id := allocs[i].GoalID
		out = append(out, models.Suggestion{
			Type:     models.SuggestAdjustDeadline,
			GoalID:   &id,
			Message:  fmt.Sprintf("goal %q will not reach its target by the deadline at the current pace; consider pushing the deadline", allocs[i].GoalName),
			Priority: 2,
		})
	}

	return out
}

func zeroBudgetSuggestions(goals []models.Goal) []models.Suggestion {
	out := []models.Suggestion{
		{
			Type:     models.SuggestIncreaseIncome,
			Message:  "income does not cover fixed and living expenses; no budget is left for goals",
			Priority: 1,
		},
		{
			Type:     models.SuggestReduceExpenses,
			Message:  "reducing fixed expenses would free up budget for goals",
			Priority: 1,
		},
	}
	for i := range goals {
		if goals[i].Deadline != nil {
			out = append(out, models.Suggestion{
				Type:     models.SuggestAdjustDeadline,
				Message:  "pushing goal deadlines lowers the required monthly pace",
				Priority: 2,
			})
			break
		}
	}
	return out
}
