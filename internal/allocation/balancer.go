package allocation

import (
	"sort"
	"time"

	"github.com/liorazar/cashcoach/internal/models"
	"github.com/shopspring/decimal"
)

// Config holds the tunable knobs of the allocation engine. The breakpoints
// are heuristics, so they are carried as configuration rather than constants.
type Config struct {
	// DefaultHorizonMonths is the ideal-monthly horizon used for goals
	// without a deadline.
	DefaultHorizonMonths int
	// InflexibleBoost multiplies the proportional weight of goals the user
	// marked as not flexible.
	InflexibleBoost float64
	// MaxBudgetShare caps a single goal's take in the proportional round
	// while other goals still compete for the budget.
	MaxBudgetShare float64
	// UrgentThreshold is the urgency score above which a goal is considered
	// urgent for suggestion purposes.
	UrgentThreshold float64

	// Safety-check ladder.
	CriticalResidualRatio float64 // fraction of minimum living marking critical
	ComfortableRatio      float64 // residual/income for "comfortable"
	ExcellentRatio        float64 // residual/income for "excellent"
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		DefaultHorizonMonths:  12,
		InflexibleBoost:       1.5,
		MaxBudgetShare:        0.4,
		UrgentThreshold:       0.7,
		CriticalResidualRatio: 0.15,
		ComfortableRatio:      0.3,
		ExcellentRatio:        0.4,
	}
}

const (
	warnInsufficientMinimum = "insufficient budget for guaranteed minimum"
	warnNoBudget            = "no budget available"
)

// idealMonthly is the monthly amount that would complete the goal exactly at
// its deadline, or over the default horizon when it has none.
func idealMonthly(g *models.Goal, now time.Time, horizonMonths int) decimal.Decimal {
	months := g.MonthsToDeadline(now, horizonMonths)
	if months < 1 {
		months = 1
	}
	return g.RemainingAmount().Div(decimal.NewFromInt(int64(months)))
}

// Allocate distributes totalBudget across goals in two rounds: guaranteed
// minimums first (in input order), then a weighted proportional split by
// urgency and flexibility. The sum of allocations never exceeds totalBudget.
// Results are sorted by urgency, most urgent first.
func Allocate(goals []models.Goal, totalBudget decimal.Decimal, now time.Time, cfg Config) []models.GoalAllocation {
	if len(goals) == 0 || !totalBudget.IsPositive() {
		return nil
	}

	allocs := make([]models.GoalAllocation, len(goals))
	ideals := make([]decimal.Decimal, len(goals))
	for i := range goals {
		g := &goals[i]
		ideals[i] = idealMonthly(g, now, cfg.DefaultHorizonMonths)
		allocs[i] = models.GoalAllocation{
			GoalID:             g.ID,
			GoalName:           g.Name,
			PreviousAllocation: g.MonthlyAllocation,
			UrgencyScore:       UrgencyScore(g, now),
		}
	}

	remaining := totalBudget

	// Round 1: guaranteed minimums, in input order. A minimum is either
	// honored in full or not at all; a goal whose minimum cannot be funded
	// stays at zero and sits out the proportional round.
	blocked := make([]bool, len(goals))
	for i := range goals {
		min := goals[i].MinAllocation
		if !min.IsPositive() {
			continue
		}
		if remaining.LessThan(min) {
			allocs[i].Warnings = append(allocs[i].Warnings, warnInsufficientMinimum)
			blocked[i] = true
			continue
		}
		allocs[i].MonthlyAllocation = min
		remaining = remaining.Sub(min)
	}

	// Round 2: proportional split over goals still under their ideal
	// monthly, weighted by urgency and flexibility. Goals capped at
	// MaxBudgetShare release their excess to the others; the share cap is
	// lifted only when every competing goal has hit its ideal ceiling,
	// so budget is not stranded.
	hardCap := totalBudget.Mul(decimal.NewFromFloat(cfg.MaxBudgetShare))
	for pass := 0; pass <= len(goals); pass++ {
		if !remaining.IsPositive() {
			break
		}
		capped := true
		idxs, weights, total := eligible(goals, allocs, ideals, blocked, hardCap, capped, cfg)
		if len(idxs) == 0 {
			capped = false
			idxs, weights, total = eligible(goals, allocs, ideals, blocked, hardCap, capped, cfg)
		}
		if len(idxs) == 0 || total <= 0 {
			break
		}

		pool := remaining
		progressed := false
		for j, i := range idxs {
			share := pool.Mul(decimal.NewFromFloat(weights[j] / total)).RoundDown(2)
			limit := ideals[i].Sub(allocs[i].MonthlyAllocation)
			if capped {
				byShare := hardCap.Sub(allocs[i].MonthlyAllocation)
				if byShare.LessThan(limit) {
					limit = byShare
				}
			}
			if share.GreaterThan(limit) {
				share = limit
			}
			if share.GreaterThan(remaining) {
				share = remaining
			}
			if !share.IsPositive() {
				continue
			}
			allocs[i].MonthlyAllocation = allocs[i].MonthlyAllocation.Add(share)
			remaining = remaining.Sub(share)
			progressed = true
		}
		if !progressed {
			break
		}
	}

	// Goals untouched by either round.
	for i := range allocs {
		if allocs[i].MonthlyAllocation.IsZero() && len(allocs[i].Warnings) == 0 {
			allocs[i].Warnings = append(allocs[i].Warnings, warnNoBudget)
		}
	}

	finalize(goals, allocs, now)

	sort.SliceStable(allocs, func(a, b int) bool {
		return allocs[a].UrgencyScore > allocs[b].UrgencyScore
	})
	return allocs
}

// eligible returns the goals that can still absorb budget in the proportional
// round, with their weights. With capped=true the MaxBudgetShare ceiling
// applies on top of the ideal-monthly ceiling.
func eligible(goals []models.Goal, allocs []models.GoalAllocation, ideals []decimal.Decimal, blocked []bool, hardCap decimal.Decimal, capped bool, cfg Config) ([]int, []float64, float64) {
	var idxs []int
	var weights []float64
	var total float64
	for i := range goals {
		if blocked[i] {
			continue
		}
		if goals[i].RemainingAmount().IsZero() {
			continue
		}
		if !allocs[i].MonthlyAllocation.LessThan(ideals[i]) {
			continue
		}
		if capped && !allocs[i].MonthlyAllocation.LessThan(hardCap) {
			continue
		}
		w := allocs[i].UrgencyScore
		if !goals[i].IsFlexible {
			w *= cfg.InflexibleBoost
		}
		if w <= 0 {
			continue
		}
		idxs = append(idxs, i)
		weights = append(weights, w)
		total += w
	}
	return idxs, weights, total
}

// finalize computes completion projections and achievability per goal.
func finalize(goals []models.Goal, allocs []models.GoalAllocation, now time.Time) {
	for i := range allocs {
		g := &goals[i]
		remaining := g.RemainingAmount()
		if remaining.IsZero() {
			allocs[i].IsAchievable = true
			continue
		}
		if !allocs[i].MonthlyAllocation.IsPositive() {
			// Never completes without funding; only a problem if a
			// deadline exists.
			allocs[i].IsAchievable = g.Deadline == nil
			continue
		}
		months := int(remaining.Div(allocs[i].MonthlyAllocation).Ceil().IntPart())
		completion := now.AddDate(0, months, 0)
		allocs[i].MonthsToComplete = months
		allocs[i].ExpectedCompletionDate = &completion
		allocs[i].IsAchievable = g.Deadline == nil || !completion.After(*g.Deadline)
	}
}
