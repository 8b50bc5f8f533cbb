package allocation

import (
	"time"

	"github.com/liorazar/cashcoach/internal/models"
)

// Weights of the three urgency components. They must sum to 1.
const (
	priorityWeight  = 0.4
	proximityWeight = 0.4
	gapWeight       = 0.2
)

// UrgencyScore maps a goal and the current time to a score in [0,1].
// Higher scores pull a larger share of the proportional budget round.
func UrgencyScore(g *models.Goal, now time.Time) float64 {
	return priorityWeight*priorityScore(g.Priority) +
		proximityWeight*timeProximityScore(g, now) +
		gapWeight*progressGapScore(g)
}

// priorityScore maps priority 1 (highest) to 1.0 and priority 10 to 0.0.
func priorityScore(priority int) float64 {
	if priority < 1 {
		priority = 1
	}
	if priority > 10 {
		priority = 10
	}
	return 1 - float64(priority-1)/9
}

// timeProximityScore is the fraction of the goal's time span already
// consumed. Goals without a deadline sit at a neutral 0.5; a passed
// deadline is maximally urgent.
func timeProximityScore(g *models.Goal, now time.Time) float64 {
	if g.Deadline == nil {
		return 0.5
	}
	if !g.Deadline.After(now) {
		return 1.0
	}
	total := g.Deadline.Sub(g.StartDate)
	if total <= 0 {
		return 1.0
	}
	elapsed := now.Sub(g.StartDate)
	if elapsed < 0 {
		return 0
	}
	score := float64(elapsed) / float64(total)
	if score > 1 {
		score = 1
	}
	return score
}

// progressGapScore is the unfunded fraction of the target, 0 once met.
func progressGapScore(g *models.Goal) float64 {
	if !g.TargetAmount.IsPositive() {
		return 0
	}
	remaining := g.RemainingAmount()
	if remaining.IsZero() {
		return 0
	}
	gap, _ := remaining.Div(g.TargetAmount).Float64()
	if gap > 1 {
		gap = 1
	}
	return gap
}
