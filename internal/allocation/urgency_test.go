package allocation

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPriorityScoreBounds(t *testing.T) {
	cases := []struct {
		priority int
		want     float64
	}{
		{1, 1.0},
		{10, 0.0},
		{0, 1.0},  // clamped up
		{15, 0.0}, // clamped down
	}
	for _, c := range cases {
		if got := priorityScore(c.priority); got != c.want {
			t.Errorf("priorityScore(%d) = %f, want %f", c.priority, got, c.want)
		}
	}
}

func TestPriorityScoreMonotonic(t *testing.T) {
	prev := priorityScore(1)
	for p := 2; p <= 10; p++ {
		got := priorityScore(p)
		if got >= prev {
			t.Errorf("priorityScore(%d) = %f, not below priorityScore(%d) = %f", p, got, p-1, prev)
		}
		prev = got
	}
}

func TestTimeProximityScore(t *testing.T) {
	g := newGoal("g", 1000, 5, 0)
	if got := timeProximityScore(&g, testNow); got != 0.5 {
		t.Errorf("no deadline proximity = %f, want the neutral 0.5", got)
	}

	passed := testNow.AddDate(0, -1, 0)
	g.Deadline = &passed
	if got := timeProximityScore(&g, testNow); got != 1.0 {
		t.Errorf("passed deadline proximity = %f, want 1.0", got)
	}

	// Halfway through a 10-month span.
	g.StartDate = testNow.AddDate(0, -5, 0)
	deadline := testNow.AddDate(0, 5, 0)
	g.Deadline = &deadline
	got := timeProximityScore(&g, testNow)
	if got < 0.49 || got > 0.51 {
		t.Errorf("halfway proximity = %f, want ~0.5", got)
	}
}

func TestProgressGapScore(t *testing.T) {
	g := newGoal("g", 1000, 5, 0)
	if got := progressGapScore(&g); got != 1.0 {
		t.Errorf("untouched goal gap = %f, want 1.0", got)
	}

	g.CurrentAmount = decimal.NewFromInt(750)
	if got := progressGapScore(&g); got != 0.25 {
		t.Errorf("75%% funded gap = %f, want 0.25", got)
	}

	g.CurrentAmount = decimal.NewFromInt(1000)
	if got := progressGapScore(&g); got != 0 {
		t.Errorf("completed goal gap = %f, want 0", got)
	}
}

func TestUrgencyScoreRange(t *testing.T) {
	worst := newGoal("worst", 100000, 1, 0)
	passed := testNow.AddDate(0, -1, 0)
	worst.Deadline = &passed
	if got := UrgencyScore(&worst, testNow); got < 0.99 || got > 1.0 {
		t.Errorf("maximal urgency = %f, want 1.0", got)
	}

	calm := newGoal("calm", 1000, 10, 0)
	calm.CurrentAmount = calm.TargetAmount
	if got := UrgencyScore(&calm, testNow); got != 0.2 {
		t.Errorf("minimal urgency = %f, want 0.2 (neutral proximity only)", got)
	}
}
