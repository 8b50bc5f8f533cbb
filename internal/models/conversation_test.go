package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func testDate(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func TestPayloadRoundTrip(t *testing.T) {
	original := ContextPayload{
		Kind: PayloadAdjustProposal,
		AdjustProposal: &AdjustProposal{
			OldIncome: decimal.NewFromInt(9000),
			NewIncome: decimal.NewFromInt(10500),
			ChangePct: 16.7,
			Diffs: []AllocationDiff{{
				GoalID:   uuid.New(),
				GoalName: "vacation",
				Current:  decimal.NewFromInt(400),
				Proposed: decimal.NewFromInt(500),
			}},
		},
	}

	raw, err := original.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	got, err := UnmarshalPayload(raw)
	if err != nil {
		t.Fatalf("UnmarshalPayload failed: %v", err)
	}
	if got.Kind != PayloadAdjustProposal || got.AdjustProposal == nil {
		t.Fatalf("round trip lost the proposal: %+v", got)
	}
	if !got.AdjustProposal.NewIncome.Equal(original.AdjustProposal.NewIncome) {
		t.Errorf("new income = %s, want %s", got.AdjustProposal.NewIncome, original.AdjustProposal.NewIncome)
	}
	if len(got.AdjustProposal.Diffs) != 1 || got.AdjustProposal.Diffs[0].GoalName != "vacation" {
		t.Errorf("diffs lost in round trip: %+v", got.AdjustProposal.Diffs)
	}
}

func TestUnmarshalPayloadEmpty(t *testing.T) {
	for _, raw := range [][]byte{nil, {}} {
		got, err := UnmarshalPayload(raw)
		if err != nil {
			t.Fatalf("UnmarshalPayload(%q) failed: %v", raw, err)
		}
		if got.Kind != PayloadNone {
			t.Errorf("empty payload kind = %q, want none", got.Kind)
		}
	}
}

func TestUnmarshalPayloadMismatchedKind(t *testing.T) {
	// Kind claims onboarding but no onboarding data is present.
	if _, err := UnmarshalPayload([]byte(`{"kind":"onboarding"}`)); err == nil {
		t.Error("expected an error for a kind without its data")
	}
}

func TestPayloadValidateUnknownKind(t *testing.T) {
	p := ContextPayload{Kind: "mystery"}
	if err := p.Validate(); err == nil {
		t.Error("expected an error for an unknown kind")
	}
}

func TestUserSnapshotFallback(t *testing.T) {
	u := User{DeclaredMonthlyIncome: decimal.NewFromInt(10000)}
	snap := u.Snapshot()
	if want := decimal.NewFromInt(4000); !snap.MinimumLiving.Equal(want) {
		t.Errorf("fallback minimum living = %s, want %s (40%% of income)", snap.MinimumLiving, want)
	}

	u.MinimumLiving = decimal.NewFromInt(5200)
	if snap := u.Snapshot(); !snap.MinimumLiving.Equal(u.MinimumLiving) {
		t.Errorf("explicit minimum living = %s, want %s", snap.MinimumLiving, u.MinimumLiving)
	}
}

func TestGoalMonthsToDeadline(t *testing.T) {
	now := testDate(2026, 3, 1)

	g := Goal{}
	if got := g.MonthsToDeadline(now, 12); got != 12 {
		t.Errorf("no deadline = %d, want the 12-month default", got)
	}

	deadline := testDate(2027, 3, 1)
	g.Deadline = &deadline
	if got := g.MonthsToDeadline(now, 12); got != 12 {
		t.Errorf("one year out = %d months, want 12", got)
	}

	passed := testDate(2026, 1, 1)
	g.Deadline = &passed
	if got := g.MonthsToDeadline(now, 12); got != 0 {
		t.Errorf("passed deadline = %d, want 0", got)
	}

	partial := testDate(2026, 4, 15)
	g.Deadline = &partial
	if got := g.MonthsToDeadline(now, 12); got != 2 {
		t.Errorf("six weeks out = %d months, want 2 (partial months round up)", got)
	}
}

func TestGoalRemainingAmount(t *testing.T) {
	g := Goal{TargetAmount: decimal.NewFromInt(1000), CurrentAmount: decimal.NewFromInt(1200)}
	if got := g.RemainingAmount(); !got.IsZero() {
		t.Errorf("overfunded remaining = %s, want 0", got)
	}
}
