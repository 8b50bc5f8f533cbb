// Package monitor holds the cron-driven jobs: income-change detection with
// auto-adjust proposals, goal progress checks, and reminder dispatch.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/liorazar/cashcoach/internal/allocation"
	"github.com/liorazar/cashcoach/internal/integrations/whatsapp"
	"github.com/liorazar/cashcoach/internal/models"
	"github.com/liorazar/cashcoach/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// changeThreshold is the relative income change that triggers a proposal.
const changeThreshold = 0.10

// trailingWindow is the income observation window.
const trailingWindow = 90 * 24 * time.Hour

// IncomeMonitor compares trailing income against each user's stored baseline
// and proposes reallocation when it moves by more than the threshold.
type IncomeMonitor struct {
	repo   *repository.Repository
	engine *allocation.Engine
	sender whatsapp.Sender
	log    *logrus.Logger
}

// NewIncomeMonitor initializes an income monitor
func NewIncomeMonitor(repo *repository.Repository, engine *allocation.Engine, sender whatsapp.Sender, log *logrus.Logger) *IncomeMonitor {
	return &IncomeMonitor{repo: repo, engine: engine, sender: sender, log: log}
}

// Run checks every user sequentially. One user's failure is logged and the
// loop moves on.
func (m *IncomeMonitor) Run(ctx context.Context) {
	ids, err := m.repo.ListUserIDs()
	if err != nil {
		m.log.Errorf("Income monitor: failed to list users: %v", err)
		return
	}
	for _, id := range ids {
		if err := m.CheckUser(ctx, id); err != nil {
			m.log.Errorf("Income monitor: user %s: %v", id, err)
		}
	}
}

// CheckUser runs one user's detection cycle.
func (m *IncomeMonitor) CheckUser(ctx context.Context, userID uuid.UUID) error {
	user, err := m.repo.FindUserByID(userID)
	if err != nil {
		return err
	}

	now := time.Now()
	txns, err := m.repo.ListIncomeSince(userID, now.Add(-trailingWindow))
	if err != nil {
		return err
	}
	if len(txns) == 0 {
		return nil
	}

	sum := decimal.Zero
	for i := range txns {
		sum = sum.Add(txns[i].Amount)
	}
	trailing := sum.Div(decimal.NewFromInt(3)).Round(2)

	baseline := user.IncomeBaseline
	if baseline.IsZero() {
		// First observation becomes the baseline; nothing to compare yet.
		return m.repo.UpdateIncomeBaseline(userID, trailing)
	}

	change, _ := trailing.Sub(baseline).Div(baseline).Float64()
	if change < changeThreshold && change > -changeThreshold {
		return nil
	}

	convo, err := m.repo.GetContext(userID)
	if err != nil {
		return err
	}
	// A proposal is already waiting for an answer; do not stack another.
	if convo.Payload.Kind == models.PayloadAdjustProposal {
		return nil
	}

	goals, err := m.repo.ListActiveGoals(userID)
	if err != nil {
		return err
	}
	adjustable := goals[:0:0]
	for i := range goals {
		if goals[i].AutoAdjust {
			adjustable = append(adjustable, goals[i])
		}
	}
	if len(adjustable) == 0 {
		return nil
	}

	snap := user.Snapshot()
	snap.MonthlyIncome = trailing
	result := m.engine.Run(adjustable, snap, now)

	proposal := &models.AdjustProposal{
		OldIncome: baseline,
		NewIncome: trailing,
		ChangePct: change * 100,
		CreatedAt: now,
	}
	proposed := make(map[uuid.UUID]decimal.Decimal, len(result.Allocations))
	for i := range result.Allocations {
		proposed[result.Allocations[i].GoalID] = result.Allocations[i].MonthlyAllocation
	}
	for i := range adjustable {
		g := &adjustable[i]
		proposal.Diffs = append(proposal.Diffs, models.AllocationDiff{
			GoalID:   g.ID,
			GoalName: g.Name,
			Current:  g.MonthlyAllocation,
			Proposed: proposed[g.ID],
		})
	}

	convo.Payload = models.ContextPayload{Kind: models.PayloadAdjustProposal, AdjustProposal: proposal}
	if err := m.repo.SaveContext(convo); err != nil {
		return err
	}

	direction := "up"
	if change < 0 {
		direction = "down"
	}
	msg := fmt.Sprintf("Your income moved %s by %.0f%% (%s vs %s). I can rebalance your goal allocations to match.",
		direction, abs(change*100), trailing.StringFixed(0), baseline.StringFixed(0))
	m.log.Infof("Income change detected for %s: %.1f%%", userID, change*100)
	return m.sender.SendButtons(ctx, user.Phone, msg, []whatsapp.Button{
		{ID: "approve", Title: "Approve"},
		{ID: "reject", Title: "Keep as is"},
		{ID: "details", Title: "Details"},
	})
}

// HandleConfirmation resolves a user's reply to a pending proposal. Returns
// handled=false when the message is not a confirmation, leaving the proposal
// pending and the message to normal routing.
func (m *IncomeMonitor) HandleConfirmation(ctx context.Context, user *models.User, convo *models.ConversationContext, intent string) (bool, string, error) {
	proposal := convo.Payload.AdjustProposal
	if proposal == nil {
		return false, "", nil
	}

	switch intent {
	case "approve":
		for _, diff := range proposal.Diffs {
			if err := m.repo.UpdateGoalAllocation(diff.GoalID, diff.Proposed); err != nil {
				return true, "", err
			}
			history := &models.AllocationHistory{
				UserID:     user.ID,
				GoalID:     diff.GoalID,
				Allocation: diff.Proposed,
				Reason:     "income_change",
			}
			if err := m.repo.InsertAllocationHistory(history); err != nil {
				return true, "", err
			}
		}
		if err := m.repo.UpdateIncomeBaseline(user.ID, proposal.NewIncome); err != nil {
			return true, "", err
		}
		convo.Payload = models.ContextPayload{Kind: models.PayloadNone}
		m.log.Infof("Applied auto-adjust proposal for %s", user.ID)
		return true, "Done, your goal allocations now match the new income.", nil

	case "reject":
		convo.Payload = models.ContextPayload{Kind: models.PayloadNone}
		return true, "Okay, keeping the current allocations.", nil

	case "details":
		msg := "Here's the proposed change per goal:\n"
		for _, diff := range proposal.Diffs {
			msg += fmt.Sprintf("- %s: %s -> %s per month\n",
				diff.GoalName, diff.Current.StringFixed(0), diff.Proposed.StringFixed(0))
		}
		msg += "Reply \"approve\" to apply or \"reject\" to keep things as they are."
		return true, msg, nil
	}

	return false, "", nil
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
