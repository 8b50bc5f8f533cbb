package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/liorazar/cashcoach/internal/integrations/whatsapp"
	"github.com/liorazar/cashcoach/internal/models"
	"github.com/liorazar/cashcoach/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// deadlineWarning is how far ahead a goal's deadline triggers a nudge when
// the goal is behind schedule.
const deadlineWarning = 2 // months

// GoalMonitor detects completed goals and goals drifting past their deadline.
type GoalMonitor struct {
	repo   *repository.Repository
	sender whatsapp.Sender
	log    *logrus.Logger
}

// NewGoalMonitor initializes a goal monitor
func NewGoalMonitor(repo *repository.Repository, sender whatsapp.Sender, log *logrus.Logger) *GoalMonitor {
	return &GoalMonitor{repo: repo, sender: sender, log: log}
}

// Run walks all users and checks their active goals.
func (m *GoalMonitor) Run(ctx context.Context) {
	ids, err := m.repo.ListUserIDs()
	if err != nil {
		m.log.Errorf("Goal monitor: failed to list users: %v", err)
		return
	}
	for _, id := range ids {
		if err := m.CheckUser(ctx, id); err != nil {
			m.log.Errorf("Goal monitor: user %s: %v", id, err)
		}
	}
}

// CheckUser marks reached goals completed and nudges on approaching deadlines.
func (m *GoalMonitor) CheckUser(ctx context.Context, userID uuid.UUID) error {
	user, err := m.repo.FindUserByID(userID)
	if err != nil {
		return err
	}
	goals, err := m.repo.ListActiveGoals(userID)
	if err != nil {
		return err
	}

	now := time.Now()
	for i := range goals {
		g := &goals[i]

		if g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount) && g.TargetAmount.IsPositive() {
			if err := m.repo.UpdateGoalProgress(g.ID, g.CurrentAmount, models.GoalCompleted); err != nil {
				return err
			}
			m.log.Infof("Goal %q completed for %s", g.Name, userID)
			msg := fmt.Sprintf("You did it! Your goal \"%s\" is fully funded (%s). Want to set a new one? Write \"goal\".",
				g.Name, g.TargetAmount.StringFixed(0))
			if err := m.sender.SendText(ctx, user.Phone, msg); err != nil {
				m.log.Errorf("Goal monitor: failed to notify %s: %v", userID, err)
			}
			continue
		}

		if g.Deadline == nil {
			continue
		}
		months := g.MonthsToDeadline(now, 0)
		if months == 0 || months > deadlineWarning {
			continue
		}
		// Behind schedule when the current pace can't cover the remainder.
		needed := g.RemainingAmount()
		covered := g.MonthlyAllocation.Mul(decimal.NewFromInt(int64(months)))
		if covered.GreaterThanOrEqual(needed) {
			continue
		}
		nudged, err := m.repo.HasRecentReminder(userID, "goal_progress", now.AddDate(0, 0, -7))
		if err != nil {
			return err
		}
		if nudged {
			continue
		}
		reminder := &models.Reminder{
			UserID: userID,
			Kind:   "goal_progress",
			Message: fmt.Sprintf("Your goal \"%s\" has %d month(s) left and still needs %s. Want to adjust the deadline or the allocation? Write \"goal\".",
				g.Name, months, needed.Sub(covered).StringFixed(0)),
			DueAt: now,
		}
		if err := m.repo.CreateReminder(reminder); err != nil {
			m.log.Errorf("Goal monitor: failed to schedule nudge for %s: %v", userID, err)
		}
	}
	return nil
}
