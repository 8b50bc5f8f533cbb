package monitor

import (
	"context"
	"time"

	"github.com/liorazar/cashcoach/internal/integrations/whatsapp"
	"github.com/liorazar/cashcoach/internal/repository"
	"github.com/liorazar/cashcoach/internal/utils/email"
	"github.com/sirupsen/logrus"
)

// ReminderDispatcher delivers due reminders over WhatsApp, falling back to
// email for users who opted in.
type ReminderDispatcher struct {
	repo   *repository.Repository
	sender whatsapp.Sender
	mailer *email.Sender
	log    *logrus.Logger
}

// NewReminderDispatcher initializes a reminder dispatcher
func NewReminderDispatcher(repo *repository.Repository, sender whatsapp.Sender, mailer *email.Sender, log *logrus.Logger) *ReminderDispatcher {
	return &ReminderDispatcher{repo: repo, sender: sender, mailer: mailer, log: log}
}

// Run delivers every due reminder. Failures are logged and the reminder stays
// unsent for the next pass.
func (d *ReminderDispatcher) Run(ctx context.Context) {
	due, err := d.repo.ListDueReminders(time.Now())
	if err != nil {
		d.log.Errorf("Reminder dispatch: failed to list due reminders: %v", err)
		return
	}

	for i := range due {
		rem := &due[i]
		user, err := d.repo.FindUserByID(rem.UserID)
		if err != nil {
			d.log.Errorf("Reminder dispatch: user %s: %v", rem.UserID, err)
			continue
		}

		err = d.sender.SendText(ctx, user.Phone, rem.Message)
		if err != nil && user.EmailReminders && user.Email != "" {
			d.log.Warnf("Reminder dispatch: WhatsApp failed for %s, trying email: %v", rem.UserID, err)
			err = d.mailer.SendReminder(user.Email, user.Name, rem.Message)
		}
		if err != nil {
			d.log.Errorf("Reminder dispatch: failed to deliver %s: %v", rem.ID, err)
			continue
		}

		if err := d.repo.MarkReminderSent(rem.ID); err != nil {
			d.log.Errorf("Reminder dispatch: failed to mark %s sent: %v", rem.ID, err)
		}
	}
}

// WeeklyDigest emails a goal progress summary to users who opted into email.
func (d *ReminderDispatcher) WeeklyDigest(ctx context.Context) {
	ids, err := d.repo.ListUserIDs()
	if err != nil {
		d.log.Errorf("Weekly digest: failed to list users: %v", err)
		return
	}

	for _, id := range ids {
		user, err := d.repo.FindUserByID(id)
		if err != nil {
			d.log.Errorf("Weekly digest: user %s: %v", id, err)
			continue
		}
		if !user.EmailReminders || user.Email == "" {
			continue
		}
		goals, err := d.repo.ListActiveGoals(id)
		if err != nil {
			d.log.Errorf("Weekly digest: user %s: %v", id, err)
			continue
		}
		if len(goals) == 0 {
			continue
		}
		if err := d.mailer.SendWeeklySummary(user.Email, user.Name, goals); err != nil {
			d.log.Errorf("Weekly digest: failed to email %s: %v", id, err)
		}
	}
}
