package email

import (
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
	"github.com/liorazar/cashcoach/internal/config"
	"github.com/liorazar/cashcoach/internal/models"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// SendReminder delivers a scheduled nudge over email. Used as the fallback
// channel for users who opted into email reminders.
func (s *Sender) SendReminder(to, username, message string) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "A nudge from your finance coach"

	body := fmt.Sprintf("Hi %s,\n\n%s\n\nYour finance coach", username, message)
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	err := e.Send(addr, auth)
	if err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}

// SendWeeklySummary sends a goal progress digest
func (s *Sender) SendWeeklySummary(to, username string, goals []models.Goal) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "Your weekly goal summary"

	body := fmt.Sprintf("Hi %s,\n\nHere's where your goals stand this week:\n\n", username)
	for i := range goals {
		g := &goals[i]
		body += fmt.Sprintf("- %s: %s of %s saved, %s/month\n",
			g.Name, g.CurrentAmount.StringFixed(0), g.TargetAmount.StringFixed(0),
			g.MonthlyAllocation.StringFixed(0))
	}
	body += "\nKeep it up!\nYour finance coach"
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	err := e.Send(addr, auth)
	if err != nil {
		s.logger.Errorf("Failed to send weekly summary to %s: %v", to, err)
		return fmt.Errorf("failed to send weekly summary: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}
