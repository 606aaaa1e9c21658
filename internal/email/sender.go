// Package email renders and delivers transactional e-mails.
package email

import (
	"context"

	"inmova_backend/platform/config"
)

// OnboardingReminder is the content of the stalled-onboarding reminder.
type OnboardingReminder struct {
	CompanyName     string
	ProgressPercent int
	PendingSteps    []string
	DashboardURL    string
}

type Sender interface {
	// Enabled reports whether messages actually leave the process.
	Enabled() bool
	SendOnboardingReminder(ctx context.Context, toEmail string, reminder OnboardingReminder) error
}

// NoopSender drops every message. It is used when e-mail delivery is disabled.
type NoopSender struct{}

func (NoopSender) Enabled() bool { return false }

func (NoopSender) SendOnboardingReminder(context.Context, string, OnboardingReminder) error {
	return nil
}

// NewSender returns an SMTP sender when e-mail is enabled and a NoopSender otherwise.
func NewSender(cfg config.EmailConfig) Sender {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	)
}
