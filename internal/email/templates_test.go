package email

import (
	"context"
	"strings"
	"testing"
)

func TestRenderOnboardingReminder(t *testing.T) {
	subject, body, err := renderOnboardingReminder(OnboardingReminder{
		CompanyName:     "Residencias <Norte>",
		ProgressPercent: 33,
		PendingSteps:    []string{"Crear un inquilino", "Firmar un contrato"},
		DashboardURL:    "https://app.inmova.es/onboarding",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if !strings.HasPrefix(subject, "Residencias <Norte>:") {
		t.Fatalf("unexpected subject %q", subject)
	}
	for _, want := range []string{"33%", "Crear un inquilino", "Firmar un contrato", "https://app.inmova.es/onboarding"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q", want)
		}
	}
	if strings.Contains(body, "<Norte>") {
		t.Fatal("company name must be HTML-escaped")
	}
}

type emailConfig struct{ enabled bool }

func (c emailConfig) GetEmailEnabled() bool       { return c.enabled }
func (c emailConfig) GetSMTPHost() string         { return "smtp.example.com" }
func (c emailConfig) GetSMTPPort() int            { return 587 }
func (c emailConfig) GetSMTPUsername() string     { return "" }
func (c emailConfig) GetSMTPPassword() string     { return "" }
func (c emailConfig) GetEmailFromName() string    { return "INMOVA" }
func (c emailConfig) GetEmailFromAddress() string { return "no-reply@inmova.es" }
func (c emailConfig) GetAppBaseURL() string       { return "http://localhost:3000" }

func TestNewSenderHonorsEnabledFlag(t *testing.T) {
	if _, ok := NewSender(emailConfig{enabled: false}).(NoopSender); !ok {
		t.Fatal("expected NoopSender when e-mail is disabled")
	}
	if _, ok := NewSender(emailConfig{enabled: true}).(*SMTPSender); !ok {
		t.Fatal("expected SMTPSender when e-mail is enabled")
	}
	if (NoopSender{}).Enabled() || !NewSender(emailConfig{enabled: true}).Enabled() {
		t.Fatal("Enabled must follow the delivery configuration")
	}
	if err := (NoopSender{}).SendOnboardingReminder(context.Background(), "a@b.c", OnboardingReminder{}); err != nil {
		t.Fatalf("noop send: %v", err)
	}
}
