package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
	CTALabel   string
	CTAURL     string
}

type onboardingReminderEmailData struct {
	baseEmailData
	CompanyName     string
	ProgressPercent int
	PendingSteps    []string
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

// renderOnboardingReminder returns the subject and HTML body of the reminder.
func renderOnboardingReminder(reminder OnboardingReminder) (string, string, error) {
	content, err := renderEmailTemplate("onboarding_reminder.html", onboardingReminderEmailData{
		baseEmailData: baseEmailData{
			Title:      "Completa la configuración de tu cuenta",
			Heading:    "Tu configuración está a medias",
			Subheading: fmt.Sprintf("Llevas un %d%% completado", reminder.ProgressPercent),
			CTALabel:   "Continuar configuración",
			CTAURL:     reminder.DashboardURL,
		},
		CompanyName:     reminder.CompanyName,
		ProgressPercent: reminder.ProgressPercent,
		PendingSteps:    reminder.PendingSteps,
	})
	if err != nil {
		return "", "", err
	}
	return fmt.Sprintf(subjectOnboardingReminderFmt, reminder.CompanyName), content, nil
}
