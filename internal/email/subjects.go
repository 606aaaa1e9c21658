package email

const (
	subjectOnboardingReminderFmt = "%s: completa la configuración de INMOVA"
)
