// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"inmova_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// Event names, shared by publishers and the audit subscriber.
const (
	NameLeadCreated              = "leads.lead.created"
	NameLeadScoringInputsChanged = "leads.lead.scoring_inputs_changed"
	NameCompanyNotesUpdated      = "onboarding.company.notes_updated"
	NameOnboardingStalled        = "onboarding.company.stalled"
)

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCreated is published when a new lead is created.
type LeadCreated struct {
	BaseEvent
	LeadID             uuid.UUID `json:"leadId"`
	TenantID           uuid.UUID `json:"tenantId"`
	ActorID            uuid.UUID `json:"actorId"`
	Fuente             string    `json:"fuente,omitempty"`
	Estado             string    `json:"estado"`
	Puntuacion         int       `json:"puntuacion"`
	Temperatura        string    `json:"temperatura"`
	ProbabilidadCierre int       `json:"probabilidadCierre"`
}

func (e LeadCreated) EventName() string { return NameLeadCreated }

// LeadScoringInputsChanged is published when a write touched a field the lead
// score depends on. Previous* fields hold the score before the write.
type LeadScoringInputsChanged struct {
	BaseEvent
	LeadID                     uuid.UUID `json:"leadId"`
	TenantID                   uuid.UUID `json:"tenantId"`
	ActorID                    uuid.UUID `json:"actorId"`
	ChangedFields              []string  `json:"changedFields"`
	PreviousPuntuacion         int       `json:"previousPuntuacion"`
	Puntuacion                 int       `json:"puntuacion"`
	PreviousTemperatura        string    `json:"previousTemperatura"`
	Temperatura                string    `json:"temperatura"`
	PreviousProbabilidadCierre int       `json:"previousProbabilidadCierre"`
	ProbabilidadCierre         int       `json:"probabilidadCierre"`
}

func (e LeadScoringInputsChanged) EventName() string { return NameLeadScoringInputsChanged }

// =============================================================================
// Onboarding Domain Events
// =============================================================================

// CompanyNotesUpdated is published when a super admin replaces a company's notes.
type CompanyNotesUpdated struct {
	BaseEvent
	CompanyID   uuid.UUID `json:"companyId"`
	ActorID     uuid.UUID `json:"actorId"`
	NotesLength int       `json:"notesLength"`
}

func (e CompanyNotesUpdated) EventName() string { return NameCompanyNotesUpdated }

// OnboardingStalled is published by the sweep for every stalled company it
// reminds, or would remind if e-mail delivery were enabled.
type OnboardingStalled struct {
	BaseEvent
	CompanyID       uuid.UUID `json:"companyId"`
	CompanyName     string    `json:"companyName"`
	ProgressPercent int       `json:"progressPercent"`
	LastActivityAt  time.Time `json:"lastActivityAt"`
	ReminderSent    bool      `json:"reminderSent"`
}

func (e OnboardingStalled) EventName() string { return NameOnboardingStalled }
