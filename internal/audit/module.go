// Package audit records domain events in the audit_log table.
// Recording is fire-and-forget: a failed insert is logged and never reaches the publisher.
package audit

import (
	"context"

	"inmova_backend/internal/events"
	"inmova_backend/platform/logger"

	"github.com/google/uuid"
)

// Entity types and actions stored in the log.
const (
	EntityLead    = "lead"
	EntityCompany = "company"

	ActionLeadCreated       = "created"
	ActionLeadRescored      = "rescored"
	ActionNotesUpdated      = "notes_updated"
	ActionOnboardingStalled = "onboarding_stalled"
)

// Writer persists audit entries.
type Writer interface {
	Insert(ctx context.Context, entry Entry) error
}

// Module subscribes to domain events and writes one audit entry per event.
type Module struct {
	writer Writer
	log    *logger.Logger
}

func New(writer Writer, log *logger.Logger) *Module {
	return &Module{writer: writer, log: log}
}

// RegisterHandlers subscribes to the audited events on the event bus.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.NameLeadCreated, m)
	bus.Subscribe(events.NameLeadScoringInputsChanged, m)
	bus.Subscribe(events.NameCompanyNotesUpdated, m)
	bus.Subscribe(events.NameOnboardingStalled, m)
}

// Handle implements events.Handler. It always returns nil.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	entry, ok := entryFor(event)
	if !ok {
		return nil
	}
	if err := m.writer.Insert(ctx, entry); err != nil {
		m.log.WithContext(ctx).Error("failed to write audit entry",
			"event", event.EventName(), "entityType", entry.EntityType, "entityId", entry.EntityID, "error", err)
	}
	return nil
}

func entryFor(event events.Event) (Entry, bool) {
	switch e := event.(type) {
	case events.LeadCreated:
		return Entry{
			CompanyID:  ptr(e.TenantID),
			ActorID:    ptr(e.ActorID),
			EntityType: EntityLead,
			EntityID:   e.LeadID,
			Action:     ActionLeadCreated,
			Details:    e,
			OccurredAt: e.Timestamp,
		}, true
	case events.LeadScoringInputsChanged:
		return Entry{
			CompanyID:  ptr(e.TenantID),
			ActorID:    ptr(e.ActorID),
			EntityType: EntityLead,
			EntityID:   e.LeadID,
			Action:     ActionLeadRescored,
			Details:    e,
			OccurredAt: e.Timestamp,
		}, true
	case events.CompanyNotesUpdated:
		return Entry{
			CompanyID:  ptr(e.CompanyID),
			ActorID:    ptr(e.ActorID),
			EntityType: EntityCompany,
			EntityID:   e.CompanyID,
			Action:     ActionNotesUpdated,
			Details:    e,
			OccurredAt: e.Timestamp,
		}, true
	case events.OnboardingStalled:
		return Entry{
			CompanyID:  ptr(e.CompanyID),
			EntityType: EntityCompany,
			EntityID:   e.CompanyID,
			Action:     ActionOnboardingStalled,
			Details:    e,
			OccurredAt: e.Timestamp,
		}, true
	default:
		return Entry{}, false
	}
}

// ptr returns nil for the zero UUID so system events store a NULL actor.
func ptr(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
