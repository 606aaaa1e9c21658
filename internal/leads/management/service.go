// Package management handles lead CRUD and keeps the stored score in sync
// with the fields it depends on.
package management

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"inmova_backend/internal/events"
	"inmova_backend/internal/leads/repository"
	"inmova_backend/internal/leads/scoring"
	"inmova_backend/internal/leads/transport"
	"inmova_backend/internal/shared/pagination"
	"inmova_backend/platform/apperr"
	"inmova_backend/platform/logger"
	"inmova_backend/platform/sanitize"

	"github.com/google/uuid"
)

const msgLeadNotFound = "lead not found"

// Repository defines the data access interface needed by the management service.
type Repository interface {
	Create(ctx context.Context, lead repository.Lead) (repository.Lead, error)
	GetByID(ctx context.Context, id, companyID uuid.UUID) (repository.Lead, error)
	Mutate(ctx context.Context, id, companyID uuid.UUID, fn repository.MutateFunc) (repository.Lead, error)
	List(ctx context.Context, params repository.ListParams) ([]repository.Lead, int, error)
	Stats(ctx context.Context, params repository.ListParams) (repository.Stats, error)
}

// Service handles lead management operations.
type Service struct {
	repo     Repository
	eventBus events.Bus
	log      *logger.Logger
	now      func() time.Time
}

// New creates a new lead management service.
func New(repo Repository, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, eventBus: eventBus, log: log, now: time.Now}
}

// Create stores a new lead, scored from its initial fields.
func (s *Service) Create(ctx context.Context, tenantID, actorID uuid.UUID, req transport.CreateLeadRequest) (transport.LeadResponse, error) {
	estado := req.Estado
	if estado == "" {
		estado = string(scoring.EstadoNew)
	}

	lead := repository.Lead{
		CompanyID:          tenantID,
		Nombre:             sanitize.Text(req.Nombre),
		Apellidos:          optionalText(req.Apellidos),
		Email:              optionalEmail(req.Email),
		Telefono:           optionalPhone(req.Telefono),
		Empresa:            optionalText(req.Empresa),
		Cargo:              optionalText(req.Cargo),
		Ciudad:             optionalText(req.Ciudad),
		PresupuestoMensual: optionalBudget(req.PresupuestoMensual),
		Urgencia:           optionalText(req.Urgencia),
		Estado:             estado,
		Fuente:             optionalText(req.Fuente),
		Notas:              optionalText(req.Notas),
		Metadata:           cleanMetadata(req.Metadata),
	}
	if lead.Nombre == "" {
		return transport.LeadResponse{}, apperr.ValidationFields("validation failed", []apperr.FieldError{
			{Field: "nombre", Message: "is required"},
		})
	}
	applyScore(&lead)

	created, err := s.repo.Create(ctx, lead)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	s.eventBus.Publish(ctx, events.LeadCreated{
		BaseEvent:          events.NewBaseEvent(),
		LeadID:             created.ID,
		TenantID:           tenantID,
		ActorID:            actorID,
		Fuente:             deref(created.Fuente),
		Estado:             created.Estado,
		Puntuacion:         created.Puntuacion,
		Temperatura:        created.Temperatura,
		ProbabilidadCierre: created.ProbabilidadCierre,
	})

	return ToLeadResponse(created), nil
}

// GetByID retrieves a lead of the caller's company.
func (s *Service) GetByID(ctx context.Context, tenantID, id uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.repo.GetByID(ctx, id, tenantID)
	if err != nil {
		return transport.LeadResponse{}, translateErr(err)
	}
	return ToLeadResponse(lead), nil
}

// List returns a page of leads with stats over the whole filtered set. A failed
// stats pass yields zeroed stats flagged as degraded instead of an error.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, req transport.ListLeadsRequest) (transport.LeadListResponse, error) {
	page := pagination.Normalize(req.Page, req.Limit)
	params := repository.ListParams{
		CompanyID: tenantID,
		Search:    strings.TrimSpace(req.Search),
		Offset:    page.Offset(),
		Limit:     page.Limit,
	}
	if req.Estado != "" {
		params.Estado = &req.Estado
	}
	if req.Temperatura != "" {
		params.Temperatura = &req.Temperatura
	}

	leads, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.LeadListResponse{}, err
	}

	items := make([]transport.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		items = append(items, ToLeadResponse(lead))
	}

	return transport.LeadListResponse{
		Items:      items,
		Pagination: page.Meta(total),
		Stats:      s.stats(ctx, params),
	}, nil
}

func (s *Service) stats(ctx context.Context, params repository.ListParams) transport.LeadStatsResponse {
	resp := transport.LeadStatsResponse{ByTemperatura: map[string]int{}}
	for _, t := range scoring.Temperaturas {
		resp.ByTemperatura[string(t)] = 0
	}

	stats, err := s.repo.Stats(ctx, params)
	if err != nil {
		s.log.WithContext(ctx).Warn("lead stats pass failed, degrading", "error", err)
		resp.Degraded = true
		resp.Source = transport.StatsSourceUnavailable
		return resp
	}

	for temperatura, count := range stats.ByTemperatura {
		resp.ByTemperatura[temperatura] = count
	}
	resp.Total = stats.Total
	resp.AveragePuntuacion = math.Round(stats.AveragePuntuacion*10) / 10
	resp.Source = transport.StatsSourceLive
	return resp
}

// Update applies a partial update. The score is recomputed only when a scoring
// input actually changed; a stage change alone only moves the close probability.
func (s *Service) Update(ctx context.Context, tenantID, actorID, id uuid.UUID, req transport.UpdateLeadRequest) (transport.LeadResponse, error) {
	var changed scoring.FieldSet
	var previous repository.Lead

	updated, err := s.repo.Mutate(ctx, id, tenantID, func(current repository.Lead) (repository.Lead, bool, error) {
		previous = current
		next, fields := applyUpdate(current, req)
		changed = fields
		if len(changed) == 0 {
			return current, false, nil
		}

		if next.Nombre == "" {
			return repository.Lead{}, false, apperr.ValidationFields("validation failed", []apperr.FieldError{
				{Field: "nombre", Message: "is required"},
			})
		}

		switch {
		case scoring.NeedsRescore(changed):
			applyScore(&next)
		case changed.Has(scoring.FieldEstado):
			next.ProbabilidadCierre = scoring.CalculateProbabilidadCierre(current.Puntuacion, scoring.Estado(next.Estado))
		}
		return next, true, nil
	})
	if err != nil {
		return transport.LeadResponse{}, translateErr(err)
	}

	if scoring.NeedsRescore(changed) {
		s.publishScoringChange(ctx, tenantID, actorID, previous, updated, changed)
	}
	return ToLeadResponse(updated), nil
}

// RegisterContact records one contact attempt and rescores the lead.
func (s *Service) RegisterContact(ctx context.Context, tenantID, actorID, id uuid.UUID) (transport.LeadResponse, error) {
	var previous repository.Lead
	contactedAt := s.now().UTC()

	updated, err := s.repo.Mutate(ctx, id, tenantID, func(current repository.Lead) (repository.Lead, bool, error) {
		previous = current
		next := current
		next.ContactosRealizados++
		next.UltimoContacto = &contactedAt
		applyScore(&next)
		return next, true, nil
	})
	if err != nil {
		return transport.LeadResponse{}, translateErr(err)
	}

	s.publishScoringChange(ctx, tenantID, actorID, previous, updated, scoring.NewFieldSet(scoring.FieldContactosRealizados))
	return ToLeadResponse(updated), nil
}

func (s *Service) publishScoringChange(ctx context.Context, tenantID, actorID uuid.UUID, before, after repository.Lead, changed scoring.FieldSet) {
	s.eventBus.Publish(ctx, events.LeadScoringInputsChanged{
		BaseEvent:                  events.NewBaseEvent(),
		LeadID:                     after.ID,
		TenantID:                   tenantID,
		ActorID:                    actorID,
		ChangedFields:              changed.Names(),
		PreviousPuntuacion:         before.Puntuacion,
		Puntuacion:                 after.Puntuacion,
		PreviousTemperatura:        before.Temperatura,
		Temperatura:                after.Temperatura,
		PreviousProbabilidadCierre: before.ProbabilidadCierre,
		ProbabilidadCierre:         after.ProbabilidadCierre,
	})
}

func translateErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(msgLeadNotFound)
	}
	return err
}
