// Package service aggregates per-company onboarding progress for the admin dashboard.
package service

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"inmova_backend/internal/events"
	"inmova_backend/internal/onboarding/cache"
	"inmova_backend/internal/onboarding/progress"
	"inmova_backend/internal/onboarding/repository"
	"inmova_backend/internal/onboarding/transport"
	"inmova_backend/internal/shared/pagination"
	"inmova_backend/platform/apperr"
	"inmova_backend/platform/logger"
	"inmova_backend/platform/sanitize"

	"github.com/google/uuid"
)

// Repository is the data access the aggregator needs.
type Repository interface {
	List(ctx context.Context, params repository.ListParams) ([]repository.Company, int, error)
	ListAll(ctx context.Context, filter repository.Filter) ([]repository.Company, error)
	Get(ctx context.Context, id uuid.UUID, now time.Time) (repository.Company, error)
	UpdateNotes(ctx context.Context, id uuid.UUID, notes string) error
}

// StatsCache holds the last good stats per filter.
type StatsCache interface {
	Get(ctx context.Context, key string) (progress.Stats, time.Time, error)
	Set(ctx context.Context, key string, stats progress.Stats, at time.Time) error
}

// StalledCompany is a company the reminder sweep should nudge.
type StalledCompany struct {
	ID              uuid.UUID
	Nombre          string
	Email           string
	ProgressPercent int
	StepsCompleted  []progress.StepID
	LastActivityAt  time.Time
}

// Service builds onboarding listings, stats and single-company views.
type Service struct {
	repo  Repository
	cache StatsCache
	bus   events.Bus
	log   *logger.Logger
	now   func() time.Time
}

// New creates the onboarding service. cache may be nil when Redis is not configured.
func New(repo Repository, statsCache StatsCache, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: statsCache,
		bus:   bus,
		log:   log,
		now:   time.Now,
	}
}

// List returns one page of companies and stats over the whole filtered set.
// The page query failing fails the request; the stats pass failing only degrades stats.
func (s *Service) List(ctx context.Context, req transport.ListCompaniesRequest) (transport.CompanyListResponse, error) {
	page := pagination.Normalize(req.Page, req.Limit)
	now := s.now()

	filter := repository.Filter{Search: req.Search, Now: now}
	if req.Status != "" {
		status := progress.Status(req.Status)
		if !status.IsValid() {
			return transport.CompanyListResponse{}, apperr.Validation("invalid status")
		}
		filter.Status = &status
	}

	companies, total, err := s.repo.List(ctx, repository.ListParams{
		Filter: filter,
		Offset: page.Offset(),
		Limit:  page.Limit,
	})
	if err != nil {
		return transport.CompanyListResponse{}, err
	}

	items := make([]transport.CompanyProgressResponse, 0, len(companies))
	for _, company := range companies {
		items = append(items, toCompanyResponse(company, now))
	}

	return transport.CompanyListResponse{
		Items:      items,
		Pagination: page.Meta(total),
		Stats:      s.stats(ctx, filter, req.Status),
	}, nil
}

func (s *Service) stats(ctx context.Context, filter repository.Filter, status string) transport.StatsResponse {
	key := cache.Key(status, filter.Search)

	companies, err := s.repo.ListAll(ctx, filter)
	if err == nil {
		results := make([]progress.Result, 0, len(companies))
		for _, company := range companies {
			results = append(results, evaluate(company, filter.Now))
		}
		stats := progress.Summarize(results)
		if s.cache != nil {
			if cacheErr := s.cache.Set(ctx, key, stats, filter.Now); cacheErr != nil {
				s.log.WithContext(ctx).Warn("onboarding stats cache write failed", "error", cacheErr)
			}
		}
		return transport.StatsResponse{Stats: stats, Source: transport.StatsSourceLive}
	}

	log := s.log.WithContext(ctx)
	log.Warn("onboarding stats pass failed, degrading", "error", err)

	if s.cache != nil {
		cached, cachedAt, cacheErr := s.cache.Get(ctx, key)
		if cacheErr == nil {
			return transport.StatsResponse{
				Stats:    cached,
				Degraded: true,
				Source:   transport.StatsSourceCache,
				CachedAt: &cachedAt,
			}
		}
		if !errors.Is(cacheErr, cache.ErrMiss) {
			log.Warn("onboarding stats cache read failed", "error", cacheErr)
		}
	}

	return transport.StatsResponse{
		Stats:    progress.EmptyStats(),
		Degraded: true,
		Source:   transport.StatsSourceUnavailable,
	}
}

// Get returns the progress of one company.
func (s *Service) Get(ctx context.Context, companyID uuid.UUID) (transport.CompanyProgressResponse, error) {
	now := s.now()
	company, err := s.repo.Get(ctx, companyID, now)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.CompanyProgressResponse{}, apperr.NotFound("company not found")
		}
		return transport.CompanyProgressResponse{}, err
	}
	return toCompanyResponse(company, now), nil
}

// UpdateNotes replaces a company's admin notes. Notes never feed the progress evaluation.
func (s *Service) UpdateNotes(ctx context.Context, actorID uuid.UUID, req transport.UpdateNotesRequest) (transport.UpdateNotesResponse, error) {
	notes := sanitize.Text(req.Notes)
	if utf8.RuneCountInString(notes) > transport.MaxNotesLength {
		return transport.UpdateNotesResponse{}, apperr.ValidationFields("validation failed", []apperr.FieldError{
			{Field: "notes", Message: "must be at most 5000 characters"},
		})
	}

	if err := s.repo.UpdateNotes(ctx, req.CompanyID, notes); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.UpdateNotesResponse{}, apperr.NotFound("company not found")
		}
		return transport.UpdateNotesResponse{}, err
	}

	s.bus.Publish(ctx, events.CompanyNotesUpdated{
		BaseEvent:   events.NewBaseEvent(),
		CompanyID:   req.CompanyID,
		ActorID:     actorID,
		NotesLength: utf8.RuneCountInString(notes),
	})

	return transport.UpdateNotesResponse{CompanyID: req.CompanyID, NotasAdmin: notes}, nil
}

// StalledCompanies lists every company currently classified as stalled.
func (s *Service) StalledCompanies(ctx context.Context) ([]StalledCompany, error) {
	now := s.now()
	status := progress.StatusStalled
	companies, err := s.repo.ListAll(ctx, repository.Filter{Status: &status, Now: now})
	if err != nil {
		return nil, err
	}

	stalled := make([]StalledCompany, 0, len(companies))
	for _, company := range companies {
		result := evaluate(company, now)
		if result.Status != progress.StatusStalled {
			continue
		}
		email := ""
		if company.Email != nil {
			email = *company.Email
		}
		stalled = append(stalled, StalledCompany{
			ID:              company.ID,
			Nombre:          company.Nombre,
			Email:           email,
			ProgressPercent: result.ProgressPercent,
			StepsCompleted:  result.StepsCompleted,
			LastActivityAt:  company.Counts.LastActivityAt,
		})
	}
	return stalled, nil
}

func evaluate(company repository.Company, now time.Time) progress.Result {
	return progress.Evaluate(progress.CollectFacts(company.Profile(), company.Counts), now)
}

func toCompanyResponse(company repository.Company, now time.Time) transport.CompanyProgressResponse {
	facts := progress.CollectFacts(company.Profile(), company.Counts)
	result := progress.Evaluate(facts, now)

	var lastActivity *time.Time
	if !facts.LastActivityAt.IsZero() {
		at := facts.LastActivityAt
		lastActivity = &at
	}

	return transport.CompanyProgressResponse{
		CompanyID:       company.ID,
		Nombre:          company.Nombre,
		Email:           company.Email,
		NotasAdmin:      company.NotasAdmin,
		Facts:           facts,
		Steps:           progress.Checklist(facts),
		StepsCompleted:  result.StepsCompleted,
		ProgressPercent: result.ProgressPercent,
		Status:          result.Status,
		LastActivityAt:  lastActivity,
		CreatedAt:       company.CreatedAt,
	}
}
