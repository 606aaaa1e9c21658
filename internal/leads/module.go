// Package leads provides the lead management bounded context module.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	"inmova_backend/internal/events"
	apphttp "inmova_backend/internal/http"
	"inmova_backend/internal/leads/domain"
	"inmova_backend/internal/leads/handler"
	"inmova_backend/internal/leads/management"
	"inmova_backend/internal/leads/repository"
	"inmova_backend/platform/logger"
	"inmova_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, log *logger.Logger) (*Module, error) {
	if err := val.RegisterValidation(domain.MetadataValidationTag, domain.ValidateMetadataField); err != nil {
		return nil, err
	}

	repo := repository.New(pool)
	mgmtSvc := management.New(repo, eventBus, log)

	return &Module{handler: handler.New(mgmtSvc, val)}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/leads"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
