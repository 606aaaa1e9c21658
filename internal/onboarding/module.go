// Package onboarding provides the company onboarding dashboard bounded context.
// This file defines the module that encapsulates setup and route registration.
package onboarding

import (
	"inmova_backend/internal/events"
	apphttp "inmova_backend/internal/http"
	"inmova_backend/internal/onboarding/cache"
	"inmova_backend/internal/onboarding/handler"
	"inmova_backend/internal/onboarding/repository"
	"inmova_backend/internal/onboarding/service"
	"inmova_backend/platform/config"
	"inmova_backend/platform/logger"
	"inmova_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Module is the onboarding bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule wires the onboarding module. redisClient may be nil, in which case
// a failed stats pass degrades straight to zeroed stats.
func NewModule(pool *pgxpool.Pool, redisClient *redis.Client, eventBus events.Bus, val *validator.Validator, cfg config.OnboardingConfig, log *logger.Logger) *Module {
	repo := repository.New(pool)

	var statsCache service.StatsCache
	if redisClient != nil {
		statsCache = cache.NewStatsCache(redisClient, cfg.GetOnboardingStatsCacheTTL())
	}

	svc := service.New(repo, statsCache, eventBus, log)
	return &Module{handler: handler.New(svc, val)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "onboarding"
}

// RegisterRoutes mounts onboarding routes under /api/v1/admin.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Admin.Group("/onboarding"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
