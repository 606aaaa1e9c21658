package transport

import (
	"time"

	"inmova_backend/internal/onboarding/progress"
	"inmova_backend/internal/shared/pagination"

	"github.com/google/uuid"
)

// MaxNotesLength bounds admin notes after sanitizing.
const MaxNotesLength = 5000

// Request DTOs
type ListCompaniesRequest struct {
	Page   int    `form:"page" validate:"omitempty,min=1,max=10000"`
	Limit  int    `form:"limit" validate:"omitempty,min=1"`
	Status string `form:"status" validate:"omitempty,oneof=pending in_progress completed stalled"`
	Search string `form:"search" validate:"max=100"`
}

type UpdateNotesRequest struct {
	CompanyID uuid.UUID `json:"companyId" validate:"required"`
	Notes     string    `json:"notes" validate:"max=20000"`
}

// Response DTOs
type CompanyProgressResponse struct {
	CompanyID       uuid.UUID            `json:"companyId"`
	Nombre          string               `json:"nombre"`
	Email           *string              `json:"email,omitempty"`
	NotasAdmin      string               `json:"notasAdmin"`
	Facts           progress.Facts       `json:"facts"`
	Steps           []progress.StepState `json:"steps"`
	StepsCompleted  []progress.StepID    `json:"stepsCompleted"`
	ProgressPercent int                  `json:"progressPercent"`
	Status          progress.Status      `json:"status"`
	LastActivityAt  *time.Time           `json:"lastActivityAt,omitempty"`
	CreatedAt       time.Time            `json:"createdAt"`
}

type StatsResponse struct {
	progress.Stats
	Degraded bool       `json:"degraded"`
	Source   string     `json:"source"`
	CachedAt *time.Time `json:"cachedAt,omitempty"`
}

type CompanyListResponse struct {
	Items      []CompanyProgressResponse `json:"items"`
	Pagination pagination.Meta           `json:"pagination"`
	Stats      StatsResponse             `json:"stats"`
}

type UpdateNotesResponse struct {
	CompanyID  uuid.UUID `json:"companyId"`
	NotasAdmin string    `json:"notasAdmin"`
}

// Stats sources.
const (
	StatsSourceLive        = "live"
	StatsSourceCache       = "cache"
	StatsSourceUnavailable = "unavailable"
)
