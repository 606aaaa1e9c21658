package handler

import (
	"net/http"

	"inmova_backend/internal/onboarding/service"
	"inmova_backend/internal/onboarding/transport"
	"inmova_backend/platform/httpkit"
	"inmova_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for the onboarding dashboard.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest = "invalid request"
	msgInvalidID      = "invalid company id"
)

// New creates a new onboarding handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts the routes on an admin-only group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.UpdateNotes)
	rg.GET("/:companyId", h.Get)
}

// List returns the paginated onboarding listing with stats.
// GET /api/v1/admin/onboarding
func (h *Handler) List(c *gin.Context) {
	var req transport.ListCompaniesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.ValidationError(c, err)
		return
	}

	result, err := h.svc.List(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Get returns the progress of a single company.
// GET /api/v1/admin/onboarding/:companyId
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("companyId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	result, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// UpdateNotes replaces the admin notes of a company.
// POST /api/v1/admin/onboarding
func (h *Handler) UpdateNotes(c *gin.Context) {
	var req transport.UpdateNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.ValidationError(c, err)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.UpdateNotes(c.Request.Context(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
