package handler

import (
	"net/http"

	"inmova_backend/internal/leads/management"
	"inmova_backend/internal/leads/transport"
	"inmova_backend/platform/httpkit"
	"inmova_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	svc *management.Service
	val *validator.Validator
}

const (
	msgInvalidRequest = "invalid request"
	msgInvalidID      = "invalid lead id"
)

func New(svc *management.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.GetByID)
	rg.PUT("/:id", h.Update)
	rg.POST("/:id/contacts", h.RegisterContact)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.ValidationError(c, err)
		return
	}
	identity, tenantID, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	lead, err := h.svc.Create(c.Request.Context(), tenantID, identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, lead)
}

func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	_, tenantID, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	lead, err := h.svc.GetByID(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

// List returns a page of leads ordered by score, with stats for the whole filter.
func (h *Handler) List(c *gin.Context) {
	var req transport.ListLeadsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.ValidationError(c, err)
		return
	}
	_, tenantID, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	result, err := h.svc.List(c.Request.Context(), tenantID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.ValidationError(c, err)
		return
	}
	identity, tenantID, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	lead, err := h.svc.Update(c.Request.Context(), tenantID, identity.UserID(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

// RegisterContact records a contact attempt.
// POST /api/v1/leads/:id/contacts
func (h *Handler) RegisterContact(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	identity, tenantID, ok := httpkit.MustGetTenant(c)
	if !ok {
		return
	}

	lead, err := h.svc.RegisterContact(c.Request.Context(), tenantID, identity.UserID(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}
