package transport

import (
	"time"

	"inmova_backend/internal/shared/pagination"

	"github.com/google/uuid"
)

// Request DTOs
type CreateLeadRequest struct {
	Nombre             string            `json:"nombre" validate:"required,min=1,max=120"`
	Apellidos          string            `json:"apellidos" validate:"max=120"`
	Email              string            `json:"email" validate:"omitempty,email,max=254"`
	Telefono           string            `json:"telefono" validate:"max=32"`
	Empresa            string            `json:"empresa" validate:"max=160"`
	Cargo              string            `json:"cargo" validate:"max=120"`
	Ciudad             string            `json:"ciudad" validate:"max=120"`
	PresupuestoMensual *float64          `json:"presupuestoMensual" validate:"omitempty,gte=0,lte=10000000"`
	Urgencia           string            `json:"urgencia" validate:"omitempty,oneof=low medium high"`
	Estado             string            `json:"estado" validate:"omitempty,oneof=new contacted qualified visited proposal_sent negotiating won lost"`
	Fuente             string            `json:"fuente" validate:"max=80"`
	Notas              string            `json:"notas" validate:"max=5000"`
	Metadata           map[string]string `json:"metadata" validate:"omitempty,lead_metadata"`
}

// UpdateLeadRequest carries a partial update. Absent (or null) fields are left
// alone; an empty string clears an optional field.
type UpdateLeadRequest struct {
	Nombre             *string           `json:"nombre" validate:"omitempty,min=1,max=120"`
	Apellidos          *string           `json:"apellidos" validate:"omitempty,max=120"`
	Email              *string           `json:"email" validate:"omitempty,max=254,len=0|email"`
	Telefono           *string           `json:"telefono" validate:"omitempty,max=32"`
	Empresa            *string           `json:"empresa" validate:"omitempty,max=160"`
	Cargo              *string           `json:"cargo" validate:"omitempty,max=120"`
	Ciudad             *string           `json:"ciudad" validate:"omitempty,max=120"`
	PresupuestoMensual *float64          `json:"presupuestoMensual" validate:"omitempty,gte=0,lte=10000000"`
	Urgencia           *string           `json:"urgencia" validate:"omitempty,len=0|oneof=low medium high"`
	Estado             *string           `json:"estado" validate:"omitempty,oneof=new contacted qualified visited proposal_sent negotiating won lost"`
	Fuente             *string           `json:"fuente" validate:"omitempty,max=80"`
	Notas              *string           `json:"notas" validate:"omitempty,max=5000"`
	Metadata           map[string]string `json:"metadata" validate:"omitempty,lead_metadata"`
}

type ListLeadsRequest struct {
	Page        int    `form:"page" validate:"omitempty,min=1,max=10000"`
	Limit       int    `form:"limit" validate:"omitempty,min=1"`
	Estado      string `form:"estado" validate:"omitempty,oneof=new contacted qualified visited proposal_sent negotiating won lost"`
	Temperatura string `form:"temperatura" validate:"omitempty,oneof=cold warm hot"`
	Search      string `form:"search" validate:"max=100"`
}

// Response DTOs
type LeadResponse struct {
	ID                  uuid.UUID         `json:"id"`
	CompanyID           uuid.UUID         `json:"companyId"`
	Nombre              string            `json:"nombre"`
	Apellidos           *string           `json:"apellidos,omitempty"`
	Email               *string           `json:"email,omitempty"`
	Telefono            *string           `json:"telefono,omitempty"`
	Empresa             *string           `json:"empresa,omitempty"`
	Cargo               *string           `json:"cargo,omitempty"`
	Ciudad              *string           `json:"ciudad,omitempty"`
	PresupuestoMensual  *float64          `json:"presupuestoMensual,omitempty"`
	Urgencia            *string           `json:"urgencia,omitempty"`
	Estado              string            `json:"estado"`
	Fuente              *string           `json:"fuente,omitempty"`
	Notas               *string           `json:"notas,omitempty"`
	Metadata            map[string]string `json:"metadata"`
	ContactosRealizados int               `json:"contactosRealizados"`
	UltimoContacto      *time.Time        `json:"ultimoContacto,omitempty"`
	Puntuacion          int               `json:"puntuacion"`
	Temperatura         string            `json:"temperatura"`
	ProbabilidadCierre  int               `json:"probabilidadCierre"`
	CreatedAt           time.Time         `json:"createdAt"`
	UpdatedAt           time.Time         `json:"updatedAt"`
}

type LeadStatsResponse struct {
	Total             int            `json:"total"`
	ByTemperatura     map[string]int `json:"byTemperatura"`
	AveragePuntuacion float64        `json:"averagePuntuacion"`
	Degraded          bool           `json:"degraded"`
	Source            string         `json:"source"`
}

type LeadListResponse struct {
	Items      []LeadResponse    `json:"items"`
	Pagination pagination.Meta   `json:"pagination"`
	Stats      LeadStatsResponse `json:"stats"`
}

// Stats sources.
const (
	StatsSourceLive        = "live"
	StatsSourceUnavailable = "unavailable"
)
