package management

import (
	"inmova_backend/internal/leads/repository"
	"inmova_backend/internal/leads/scoring"
	"inmova_backend/internal/leads/transport"
)

// ToLeadResponse converts a repository Lead to a transport LeadResponse.
func ToLeadResponse(lead repository.Lead) transport.LeadResponse {
	metadata := lead.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	return transport.LeadResponse{
		ID:                  lead.ID,
		CompanyID:           lead.CompanyID,
		Nombre:              lead.Nombre,
		Apellidos:           lead.Apellidos,
		Email:               lead.Email,
		Telefono:            lead.Telefono,
		Empresa:             lead.Empresa,
		Cargo:               lead.Cargo,
		Ciudad:              lead.Ciudad,
		PresupuestoMensual:  lead.PresupuestoMensual,
		Urgencia:            lead.Urgencia,
		Estado:              lead.Estado,
		Fuente:              lead.Fuente,
		Notas:               lead.Notas,
		Metadata:            metadata,
		ContactosRealizados: lead.ContactosRealizados,
		UltimoContacto:      lead.UltimoContacto,
		Puntuacion:          lead.Puntuacion,
		Temperatura:         lead.Temperatura,
		ProbabilidadCierre:  lead.ProbabilidadCierre,
		CreatedAt:           lead.CreatedAt,
		UpdatedAt:           lead.UpdatedAt,
	}
}

// scoringInputs is the fact collector's view of a stored lead.
func scoringInputs(lead repository.Lead) scoring.Inputs {
	return scoring.Inputs{
		Email:               lead.Email,
		Telefono:            lead.Telefono,
		Empresa:             lead.Empresa,
		Cargo:               lead.Cargo,
		Ciudad:              lead.Ciudad,
		PresupuestoMensual:  lead.PresupuestoMensual,
		ContactosRealizados: lead.ContactosRealizados,
		Urgencia:            lead.Urgencia,
	}
}

// applyScore rescores lead in its current stage.
func applyScore(lead *repository.Lead) {
	score := scoring.Evaluate(scoring.FactsFromLead(scoringInputs(*lead)), scoring.Estado(lead.Estado))
	lead.Puntuacion = score.Puntuacion
	lead.Temperatura = string(score.Temperatura)
	lead.ProbabilidadCierre = score.ProbabilidadCierre
}
