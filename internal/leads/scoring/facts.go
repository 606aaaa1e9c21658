package scoring

import "strings"

// Inputs are the stored lead fields the score depends on.
type Inputs struct {
	Email               *string
	Telefono            *string
	Empresa             *string
	Cargo               *string
	Ciudad              *string
	PresupuestoMensual  *float64
	ContactosRealizados int
	Urgencia            *string
}

// FactsFromLead collects score facts. Blank strings count as absent and a
// budget is present only when positive.
func FactsFromLead(in Inputs) Facts {
	urgencia := UrgenciaNone
	if in.Urgencia != nil {
		urgencia = Urgencia(strings.TrimSpace(*in.Urgencia))
	}
	return Facts{
		HasEmail:            present(in.Email),
		HasTelefono:         present(in.Telefono),
		HasEmpresa:          present(in.Empresa),
		HasCargo:            present(in.Cargo),
		HasCiudad:           present(in.Ciudad),
		HasPresupuesto:      in.PresupuestoMensual != nil && *in.PresupuestoMensual > 0,
		ContactosRealizados: in.ContactosRealizados,
		Urgencia:            urgencia,
	}
}

func present(value *string) bool {
	return value != nil && strings.TrimSpace(*value) != ""
}
