package management

import (
	"maps"
	"math"
	"strings"

	"inmova_backend/internal/leads/repository"
	"inmova_backend/internal/leads/scoring"
	"inmova_backend/internal/leads/transport"
	"inmova_backend/platform/phone"
	"inmova_backend/platform/sanitize"
)

// applyUpdate merges req into current and reports which fields really changed.
// Values are normalized before comparing, so resubmitting the stored value is no change.
func applyUpdate(current repository.Lead, req transport.UpdateLeadRequest) (repository.Lead, scoring.FieldSet) {
	next := current
	next.Metadata = maps.Clone(current.Metadata)
	changed := scoring.NewFieldSet()

	if req.Nombre != nil {
		if nombre := sanitize.Text(*req.Nombre); nombre != current.Nombre {
			next.Nombre = nombre
			changed.Add(scoring.FieldNombre)
		}
	}

	updateOptional(changed, scoring.FieldApellidos, &next.Apellidos, req.Apellidos, optionalText)
	updateOptional(changed, scoring.FieldEmail, &next.Email, req.Email, optionalEmail)
	updateOptional(changed, scoring.FieldTelefono, &next.Telefono, req.Telefono, optionalPhone)
	updateOptional(changed, scoring.FieldEmpresa, &next.Empresa, req.Empresa, optionalText)
	updateOptional(changed, scoring.FieldCargo, &next.Cargo, req.Cargo, optionalText)
	updateOptional(changed, scoring.FieldCiudad, &next.Ciudad, req.Ciudad, optionalText)
	updateOptional(changed, scoring.FieldUrgencia, &next.Urgencia, req.Urgencia, optionalText)
	updateOptional(changed, scoring.FieldFuente, &next.Fuente, req.Fuente, optionalText)
	updateOptional(changed, scoring.FieldNotas, &next.Notas, req.Notas, optionalText)

	if req.PresupuestoMensual != nil {
		budget := optionalBudget(req.PresupuestoMensual)
		if !equalFloat(current.PresupuestoMensual, budget) {
			next.PresupuestoMensual = budget
			changed.Add(scoring.FieldPresupuestoMensual)
		}
	}

	if req.Estado != nil && *req.Estado != current.Estado {
		next.Estado = *req.Estado
		changed.Add(scoring.FieldEstado)
	}

	if req.Metadata != nil {
		metadata := cleanMetadata(req.Metadata)
		if !maps.Equal(metadata, current.Metadata) {
			next.Metadata = metadata
			changed.Add(scoring.FieldMetadata)
		}
	}

	return next, changed
}

func updateOptional(changed scoring.FieldSet, field scoring.Field, target **string, value *string, normalize func(string) *string) {
	if value == nil {
		return
	}
	normalized := normalize(*value)
	if equalString(*target, normalized) {
		return
	}
	*target = normalized
	changed.Add(field)
}

// optionalText sanitizes free text; blank becomes NULL.
func optionalText(value string) *string {
	cleaned := sanitize.Text(value)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

func optionalEmail(value string) *string {
	email := strings.ToLower(strings.TrimSpace(value))
	if email == "" {
		return nil
	}
	return &email
}

func optionalPhone(value string) *string {
	return phone.NormalizeE164Ptr(&value)
}

// optionalBudget rounds to cents; zero or negative budgets are stored as NULL.
func optionalBudget(value *float64) *float64 {
	if value == nil || *value <= 0 {
		return nil
	}
	rounded := math.Round(*value*100) / 100
	return &rounded
}

func cleanMetadata(metadata map[string]string) map[string]string {
	cleaned := make(map[string]string, len(metadata))
	for key, value := range metadata {
		if v := sanitize.Text(value); v != "" {
			cleaned[key] = v
		}
	}
	return cleaned
}

func equalString(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func equalFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
