package scoring

import "sort"

// Field names a lead attribute in its API spelling.
type Field string

const (
	FieldNombre              Field = "nombre"
	FieldApellidos           Field = "apellidos"
	FieldEmail               Field = "email"
	FieldTelefono            Field = "telefono"
	FieldEmpresa             Field = "empresa"
	FieldCargo               Field = "cargo"
	FieldCiudad              Field = "ciudad"
	FieldPresupuestoMensual  Field = "presupuestoMensual"
	FieldUrgencia            Field = "urgencia"
	FieldEstado              Field = "estado"
	FieldFuente              Field = "fuente"
	FieldNotas               Field = "notas"
	FieldMetadata            Field = "metadata"
	FieldContactosRealizados Field = "contactosRealizados"
)

// FieldSet is a set of changed fields.
type FieldSet map[Field]struct{}

// NewFieldSet builds a set from fields.
func NewFieldSet(fields ...Field) FieldSet {
	set := make(FieldSet, len(fields))
	for _, f := range fields {
		set.Add(f)
	}
	return set
}

// Add inserts f.
func (s FieldSet) Add(f Field) {
	s[f] = struct{}{}
}

// Has reports whether f is in the set.
func (s FieldSet) Has(f Field) bool {
	_, ok := s[f]
	return ok
}

// Intersects reports whether the sets share a field.
func (s FieldSet) Intersects(other FieldSet) bool {
	for f := range s {
		if other.Has(f) {
			return true
		}
	}
	return false
}

// Names returns the fields sorted, for events and logs.
func (s FieldSet) Names() []string {
	names := make([]string, 0, len(s))
	for f := range s {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}

// InputFields are the editable fields the score depends on. Any field added to
// Inputs that a lead update can change belongs here.
var InputFields = NewFieldSet(
	FieldEmail,
	FieldTelefono,
	FieldEmpresa,
	FieldCargo,
	FieldCiudad,
	FieldPresupuestoMensual,
	FieldUrgencia,
)

// NeedsRescore is true when a change touched any scoring input.
func NeedsRescore(changed FieldSet) bool {
	return changed.Intersects(InputFields)
}
