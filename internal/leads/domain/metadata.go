// Package domain holds lead rules shared by the transport and service layers.
package domain

import (
	"reflect"
	"sort"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// MetadataKey is an attribute allowed in a lead's metadata map.
type MetadataKey string

const (
	MetadataOrigenCampana  MetadataKey = "origen_campana"
	MetadataCanalPreferido MetadataKey = "canal_preferido"
	MetadataIdioma         MetadataKey = "idioma"
	MetadataTipoInmueble   MetadataKey = "tipo_inmueble"
	MetadataZonaInteres    MetadataKey = "zona_interes"
)

// MaxMetadataValueLength bounds each metadata value in runes.
const MaxMetadataValueLength = 200

// MetadataValidationTag is the struct tag registered for metadata maps.
const MetadataValidationTag = "lead_metadata"

var allowedMetadataKeys = map[MetadataKey]struct{}{
	MetadataOrigenCampana:  {},
	MetadataCanalPreferido: {},
	MetadataIdioma:         {},
	MetadataTipoInmueble:   {},
	MetadataZonaInteres:    {},
}

// AllowedMetadataKeys returns the allowed keys in sorted order.
func AllowedMetadataKeys() []string {
	keys := make([]string, 0, len(allowedMetadataKeys))
	for k := range allowedMetadataKeys {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	return keys
}

// IsAllowedMetadataKey reports whether key may appear in lead metadata.
func IsAllowedMetadataKey(key string) bool {
	_, ok := allowedMetadataKeys[MetadataKey(key)]
	return ok
}

// ValidateMetadata checks keys against the allowed set and bounds value length.
func ValidateMetadata(metadata map[string]string) bool {
	for key, value := range metadata {
		if !IsAllowedMetadataKey(key) {
			return false
		}
		if utf8.RuneCountInString(value) > MaxMetadataValueLength {
			return false
		}
	}
	return true
}

// ValidateMetadataField adapts ValidateMetadata to the validator.
func ValidateMetadataField(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.Map {
		return false
	}
	metadata, ok := field.Interface().(map[string]string)
	if !ok {
		return false
	}
	return ValidateMetadata(metadata)
}
