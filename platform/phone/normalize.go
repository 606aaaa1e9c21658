// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used for numbers written without an international prefix.
const DefaultRegion = "ES"

// NormalizeE164 formats a phone number to E.164. If parsing fails, it returns the trimmed input.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, DefaultRegion)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

// NormalizeE164Ptr normalizes an optional number; blank input becomes nil.
func NormalizeE164Ptr(input *string) *string {
	if input == nil {
		return nil
	}
	normalized := NormalizeE164(*input)
	if normalized == "" {
		return nil
	}
	return &normalized
}
