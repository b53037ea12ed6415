package errors

import (
	"strings"
	"unicode"
)

// MaxNameLength bounds lead names accepted from configuration and the API.
const MaxNameLength = 64

// ValidateLeadName validates a lead name for use in configs, reports and SVG ids.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters or whitespace
//   - No quotes or angle brackets (names end up in SVG and DOT output)
//   - Maximum length of MaxNameLength characters
func ValidateLeadName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "lead name cannot be empty")
	}

	if len(name) > MaxNameLength {
		return New(ErrCodeInvalidInput, "lead name too long (max %d characters)", MaxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "lead name %q contains whitespace or control characters", name)
		}
	}

	if strings.ContainsAny(name, `"'<>&`) {
		return New(ErrCodeInvalidInput, "lead name %q contains reserved characters", name)
	}

	return nil
}

// ValidateDimensions validates a grid size.
func ValidateDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return New(ErrCodeInvalidConfig, "grid dimensions must be positive, got %dx%d", width, height)
	}
	return nil
}
