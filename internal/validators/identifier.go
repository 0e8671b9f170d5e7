// Package validators provides validation functions for manifest entities.
package validators

import (
	"fmt"
	"regexp"
	"strings"
)

const maxIdentifierLength = 200

// Identifier pattern: must start and end with alphanumeric, can contain dots, underscores,
// and hyphens in the middle
var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9._-]*[a-zA-Z0-9])?$`)

// ValidateIdentifier validates the id of a manifest collection or media. kind names the
// entity in error messages.
//
// Format requirements:
// - [a-zA-Z0-9][a-zA-Z0-9._-]*[a-zA-Z0-9], or a single alphanumeric character
// - At most 200 characters
//
// Examples of valid ids:
//   - day1
//   - devoxx-2025.keynote
//   - 53211405678
//
// Examples of invalid ids:
//   - day 1 (contains a space)
//   - -keynote (starts with a dash)
func ValidateIdentifier(kind, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%s id cannot be empty", kind)
	}
	if len(id) > maxIdentifierLength {
		return "", fmt.Errorf("%s id exceeds maximum length of %d characters", kind, maxIdentifierLength)
	}
	if !identifierPattern.MatchString(id) {
		return "", fmt.Errorf(
			"%s id '%s' is invalid. Ids must start and end with alphanumeric characters, "+
				"and may contain dots, underscores, and hyphens in the middle",
			kind, id,
		)
	}
	return id, nil
}

// IsValidIdentifier is a convenience wrapper around ValidateIdentifier for boolean checks.
func IsValidIdentifier(id string) bool {
	_, err := ValidateIdentifier("entity", id)
	return err == nil
}
