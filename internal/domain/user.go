// Package domain contains entities without logic, just meta-data.
package domain

import "strings"

const MaxUsernameLen = 36

// ValidateUsername trims surrounding whitespace and rejects empty or
// oversized names. Comparison elsewhere is case-sensitive on the
// trimmed form.
func ValidateUsername(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", ErrInvalidName
	}
	if len(name) > MaxUsernameLen {
		return "", ErrInvalidName
	}
	return name, nil
}
