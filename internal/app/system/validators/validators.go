// internal/app/system/validators/validators.go
//
// Boundary validation for user and location payloads. Handlers call
// these before anything reaches a store; every failure is a
// field-tagged apperr.Validation error.
package validators

import (
	"strings"
	"unicode/utf8"

	"github.com/LunarMoonDev/user-location/internal/app/system/apperr"
	"github.com/dalemusser/waffle/pantry/validate"
)

const (
	maxNameLen  = 25
	maxEmailLen = 40
	minPop      = 1000
	maxPop      = 9999
	maxCoord    = 180.0
)

// PersonName checks a first/last name: required, at most 25 chars.
func PersonName(field, v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return apperr.Validationf("%s is required", field)
	}
	if utf8.RuneCountInString(v) > maxNameLen {
		return apperr.Validationf("%s must be at most %d characters", field, maxNameLen)
	}
	return nil
}

// Email checks format and the 40-character cap.
func Email(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return apperr.Validation("email is required")
	}
	if utf8.RuneCountInString(v) > maxEmailLen {
		return apperr.Validationf("email must be at most %d characters", maxEmailLen)
	}
	if !validate.SimpleEmailValid(v) {
		return apperr.Validation("email must be a valid email address")
	}
	return nil
}

// Role accepts only the two known roles; empty is allowed so callers
// can default it.
func Role(v string) error {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "user", "admin":
		return nil
	default:
		return apperr.Validation(`role must be "user" or "admin"`)
	}
}

// PlaceName checks a city/state name: required, at most 25 chars.
func PlaceName(field, v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return apperr.Validationf("%s is required", field)
	}
	if utf8.RuneCountInString(v) > maxNameLen {
		return apperr.Validationf("%s must be at most %d characters", field, maxNameLen)
	}
	return nil
}

// Pop checks the nominal population figure: exactly four digits.
func Pop(n int) error {
	if n < minPop || n > maxPop {
		return apperr.Validationf("pop must be between %d and %d", minPop, maxPop)
	}
	return nil
}

// Coords checks a coordinate pair: each component in [-180, 180].
func Coords(loc [2]float64) error {
	for _, c := range loc {
		if c < -maxCoord || c > maxCoord {
			return apperr.Validationf("loc values must be between %g and %g", -maxCoord, maxCoord)
		}
	}
	return nil
}
