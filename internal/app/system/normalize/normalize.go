// internal/app/system/normalize/normalize.go
package normalize

import "strings"

// Name trims and lowercases a person name for storage. Name fields are
// stored lowercase so equality filters need no collation support.
func Name(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Role lowercases a role string; empty stays empty so callers can apply
// their own default.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Provider lowercases an OAuth provider name, defaulting to "google".
func Provider(s string) string {
	p := strings.ToLower(strings.TrimSpace(s))
	if p == "" {
		return "google"
	}
	return p
}
