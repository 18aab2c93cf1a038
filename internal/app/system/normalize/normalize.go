// Package normalize canonicalizes user-supplied strings before they are
// stored or compared.
package normalize

import (
	"strings"

	"github.com/dalemusser/clubhub/internal/domain/models"
)

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims and collapses runs of whitespace. Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// AuthMethod lowercases and trims an auth method name.
func AuthMethod(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Role lowercases and trims a role. Unknown or empty roles become visitor.
func Role(s string) string {
	r := strings.ToLower(strings.TrimSpace(s))
	if !models.IsValidRole(r) {
		return models.RoleVisitor
	}
	return r
}

// Text trims surrounding whitespace from free-form text such as chat
// messages and descriptions. Inner whitespace and newlines are kept.
func Text(s string) string {
	return strings.TrimSpace(s)
}
