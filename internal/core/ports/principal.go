package ports

import "github.com/campuskart/marketplace-api/internal/core/domain"

// Principal is the authenticated identity resolved from a validated access
// credential by the auth middleware.
type Principal struct {
	ID       string
	Username string
	Email    string
	Roles    domain.RoleSet
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Roles.Has(domain.RoleAdmin)
}
