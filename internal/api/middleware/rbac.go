package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/campuskart/marketplace-api/internal/core/ports"
)

// RBAC enforces role-based access control by set membership against the
// principal's capability set. No role implies another.
func RBAC(allowedRoles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, ok := c.Get(PrincipalKey).(ports.Principal)
			if !ok || !principal.Roles.HasAny(allowedRoles...) {
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}
			return next(c)
		}
	}
}
