package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/campuskart/marketplace-api/internal/api/middleware"
	"github.com/campuskart/marketplace-api/internal/core/ports"
)

// ctxPrincipal extracts the principal injected by the Auth middleware and
// fast-fails before any service call. Presence of a non-empty id proves the
// middleware ran.
func ctxPrincipal(c echo.Context) (ports.Principal, error) {
	principal, ok := c.Get(middleware.PrincipalKey).(ports.Principal)
	if !ok || principal.ID == "" {
		return ports.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return principal, nil
}

// viewerKey identifies a viewer for view deduplication: the principal id
// when authenticated, otherwise the client IP.
func viewerKey(c echo.Context) string {
	if principal, ok := c.Get(middleware.PrincipalKey).(ports.Principal); ok && principal.ID != "" {
		return principal.ID
	}
	return "ip:" + c.RealIP()
}
