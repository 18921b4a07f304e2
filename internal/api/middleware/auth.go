package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/campuskart/marketplace-api/internal/api/metrics"
	"github.com/campuskart/marketplace-api/internal/core/domain"
	"github.com/campuskart/marketplace-api/internal/core/ports"
)

// PrincipalKey is the echo context key under which the authenticated
// principal is stored.
const PrincipalKey = "principal"

// AccessCookie is the http-only cookie carrying the access token for
// browser clients; the Authorization header takes precedence.
const AccessCookie = "accessToken"

// Auth validates the access credential and injects the principal into the
// request context. Expired and invalid tokens produce distinguishable 401
// messages so clients know when a refresh attempt is worthwhile.
func Auth(tokens ports.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := extractToken(c)
			if raw == "" {
				metrics.AuthFailuresTotal.WithLabelValues("missing").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "missing credentials")
			}

			claims, err := tokens.Validate(raw, domain.TokenAccess)
			if err != nil {
				if errors.Is(err, domain.ErrTokenExpired) {
					metrics.AuthFailuresTotal.WithLabelValues("expired").Inc()
					return echo.NewHTTPError(http.StatusUnauthorized, "token expired")
				}
				metrics.AuthFailuresTotal.WithLabelValues("invalid").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(PrincipalKey, principalFromClaims(claims))
			return next(c)
		}
	}
}

// OptionalAuth resolves a principal when a valid credential is present but
// never fails the request: endpoints that only personalise output (view
// tracking) serve anonymous callers too.
func OptionalAuth(tokens ports.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw := extractToken(c); raw != "" {
				if claims, err := tokens.Validate(raw, domain.TokenAccess); err == nil {
					c.Set(PrincipalKey, principalFromClaims(claims))
				}
			}
			return next(c)
		}
	}
}

func principalFromClaims(claims *ports.TokenClaims) ports.Principal {
	return ports.Principal{
		ID:       claims.UserID,
		Username: claims.Username,
		Email:    claims.Email,
		Roles:    claims.Roles,
	}
}

// extractToken prefers the Authorization header and falls back to the
// access-token cookie.
func extractToken(c echo.Context) string {
	if header := c.Request().Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return ""
	}
	if cookie, err := c.Cookie(AccessCookie); err == nil {
		return cookie.Value
	}
	return ""
}
