package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/campuskart/marketplace-api/internal/core/domain"
)

// errorEnvelope is the canonical error body for all API failures.
type errorEnvelope struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to deterministic HTTP status codes.
//   - Logs unexpected errors internally without leaking details to clients;
//     outside production the underlying cause is included in the body.
//   - Renders a consistent JSON envelope.
func NewHTTPErrorHandler(log zerolog.Logger, env string) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg, detail := resolveError(err, log, c, env)
		_ = c.JSON(code, errorEnvelope{StatusCode: code, Message: msg, Detail: detail})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context, env string) (int, string, string) {
	// Echo's own errors (middleware 401/403, bind failures, router 404).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message), ""
	}

	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrEmptyOrder),
		errors.Is(err, domain.ErrSelfPurchase),
		errors.Is(err, domain.ErrMixedSellerOrder),
		errors.Is(err, domain.ErrListingUnavailable),
		errors.Is(err, domain.ErrEmailDomainNotAllowed),
		errors.Is(err, domain.ErrVerificationInvalid),
		errors.Is(err, domain.ErrResetInvalid):
		return http.StatusBadRequest, err.Error(), ""
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrTokenExpired),
		errors.Is(err, domain.ErrTokenInvalid):
		return http.StatusUnauthorized, err.Error(), ""
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "access forbidden", ""
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrListingNotFound),
		errors.Is(err, domain.ErrOrderNotFound):
		return http.StatusNotFound, err.Error(), ""
	case errors.Is(err, domain.ErrUserExists),
		errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, err.Error(), ""
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusUnprocessableEntity, err.Error(), ""
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	detail := ""
	if env != "production" {
		detail = err.Error()
	}
	return http.StatusInternalServerError, "internal server error", detail
}
