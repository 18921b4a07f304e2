package ports

import (
	"context"

	"github.com/campuskart/marketplace-api/internal/core/domain"
)

// TokenPair is one issued access/refresh credential pair.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenClaims is the identity embedded in a validated token. Refresh tokens
// carry only UserID and TokenID.
type TokenClaims struct {
	UserID   string
	Username string
	Email    string
	Roles    domain.RoleSet
	TokenID  string
}

// TokenService issues, validates, and revokes signed credentials.
type TokenService interface {
	// Issue signs a new pair and registers the refresh credential in the
	// user's bounded sequence, evicting the oldest entry beyond the bound.
	// On persistence failure nothing is returned (no unrecorded token).
	Issue(ctx context.Context, user *domain.User) (*TokenPair, error)

	// Validate verifies signature and expiry only. Fails with
	// domain.ErrTokenExpired past expiry and domain.ErrTokenInvalid for any
	// other defect, so callers can decide whether rotation is worth a try.
	Validate(token string, kind domain.TokenKind) (*TokenClaims, error)

	// CheckRefresh validates a refresh token and additionally requires it to
	// still be registered for the user: revoked or evicted credentials fail
	// with domain.ErrTokenInvalid even while the signature holds. Returns
	// the user id on success.
	CheckRefresh(ctx context.Context, token string) (string, error)

	// Revoke removes one refresh credential; idempotent if already absent.
	Revoke(ctx context.Context, userID, refreshToken string) error

	// RevokeAll clears the credential sequence, forcing re-authentication on
	// every device.
	RevokeAll(ctx context.Context, userID string) error
}
