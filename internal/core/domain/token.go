package domain

import "errors"

// TokenKind selects which signing secret and lifetime apply to a credential.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// Token validation distinguishes expiry from every other failure so callers
// can decide whether a refresh attempt is worthwhile.
var ErrTokenExpired = errors.New("token expired")
var ErrTokenInvalid = errors.New("token invalid")
var ErrTokenIssuance = errors.New("token issuance failed")
