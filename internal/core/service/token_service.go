package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/campuskart/marketplace-api/internal/core/domain"
	"github.com/campuskart/marketplace-api/internal/core/ports"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour

	// tokenLeeway tolerates small clock skew between issuer and validator.
	tokenLeeway = 5 * time.Second
)

// TokenService issues and revokes signed credential pairs backed by the
// user's bounded refresh credential sequence.
type TokenService struct {
	users         ports.UserRepository
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	log           zerolog.Logger
}

func NewTokenService(users ports.UserRepository, accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, log zerolog.Logger) *TokenService {
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	return &TokenService{
		users:         users,
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		log:           log,
	}
}

// Issue signs an access/refresh pair and registers the refresh credential.
// The append evicts the oldest entry beyond domain.MaxRefreshCredentials in
// the same atomic write, and never touches the password hash.
func (s *TokenService) Issue(ctx context.Context, user *domain.User) (*ports.TokenPair, error) {
	now := time.Now().UTC()
	jti := uuid.NewString()

	access, err := s.sign(jwt.MapClaims{
		"sub":      user.ID,
		"email":    user.Email,
		"username": user.Username,
		"roles":    []string(user.Roles),
		"iat":      now.Unix(),
		"exp":      now.Add(s.accessTTL).Unix(),
	}, s.accessSecret)
	if err != nil {
		return nil, domain.ErrTokenIssuance
	}

	refresh, err := s.sign(jwt.MapClaims{
		"sub": user.ID,
		"jti": jti,
		"iat": now.Unix(),
		"exp": now.Add(s.refreshTTL).Unix(),
	}, s.refreshSecret)
	if err != nil {
		return nil, domain.ErrTokenIssuance
	}

	cred := domain.RefreshCredential{
		ID:        jti,
		TokenHash: hashToken(refresh),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.refreshTTL),
	}
	if err := s.users.AppendRefreshCredential(ctx, user.ID, cred, domain.MaxRefreshCredentials); err != nil {
		// No partial state: a token the store does not know about is never
		// handed to the caller.
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("failed to record refresh credential")
		return nil, domain.ErrTokenIssuance
	}

	return &ports.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Validate verifies signature and expiry for the given kind.
func (s *TokenService) Validate(token string, kind domain.TokenKind) (*ports.TokenClaims, error) {
	secret := s.accessSecret
	if kind == domain.TokenRefresh {
		secret = s.refreshSecret
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return secret, nil
	}, jwt.WithLeeway(tokenLeeway))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}
	if !parsed.Valid {
		return nil, domain.ErrTokenInvalid
	}

	out := &ports.TokenClaims{}
	out.UserID, _ = claims["sub"].(string)
	out.Username, _ = claims["username"].(string)
	out.Email, _ = claims["email"].(string)
	out.TokenID, _ = claims["jti"].(string)
	if rawRoles, ok := claims["roles"].([]interface{}); ok {
		for _, r := range rawRoles {
			if role, ok := r.(string); ok {
				out.Roles = append(out.Roles, role)
			}
		}
	}
	if out.UserID == "" {
		return nil, domain.ErrTokenInvalid
	}
	return out, nil
}

// CheckRefresh validates a refresh token and requires its hash to still be
// registered: revoked or evicted credentials fail even with a valid
// signature.
func (s *TokenService) CheckRefresh(ctx context.Context, token string) (string, error) {
	claims, err := s.Validate(token, domain.TokenRefresh)
	if err != nil {
		return "", err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return "", domain.ErrTokenInvalid
	}

	hash := hashToken(token)
	for _, cred := range user.RefreshCredentials {
		if cred.TokenHash == hash {
			return user.ID, nil
		}
	}
	return "", domain.ErrTokenInvalid
}

// Revoke removes one refresh credential. Removing an absent credential is
// not an error.
func (s *TokenService) Revoke(ctx context.Context, userID, refreshToken string) error {
	return s.users.RemoveRefreshCredential(ctx, userID, hashToken(refreshToken))
}

// RevokeAll clears the credential sequence.
func (s *TokenService) RevokeAll(ctx context.Context, userID string) error {
	return s.users.ClearRefreshCredentials(ctx, userID)
}

func (s *TokenService) sign(claims jwt.MapClaims, secret []byte) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
