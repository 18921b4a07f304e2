package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/campuskart/marketplace-api/internal/core/domain"
)

func newTokenFixture(t *testing.T) (*TokenService, *stubUserRepo, *domain.User) {
	t.Helper()
	repo := newStubUserRepo()
	user, err := repo.Create(context.Background(), &domain.User{
		Username: "alice",
		Email:    "alice@iitbhilai.ac.in",
		Roles:    domain.RoleSet{domain.RoleStudent},
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	svc := NewTokenService(repo, "access-secret", "refresh-secret", time.Minute, time.Hour, zerolog.Nop())
	return svc, repo, user
}

func TestTokenService_IssueAndValidate(t *testing.T) {
	svc, repo, user := newTokenFixture(t)

	pair, err := svc.Issue(context.Background(), user)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", pair)
	}

	claims, err := svc.Validate(pair.AccessToken, domain.TokenAccess)
	if err != nil {
		t.Fatalf("Validate access: %v", err)
	}
	if claims.UserID != user.ID || claims.Username != "alice" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if !claims.Roles.Has(domain.RoleStudent) {
		t.Fatalf("expected student role in claims, got %v", claims.Roles)
	}

	refreshClaims, err := svc.Validate(pair.RefreshToken, domain.TokenRefresh)
	if err != nil {
		t.Fatalf("Validate refresh: %v", err)
	}
	if refreshClaims.TokenID == "" {
		t.Fatalf("expected jti on refresh token")
	}

	creds := repo.credentials(user.ID)
	if len(creds) != 1 {
		t.Fatalf("expected 1 registered credential, got %d", len(creds))
	}
	if creds[0].TokenHash == pair.RefreshToken {
		t.Fatalf("credential stores the raw token, expected a hash")
	}
}

func TestTokenService_ValidateWrongKind(t *testing.T) {
	svc, _, user := newTokenFixture(t)

	pair, err := svc.Issue(context.Background(), user)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	// Access and refresh tokens are signed with distinct secrets; presenting
	// one as the other must fail.
	if _, err := svc.Validate(pair.AccessToken, domain.TokenRefresh); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
	if _, err := svc.Validate(pair.RefreshToken, domain.TokenAccess); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestTokenService_ValidateExpired(t *testing.T) {
	svc, _, user := newTokenFixture(t)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": user.ID,
		"iat": time.Now().Add(-2 * time.Hour).Unix(),
		"exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte("access-secret"))
	if err != nil {
		t.Fatalf("sign expired token: %v", err)
	}

	if _, err := svc.Validate(expired, domain.TokenAccess); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenService_ValidateGarbage(t *testing.T) {
	svc, _, _ := newTokenFixture(t)

	if _, err := svc.Validate("not-a-jwt", domain.TokenAccess); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestTokenService_CheckRefresh(t *testing.T) {
	svc, _, user := newTokenFixture(t)

	pair, err := svc.Issue(context.Background(), user)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	id, err := svc.CheckRefresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("CheckRefresh returned error: %v", err)
	}
	if id != user.ID {
		t.Fatalf("expected user id %s, got %s", user.ID, id)
	}

	if err := svc.Revoke(context.Background(), user.ID, pair.RefreshToken); err != nil {
		t.Fatalf("Revoke returned error: %v", err)
	}
	// Signature still valid, but no longer registered.
	if _, err := svc.CheckRefresh(context.Background(), pair.RefreshToken); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid after revoke, got %v", err)
	}
}

func TestTokenService_EvictionBeyondBound(t *testing.T) {
	svc, repo, user := newTokenFixture(t)

	var pairs []string
	for i := 0; i < domain.MaxRefreshCredentials+1; i++ {
		pair, err := svc.Issue(context.Background(), user)
		if err != nil {
			t.Fatalf("Issue %d returned error: %v", i, err)
		}
		pairs = append(pairs, pair.RefreshToken)
	}

	creds := repo.credentials(user.ID)
	if len(creds) != domain.MaxRefreshCredentials {
		t.Fatalf("expected %d credentials, got %d", domain.MaxRefreshCredentials, len(creds))
	}

	// Oldest credential was evicted, newest three survive.
	if _, err := svc.CheckRefresh(context.Background(), pairs[0]); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected evicted token to fail, got %v", err)
	}
	for _, token := range pairs[1:] {
		if _, err := svc.CheckRefresh(context.Background(), token); err != nil {
			t.Fatalf("expected surviving token to pass, got %v", err)
		}
	}
}

func TestTokenService_ConcurrentIssueKeepsBound(t *testing.T) {
	svc, repo, user := newTokenFixture(t)

	const logins = 16
	var wg sync.WaitGroup
	for i := 0; i < logins; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Issue(context.Background(), user); err != nil {
				t.Errorf("concurrent Issue returned error: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := len(repo.credentials(user.ID)); got != domain.MaxRefreshCredentials {
		t.Fatalf("expected exactly %d credentials after %d concurrent logins, got %d",
			domain.MaxRefreshCredentials, logins, got)
	}
}

func TestTokenService_IssuePersistFailure(t *testing.T) {
	svc, repo, user := newTokenFixture(t)
	repo.appendErr = errors.New("write failed")

	// A token the store does not know about must never be handed out.
	if _, err := svc.Issue(context.Background(), user); !errors.Is(err, domain.ErrTokenIssuance) {
		t.Fatalf("expected ErrTokenIssuance, got %v", err)
	}
	if got := len(repo.credentials(user.ID)); got != 0 {
		t.Fatalf("expected no credentials, got %d", got)
	}
}

func TestTokenService_RevokeAll(t *testing.T) {
	svc, repo, user := newTokenFixture(t)

	for i := 0; i < 3; i++ {
		if _, err := svc.Issue(context.Background(), user); err != nil {
			t.Fatalf("Issue returned error: %v", err)
		}
	}
	if err := svc.RevokeAll(context.Background(), user.ID); err != nil {
		t.Fatalf("RevokeAll returned error: %v", err)
	}
	if got := len(repo.credentials(user.ID)); got != 0 {
		t.Fatalf("expected no credentials after RevokeAll, got %d", got)
	}
}
