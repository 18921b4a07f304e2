package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/campuskart/marketplace-api/internal/core/domain"
	"github.com/campuskart/marketplace-api/internal/core/ports"
)

const resetTokenTTL = 10 * time.Minute

// AuthService implements registration, login, and the credential lifecycle
// around the token service.
type AuthService struct {
	users         ports.UserRepository
	tokens        ports.TokenService
	mailer        ports.Mailer
	activity      ports.ActivityRecorder
	allowedDomain string
	log           zerolog.Logger
}

func NewAuthService(users ports.UserRepository, tokens ports.TokenService, mailer ports.Mailer, activity ports.ActivityRecorder, allowedDomain string, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:         users,
		tokens:        tokens,
		mailer:        mailer,
		activity:      activity,
		allowedDomain: allowedDomain,
		log:           log,
	}
}

// Register creates an account restricted to the campus email domain and
// sends a verification token. Only its hash is stored.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	if in.Name == "" || in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, domain.ErrValidation
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if s.allowedDomain != "" && !strings.HasSuffix(email, "@"+s.allowedDomain) {
		return nil, domain.ErrEmailDomainNotAllowed
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		Name:         in.Name,
		Username:     strings.ToLower(in.Username),
		Email:        email,
		PasswordHash: string(hash),
		Roles:        domain.RoleSet{domain.RoleStudent},
		Phone:        in.Phone,
		Whatsapp:     in.Whatsapp,
		Hostel:       in.Hostel,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	verifyToken, err := randomToken()
	if err != nil {
		return nil, fmt.Errorf("generate verification token: %w", err)
	}
	if err := s.users.SetVerificationToken(ctx, created.ID, hashToken(verifyToken)); err != nil {
		return nil, err
	}
	if err := s.mailer.Send(ctx, created.Email, "Verify your account", "Verification token: "+verifyToken); err != nil {
		s.log.Warn().Err(err).Str("user_id", created.ID).Msg("verification mail not sent")
	}

	s.activity.Record(domain.ActivityEntry{
		ActorID: created.ID, Action: domain.ActivityRegister, SubjectType: "user", SubjectID: created.ID, Timestamp: now,
	})
	return created, nil
}

// Login authenticates by username or email. An unknown account and a wrong
// password produce the same error.
func (s *AuthService) Login(ctx context.Context, usernameOrEmail, password string) (*domain.User, *ports.TokenPair, error) {
	if usernameOrEmail == "" || password == "" {
		return nil, nil, domain.ErrInvalidCredentials
	}

	ident := strings.ToLower(strings.TrimSpace(usernameOrEmail))
	user, err := s.users.FindByUsernameOrEmail(ctx, ident, ident)
	if err != nil {
		return nil, nil, domain.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, domain.ErrInvalidCredentials
	}

	pair, err := s.tokens.Issue(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.activity.Record(domain.ActivityEntry{
		ActorID: user.ID, Action: domain.ActivityLogin, SubjectType: "user", SubjectID: user.ID, Timestamp: time.Now().UTC(),
	})
	return user, pair, nil
}

// Logout revokes the presented refresh credential. Calling it without a
// token, or with an already revoked one, is not an error.
func (s *AuthService) Logout(ctx context.Context, userID, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.tokens.Revoke(ctx, userID, refreshToken)
}

// Refresh rotates a valid refresh credential: the presented token is revoked
// and a fresh pair issued in its place.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*ports.TokenPair, error) {
	userID, err := s.tokens.CheckRefresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}

	if err := s.tokens.Revoke(ctx, userID, refreshToken); err != nil {
		return nil, err
	}
	return s.tokens.Issue(ctx, user)
}

// VerifyEmail consumes a verification token and flags the account verified.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return domain.ErrVerificationInvalid
	}

	user, err := s.users.FindByVerificationTokenHash(ctx, hashToken(token))
	if err != nil {
		return domain.ErrVerificationInvalid
	}

	domainVerified := s.allowedDomain != "" && strings.HasSuffix(user.Email, "@"+s.allowedDomain)
	return s.users.MarkVerified(ctx, user.ID, domainVerified)
}

// ForgotPassword issues a short-lived reset token to the account's email.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	if email == "" {
		return domain.ErrValidation
	}

	user, err := s.users.FindByUsernameOrEmail(ctx, "", strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}

	resetToken, err := randomToken()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	expires := time.Now().UTC().Add(resetTokenTTL)
	if err := s.users.SetResetToken(ctx, user.ID, hashToken(resetToken), expires); err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, user.Email, "Password reset", "Reset token: "+resetToken); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("reset mail not sent")
	}
	return nil
}

// ResetPassword consumes a reset token, stores the new password, and revokes
// every refresh credential so all devices must log in again.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return domain.ErrValidation
	}

	user, err := s.users.FindByResetTokenHash(ctx, hashToken(token))
	if err != nil {
		return domain.ErrResetInvalid
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.SetPassword(ctx, user.ID, string(hash)); err != nil {
		return err
	}
	return s.tokens.RevokeAll(ctx, user.ID)
}

// ChangePassword verifies the old password before storing the new one, then
// revokes every refresh credential.
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return domain.ErrValidation
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)) != nil {
		return domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.SetPassword(ctx, userID, string(hash)); err != nil {
		return err
	}

	s.activity.Record(domain.ActivityEntry{
		ActorID: userID, Action: domain.ActivityPasswordChange, SubjectType: "user", SubjectID: userID, Timestamp: time.Now().UTC(),
	})
	return s.tokens.RevokeAll(ctx, userID)
}

func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.FindByID(ctx, userID)
}

func (s *AuthService) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, update ports.ProfileUpdate) (*domain.User, error) {
	return s.users.UpdateProfile(ctx, userID, update)
}

func (s *AuthService) ListUsers(ctx context.Context, filter ports.UserListFilter) ([]*domain.User, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 10
	}
	return s.users.List(ctx, filter)
}

func (s *AuthService) DeleteUser(ctx context.Context, id string) error {
	return s.users.Delete(ctx, id)
}

// UpdateRoles replaces a user's role set. Roles must be known tags with no
// duplicates.
func (s *AuthService) UpdateRoles(ctx context.Context, id string, roles []string) (*domain.User, error) {
	if len(roles) == 0 {
		return nil, domain.ErrValidation
	}
	seen := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		if !domain.IsValidRole(r) {
			return nil, domain.ErrValidation
		}
		if _, dup := seen[r]; dup {
			return nil, domain.ErrValidation
		}
		seen[r] = struct{}{}
	}
	return s.users.UpdateRoles(ctx, id, domain.RoleSet(roles))
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
