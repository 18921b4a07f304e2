package ports

import (
	"context"

	"github.com/campuskart/marketplace-api/internal/core/domain"
)

// RegisterInput carries the data needed to create an account.
type RegisterInput struct {
	Name     string
	Username string
	Email    string
	Password string
	Phone    string
	Whatsapp string
	Hostel   domain.HostelLocation
}

// AuthService implements the account and session lifecycle.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	// Login accepts a username or an email. Unknown account and wrong
	// password are indistinguishable to the caller.
	Login(ctx context.Context, usernameOrEmail, password string) (*domain.User, *TokenPair, error)
	Logout(ctx context.Context, userID, refreshToken string) error
	// Refresh rotates a valid refresh credential for a fresh pair.
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)

	VerifyEmail(ctx context.Context, token string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error

	CurrentUser(ctx context.Context, userID string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*domain.User, error)

	// Admin operations.
	ListUsers(ctx context.Context, filter UserListFilter) ([]*domain.User, int64, error)
	DeleteUser(ctx context.Context, id string) error
	UpdateRoles(ctx context.Context, id string, roles []string) (*domain.User, error)
}

// Mailer delivers transactional mail. Delivery internals are an external
// collaborator; implementations must not block on remote I/O longer than the
// request allows.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
