package ports

import (
	"context"
	"time"

	"github.com/campuskart/marketplace-api/internal/core/domain"
)

// ProfileUpdate carries the user-editable profile fields. Nil pointers leave
// the stored value unchanged.
type ProfileUpdate struct {
	Name     *string
	Phone    *string
	Whatsapp *string
	Hostel   *domain.HostelLocation
}

// UserListFilter carries the admin user-listing query parameters.
type UserListFilter struct {
	Search string // partial match on name, username, or email
	Role   string // optional: users holding this role
	Page   int    // 1-based
	Limit  int
}

// UserRepository defines persistence operations for user accounts.
//
// AppendRefreshCredential must be atomic with respect to the read of the
// current credential sequence: two concurrent logins for the same user must
// not lose an entry, and the sequence never exceeds max (oldest evicted).
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// FindByUsernameOrEmail matches either field; empty arguments are ignored.
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*domain.User, error)
	FindByVerificationTokenHash(ctx context.Context, hash string) (*domain.User, error)
	// FindByResetTokenHash only matches users whose reset token has not expired.
	FindByResetTokenHash(ctx context.Context, hash string) (*domain.User, error)

	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*domain.User, error)
	UpdateRoles(ctx context.Context, id string, roles domain.RoleSet) (*domain.User, error)
	// SetPassword stores a new password hash and clears any reset token.
	SetPassword(ctx context.Context, id, passwordHash string) error
	SetVerificationToken(ctx context.Context, id, hash string) error
	SetResetToken(ctx context.Context, id, hash string, expires time.Time) error
	// MarkVerified flags the account verified and clears the verification token.
	MarkVerified(ctx context.Context, id string, domainVerified bool) error

	AppendRefreshCredential(ctx context.Context, id string, cred domain.RefreshCredential, max int) error
	// RemoveRefreshCredential is idempotent: removing an absent hash is not an error.
	RemoveRefreshCredential(ctx context.Context, id, tokenHash string) error
	ClearRefreshCredentials(ctx context.Context, id string) error

	List(ctx context.Context, filter UserListFilter) ([]*domain.User, int64, error)
	Delete(ctx context.Context, id string) error
}
