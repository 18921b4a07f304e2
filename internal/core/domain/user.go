package domain

import (
	"errors"
	"time"
)

// Role tags form a capability set: access checks are plain membership tests,
// no role ever implies another.
const (
	RoleStudent     = "student"
	RoleVendorAdmin = "vendor_admin"
	RoleClubAdmin   = "club_admin"
	RoleModerator   = "moderator"
	RoleAdmin       = "admin"
)

var validRoles = map[string]struct{}{
	RoleStudent:     {},
	RoleVendorAdmin: {},
	RoleClubAdmin:   {},
	RoleModerator:   {},
	RoleAdmin:       {},
}

// IsValidRole reports whether role is one of the known role tags.
func IsValidRole(role string) bool {
	_, ok := validRoles[role]
	return ok
}

// RoleSet is an ordered collection of distinct role tags.
type RoleSet []string

// Has reports whether the set contains role.
func (rs RoleSet) Has(role string) bool {
	for _, r := range rs {
		if r == role {
			return true
		}
	}
	return false
}

// HasAny reports whether the set contains at least one of roles.
func (rs RoleSet) HasAny(roles ...string) bool {
	for _, r := range roles {
		if rs.Has(r) {
			return true
		}
	}
	return false
}

var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrUserExists = errors.New("user already exists")
var ErrUserNotFound = errors.New("user not found")
var ErrForbidden = errors.New("access forbidden")
var ErrValidation = errors.New("invalid input")
var ErrEmailDomainNotAllowed = errors.New("email domain not allowed")
var ErrVerificationInvalid = errors.New("invalid or expired verification token")
var ErrResetInvalid = errors.New("invalid or expired reset token")

// MaxRefreshCredentials bounds the per-user refresh credential sequence.
// Appending beyond the bound evicts the oldest entry.
const MaxRefreshCredentials = 3

// RefreshCredential is one live refresh token registered for a user. Only a
// hash of the signed token is retained.
type RefreshCredential struct {
	ID        string    `json:"id"`
	TokenHash string    `json:"-"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// HostelLocation is a campus delivery point.
type HostelLocation struct {
	Hostel string `json:"hostel,omitempty"`
	Room   string `json:"room,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

// User models a registered campus account.
type User struct {
	ID                    string              `json:"id"`
	Name                  string              `json:"name"`
	Username              string              `json:"username"`
	Email                 string              `json:"email"`
	PasswordHash          string              `json:"-"`
	Roles                 RoleSet             `json:"roles"`
	DomainVerified        bool                `json:"domain_verified"`
	IsVerified            bool                `json:"is_verified"`
	Phone                 string              `json:"phone,omitempty"`
	Whatsapp              string              `json:"whatsapp,omitempty"`
	Hostel                HostelLocation      `json:"hostel_location,omitempty"`
	RefreshCredentials    []RefreshCredential `json:"-"`
	VerificationTokenHash string              `json:"-"`
	ResetTokenHash        string              `json:"-"`
	ResetTokenExpires     time.Time           `json:"-"`
	CreatedAt             time.Time           `json:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at"`
}
