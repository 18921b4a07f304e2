package handler

import (
	"github.com/campuskart/marketplace-api/internal/core/domain"
)

type hostelRequest struct {
	Hostel string `json:"hostel"`
	Room   string `json:"room"`
	Notes  string `json:"notes"`
}

type registerRequest struct {
	Name     string        `json:"name"     validate:"required"`
	Username string        `json:"username" validate:"required,min=3,max=30"`
	Email    string        `json:"email"    validate:"required,email"`
	Password string        `json:"password" validate:"required,min=8"`
	Phone    string        `json:"phone"`
	Whatsapp string        `json:"whatsapp"`
	Hostel   hostelRequest `json:"hostel_location"`
}

// loginRequest accepts either username or email plus the password.
type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type verifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"    validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

type updateProfileRequest struct {
	Name     *string        `json:"name,omitempty"`
	Phone    *string        `json:"phone,omitempty"`
	Whatsapp *string        `json:"whatsapp,omitempty"`
	Hostel   *hostelRequest `json:"hostel_location,omitempty"`
}

type updateRolesRequest struct {
	Roles []string `json:"roles" validate:"required,min=1"`
}

// authResponse mirrors the token pair into the body for non-browser clients;
// browsers rely on the http-only cookies set alongside.
type authResponse struct {
	User         *domain.User `json:"user,omitempty"`
	AccessToken  string       `json:"access_token,omitempty"`
	RefreshToken string       `json:"refresh_token,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type listUsersResponse struct {
	Data       []*domain.User     `json:"data"`
	Pagination paginationResponse `json:"pagination"`
}

type paginationResponse struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}
