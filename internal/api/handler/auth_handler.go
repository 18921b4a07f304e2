package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/campuskart/marketplace-api/internal/api/middleware"
	"github.com/campuskart/marketplace-api/internal/core/domain"
	"github.com/campuskart/marketplace-api/internal/core/ports"
)

// RefreshCookie is the http-only cookie carrying the refresh token. It is
// scoped to the refresh endpoint only.
const RefreshCookie = "refreshToken"

// AuthHandler handles account and session endpoints.
type AuthHandler struct {
	authService ports.AuthService
	accessTTL   time.Duration
	refreshTTL  time.Duration
}

func NewAuthHandler(authService ports.AuthService, accessTTL, refreshTTL time.Duration) *AuthHandler {
	return &AuthHandler{authService: authService, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// Register creates a new account.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  errorEnvelope
// @Failure      409   {object}  errorEnvelope
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Whatsapp: req.Whatsapp,
		Hostel: domain.HostelLocation{
			Hostel: req.Hostel.Hostel,
			Room:   req.Hostel.Room,
			Notes:  req.Hostel.Notes,
		},
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, authResponse{User: user})
}

// Login authenticates a user and sets the credential pair as http-only
// cookies, mirrored in the body.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      401   {object}  errorEnvelope
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ident := req.Email
	if ident == "" {
		ident = req.Username
	}

	user, pair, err := h.authService.Login(c.Request().Context(), ident, req.Password)
	if err != nil {
		return err
	}

	h.setAuthCookies(c, pair)
	return c.JSON(http.StatusOK, authResponse{
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Logout revokes the presented refresh credential and clears the cookies.
func (h *AuthHandler) Logout(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	if err := h.authService.Logout(c.Request().Context(), principal.ID, h.refreshToken(c)); err != nil {
		return err
	}

	h.clearAuthCookies(c)
	return c.JSON(http.StatusOK, messageResponse{Message: "logged out"})
}

// Refresh exchanges a valid refresh credential for a fresh pair. On failure
// the cookies are cleared, forcing a full re-login.
//
// @Summary      Rotate the refresh credential
// @Tags         auth
// @Produce      json
// @Success      200  {object}  authResponse
// @Failure      401  {object}  errorEnvelope
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	token := h.refreshToken(c)
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing refresh token")
	}

	pair, err := h.authService.Refresh(c.Request().Context(), token)
	if err != nil {
		h.clearAuthCookies(c)
		return err
	}

	h.setAuthCookies(c, pair)
	return c.JSON(http.StatusOK, authResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	var req verifyEmailRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.authService.VerifyEmail(c.Request().Context(), req.Token); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "email verified"})
}

func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.authService.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "password reset token sent"})
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.authService.ResetPassword(c.Request().Context(), req.Token, req.Password); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "password reset"})
}

// ChangePassword revokes every live session on success; the client must log
// in again.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.authService.ChangePassword(c.Request().Context(), principal.ID, req.OldPassword, req.NewPassword); err != nil {
		return err
	}

	h.clearAuthCookies(c)
	return c.JSON(http.StatusOK, messageResponse{Message: "password changed"})
}

func (h *AuthHandler) Me(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	user, err := h.authService.CurrentUser(c.Request().Context(), principal.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) UpdateMe(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	update := ports.ProfileUpdate{Name: req.Name, Phone: req.Phone, Whatsapp: req.Whatsapp}
	if req.Hostel != nil {
		update.Hostel = &domain.HostelLocation{
			Hostel: req.Hostel.Hostel,
			Room:   req.Hostel.Room,
			Notes:  req.Hostel.Notes,
		}
	}

	user, err := h.authService.UpdateProfile(c.Request().Context(), principal.ID, update)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// GetUser serves a user's profile by id.
func (h *AuthHandler) GetUser(c echo.Context) error {
	user, err := h.authService.GetUserByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// ListUsers is admin only (enforced by RBAC middleware on the route).
func (h *AuthHandler) ListUsers(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	users, total, err := h.authService.ListUsers(c.Request().Context(), ports.UserListFilter{
		Search: c.QueryParam("search"),
		Role:   c.QueryParam("role"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return err
	}

	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return c.JSON(http.StatusOK, listUsersResponse{
		Data: users,
		Pagination: paginationResponse{
			Total: total, Page: page, Limit: limit, TotalPages: totalPages,
		},
	})
}

func (h *AuthHandler) DeleteUser(c echo.Context) error {
	if err := h.authService.DeleteUser(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "user deleted"})
}

func (h *AuthHandler) UpdateRoles(c echo.Context) error {
	var req updateRolesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.authService.UpdateRoles(c.Request().Context(), c.Param("id"), req.Roles)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) refreshToken(c echo.Context) string {
	if cookie, err := c.Cookie(RefreshCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	var req refreshRequest
	if err := c.Bind(&req); err == nil {
		return req.RefreshToken
	}
	return ""
}

func (h *AuthHandler) setAuthCookies(c echo.Context, pair *ports.TokenPair) {
	c.SetCookie(authCookie(middleware.AccessCookie, pair.AccessToken, h.accessTTL))
	c.SetCookie(authCookie(RefreshCookie, pair.RefreshToken, h.refreshTTL))
}

func (h *AuthHandler) clearAuthCookies(c echo.Context) {
	c.SetCookie(authCookie(middleware.AccessCookie, "", -time.Hour))
	c.SetCookie(authCookie(RefreshCookie, "", -time.Hour))
}

func authCookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}
