package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/civicdesk/helpdesk/internal/api/dto"
	"github.com/civicdesk/helpdesk/internal/auth"
	"github.com/civicdesk/helpdesk/internal/config"
	"github.com/civicdesk/helpdesk/internal/service"
)

// AuthHandler exposes signup, login and session endpoints.
type AuthHandler struct {
	auth         *service.AuthService
	cookieName   string
	cookieSecure bool
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, cfg config.AuthConfig) *AuthHandler {
	name := cfg.CookieName
	if name == "" {
		name = "token"
	}
	return &AuthHandler{auth: authService, cookieName: name, cookieSecure: cfg.CookieSecure}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return created(c, "registered", dto.NewUserResponse(user))
}

// Login handles POST /auth/login and sets the session cookie.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, token, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cookieName,
		Value:    token.Value,
		Expires:  token.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.cookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return ok(c, "logged in", fiber.Map{
		"user": dto.NewUserResponse(user),
		"auth": dto.AuthResponse{Token: token.Value, ExpiresAt: token.ExpiresAt},
	})
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, found := auth.PrincipalFromContext(c)
	if found {
		if err := h.auth.Logout(c.UserContext(), principal.Token); err != nil {
			return err
		}
	}
	c.Cookie(&fiber.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   h.cookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return ok(c, "logged out", nil)
}

// IsAuth handles GET /auth/is-auth.
func (h *AuthHandler) IsAuth(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	return ok(c, "", dto.NewUserResponse(user))
}

// ChangePassword handles POST /auth/change-password.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	var req dto.ChangePasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.auth.ChangePassword(c.UserContext(), user, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return ok(c, "password changed", nil)
}
