package handler

import (
	"time"

	"frendo-pos/internal/middleware"
	"frendo-pos/internal/service"
	"frendo-pos/pkg/validator"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService  service.AuthService
	secureCookie bool
	log          *zap.Logger
}

func NewAuthHandler(authService service.AuthService, secureCookie bool, log *zap.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, secureCookie: secureCookie, log: log}
}

// LoginPage tells clients where and how to sign in
// GET /login
func (h *AuthHandler) LoginPage(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Sign in with email and password",
		"action":  "/auth/login",
		"fields":  []string{"email", "password"},
	})
}

// Login handles user authentication and sets the session cookie
// POST /auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req service.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if err := validator.Check(&req); err != nil {
		return fail(c, h.log, err)
	}

	response, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		// Return 401 for authentication errors
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    response.Token,
		Path:     "/",
		Expires:  response.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(response)
}

// Logout clears the cookie and revokes every token of the user
// POST /auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	session := middleware.CurrentSession(c)
	if err := h.authService.Logout(session.UserID); err != nil {
		return fail(c, h.log, err)
	}
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   h.secureCookie,
	})
	return c.JSON(fiber.Map{"message": "Signed out"})
}

// ChangePassword handles password change
// POST /auth/change-password
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var req service.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if err := validator.Check(&req); err != nil {
		return fail(c, h.log, err)
	}

	if err := h.authService.ChangePassword(req.Email, req.OldPassword, req.NewPassword); err != nil {
		if err == service.ErrWrongPassword || err == service.ErrUserNotFound {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		return fail(c, h.log, err)
	}

	return c.JSON(fiber.Map{"message": "Password updated successfully"})
}

// Me returns the resolved session
// GET /auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	session := middleware.CurrentSession(c)
	return c.JSON(fiber.Map{
		"user":         session,
		"capabilities": session.Capabilities.List(),
	})
}
