package middleware

import (
	"strings"

	"frendo-pos/internal/model"
	"frendo-pos/internal/service"

	"github.com/gofiber/fiber/v2"
)

const (
	SessionCookie = "session"
	LoginPath     = "/login"
	DashboardPath = "/dashboard"

	sessionKey = "session"
)

// SessionResolver turns a token into a session (service.AuthService).
type SessionResolver interface {
	ResolveSession(tokenString string) (*service.Session, error)
}

// tokenFrom reads the session cookie, falling back to "Authorization: Bearer <token>".
func tokenFrom(c *fiber.Ctx) string {
	if token := c.Cookies(SessionCookie); token != "" {
		return token
	}
	parts := strings.Fields(c.Get("Authorization"))
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}

func setSession(c *fiber.Ctx, s *service.Session) {
	c.Locals(sessionKey, s)
	c.Locals("user_id", s.UserID.String())
	c.Locals("user_name", s.Name)
	c.Locals("user_role", string(s.Role))
}

// CurrentSession returns the session stored by RequireAuth or RequirePage.
func CurrentSession(c *fiber.Ctx) *service.Session {
	s, _ := c.Locals(sessionKey).(*service.Session)
	return s
}

// RequireAuth is for JSON routes: no valid session answers 401.
func RequireAuth(resolver SessionResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := tokenFrom(c)
		if token == "" {
			return c.Status(401).JSON(fiber.Map{"error": "Missing authorization token"})
		}

		session, err := resolver.ResolveSession(token)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": err.Error()})
		}

		setSession(c, session)
		return c.Next()
	}
}

// RequireCapability must run after RequireAuth.
func RequireCapability(required model.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session := CurrentSession(c)
		if session == nil {
			return c.Status(401).JSON(fiber.Map{"error": "Not authenticated"})
		}
		if !session.Can(required) {
			return c.Status(403).JSON(fiber.Map{
				"error": "Forbidden: requires '" + string(required) + "' capability",
			})
		}
		return c.Next()
	}
}

// RequirePage gates page routes: anonymous requests go to the login page, sessions
// without one of the capabilities go back to the dashboard.
func RequirePage(resolver SessionResolver, anyOf ...model.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := tokenFrom(c)
		if token == "" {
			return c.Redirect(LoginPath, fiber.StatusFound)
		}
		session, err := resolver.ResolveSession(token)
		if err != nil {
			c.ClearCookie(SessionCookie)
			return c.Redirect(LoginPath, fiber.StatusFound)
		}
		setSession(c, session)

		if len(anyOf) == 0 {
			return c.Next()
		}
		for _, capability := range anyOf {
			if session.Can(capability) {
				return c.Next()
			}
		}
		return c.Redirect(DashboardPath, fiber.StatusFound)
	}
}
