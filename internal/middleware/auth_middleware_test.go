package middleware

import (
	"errors"
	"net/http/httptest"
	"testing"

	"frendo-pos/internal/model"
	"frendo-pos/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver map[string]model.Role

func (s stubResolver) ResolveSession(token string) (*service.Session, error) {
	role, ok := s[token]
	if !ok {
		return nil, errors.New("invalid or expired token")
	}
	return &service.Session{UserID: uuid.New(), Name: string(role), Role: role, Capabilities: model.CapabilitiesFor(role)}, nil
}

var resolver = stubResolver{"owner-token": model.RoleOwner, "kasir-token": model.RoleKasir}

func pageApp() *fiber.App {
	app := fiber.New()
	ok := func(c *fiber.Ctx) error { return c.SendString(CurrentSession(c).Name) }
	app.Get("/dashboard", RequirePage(resolver), ok)
	app.Get("/dashboard/reports", RequirePage(resolver, model.CapViewReports), ok)
	app.Get("/dashboard/products", RequirePage(resolver, model.CapViewProducts), ok)
	return app
}

func TestRequirePage(t *testing.T) {
	cases := []struct {
		name     string
		path     string
		cookie   string
		status   int
		location string
	}{
		{"anonymous goes to login", "/dashboard/reports", "", 302, "/login"},
		{"bad token goes to login", "/dashboard", "forged", 302, "/login"},
		{"kasir on owner page goes to dashboard", "/dashboard/reports", "kasir-token", 302, "/dashboard"},
		{"kasir on shared page", "/dashboard/products", "kasir-token", 200, ""},
		{"owner on owner page", "/dashboard/reports", "owner-token", 200, ""},
		{"any role on dashboard", "/dashboard", "kasir-token", 200, ""},
	}
	app := pageApp()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tc.path, nil)
			if tc.cookie != "" {
				req.Header.Set("Cookie", SessionCookie+"="+tc.cookie)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
			if tc.location != "" {
				assert.Equal(t, tc.location, resp.Header.Get("Location"))
			}
		})
	}
}

func TestRequireAuthAndCapability(t *testing.T) {
	app := fiber.New()
	api := app.Group("/api", RequireAuth(resolver))
	api.Post("/categories", RequireCapability(model.CapManageCategories), func(c *fiber.Ctx) error {
		return c.SendStatus(201)
	})
	api.Post("/cart/items", RequireCapability(model.CapCheckout), func(c *fiber.Ctx) error {
		return c.SendStatus(200)
	})
	api.Post("/discounts", RequireCapability(model.CapManageDiscounts), func(c *fiber.Ctx) error {
		return c.SendStatus(201)
	})
	api.Post("/products", RequireCapability(model.CapManageProducts), func(c *fiber.Ctx) error {
		return c.SendStatus(201)
	})
	api.Post("/users", RequireCapability(model.CapManageUsers), func(c *fiber.Ctx) error {
		return c.SendStatus(201)
	})

	cases := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"no token", "/api/categories", "", 401},
		{"bad token", "/api/categories", "Bearer forged", 401},
		{"kasir cannot manage categories", "/api/categories", "Bearer kasir-token", 403},
		{"owner can manage categories", "/api/categories", "Bearer owner-token", 201},
		{"kasir can use the cart", "/api/cart/items", "Bearer kasir-token", 200},
		{"owner can use the cart", "/api/cart/items", "bearer owner-token", 200},
		{"kasir can manage discounts", "/api/discounts", "Bearer kasir-token", 201},
		{"kasir can manage products", "/api/products", "Bearer kasir-token", 201},
		{"kasir cannot manage users", "/api/users", "Bearer kasir-token", 403},
		{"owner can manage users", "/api/users", "Bearer owner-token", 201},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}
