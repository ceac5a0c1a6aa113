package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"frendo-pos/internal/cart"
	"frendo-pos/internal/middleware"
	"frendo-pos/internal/model"
	"frendo-pos/internal/service"
	"frendo-pos/pkg/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubResolver map[string]model.Role

func (s stubResolver) ResolveSession(token string) (*service.Session, error) {
	role, ok := s[token]
	if !ok {
		return nil, errors.New("invalid or expired token")
	}
	return &service.Session{UserID: kasirID, Name: string(role), Role: role, Capabilities: model.CapabilitiesFor(role)}, nil
}

var (
	kasirID  = uuid.MustParse("0f3a0c8e-7c1b-4d4e-9d51-3a9a4f0d2b11")
	resolver = stubResolver{"owner-token": model.RoleOwner, "kasir-token": model.RoleKasir}
)

type stubCheckout struct {
	gotKey  string
	gotUser uuid.UUID
	result  *service.CheckoutResult
	err     error
}

func (s *stubCheckout) Products(string) ([]service.CheckoutProduct, error) {
	return []service.CheckoutProduct{{ID: uuid.New(), Name: "Kopi", Stock: 3}}, nil
}

func (s *stubCheckout) Checkout(_ context.Context, userID uuid.UUID, req *service.CheckoutRequest) (*service.CheckoutResult, error) {
	s.gotKey = req.IdempotencyKey
	s.gotUser = userID
	return s.result, s.err
}

type stubCart struct {
	service.CartService
	err error
}

func (s stubCart) AddItem(context.Context, uuid.UUID, uuid.UUID) (*service.CartView, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &service.CartView{Lines: []cart.Line{}, Total: decimal.NewFromInt(5000)}, nil
}

type stubCatalog struct {
	service.CatalogService
}

func (stubCatalog) CreateCategory(req *service.CategoryRequest) (*model.Category, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}
	return &model.Category{Name: req.Name}, nil
}

func (stubCatalog) DeleteCategory(uuid.UUID) error {
	return service.ErrInUse
}

type stubTransactions struct {
	service.TransactionService
}

func (stubTransactions) Receipt(uuid.UUID) (string, error) {
	return "FRENDO POS\nTOTAL", nil
}

type stubReports struct {
	service.ReportService
}

func (stubReports) Export(w service.Window, out io.Writer) (string, error) {
	_, err := out.Write([]byte("xlsx"))
	return "laporan-penjualan-" + w.StartDate() + ".xlsx", err
}

type stubDashboard struct{}

func (stubDashboard) Owner(*service.Session) (*service.OwnerDashboard, error) {
	return &service.OwnerDashboard{}, nil
}

func (stubDashboard) Kasir(*service.Session) (*service.KasirDashboard, error) {
	return &service.KasirDashboard{}, nil
}

func do(t *testing.T, app *fiber.App, method, path, token, body string, headers ...string) (*testResponse, error) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := app.Test(req)
	if err != nil {
		return nil, err
	}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return &testResponse{Status: resp.StatusCode, Header: resp.Header.Get, Body: raw}, nil
}

type testResponse struct {
	Status int
	Header func(string) string
	Body   []byte
}

func (r *testResponse) JSON(t *testing.T) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(r.Body, &out))
	return out
}

func TestCheckoutStatus(t *testing.T) {
	tx := &model.Transaction{TotalPrice: decimal.NewFromInt(10000)}
	cases := []struct {
		name   string
		stub   *stubCheckout
		status int
	}{
		{"new transaction", &stubCheckout{result: &service.CheckoutResult{Transaction: tx}}, 201},
		{"replayed key", &stubCheckout{result: &service.CheckoutResult{Transaction: tx, Replayed: true}}, 200},
		{"stock conflict", &stubCheckout{err: cart.ErrInsufficientStock}, 409},
		{"underpaid", &stubCheckout{err: cart.ErrInsufficientPayment}, 422},
		{"empty cart", &stubCheckout{err: cart.ErrEmptyCart}, 422},
		{"store failure", &stubCheckout{err: service.ErrCheckoutFailed}, 500},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewCartHandler(nil, tc.stub, zaptest.NewLogger(t))
			app := fiber.New()
			app.Post("/transactions", middleware.RequireAuth(resolver), h.Checkout)

			resp, err := do(t, app, "POST", "/transactions", "kasir-token", `{"payment": 20000}`, "Idempotency-Key", "k-1")
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.Status)
			assert.Equal(t, "k-1", tc.stub.gotKey)
			assert.Equal(t, kasirID, tc.stub.gotUser)
		})
	}
}

func TestCheckoutRejectsMalformedBody(t *testing.T) {
	stub := &stubCheckout{}
	h := NewCartHandler(nil, stub, zaptest.NewLogger(t))
	app := fiber.New()
	app.Post("/transactions", middleware.RequireAuth(resolver), h.Checkout)

	resp, err := do(t, app, "POST", "/transactions", "kasir-token", `{"items": `)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.Status)
	assert.Equal(t, uuid.Nil, stub.gotUser)
}

func TestAddItem(t *testing.T) {
	app := fiber.New()
	ok := NewCartHandler(stubCart{}, nil, zaptest.NewLogger(t))
	soldOut := NewCartHandler(stubCart{err: cart.ErrInsufficientStock}, nil, zaptest.NewLogger(t))
	app.Post("/ok", middleware.RequireAuth(resolver), ok.AddItem)
	app.Post("/sold-out", middleware.RequireAuth(resolver), soldOut.AddItem)

	body := `{"product_id": "` + uuid.NewString() + `"}`

	resp, err := do(t, app, "POST", "/ok", "kasir-token", body)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, "5000", resp.JSON(t)["total"])

	resp, err = do(t, app, "POST", "/sold-out", "kasir-token", body)
	require.NoError(t, err)
	assert.Equal(t, 409, resp.Status)

	resp, err = do(t, app, "POST", "/ok", "kasir-token", `{}`)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.Status)
	fields, isList := resp.JSON(t)["fields"].([]interface{})
	require.True(t, isList)
	require.Len(t, fields, 1)
	assert.Equal(t, "uuid_required", fields[0].(map[string]interface{})["tag"])

	resp, err = do(t, app, "POST", "/ok", "kasir-token", `{"product_id": "`+uuid.Nil.String()+`"}`)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.Status)
}

func TestCatalogErrors(t *testing.T) {
	h := NewCatalogHandler(stubCatalog{}, zaptest.NewLogger(t))
	app := fiber.New()
	app.Post("/categories", h.CreateCategory)
	app.Delete("/categories/:id", h.DeleteCategory)

	resp, err := do(t, app, "POST", "/categories", "", `{"name": "ab"}`)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.Status)
	fields, ok := resp.JSON(t)["fields"].([]interface{})
	require.True(t, ok)
	assert.Len(t, fields, 1)

	resp, err = do(t, app, "POST", "/categories", "", `{"name": "Minuman"}`)
	require.NoError(t, err)
	assert.Equal(t, 201, resp.Status)

	resp, err = do(t, app, "DELETE", "/categories/not-a-uuid", "", "")
	require.NoError(t, err)
	assert.Equal(t, 400, resp.Status)

	resp, err = do(t, app, "DELETE", "/categories/"+uuid.NewString(), "", "")
	require.NoError(t, err)
	assert.Equal(t, 409, resp.Status)
}

func TestPages(t *testing.T) {
	h := NewPageHandler(stubDashboard{}, stubCatalog{}, stubTransactions{}, &stubCheckout{}, stubReports{}, nil, zaptest.NewLogger(t))
	app := fiber.New()
	app.Get("/dashboard", middleware.RequireAuth(resolver), h.Dashboard)
	app.Get("/dashboard/transactions/:id/receipt", h.Receipt)
	app.Get("/dashboard/reports/export", h.ExportReport)
	app.Get("/dashboard/transactions/create", h.CreateTransaction)

	t.Run("dashboard variant follows the role", func(t *testing.T) {
		resp, err := do(t, app, "GET", "/dashboard", "owner-token", "")
		require.NoError(t, err)
		assert.Equal(t, "owner", resp.JSON(t)["variant"])

		resp, err = do(t, app, "GET", "/dashboard", "kasir-token", "")
		require.NoError(t, err)
		assert.Equal(t, "kasir", resp.JSON(t)["variant"])
	})

	t.Run("receipt is plain text", func(t *testing.T) {
		resp, err := do(t, app, "GET", "/dashboard/transactions/"+uuid.NewString()+"/receipt", "", "")
		require.NoError(t, err)
		assert.Equal(t, 200, resp.Status)
		assert.Contains(t, resp.Header("Content-Type"), "text/plain")
		assert.Equal(t, "FRENDO POS\nTOTAL", string(resp.Body))
	})

	t.Run("export is an attachment", func(t *testing.T) {
		resp, err := do(t, app, "GET", "/dashboard/reports/export?start=2026-10-01&end=2026-10-14", "", "")
		require.NoError(t, err)
		assert.Equal(t, 200, resp.Status)
		assert.Equal(t, `attachment; filename="laporan-penjualan-2026-10-01.xlsx"`, resp.Header("Content-Disposition"))
		assert.Equal(t, "xlsx", string(resp.Body))
	})

	t.Run("export rejects a reversed window", func(t *testing.T) {
		resp, err := do(t, app, "GET", "/dashboard/reports/export?start=2026-10-14&end=2026-10-01", "", "")
		require.NoError(t, err)
		assert.Equal(t, 400, resp.Status)
	})

	t.Run("register lists sellable products", func(t *testing.T) {
		resp, err := do(t, app, "GET", "/dashboard/transactions/create", "", "")
		require.NoError(t, err)
		products, ok := resp.JSON(t)["products"].([]interface{})
		require.True(t, ok)
		assert.Len(t, products, 1)
	})
}
