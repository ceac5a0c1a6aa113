package handler

import (
	"bytes"
	"fmt"
	"time"

	"frendo-pos/internal/export"
	"frendo-pos/internal/middleware"
	"frendo-pos/internal/model"
	"frendo-pos/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// PageHandler serves the data behind each dashboard page.
type PageHandler struct {
	dashboard    service.DashboardService
	catalog      service.CatalogService
	transactions service.TransactionService
	checkout     service.CheckoutService
	reports      service.ReportService
	users        service.UserService
	log          *zap.Logger
}

func NewPageHandler(
	dashboard service.DashboardService,
	catalog service.CatalogService,
	transactions service.TransactionService,
	checkout service.CheckoutService,
	reports service.ReportService,
	users service.UserService,
	log *zap.Logger,
) *PageHandler {
	return &PageHandler{
		dashboard:    dashboard,
		catalog:      catalog,
		transactions: transactions,
		checkout:     checkout,
		reports:      reports,
		users:        users,
		log:          log,
	}
}

// Dashboard picks the owner or kasir variant from the session
// GET /dashboard
func (h *PageHandler) Dashboard(c *fiber.Ctx) error {
	session := middleware.CurrentSession(c)
	if session.Can(model.CapViewOwnerDashboard) {
		data, err := h.dashboard.Owner(session)
		if err != nil {
			return fail(c, h.log, err)
		}
		return c.JSON(fiber.Map{"variant": "owner", "data": data})
	}

	data, err := h.dashboard.Kasir(session)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"variant": "kasir", "data": data})
}

// GET /dashboard/products
func (h *PageHandler) Products(c *fiber.Ctx) error {
	page, err := h.catalog.ProductsPage()
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(page)
}

// GET /dashboard/categories
func (h *PageHandler) Categories(c *fiber.Ctx) error {
	categories, err := h.catalog.ListCategories()
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"categories": categories})
}

// GET /dashboard/discounts
func (h *PageHandler) Discounts(c *fiber.Ctx) error {
	discounts, err := h.catalog.ListDiscounts()
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"discounts": discounts})
}

// GET /dashboard/transactions?date=YYYY-MM-DD
func (h *PageHandler) Transactions(c *fiber.Ctx) error {
	page, err := h.transactions.List(c.Query("date"))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(page)
}

// GET /dashboard/transactions/:id/receipt
func (h *PageHandler) Receipt(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return invalidID(c)
	}
	text, err := h.transactions.Receipt(id)
	if err != nil {
		return fail(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(text)
}

// GET /dashboard/transactions/create?q=
func (h *PageHandler) CreateTransaction(c *fiber.Ctx) error {
	products, err := h.checkout.Products(c.Query("q"))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"products": products})
}

// GET /dashboard/reports?start=&end=
func (h *PageHandler) Reports(c *fiber.Ctx) error {
	w, err := service.ParseWindow(c.Query("start"), c.Query("end"), time.Now())
	if err != nil {
		return fail(c, h.log, err)
	}
	report, err := h.reports.Build(w)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(report)
}

// GET /dashboard/reports/export?start=&end=
func (h *PageHandler) ExportReport(c *fiber.Ctx) error {
	w, err := service.ParseWindow(c.Query("start"), c.Query("end"), time.Now())
	if err != nil {
		return fail(c, h.log, err)
	}
	var buf bytes.Buffer
	filename, err := h.reports.Export(w, &buf)
	if err != nil {
		return fail(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, export.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(buf.Bytes())
}

// GET /dashboard/users
func (h *PageHandler) Users(c *fiber.Ctx) error {
	users, err := h.users.GetAllUsers()
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"users": users})
}
