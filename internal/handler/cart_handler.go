package handler

import (
	"frendo-pos/internal/middleware"
	"frendo-pos/internal/service"
	"frendo-pos/pkg/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CartHandler struct {
	cartService     service.CartService
	checkoutService service.CheckoutService
	log             *zap.Logger
}

func NewCartHandler(cartService service.CartService, checkoutService service.CheckoutService, log *zap.Logger) *CartHandler {
	return &CartHandler{cartService: cartService, checkoutService: checkoutService, log: log}
}

type addItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"uuid_required"`
}

type adjustItemRequest struct {
	Delta int `json:"delta"`
}

type paymentRequest struct {
	Payment decimal.Decimal `json:"payment"`
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	session := middleware.CurrentSession(c)
	view, err := h.cartService.Get(c.UserContext(), session.UserID)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(view)
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	var req addItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if err := validator.Check(&req); err != nil {
		return fail(c, h.log, err)
	}
	session := middleware.CurrentSession(c)
	view, err := h.cartService.AddItem(c.UserContext(), session.UserID, req.ProductID)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(view)
}

// PATCH /api/v1/cart/items/:product_id
func (h *CartHandler) AdjustItem(c *fiber.Ctx) error {
	productID, ok := paramUUID(c, "product_id")
	if !ok {
		return invalidID(c)
	}
	var req adjustItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	session := middleware.CurrentSession(c)
	view, err := h.cartService.AdjustItem(c.UserContext(), session.UserID, productID, req.Delta)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(view)
}

// DELETE /api/v1/cart/items/:product_id
func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	productID, ok := paramUUID(c, "product_id")
	if !ok {
		return invalidID(c)
	}
	session := middleware.CurrentSession(c)
	view, err := h.cartService.RemoveItem(c.UserContext(), session.UserID, productID)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(view)
}

// PUT /api/v1/cart/payment
func (h *CartHandler) SetPayment(c *fiber.Ctx) error {
	var req paymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	session := middleware.CurrentSession(c)
	view, err := h.cartService.SetPayment(c.UserContext(), session.UserID, req.Payment)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(view)
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(c *fiber.Ctx) error {
	session := middleware.CurrentSession(c)
	if err := h.cartService.Clear(c.UserContext(), session.UserID); err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Cart cleared"})
}

// Checkout commits the stored cart, or the items in the body
// POST /api/v1/transactions
func (h *CartHandler) Checkout(c *fiber.Ctx) error {
	var req service.CheckoutRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
		}
	}
	req.IdempotencyKey = c.Get("Idempotency-Key")

	session := middleware.CurrentSession(c)
	result, err := h.checkoutService.Checkout(c.UserContext(), session.UserID, &req)
	if err != nil {
		return fail(c, h.log, err)
	}

	status := 201
	if result.Replayed {
		status = 200
	}
	return c.Status(status).JSON(fiber.Map{
		"message":  "Transaction recorded",
		"data":     result.Transaction,
		"replayed": result.Replayed,
	})
}
