package handler

import (
	"frendo-pos/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type CatalogHandler struct {
	service service.CatalogService
	log     *zap.Logger
}

func NewCatalogHandler(s service.CatalogService, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{service: s, log: log}
}

// ---- categories ----

func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	var req service.CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	category, err := h.service.CreateCategory(&req)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Category created", "data": category})
}

func (h *CatalogHandler) UpdateCategory(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req service.CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	category, err := h.service.UpdateCategory(id, &req)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Category updated", "data": category})
}

func (h *CatalogHandler) DeleteCategory(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return invalidID(c)
	}
	if err := h.service.DeleteCategory(id); err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Category deleted"})
}

// ---- discounts ----

func (h *CatalogHandler) CreateDiscount(c *fiber.Ctx) error {
	var req service.DiscountRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	discount, err := h.service.CreateDiscount(&req)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Discount created", "data": discount})
}

func (h *CatalogHandler) UpdateDiscount(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req service.DiscountRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	discount, err := h.service.UpdateDiscount(id, &req)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Discount updated", "data": discount})
}

func (h *CatalogHandler) DeleteDiscount(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return invalidID(c)
	}
	if err := h.service.DeleteDiscount(id); err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Discount deleted"})
}

// ---- products ----

func (h *CatalogHandler) CreateProduct(c *fiber.Ctx) error {
	var req service.ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	product, err := h.service.CreateProduct(&req)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Product created", "data": product})
}

func (h *CatalogHandler) UpdateProduct(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req service.ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	product, err := h.service.UpdateProduct(id, &req)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Product updated", "data": product})
}

func (h *CatalogHandler) DeleteProduct(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return invalidID(c)
	}
	if err := h.service.DeleteProduct(id); err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Product deleted"})
}
