package handler

import (
	"errors"

	"frendo-pos/internal/cart"
	"frendo-pos/internal/service"
	"frendo-pos/pkg/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// fail maps a service error to its status; anything unrecognised is a 500 and is logged.
func fail(c *fiber.Ctx, log *zap.Logger, err error) error {
	var verr *validator.Error
	if errors.As(err, &verr) {
		return c.Status(400).JSON(fiber.Map{"error": verr.Error(), "fields": verr.Fields})
	}

	switch {
	case errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrInvalidRange),
		errors.Is(err, cart.ErrNegativePayment):
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, cart.ErrLineNotFound):
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, service.ErrInUse),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, cart.ErrInsufficientStock):
		return c.Status(409).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, service.ErrInvalidReference),
		errors.Is(err, service.ErrProductUnavailable),
		errors.Is(err, cart.ErrEmptyCart),
		errors.Is(err, cart.ErrInsufficientPayment),
		errors.Is(err, cart.ErrInvalidLine):
		return c.Status(422).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, service.ErrCheckoutFailed):
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}

	log.Error("request failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return c.Status(500).JSON(fiber.Map{"error": "Internal server error"})
}

// Helper untuk parse UUID dari path param
func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}

func invalidID(c *fiber.Ctx) error {
	return c.Status(400).JSON(fiber.Map{"error": "Invalid ID format"})
}
