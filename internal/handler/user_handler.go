package handler

import (
	"frendo-pos/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type UserHandler struct {
	userService service.UserService
	log         *zap.Logger
}

func NewUserHandler(userService service.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{userService: userService, log: log}
}

// CreateUser creates the sign-in identity and the profile
// POST /api/v1/users
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req service.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	user, err := h.userService.CreateUser(&req)
	if err != nil {
		return fail(c, h.log, err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "User created successfully", "data": user})
}

// UpdateUser updates name, role and active flag
// PUT /api/v1/users/:id
func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return invalidID(c)
	}

	var req service.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	user, err := h.userService.UpdateUser(id, &req)
	if err != nil {
		return fail(c, h.log, err)
	}

	return c.JSON(fiber.Map{"message": "User updated successfully", "data": user})
}

// DeleteUser handles user deletion
// DELETE /api/v1/users/:id
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return invalidID(c)
	}

	if err := h.userService.DeleteUser(id); err != nil {
		return fail(c, h.log, err)
	}

	return c.JSON(fiber.Map{"message": "User deleted successfully"})
}
