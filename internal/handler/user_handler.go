package handler

import (
	"github.com/gofiber/fiber/v2"

	"go-label-ws/internal/service"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetUsers returns all profiles
// GET /api/v1/users
func (h *UserHandler) GetUsers(c *fiber.Ctx) error {
	users, err := h.userService.GetAll(c.UserContext(), caller(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(users)
}

// CreateUser handles user creation
// POST /api/v1/users
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req service.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	user, err := h.userService.Create(c.UserContext(), req, caller(c))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(201).JSON(fiber.Map{
		"message": "User created successfully",
		"data":    user,
	})
}

// ToggleRole flips a user between admin and user
// POST /api/v1/users/:id/toggle-role
func (h *UserHandler) ToggleRole(c *fiber.Ctx) error {
	id, err := paramID(c, "user")
	if err != nil {
		return fail(c, err)
	}
	user, err := h.userService.ToggleRole(c.UserContext(), id, caller(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Role updated", "data": user})
}

// DeleteUser handles user deletion
// DELETE /api/v1/users/:id
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := paramID(c, "user")
	if err != nil {
		return fail(c, err)
	}
	if err := h.userService.Delete(c.UserContext(), id, caller(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "User deleted successfully"})
}
