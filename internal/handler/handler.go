package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"go-label-ws/internal/apperror"
	"go-label-ws/internal/model"
	"go-label-ws/internal/service"
)

// statusFor maps the error taxonomy onto HTTP.
func statusFor(err error) int {
	switch apperror.KindOf(err) {
	case apperror.KindValidation, apperror.KindDecoding:
		return fiber.StatusBadRequest
	case apperror.KindNotFound:
		return fiber.StatusNotFound
	case apperror.KindTransport:
		return fiber.StatusServiceUnavailable
	case apperror.KindUnauthorized:
		return fiber.StatusUnauthorized
	case apperror.KindForbidden:
		return fiber.StatusForbidden
	}
	return fiber.StatusInternalServerError
}

func fail(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{"error": apperror.PublicMessage(err)})
}

func invalidJSON(c *fiber.Ctx) error {
	return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
}

// caller reads the identity RequireAuth stored in Locals.
func caller(c *fiber.Ctx) service.Caller {
	str := func(key string) string {
		v, _ := c.Locals(key).(string)
		return v
	}
	return service.Caller{
		UserID: str("user_id"),
		Name:   str("user_name"),
		Email:  str("user_email"),
		Role:   model.Role(str("user_role")),
	}
}

func paramID(c *fiber.Ctx, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, apperror.Validation("Invalid " + what + " ID")
	}
	return id, nil
}
