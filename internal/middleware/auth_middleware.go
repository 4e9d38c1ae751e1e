package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"go-label-ws/internal/apperror"
	"go-label-ws/internal/model"
	"go-label-ws/internal/service"
)

// BearerToken extracts the token from "Authorization: Bearer <token>". Websocket
// clients cannot set headers, so a token query parameter is accepted too.
func BearerToken(c *fiber.Ctx) string {
	if h := c.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return c.Query("token")
}

// RequireAuth validates the JWT against the stored session and sets the user
// info in Locals for downstream handlers.
func RequireAuth(authService service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := BearerToken(c)
		if token == "" {
			return c.Status(401).JSON(fiber.Map{"error": "Missing authorization token"})
		}

		user, err := authService.Authenticate(c.UserContext(), token)
		if err != nil {
			if apperror.KindOf(err) == apperror.KindTransport {
				return c.Status(503).JSON(fiber.Map{"error": apperror.PublicMessage(err)})
			}
			return c.Status(401).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		c.Locals("user_id", user.ID.String())
		c.Locals("user_email", user.Email)
		c.Locals("user_name", user.Name)
		c.Locals("user_role", string(user.Role))

		return c.Next()
	}
}

// RequireRole rejects callers whose role is not role. Must run after RequireAuth.
func RequireRole(role model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		current, _ := c.Locals("user_role").(string)
		if model.Role(current) != role {
			return c.Status(403).JSON(fiber.Map{"error": "Forbidden: requires '" + string(role) + "' role"})
		}
		return c.Next()
	}
}
