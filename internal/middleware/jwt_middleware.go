package middleware

import (
	"log"
	"strings"

	"deliverus/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AuthRequired is a Fiber middleware to check for a valid JWT token. On
// success the authenticated identity is stored in the request locals:
// "user_id" (uint), "username" and "role" (string).
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			log.Printf("JWT validation failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
				"error":   err.Error(),
			})
		}

		userID, ok := claims["user_id"].(float64)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid token claims",
			})
		}
		role, _ := claims["role"].(string)
		username, _ := claims["username"].(string)

		c.Locals("user_id", uint(userID))
		c.Locals("username", username)
		c.Locals("role", role)

		return c.Next()
	}
}

// RequireRole rejects requests whose authenticated role differs from the
// required one. Must run after AuthRequired.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Locals("role") != role {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Insufficient role for this operation",
			})
		}
		return c.Next()
	}
}

// UserID returns the authenticated user's id stored by AuthRequired.
func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals("user_id").(uint)
	return id
}

// Role returns the authenticated user's role stored by AuthRequired.
func Role(c *fiber.Ctx) string {
	role, _ := c.Locals("role").(string)
	return role
}
