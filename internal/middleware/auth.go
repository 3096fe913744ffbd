package middleware

import (
	"strings"

	"dealership-backend/internal/model"

	"github.com/gofiber/fiber/v2"
)

const identityLocal = "identity"

// IdentityVerifier turns a bearer token into a verified identity.
type IdentityVerifier interface {
	VerifyAccessToken(token string) (model.Identity, error)
}

func Auth(verifier IdentityVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(401).JSON(fiber.Map{"error": "missing authorization header"})
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return c.Status(401).JSON(fiber.Map{"error": "invalid authorization format"})
		}

		id, err := verifier.VerifyAccessToken(tokenString)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "invalid or expired token"})
		}

		c.Locals(identityLocal, id)
		return c.Next()
	}
}

// RequireRole must run after Auth.
func RequireRole(role model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := IdentityFrom(c)
		if !ok || id.Role != role {
			return c.Status(403).JSON(fiber.Map{"error": "forbidden"})
		}
		return c.Next()
	}
}

// IdentityFrom returns the identity stored by Auth.
func IdentityFrom(c *fiber.Ctx) (model.Identity, bool) {
	id, ok := c.Locals(identityLocal).(model.Identity)
	return id, ok
}
