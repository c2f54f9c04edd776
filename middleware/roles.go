// middleware/roles.go
package middleware

import (
	"github.com/gofiber/fiber/v2"

	"tote-sponsor-system/apperrors"
	"tote-sponsor-system/models"
)

var (
	ErrUnauthenticated = apperrors.NewUnauthorizedError("authentication required")
	ErrForbidden       = apperrors.NewForbiddenError("your role is not allowed to perform this action")
)

// RequireRole is a pure check of the caller's role against the allowed set.
func RequireRole(identity *Identity, allowed ...models.Role) error {
	if identity == nil || identity.UserID == "" {
		return ErrUnauthenticated
	}
	for _, r := range allowed {
		if identity.Role == r {
			return nil
		}
	}
	return ErrForbidden
}

// RequireRoles must run after JWTAuth.
func RequireRoles(allowed ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := RequireRole(CurrentIdentity(c), allowed...); err != nil {
			return err
		}
		return c.Next()
	}
}
