// middleware/auth.go
package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"tote-sponsor-system/apperrors"
	"tote-sponsor-system/logger"
	"tote-sponsor-system/models"
	"tote-sponsor-system/services"
)

const (
	LocalUserID   = "user_id"
	LocalUserRole = "user_role"
)

var errMissingToken = apperrors.NewUnauthorizedError("authorization token missing")

// TokenVerifier is satisfied by services.TokenService.
type TokenVerifier interface {
	Verify(token string) (*services.Claims, error)
}

// Identity is the authenticated caller attached to the request.
type Identity struct {
	UserID string
	Role   models.Role
}

// JWTAuth validates the Bearer token and attaches the caller's identity.
func JWTAuth(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if authHeader == "" || token == "" || token == authHeader {
			return errMissingToken
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			logger.Debug("token rejected", "path", c.Path(), "error", err)
			return err
		}

		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalUserRole, claims.Role)
		return c.Next()
	}
}

// CurrentIdentity returns the identity set by JWTAuth, or nil.
func CurrentIdentity(c *fiber.Ctx) *Identity {
	userID, _ := c.Locals(LocalUserID).(string)
	role, _ := c.Locals(LocalUserRole).(models.Role)
	if userID == "" {
		return nil
	}
	return &Identity{UserID: userID, Role: role}
}
