package middleware

import (
	"context"
	"errors"

	"skillsync/backend/config"
	"skillsync/backend/docstore"
	"skillsync/backend/services"
	"skillsync/backend/utils"

	"github.com/gofiber/fiber/v2"
)

const sessionKey = "session"

// RoleSource looks up the stored role of a user.
type RoleSource interface {
	Role(ctx context.Context, uid string) (string, error)
}

// AuthMiddleware turns the request token into a Session stored in Locals.
// The user document is read on every request: a token outliving its account
// is rejected, and the session carries the current role.
func AuthMiddleware(cfg *config.Config, roles RoleSource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := utils.ExtractClaimsFromToken(c, cfg)
		if err != nil {
			return utils.Unauthorized(c, "Unauthorized")
		}

		role, err := roles.Role(c.UserContext(), claims.UserID)
		if errors.Is(err, docstore.ErrNotFound) {
			c.ClearCookie(utils.TokenCookie)
			return utils.Unauthorized(c, "Account no longer exists")
		}
		if err != nil {
			return utils.InternalServerError(c, "Failed to load account")
		}

		c.Locals(sessionKey, &services.Session{UserID: claims.UserID, Email: claims.Email, Role: role})
		return c.Next()
	}
}

// AdminMiddleware requires the role loaded by AuthMiddleware to be admin, so
// a demotion takes effect without waiting for the token to expire.
func AdminMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := CurrentSession(c)
		if sess == nil {
			return utils.Unauthorized(c, "Unauthorized")
		}
		if !sess.IsAdmin() {
			return utils.Forbidden(c, "Forbidden - Admin access required")
		}
		return c.Next()
	}
}

// CurrentSession returns the session set by AuthMiddleware, or nil.
func CurrentSession(c *fiber.Ctx) *services.Session {
	sess, _ := c.Locals(sessionKey).(*services.Session)
	return sess
}
