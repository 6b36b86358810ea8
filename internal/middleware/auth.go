// Package middleware provides the fiber middleware of the ops API.
package middleware

import (
	"strings"

	"disburse/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// AuthMiddleware validates bearer tokens and stores the operator claims in
// the request context.
type AuthMiddleware struct {
	secret string
	log    zerolog.Logger
}

func NewAuthMiddleware(secret string, log zerolog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		secret: secret,
		log:    log,
	}
}

func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return utils.Unauthorized(c, "missing authorization header")
	}

	tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok {
		return utils.Unauthorized(c, "invalid authorization format")
	}

	claims, err := utils.ParseOperatorToken(m.secret, tokenString)
	if err != nil {
		m.log.Debug().Err(err).Str("path", c.Path()).Msg("token rejected")
		return utils.Unauthorized(c, "invalid token")
	}

	c.Locals("claims", claims)
	return c.Next()
}

// RequireRole rejects requests whose claims carry none of roles.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := utils.GetOperatorClaims(c)
		if err != nil {
			return utils.Unauthorized(c, "Unauthorized")
		}
		if !claims.HasRole(roles...) {
			return utils.Forbidden(c, "Insufficient permissions")
		}
		return c.Next()
	}
}
