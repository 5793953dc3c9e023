// Package middleware provides HTTP middleware components for the application.
package middleware

import (
	"errors"
	"strings"

	apperrors "escrow/internal/errors"
	"escrow/internal/repositories"
	"escrow/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// AuthMiddleware handles JWT token validation and user authentication.
// It extracts the JWT token from the Authorization header, validates it,
// and adds the user claims to the request context.
type AuthMiddleware struct {
	secret string
	users  repositories.UserRepository
	log    *logrus.Logger
}

func NewAuthMiddleware(secret string, users repositories.UserRepository, log *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		secret: secret,
		users:  users,
		log:    log,
	}
}

// Handler validates JWT tokens and adds claims to the request context.
// It checks for:
// - Presence of Authorization header with Bearer token
// - Valid JWT signature and expiry
// - The user still exists
func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return utils.Unauthorized(c, "missing authorization header")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return utils.Unauthorized(c, "invalid authorization format")
	}

	claims, err := utils.ParseToken(m.secret, strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		m.log.WithError(err).Debug("token validation failed")
		return utils.Unauthorized(c, "invalid token")
	}

	if _, err := m.users.GetByID(c.UserContext(), claims.UserID); err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			m.log.WithField("user_id", claims.UserID).Warn("token for unknown user")
			return utils.Unauthorized(c, "invalid token")
		}
		return utils.Error(c, err)
	}

	c.Locals(utils.ClaimsKey, claims)
	return c.Next()
}
