package handlers

import (
	"strconv"

	apperrors "escrow/internal/errors"
	"escrow/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// actingUser returns the authenticated user id set by the auth middleware.
func actingUser(c *fiber.Ctx) (uint, error) {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return 0, apperrors.ErrUnauthorized
	}
	return claims.UserID, nil
}

// paramID parses a positive numeric route parameter.
func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, apperrors.ErrValidationFailed.WithMessage("invalid %s", name)
	}
	return uint(id), nil
}

// parseBody decodes the JSON body into dst and runs its validate tags.
func parseBody(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return apperrors.ErrValidationFailed.WithMessage("invalid request body")
	}
	return utils.ValidateStruct(dst)
}
