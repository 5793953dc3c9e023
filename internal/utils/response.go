package utils

import (
	apperrors "escrow/internal/errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Respond sends a JSON response with the specified status code.
func Respond(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(data)
}

// Success sends a successful JSON response.
func Success(c *fiber.Ctx, data interface{}) error {
	return Respond(c, fiber.StatusOK, data)
}

// Created sends a JSON response with status 201.
func Created(c *fiber.Ctx, data interface{}) error {
	return Respond(c, fiber.StatusCreated, data)
}

// Unauthorized sends a JSON error response with status 401.
func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, apperrors.ErrUnauthorized.WithMessage("%s", message))
}

// Error renders err. Domain errors keep their status, code and details;
// anything else is logged and reported as INTERNAL_ERROR.
func Error(c *fiber.Ctx, err error) error {
	if de, ok := apperrors.AsDomainError(err); ok {
		body := fiber.Map{"error": de.Message, "code": de.Code}
		if len(de.Details) > 0 {
			body["details"] = de.Details
		}
		return Respond(c, de.Status, body)
	}

	logrus.WithFields(logrus.Fields{
		"path":       c.Path(),
		"method":     c.Method(),
		"request_id": c.Locals("requestid"),
	}).WithError(err).Error("unhandled request error")
	return Respond(c, fiber.StatusInternalServerError, fiber.Map{
		"error": apperrors.ErrInternal.Message,
		"code":  apperrors.ErrInternal.Code,
	})
}
