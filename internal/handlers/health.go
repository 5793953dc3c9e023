package handlers

import (
	"context"
	"time"

	"escrow/internal/repositories"
	"escrow/internal/repositories/cache"

	"github.com/gofiber/fiber/v2"
)

const healthTimeout = 2 * time.Second

type HealthHandler struct {
	store repositories.Store
	cache cache.WalletCache
}

func NewHealthHandler(store repositories.Store, walletCache cache.WalletCache) *HealthHandler {
	return &HealthHandler{store: store, cache: walletCache}
}

// HealthCheck reports store and cache reachability. A down cache degrades
// but does not fail the check.
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
	defer cancel()

	status := "ok"
	code := fiber.StatusOK
	database := "connected"
	if err := h.store.Ping(ctx); err != nil {
		database = "unavailable"
		status = "unavailable"
		code = fiber.StatusServiceUnavailable
	}

	redis := "connected"
	if err := h.cache.Ping(ctx); err != nil {
		redis = "unavailable"
		if status == "ok" {
			status = "degraded"
		}
	}

	return c.Status(code).JSON(fiber.Map{
		"status":  status,
		"version": "1.0.0",
		"services": fiber.Map{
			"database": database,
			"redis":    redis,
		},
	})
}
