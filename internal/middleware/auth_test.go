package middleware

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"escrow/internal/logger"
	"escrow/internal/models"
	"escrow/internal/repositories/memory"
	"escrow/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) (*fiber.App, *models.User) {
	t.Helper()
	store := memory.NewStore()
	user := &models.User{Email: "buyer@example.com", Name: "Buyer"}
	require.NoError(t, store.Repositories().Users.Create(context.Background(), user))

	auth := NewAuthMiddleware("secret", store.Repositories().Users, logger.Discard())
	app := fiber.New()
	app.Get("/me", auth.Handler, func(c *fiber.Ctx) error {
		claims, err := utils.GetUserClaims(c)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"user_id": claims.UserID})
	})
	app.Get("/locals", auth.Handler, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id_local": c.Locals("userID") != nil})
	})
	return app, user
}

func TestAuthMiddleware(t *testing.T) {
	app, user := newTestApp(t)

	valid, err := utils.GenerateToken("secret", user, time.Hour)
	require.NoError(t, err)
	unknown, err := utils.GenerateToken("secret", &models.User{ID: 999}, time.Hour)
	require.NoError(t, err)
	forged, err := utils.GenerateToken("not-the-secret", user, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid token", "Bearer " + valid, fiber.StatusOK},
		{"missing header", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid, fiber.StatusUnauthorized},
		{"forged signature", "Bearer " + forged, fiber.StatusUnauthorized},
		{"unknown user", "Bearer " + unknown, fiber.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestAuthMiddleware_ClaimsAreTheOnlyIdentityLocal(t *testing.T) {
	app, user := newTestApp(t)
	token, err := utils.GenerateToken("secret", user, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(fiber.MethodGet, "/locals", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body["user_id_local"])
}
