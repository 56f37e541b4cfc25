package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthApp(apiKey string) *fiber.App {
	app := fiber.New()
	app.Get("/protected", APIKeyAuth(apiKey), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestAPIKeyAuth(t *testing.T) {
	t.Run("valid key passes", func(t *testing.T) {
		app := newAuthApp("secret-key")
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer secret-key")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("missing header rejected", func(t *testing.T) {
		app := newAuthApp("secret-key")
		req := httptest.NewRequest("GET", "/protected", nil)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("wrong key rejected", func(t *testing.T) {
		app := newAuthApp("secret-key")
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer wrong-key")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("unconfigured key disables auth", func(t *testing.T) {
		app := newAuthApp("")
		req := httptest.NewRequest("GET", "/protected", nil)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}
