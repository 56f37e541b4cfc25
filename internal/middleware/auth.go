package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/rentradar/scraper-api/pkg/response"
)

// APIKeyAuth checks requests for a static bearer key. When no key is
// configured the middleware is a pass-through, which keeps local
// development friction-free.
func APIKeyAuth(apiKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if apiKey == "" {
			return c.Next()
		}

		header := c.Get("Authorization")
		if header == "" {
			return response.Unauthorized(c, "Missing Authorization header")
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			return response.Unauthorized(c, "Invalid API key")
		}
		return c.Next()
	}
}
