package middlewares

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/etag"
)

// ETagMiddleware: 304 caching untuk response JSON.
// Response stream (export) dilewati: etag harus membaca seluruh body.
func ETagMiddleware() fiber.Handler {
	return etag.New(etag.Config{
		Next: func(c *fiber.Ctx) bool {
			return strings.HasSuffix(c.Path(), "/export")
		},
	})
}
