// Package httpapi exposes the token service: the one server-side surface a
// front-end needs, issuing short-lived streaming credentials without ever
// revealing the provider API key.
package httpapi

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"voicedesk/internal/ports"
)

// RouterConfig controls the token service behavior.
type RouterConfig struct {
	TokenTTLSeconds int
}

// NewRouter builds the fiber app serving the token endpoint.
func NewRouter(cfg RouterConfig, issuer ports.TokenIssuer, logger *log.Logger) *fiber.App {
	if cfg.TokenTTLSeconds <= 0 {
		cfg.TokenTTLSeconds = 480
	}
	if logger == nil {
		logger = log.Default()
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Post("/api/token", func(c *fiber.Ctx) error {
		tok, err := issuer.IssueToken(c.Context(), cfg.TokenTTLSeconds)
		if err != nil {
			logger.Printf("httpapi: token issue failed: %v", err)
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": "failed to issue token",
			})
		}
		return c.JSON(tok)
	})

	return app
}
