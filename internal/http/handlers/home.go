package handlers

import "github.com/gofiber/fiber/v2"

const (
	ServiceName    = "Document Mail Merge API"
	ServiceVersion = "1.0.0"
)

// HandleHome is the identity and liveness probe served at GET /.
func HandleHome(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"name":    ServiceName,
		"version": ServiceVersion,
		"status":  "running",
	})
}
