package exts

import (
	"github.com/deadlybird/deadlybird/pkg/internal/models"
	"github.com/gofiber/fiber/v2"
)

// RemoteOrSessionAuthenticated gates the federation surface: either a local
// session or valid node credentials will do.
func RemoteOrSessionAuthenticated(c *fiber.Ctx) error {
	if c.Locals("author") != nil {
		return c.Next()
	}
	if remote, ok := c.Locals("remote_node").(bool); ok && remote {
		return c.Next()
	}
	return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
}

// SessionAuthenticated gates author-facing endpoints.
func SessionAuthenticated(c *fiber.Ctx) error {
	if c.Locals("author") == nil {
		return fiber.NewError(fiber.StatusUnauthorized, "login required")
	}
	return c.Next()
}

// SessionAuthor returns the logged-in author, when there is one.
func SessionAuthor(c *fiber.Ctx) (models.Author, bool) {
	author, ok := c.Locals("author").(models.Author)
	return author, ok
}
