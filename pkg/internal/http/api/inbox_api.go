package api

import (
	"github.com/deadlybird/deadlybird/pkg/internal/http/exts"
	"github.com/deadlybird/deadlybird/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
)

// postInbox is the single entry point for inbound federation traffic.
func postInbox(c *fiber.Ctx) error {
	recipient, err := services.GetAuthor(c.Params("authorId"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "no author found")
	}

	status, err := services.HandleActivity(recipient, c.Body())
	if err != nil {
		return fiber.NewError(status, err.Error())
	}
	return c.SendStatus(status)
}

func getInbox(c *fiber.Ctx) error {
	author, _ := exts.SessionAuthor(c)
	if author.ID != c.Params("authorId") {
		return fiber.NewError(fiber.StatusForbidden, "cannot read someone else's inbox")
	}

	take := c.QueryInt("take", 20)
	offset := c.QueryInt("offset", 0)

	messages, err := services.ListInbox(author.ID, take, offset)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	items := make([]any, 0, len(messages))
	for _, message := range messages {
		if rendered, ok := services.RenderInboxMessage(message); ok {
			items = append(items, rendered)
		}
	}
	return c.JSON(fiber.Map{
		"type":  "inbox",
		"items": items,
	})
}

func clearInbox(c *fiber.Ctx) error {
	author, _ := exts.SessionAuthor(c)
	if author.ID != c.Params("authorId") {
		return fiber.NewError(fiber.StatusForbidden, "cannot clear someone else's inbox")
	}

	if err := services.ClearInbox(author.ID); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.SendStatus(fiber.StatusNoContent)
}
