package admin

import (
	"github.com/deadlybird/deadlybird/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
)

func adminTriggerGithubPoll(c *fiber.Ctx) error {
	go services.PollGithubFeeds()

	return c.SendStatus(fiber.StatusOK)
}

func adminTriggerCleanup(c *fiber.Ctx) error {
	go services.DoAutoDatabaseCleanup()

	return c.SendStatus(fiber.StatusOK)
}
