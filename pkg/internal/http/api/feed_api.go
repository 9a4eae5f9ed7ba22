package api

import (
	"github.com/deadlybird/deadlybird/pkg/internal/http/exts"
	"github.com/deadlybird/deadlybird/pkg/internal/models"
	"github.com/deadlybird/deadlybird/pkg/internal/services"
	"github.com/deadlybird/deadlybird/pkg/internal/wire"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

func getFeed(c *fiber.Ctx) error {
	author, _ := exts.SessionAuthor(c)
	if author.ID != c.Params("authorId") {
		return fiber.NewError(fiber.StatusForbidden, "cannot read someone else's feed")
	}

	limit := c.QueryInt("limit", 20)
	entries, err := services.FeedForAuthor(author.ID, limit)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{
		"type": "feed",
		"items": lo.Map(entries, func(entry models.FollowingFeedPost, _ int) wire.PostActivity {
			return services.SerializePost(entry.Post)
		}),
	})
}
