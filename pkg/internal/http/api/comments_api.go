package api

import (
	"time"

	"github.com/deadlybird/deadlybird/pkg/internal/http/exts"
	"github.com/deadlybird/deadlybird/pkg/internal/models"
	"github.com/deadlybird/deadlybird/pkg/internal/services"
	"github.com/deadlybird/deadlybird/pkg/internal/wire"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

func listComments(c *fiber.Ctx) error {
	if _, err := services.GetPost(c.Params("postId")); err != nil {
		return fiber.NewError(fiber.StatusNotFound, "no post found")
	}

	comments, err := services.ListPostComments(c.Params("postId"))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{
		"type": "comments",
		"comments": lo.Map(comments, func(comment models.Comment, _ int) wire.CommentActivity {
			return services.SerializeComment(comment)
		}),
	})
}

func createComment(c *fiber.Ctx) error {
	author, _ := exts.SessionAuthor(c)

	post, err := services.GetPost(c.Params("postId"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "no post found")
	}

	var payload struct {
		Comment     string `json:"comment" validate:"required"`
		ContentType string `json:"contentType" validate:"required"`
	}
	if err := exts.BindAndValidate(c, &payload); err != nil {
		return err
	}

	// Comments belong to the post's origin node; a copy-holding node relays
	// the activity there instead of storing a local row.
	if originHost, err := services.Di.Canonicalize(post.Origin); err == nil && !services.Di.IsLocal(originHost) {
		comment := models.Comment{
			BaseModel:   models.BaseModel{ID: services.NextID()},
			PostID:      post.ID,
			AuthorID:    author.ID,
			Author:      author,
			Content:     payload.Comment,
			ContentType: payload.ContentType,
			PublishedAt: time.Now(),
		}
		activity := services.SerializeComment(comment)
		status, err := services.DeliverActivity(post.Author, activity)
		if err != nil {
			return fiber.NewError(status, err.Error())
		}
		return c.SendStatus(status)
	}

	comment, err := services.CreateComment(author, post, payload.Comment, payload.ContentType)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(services.SerializeComment(comment))
}
