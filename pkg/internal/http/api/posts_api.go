package api

import (
	"errors"

	"github.com/deadlybird/deadlybird/pkg/internal/http/exts"
	"github.com/deadlybird/deadlybird/pkg/internal/models"
	"github.com/deadlybird/deadlybird/pkg/internal/services"
	"github.com/deadlybird/deadlybird/pkg/internal/wire"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

func listAuthorPosts(c *fiber.Ctx) error {
	viewerID := ""
	if viewer, ok := exts.SessionAuthor(c); ok {
		viewerID = viewer.ID
	}

	posts, err := services.ListAuthorPosts(c.Params("authorId"), viewerID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{
		"type": "posts",
		"items": lo.Map(posts, func(post models.Post, _ int) wire.PostActivity {
			return services.SerializePost(post)
		}),
	})
}

func createPost(c *fiber.Ctx) error {
	author, _ := exts.SessionAuthor(c)
	if author.ID != c.Params("authorId") {
		return fiber.NewError(fiber.StatusForbidden, "cannot post as a different author")
	}

	var draft services.PostDraft
	if err := exts.BindAndValidate(c, &draft); err != nil {
		return err
	}

	post, err := services.CreatePost(author, draft)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	services.FanOutPost(post, author.ID)

	return c.Status(fiber.StatusCreated).JSON(services.SerializePost(post))
}

func getPost(c *fiber.Ctx) error {
	post, err := services.GetPost(c.Params("postId"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "no post found")
	}

	if post.Visibility == models.PostVisibilityFriends {
		viewer, ok := exts.SessionAuthor(c)
		if !ok || (viewer.ID != post.AuthorID && !services.IsFriend(post.AuthorID, viewer.ID)) {
			return fiber.NewError(fiber.StatusNotFound, "no post found")
		}
	}
	return c.JSON(services.SerializePost(post))
}

func editPost(c *fiber.Ctx) error {
	author, _ := exts.SessionAuthor(c)

	post, err := services.GetPost(c.Params("postId"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "no post found")
	}
	if post.AuthorID != author.ID {
		return fiber.NewError(fiber.StatusForbidden, "cannot edit a different author's post")
	}

	var draft services.PostDraft
	if err := exts.BindAndValidate(c, &draft); err != nil {
		return err
	}

	updated, err := services.UpdatePost(post, draft)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(services.SerializePost(updated))
}

func deletePost(c *fiber.Ctx) error {
	author, _ := exts.SessionAuthor(c)

	post, err := services.GetPost(c.Params("postId"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "no post found")
	}
	if post.AuthorID != author.ID {
		return fiber.NewError(fiber.StatusForbidden, "cannot delete a different author's post")
	}

	if err := services.DeletePost(post); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func sharePost(c *fiber.Ctx) error {
	sharer, _ := exts.SessionAuthor(c)

	post, err := services.GetPost(c.Params("postId"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "no post found")
	}
	if post.Visibility != models.PostVisibilityPublic {
		return fiber.NewError(fiber.StatusForbidden, "only public posts can be shared")
	}

	shared, err := services.SharePost(sharer, post)
	if err != nil {
		if errors.Is(err, services.ErrConflict) {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	services.FanOutPost(shared, sharer.ID)

	return c.Status(fiber.StatusCreated).JSON(services.SerializePost(shared))
}
