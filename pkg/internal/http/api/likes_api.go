package api

import (
	"errors"

	"github.com/deadlybird/deadlybird/pkg/internal/http/exts"
	"github.com/deadlybird/deadlybird/pkg/internal/models"
	"github.com/deadlybird/deadlybird/pkg/internal/services"
	"github.com/deadlybird/deadlybird/pkg/internal/wire"
	"github.com/gofiber/fiber/v2"
)

func postLikes(c *fiber.Ctx) error {
	post, err := services.GetPost(c.Params("postId"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "no post found")
	}

	// Likes are authoritative on the origin node, a copy only caches them.
	if host, err := services.Di.Canonicalize(post.Origin); err == nil && !services.Di.IsLocal(host) {
		return c.Redirect(post.Origin+"/likes", fiber.StatusTemporaryRedirect)
	}

	likes, err := services.ListLikesOn(post.ID, models.LikeContentPost)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(wire.LikeList{Type: "likes", Items: services.SerializeLikes(likes)})
}

func commentLikes(c *fiber.Ctx) error {
	comment, err := services.GetComment(c.Params("commentId"))
	if err != nil || comment.PostID != c.Params("postId") {
		return fiber.NewError(fiber.StatusNotFound, "no comment found")
	}
	post, err := services.GetPost(comment.PostID)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "no post found")
	}

	if host, err := services.Di.Canonicalize(post.Origin); err == nil && !services.Di.IsLocal(host) {
		return c.Redirect(post.Origin+"/comments/"+comment.ID+"/likes", fiber.StatusTemporaryRedirect)
	}

	likes, err := services.ListLikesOn(comment.ID, models.LikeContentComment)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(wire.LikeList{Type: "likes", Items: services.SerializeLikes(likes)})
}

func likedByAuthor(c *fiber.Ctx) error {
	if _, err := services.GetAuthor(c.Params("authorId")); err != nil {
		return fiber.NewError(fiber.StatusNotFound, "no author found")
	}
	likes, err := services.ListAuthorLiked(c.Params("authorId"))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(wire.LikeList{Type: "liked", Items: services.SerializeLikes(likes)})
}

func likePost(c *fiber.Ctx) error {
	author, _ := exts.SessionAuthor(c)

	post, err := services.GetPost(c.Params("postId"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "no post found")
	}

	// Remote-owned content gets the activity relayed to its owner first; a
	// local like row is still cached so the viewer sees it immediately.
	if !services.Di.IsLocal(post.Author.Host) {
		activity := services.SerializeLike(models.Like{
			SendAuthor:  author,
			ContentID:   post.ID,
			ContentType: models.LikeContentPost,
		})
		status, err := services.DeliverActivity(post.Author, activity)
		if err != nil {
			return fiber.NewError(status, err.Error())
		}
	}

	if _, err := services.CreateLike(author, post.AuthorID, post.ID, models.LikeContentPost); err != nil {
		if errors.Is(err, services.ErrConflict) {
			return fiber.NewError(fiber.StatusConflict, "already liked")
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.SendStatus(fiber.StatusCreated)
}
