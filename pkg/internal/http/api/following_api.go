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

func listFollowers(c *fiber.Ctx) error {
	if _, err := services.GetAuthor(c.Params("authorId")); err != nil {
		return fiber.NewError(fiber.StatusNotFound, "no author found")
	}
	edges, err := services.GetFollowers(c.Params("authorId"))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(wire.FollowerList{Type: "followers", Items: services.FollowerRefs(edges, true)})
}

func listFollowing(c *fiber.Ctx) error {
	if _, err := services.GetAuthor(c.Params("authorId")); err != nil {
		return fiber.NewError(fiber.StatusNotFound, "no author found")
	}
	edges, err := services.GetFollowing(c.Params("authorId"))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(wire.FollowerList{Type: "following", Items: services.FollowerRefs(edges, false)})
}

func listFollowRequests(c *fiber.Ctx) error {
	author, _ := exts.SessionAuthor(c)
	if author.ID != c.Params("authorId") {
		return fiber.NewError(fiber.StatusForbidden, "cannot view someone else's follow requests")
	}
	requests, err := services.ListFollowRequests(author.ID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{
		"type": "follow_requests",
		"items": lo.Map(requests, func(request models.FollowingRequest, _ int) wire.AuthorRef {
			return services.LocalAuthorRef(request.Author)
		}),
	})
}

// requesterAndTarget resolves the two authors a follow mutation operates
// on, enforcing that the session owns the requester side.
func requesterAndTarget(c *fiber.Ctx, requesterParam, targetParam string) (models.Author, models.Author, error) {
	author, _ := exts.SessionAuthor(c)
	if author.ID != c.Params(requesterParam) {
		return author, models.Author{}, fiber.NewError(fiber.StatusForbidden, "cannot act for someone else")
	}
	target, err := services.GetAuthor(c.Params(targetParam))
	if err != nil {
		return author, target, fiber.NewError(fiber.StatusNotFound, "no target author found")
	}
	return author, target, nil
}

func follow(c *fiber.Ctx) error {
	author, target, err := requesterAndTarget(c, "authorId", "targetId")
	if err != nil {
		return err
	}

	if _, err := services.Follow(author, target); err != nil {
		if errors.Is(err, services.ErrConflict) {
			return fiber.NewError(fiber.StatusConflict, "already following or requested")
		}
		var relayErr *services.RelayError
		if errors.As(err, &relayErr) {
			return fiber.NewError(fiber.StatusBadGateway, err.Error())
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.SendStatus(fiber.StatusCreated)
}

func acceptFollow(c *fiber.Ctx) error {
	// The target accepts, so the session must own :authorId and the
	// requester arrives as :targetId.
	author, requester, err := requesterAndTarget(c, "authorId", "targetId")
	if err != nil {
		return err
	}
	if err := services.AcceptFollow(requester, author); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "no pending follow request")
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func rejectFollow(c *fiber.Ctx) error {
	author, requester, err := requesterAndTarget(c, "authorId", "targetId")
	if err != nil {
		return err
	}
	if err := services.RejectFollow(requester, author); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "no pending follow request")
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func cancelFollow(c *fiber.Ctx) error {
	author, target, err := requesterAndTarget(c, "authorId", "targetId")
	if err != nil {
		return err
	}
	if err := services.CancelFollow(author, target); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "no pending follow request")
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func unfollow(c *fiber.Ctx) error {
	author, target, err := requesterAndTarget(c, "authorId", "targetId")
	if err != nil {
		return err
	}
	if err := services.Unfollow(author, target); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.SendStatus(fiber.StatusNoContent)
}
