package api

import (
	"fmt"

	"github.com/deadlybird/deadlybird/pkg/internal/database"
	"github.com/deadlybird/deadlybird/pkg/internal/http/exts"
	"github.com/deadlybird/deadlybird/pkg/internal/models"
	"github.com/deadlybird/deadlybird/pkg/internal/services"
	"github.com/deadlybird/deadlybird/pkg/internal/wire"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

func listAuthors(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	size := c.QueryInt("size", 10)
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 10
	}

	var authors []models.Author
	if err := database.C.
		Order("created_at ASC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&authors).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	base := services.Di.FullAPIURL("authors", nil)
	envelope := wire.AuthorPage{
		Type: "authors",
		Next: fmt.Sprintf("%s/?page=%d&size=%d", base, page+1, size),
		Items: lo.Map(authors, func(author models.Author, _ int) wire.AuthorRef {
			return services.LocalAuthorRef(author)
		}),
	}
	if page > 1 {
		envelope.Prev = fmt.Sprintf("%s/?page=%d&size=%d", base, page-1, size)
	}
	return c.JSON(envelope)
}

func getAuthor(c *fiber.Ctx) error {
	author, err := services.GetAuthor(c.Params("authorId"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "no author found")
	}
	return c.JSON(services.LocalAuthorRef(author))
}

func editAuthor(c *fiber.Ctx) error {
	author, _ := exts.SessionAuthor(c)
	if author.ID != c.Params("authorId") {
		return fiber.NewError(fiber.StatusForbidden, "cannot modify a different author")
	}

	var payload struct {
		DisplayName  string `json:"displayName"`
		Github       string `json:"github"`
		ProfileImage string `json:"profileImage"`
		Bio          string `json:"bio"`
	}
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	changes := map[string]any{}
	if len(payload.DisplayName) > 0 {
		changes["display_name"] = payload.DisplayName
	}
	if len(payload.Github) > 0 {
		changes["github"] = payload.Github
	}
	if len(payload.ProfileImage) > 0 {
		changes["profile_picture"] = payload.ProfileImage
	}
	if len(payload.Bio) > 0 {
		changes["bio"] = payload.Bio
	}
	if len(changes) > 0 {
		if err := database.C.Model(&author).Updates(changes).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
	}

	updated, _ := services.GetAuthor(author.ID)
	return c.JSON(services.LocalAuthorRef(updated))
}

func login(c *fiber.Ctx) error {
	var payload struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	if err := exts.BindAndValidate(c, &payload); err != nil {
		return err
	}

	author, err := services.AuthenticateAccount(payload.Username, payload.Password)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid username or password")
	}

	token := services.IssueSession(author.ID)
	c.Cookie(&fiber.Cookie{
		Name:     "session_token",
		Value:    token,
		HTTPOnly: true,
	})
	return c.JSON(fiber.Map{
		"authenticated": true,
		"id":            author.ID,
	})
}

func register(c *fiber.Ctx) error {
	var payload struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required,min=6"`
		Email    string `json:"email" validate:"required,email"`
	}
	if err := exts.BindAndValidate(c, &payload); err != nil {
		return err
	}

	author, err := services.CreateLocalAuthor(payload.Username, payload.Email, payload.Password)
	if err != nil {
		if err == services.ErrConflict {
			return fiber.NewError(fiber.StatusConflict, "account already exists")
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(services.LocalAuthorRef(author))
}

func logout(c *fiber.Ctx) error {
	if token := c.Cookies("session_token"); len(token) > 0 {
		services.RevokeSession(token)
	}
	c.ClearCookie("session_token")
	return c.SendStatus(fiber.StatusNoContent)
}
