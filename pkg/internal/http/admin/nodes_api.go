package admin

import (
	"errors"

	"github.com/deadlybird/deadlybird/pkg/internal/database"
	"github.com/deadlybird/deadlybird/pkg/internal/http/exts"
	"github.com/deadlybird/deadlybird/pkg/internal/models"
	"github.com/deadlybird/deadlybird/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
)

func adminListNodes(c *fiber.Ctx) error {
	var nodes []models.Node
	if err := database.C.Find(&nodes).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(nodes)
}

func adminRegisterNode(c *fiber.Ctx) error {
	var payload struct {
		Host     string `json:"host" validate:"required"`
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	if err := exts.BindAndValidate(c, &payload); err != nil {
		return err
	}

	node, err := services.RegisterNode(payload.Host, payload.Username, payload.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidHost) {
			return fiber.NewError(fiber.StatusBadRequest, "invalid host")
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(node)
}

func adminRemoveNode(c *fiber.Ctx) error {
	host := c.Query("host")
	if len(host) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "host is required")
	}
	if err := services.RemoveNode(host); err != nil {
		if errors.Is(err, services.ErrInvalidHost) {
			return fiber.NewError(fiber.StatusBadRequest, "invalid host")
		}
		if errors.Is(err, services.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "no node found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.SendStatus(fiber.StatusNoContent)
}
