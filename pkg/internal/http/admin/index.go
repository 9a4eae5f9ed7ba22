package admin

import (
	"encoding/base64"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/viper"
)

// operatorAuthenticated guards the operator surface with its own basic
// credentials, unrelated to any federation credential.
func operatorAuthenticated(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(header, "Basic ") {
		if decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(header, "Basic ")); err == nil {
			username, password, _ := strings.Cut(string(decoded), ":")
			if username == viper.GetString("admin.username") &&
				password == viper.GetString("admin.password") &&
				len(password) > 0 {
				return c.Next()
			}
		}
	}
	return fiber.NewError(fiber.StatusUnauthorized, "operator credentials required")
}

func MapControllers(app *fiber.App, baseURL string) {
	admin := app.Group(baseURL)
	admin.Use(operatorAuthenticated)
	{
		admin.Get("/nodes", adminListNodes)
		admin.Post("/nodes", adminRegisterNode)
		admin.Delete("/nodes", adminRemoveNode)

		admin.Post("/github/poll", adminTriggerGithubPoll)
		admin.Post("/cleanup", adminTriggerCleanup)
	}
}
