package http

import (
	"encoding/base64"
	"strings"

	"github.com/deadlybird/deadlybird/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/viper"
)

// AuthContext decorates the request with whoever it could authenticate: a
// local session author or a peer node presenting HTTP Basic credentials.
// Handlers then decide how much authentication they actually need.
func AuthContext(c *fiber.Ctx) error {
	if token := c.Cookies("session_token"); len(token) > 0 {
		if authorID, ok := services.SessionAuthorID(token); ok {
			if author, err := services.GetAuthor(authorID); err == nil {
				c.Locals("author", author)
			}
		}
	}

	if username, password, ok := basicCredentials(c); ok {
		if username == viper.GetString("federation.incoming_username") &&
			password == viper.GetString("federation.incoming_password") {
			c.Locals("remote_node", true)
		}
	}

	return c.Next()
}

func basicCredentials(c *fiber.Ctx) (string, string, bool) {
	header := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(header, "Basic ") {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(header, "Basic "))
	if err != nil {
		return "", "", false
	}
	username, password, found := strings.Cut(string(decoded), ":")
	return username, password, found
}
