package http

import (
	pkg "github.com/deadlybird/deadlybird/pkg/internal"
	"github.com/deadlybird/deadlybird/pkg/internal/http/admin"
	"github.com/deadlybird/deadlybird/pkg/internal/http/api"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Server struct {
	app *fiber.App
}

func NewServer() *Server {
	app := fiber.New(fiber.Config{
		AppName:               "DeadlyBird v" + pkg.AppVersion,
		ServerHeader:          "DeadlyBird",
		DisableStartupMessage: true,
		JSONEncoder:           jsoniter.Marshal,
		JSONDecoder:           jsoniter.Unmarshal,
		BodyLimit:             10 * 1024 * 1024,
	})

	app.Use(logger.New(logger.Config{
		Format: "${status} | ${latency} | ${method} ${path}\n",
	}))
	app.Use(AuthContext)

	api.MapAPIs(app, "/api")
	admin.MapControllers(app, "/api/admin")

	return &Server{app: app}
}

func (s *Server) Listen() {
	if err := s.app.Listen(viper.GetString("bind")); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when starting http server.")
	}
}
