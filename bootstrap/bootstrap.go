package bootstrap

import (
	"marketdesk/internal/config"
	"marketdesk/internal/interfaces/router"
	"marketdesk/internal/pkg/logging"

	"github.com/gofiber/fiber/v2"
)

// New creates the Fiber app for the serverless handler, which cannot import internal packages.
func New() (*fiber.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.LogLevel, true)
	app, _, _, err := router.CreateApp(cfg)
	return app, err
}
