package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/redis/go-redis/v9"

	"docmerge/internal/config"
	"docmerge/internal/domain"
	"docmerge/internal/http/handlers"
	"docmerge/internal/http/middleware"
	"docmerge/internal/infra/cache"
	"docmerge/internal/infra/logging"
	"docmerge/internal/mailmerge"
	"docmerge/internal/tokens"
)

// Deps are the collaborators of the HTTP server. Nil Redis disables the
// field cache, nil Tokens disables API-key auth and a nil Merger selects the
// built-in DOCX engine.
type Deps struct {
	Config config.Config
	Merger domain.Merger
	Redis  *redis.Client
	Tokens *tokens.Store
}

// New creates and configures the Fiber app.
func New(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		Prefork:               d.Config.Server.Prefork,
		DisableStartupMessage: true,
		BodyLimit:             d.Config.Limits.MaxBodyBytes,
		ErrorHandler:          errorHandler,
	})

	middleware.Register(app, d.Config, d.Tokens)
	registerRoutes(app, d)

	// Ensure all responses, including 404s, return JSON
	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Not Found")
	})

	return app
}

func registerRoutes(app *fiber.App, d Deps) {
	merger := d.Merger
	if merger == nil {
		merger = mailmerge.NewEngine()
	}

	var fields *cache.FieldCache
	if d.Redis != nil && d.Config.Cache.Enabled {
		fields = cache.NewFieldCache(d.Redis, d.Config.Cache.TTL)
	}
	svc := handlers.NewMergeService(d.Config, merger, fields)

	app.Get("/", handlers.HandleHome)

	api := app.Group("/api")
	api.Post("/document-merge", svc.HandleMerge)

	app.Get("/ops/monitor", monitor.New())
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal Server Error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	}

	logging.Warn("Request failed", "path", c.Path(), "status", code, "message", msg)

	return c.Status(code).JSON(handlers.ErrorResponse{Success: false, Error: msg})
}
