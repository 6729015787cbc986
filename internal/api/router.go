package api

import (
	"vademecum/docs"
	"vademecum/internal/api/handlers"
	"vademecum/pkg/auth"
	"vademecum/pkg/config"
	"vademecum/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// SetupRouter wires the HTTP surface. A nil jwtManager leaves the API open.
func SetupRouter(
	vademecumHandler *handlers.VademecumHandler,
	jwtManager *auth.JWTManager,
	gatherer prometheus.Gatherer,
	cfg *config.ServerConfig,
	appLogger *zap.Logger,
) *fiber.App {
	bodyLimit := cfg.BodyLimitMB
	if bodyLimit <= 0 {
		bodyLimit = 50
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		BodyLimit:    bodyLimit * 1024 * 1024,
		UnescapePath: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(logger.New())

	_ = docs.SwaggerInfo // registers the spec with swag
	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api/v1")
	if jwtManager != nil {
		api.Use(middleware.AuthMiddleware(jwtManager, appLogger))
	} else {
		appLogger.Warn("JWT secret not configured, API is unauthenticated")
	}

	vademecum := api.Group("/vademecum")
	vademecum.Post("/ingest", vademecumHandler.Ingest)
	vademecum.Get("/search", vademecumHandler.Search)
	vademecum.Get("/medications/:name", vademecumHandler.GetMedication)
	vademecum.Post("/interactions", vademecumHandler.CheckInteractions)
	vademecum.Post("/context", vademecumHandler.BuildContext)
	vademecum.Get("/stats", vademecumHandler.Stats)

	return app
}
