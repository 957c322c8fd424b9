package httpapi

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"

	"github.com/ngmaloney/routewatch/internal/metrics"
)

const (
	defaultAnalysisTimeout = 60 * time.Second
	lookupTimeout          = 15 * time.Second
)

// SetupRoutes registers middleware and every route on app.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	logger := deps.logger()

	app.Use(recover.New())
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware(logger))
	app.Use(AccessLogMiddleware(logger))

	// Analyses fan out to paid providers; 30 per minute per client.
	analysisLimit := limiter.New(limiter.Config{
		Max:        30,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many analysis requests, try again later")
		},
	})

	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	analysisTimeout := deps.AnalysisTimeout
	if analysisTimeout <= 0 {
		analysisTimeout = defaultAnalysisTimeout
	}

	v1 := app.Group("/v1")
	v1.Get("/vessels/:id", timeout.NewWithContext(GetVesselHandler(deps), lookupTimeout))
	v1.Get("/vessels/:id/analysis", analysisLimit, timeout.NewWithContext(VesselAnalysisHandler(deps), analysisTimeout))
	v1.Post("/analysis", analysisLimit, timeout.NewWithContext(AnalyzeHandler(deps), analysisTimeout))
	v1.Get("/ports/search", timeout.NewWithContext(SearchPortsHandler(deps), lookupTimeout))
	v1.Get("/distance", DistanceHandler())
}

// NewApp creates a fiber app with the API routes.
func NewApp(deps *Dependencies, readTimeout, writeTimeout time.Duration) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "routewatch",
		DisableStartupMessage: true,
		ReadTimeout:           readTimeout,
		WriteTimeout:          writeTimeout,
	})
	SetupRoutes(app, deps)
	return app
}
