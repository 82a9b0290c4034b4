package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-generator/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-generator/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quote-generator/internal/platform/telemetry"
)

// DefaultRequestTimeout is the default timeout for API requests.
const DefaultRequestTimeout = 30 * time.Second

// RouterConfig contains configuration for setting up the router.
// Nil handlers leave their routes unregistered.
type RouterConfig struct {
	// ServiceName labels traces and HTTP metrics.
	ServiceName string

	// Timeout bounds each /api/v1 request. Zero disables it.
	Timeout time.Duration

	// Telemetry enables the OpenTelemetry and HTTP metrics middleware.
	Telemetry bool

	HealthHandler       *handlers.HealthHandler
	QuoteHandler        *handlers.QuoteHandler
	SyncHandler         *handlers.SyncHandler
	NotificationHandler *handlers.NotificationHandler
}

// SetupRouter configures all routes and middleware on the Gin engine.
// Middleware is applied in the following order (first to last):
//  1. Recovery
//  2. Request ID
//  3. Correlation ID
//  4. OpenTelemetry, when enabled
//  5. Logging, which skips the probe endpoints
//  6. Timeout, on /api/v1 only
//
// Route groups:
//   - /-/: probes, build info and metrics
//   - /api/v1/: quotes, categories, sync and notifications
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.CorrelationID(),
	)

	if cfg.Telemetry {
		engine.Use(telemetry.Middleware(cfg.ServiceName)...)
	}

	engine.Use(middleware.Logging())

	engine.NoRoute(NoRoute)
	engine.NoMethod(NoMethod)
	engine.HandleMethodNotAllowed = true

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterHealthRoutesOnEngine(engine)
	}

	apiV1 := engine.Group("/api/v1")
	if cfg.Timeout > 0 {
		apiV1.Use(middleware.Timeout(cfg.Timeout))
	}

	setupAPIRoutes(apiV1, cfg)
}

func setupAPIRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.QuoteHandler != nil {
		cfg.QuoteHandler.RegisterQuoteRoutes(rg)
	}

	if cfg.SyncHandler != nil {
		cfg.SyncHandler.RegisterSyncRoutes(rg)
	}

	if cfg.NotificationHandler != nil {
		cfg.NotificationHandler.RegisterNotificationRoutes(rg)
	}
}
