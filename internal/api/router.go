package api

import (
	"github.com/gin-gonic/gin"

	"github.com/dzivkovi/serverless-app-gemini/internal/api/handlers"
	apimiddleware "github.com/dzivkovi/serverless-app-gemini/internal/api/middleware"
	"github.com/dzivkovi/serverless-app-gemini/internal/config"
	"github.com/dzivkovi/serverless-app-gemini/internal/llm"
	"github.com/dzivkovi/serverless-app-gemini/internal/metrics"
	"github.com/dzivkovi/serverless-app-gemini/internal/session"
	"github.com/dzivkovi/serverless-app-gemini/internal/web"
)

func SetupRouter(
	cfg *config.Config,
	provider llm.Provider,
	sessions session.Store,
	cookies *session.CookieManager,
	renderer *web.Renderer,
	cloudwatch *metrics.Client,
	version string,
) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking())

	// CORS middleware
	router.Use(apimiddleware.CORS())

	// Session cookie, minted before any handler runs
	router.Use(apimiddleware.Session(cookies))

	// Health check
	healthHandler := handlers.NewHealthHandler(cfg, provider)
	router.GET("/health", healthHandler.HealthCheck)

	// Metrics endpoint
	metricsHandler := handlers.NewMetricsHandler(cfg, version)
	router.GET("/api/metrics", metricsHandler.GetMetrics)

	// Prompt form and generation
	gateway := handlers.NewGatewayHandler(cfg, provider, sessions, renderer, cloudwatch)
	router.GET("/", gateway.Index)
	router.POST("/", gateway.Generate)

	return router
}
