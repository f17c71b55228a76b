package main

import (
	"context"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/dzivkovi/serverless-app-gemini/internal/api"
	"github.com/dzivkovi/serverless-app-gemini/internal/config"
	"github.com/dzivkovi/serverless-app-gemini/internal/llm"
	"github.com/dzivkovi/serverless-app-gemini/internal/logger"
	"github.com/dzivkovi/serverless-app-gemini/internal/metrics"
	"github.com/dzivkovi/serverless-app-gemini/internal/observability"
	"github.com/dzivkovi/serverless-app-gemini/internal/session"
	"github.com/dzivkovi/serverless-app-gemini/internal/web"
)

const (
	sentryFlushTimeout    = 2 * time.Second
	environmentProduction = "production"

	// devSessionSecret signs cookies outside production when SESSION_SECRET
	// is not set. Validate rejects a missing secret in production.
	devSessionSecret = "dev-insecure-session-secret"
)

// releaseVersion is set via ldflags during build
var releaseVersion = "dev"

// GetVersion returns the current release version
func GetVersion() string {
	return releaseVersion
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration: ", err)
	}
	logger.SetVerbosity(cfg.LogLevel)

	// Initialize Sentry
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			Release:          "serverless-app-gemini@" + releaseVersion,  // Use embedded release version
			EnableTracing:    true,                                       // Enable tracing for spans
			TracesSampleRate: 1.0,                                        // 100% sampling for now, adjust based on volume
			EnableLogs:       true,                                       // Enable Sentry Logs feature
			Debug:            cfg.Environment != environmentProduction,   // Enable debug in non-prod
			BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
				// Filter out sensitive data
				if event.Request != nil {
					event.Request.Headers = filterSensitiveHeaders(event.Request.Headers)
				}
				return event
			},
		}); err != nil {
			log.Printf("Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s, release: %s)", cfg.Environment, releaseVersion)
			// Flush on shutdown
			defer sentry.Flush(sentryFlushTimeout)
		}
	} else {
		log.Println("⚠️  Sentry not configured (SENTRY_DSN not set)")
	}

	ctx := context.Background()

	// Langfuse generation tracing
	observability.InitializeLangfuse(ctx, cfg)

	// CloudWatch custom metrics (production only)
	cloudwatch, err := metrics.NewClient(ctx, cfg.Environment)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to initialize CloudWatch metrics:", err)
	}

	// Generation provider
	factory := llm.NewProviderFactory(llm.GeminiOptions{
		ProjectID: cfg.ProjectID,
		Region:    cfg.Region,
		APIKey:    cfg.GeminiAPIKey,
	}, cfg.OpenAIAPIKey)
	provider, err := factory.GetProvider(ctx, cfg.ModelName, cfg.Provider)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to initialize generation provider:", err)
	}
	log.Printf("🤖 Generation provider: %s (model: %s, default moderation: %s)",
		provider.Name(), cfg.ModelName, cfg.ModerationLevel)

	// Session store
	var sessions session.Store
	if cfg.SessionStore == config.StorePostgres {
		store, err := session.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			sentry.CaptureException(err)
			log.Fatal("Failed to connect session store:", err)
		}
		sessions = store
	} else {
		sessions = session.NewMemoryStore()
	}

	// Session cookie signing
	secret := cfg.SessionSecret
	if secret == "" {
		logger.Warn("SESSION_SECRET not set, using development fallback", nil)
		secret = devSessionSecret
	}
	cookies := session.NewCookieManager(secret, cfg.IsProduction())

	// Page renderer
	renderer, err := web.NewRenderer()
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to load page templates:", err)
	}

	// Set Gin mode
	if cfg.Environment == environmentProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	router := api.SetupRouter(cfg, provider, sessions, cookies, renderer, cloudwatch, GetVersion())

	// Start server
	log.Printf("🚀 Starting server on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to start server:", err)
	}
}

func filterSensitiveHeaders(headers map[string]string) map[string]string {
	filtered := make(map[string]string)
	sensitiveKeys := map[string]bool{
		"authorization": true,
		"cookie":        true,
		"x-api-key":     true,
	}

	for k, v := range headers {
		if sensitiveKeys[k] {
			filtered[k] = "[REDACTED]"
		} else {
			filtered[k] = v
		}
	}
	return filtered
}
