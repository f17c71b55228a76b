package config

import (
	"fmt"
	"os"

	"github.com/dzivkovi/serverless-app-gemini/internal/safety"
)

// Config holds the application configuration, loaded once at startup.
type Config struct {
	// Environment
	Environment string
	Port        string
	LogLevel    string

	// Gemini backend selection: a project/region pair routes through
	// Vertex AI, an API key through the public Gemini API.
	ProjectID    string
	Region       string
	GeminiAPIKey string

	// Generation
	ModelName       string
	Provider        string // "gemini", "openai", or empty to infer from ModelName
	ModerationLevel safety.Level
	OpenAIAPIKey    string

	// Sessions
	SessionSecret string
	SessionStore  string // "memory" or "postgres"
	DatabaseURL   string

	// Observability
	SentryDSN         string
	LangfusePublicKey string
	LangfuseSecretKey string
	LangfuseHost      string
	LangfuseEnabled   bool
}

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"

	defaultModel = "gemini-1.5-pro-001"
)

func Load() *Config {
	return &Config{
		Environment:       getEnv("ENVIRONMENT", "development"),
		Port:              getEnv("PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "INFO"),
		ProjectID:         getEnv("PROJECT_ID", ""),
		Region:            getEnv("REGION", ""),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		ModelName:         getEnv("MODEL_NAME", defaultModel),
		Provider:          getEnv("PROVIDER", ""),
		ModerationLevel:   safety.Level(getEnv("MODERATION_LEVEL", string(safety.DefaultLevel))),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		SessionSecret:     getEnv("SESSION_SECRET", ""),
		SessionStore:      getEnv("SESSION_STORE", StoreMemory),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		SentryDSN:         getEnv("SENTRY_DSN", ""),
		LangfusePublicKey: getEnv("LANGFUSE_PUBLIC_KEY", ""),
		LangfuseSecretKey: getEnv("LANGFUSE_SECRET_KEY", ""),
		LangfuseHost:      getEnv("LANGFUSE_HOST", "https://cloud.langfuse.com"),
		LangfuseEnabled:   getEnv("LANGFUSE_ENABLED", "false") == "true",
	}
}

// Validate rejects configurations the gateway cannot start with. Callers
// treat a returned error as fatal.
func (c *Config) Validate() error {
	if !safety.ValidLevel(string(c.ModerationLevel)) {
		return fmt.Errorf("invalid MODERATION_LEVEL %q (allowed: strict, moderate, relaxed, minimal)", c.ModerationLevel)
	}

	usesGemini := c.Provider == "gemini" || c.Provider == ""
	if usesGemini && c.GeminiAPIKey == "" {
		if c.ProjectID == "" {
			return fmt.Errorf("PROJECT_ID is required (or set GEMINI_API_KEY)")
		}
		if c.Region == "" {
			return fmt.Errorf("REGION is required (or set GEMINI_API_KEY)")
		}
	}

	switch c.Provider {
	case "", "gemini":
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when PROVIDER=openai")
		}
	default:
		return fmt.Errorf("invalid PROVIDER %q (allowed: gemini, openai)", c.Provider)
	}

	switch c.SessionStore {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when SESSION_STORE=postgres")
		}
	default:
		return fmt.Errorf("invalid SESSION_STORE %q (allowed: memory, postgres)", c.SessionStore)
	}

	if c.IsProduction() && c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required in production")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

// IsProduction returns true when running with production settings
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
