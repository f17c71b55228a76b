package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dzivkovi/serverless-app-gemini/internal/safety"
)

// clearEnv blanks every variable Load reads so ambient shell state cannot
// leak into assertions.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENVIRONMENT", "PORT", "LOG_LEVEL",
		"PROJECT_ID", "REGION", "GEMINI_API_KEY",
		"MODEL_NAME", "PROVIDER", "MODERATION_LEVEL", "OPENAI_API_KEY",
		"SESSION_SECRET", "SESSION_STORE", "DATABASE_URL",
		"SENTRY_DSN", "LANGFUSE_PUBLIC_KEY", "LANGFUSE_SECRET_KEY", "LANGFUSE_HOST", "LANGFUSE_ENABLED",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "gemini-1.5-pro-001", cfg.ModelName)
	assert.Equal(t, safety.LevelModerate, cfg.ModerationLevel)
	assert.Equal(t, StoreMemory, cfg.SessionStore)
	assert.False(t, cfg.LangfuseEnabled)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PROJECT_ID", "my-project")
	t.Setenv("REGION", "us-central1")
	t.Setenv("MODEL_NAME", "gemini-2.0-flash")
	t.Setenv("MODERATION_LEVEL", "strict")
	t.Setenv("ENVIRONMENT", "production")

	cfg := Load()

	assert.Equal(t, "my-project", cfg.ProjectID)
	assert.Equal(t, "us-central1", cfg.Region)
	assert.Equal(t, "gemini-2.0-flash", cfg.ModelName)
	assert.Equal(t, safety.LevelStrict, cfg.ModerationLevel)
	assert.True(t, cfg.IsProduction())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Environment:     "development",
			ProjectID:       "my-project",
			Region:          "us-central1",
			ModerationLevel: safety.LevelModerate,
			SessionStore:    StoreMemory,
		}
	}

	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{
			name:   "valid vertex config",
			mutate: func(*Config) {},
		},
		{
			name: "api key substitutes for project",
			mutate: func(cfg *Config) {
				cfg.ProjectID = ""
				cfg.Region = ""
				cfg.GeminiAPIKey = "key"
			},
		},
		{
			name: "missing project",
			mutate: func(cfg *Config) {
				cfg.ProjectID = ""
			},
			wantErr: "PROJECT_ID is required",
		},
		{
			name: "missing region",
			mutate: func(cfg *Config) {
				cfg.Region = ""
			},
			wantErr: "REGION is required",
		},
		{
			name: "invalid moderation level",
			mutate: func(cfg *Config) {
				cfg.ModerationLevel = "paranoid"
			},
			wantErr: "invalid MODERATION_LEVEL",
		},
		{
			name: "openai provider needs key",
			mutate: func(cfg *Config) {
				cfg.Provider = "openai"
			},
			wantErr: "OPENAI_API_KEY is required",
		},
		{
			name: "openai provider with key skips gemini checks",
			mutate: func(cfg *Config) {
				cfg.Provider = "openai"
				cfg.OpenAIAPIKey = "key"
				cfg.ProjectID = ""
				cfg.Region = ""
			},
		},
		{
			name: "unknown provider",
			mutate: func(cfg *Config) {
				cfg.Provider = "anthropic"
			},
			wantErr: "invalid PROVIDER",
		},
		{
			name: "postgres store needs database url",
			mutate: func(cfg *Config) {
				cfg.SessionStore = StorePostgres
			},
			wantErr: "DATABASE_URL is required",
		},
		{
			name: "postgres store with database url",
			mutate: func(cfg *Config) {
				cfg.SessionStore = StorePostgres
				cfg.DatabaseURL = "postgres://localhost/gateway"
			},
		},
		{
			name: "unknown session store",
			mutate: func(cfg *Config) {
				cfg.SessionStore = "redis"
			},
			wantErr: "invalid SESSION_STORE",
		},
		{
			name: "production requires session secret",
			mutate: func(cfg *Config) {
				cfg.Environment = "production"
			},
			wantErr: "SESSION_SECRET is required",
		},
		{
			name: "production with session secret",
			mutate: func(cfg *Config) {
				cfg.Environment = "production"
				cfg.SessionSecret = "secret"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
