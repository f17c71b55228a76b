package llm

import (
	"context"

	"github.com/dzivkovi/serverless-app-gemini/internal/safety"
)

// Fixed generation configuration applied to every provider call.
const (
	MaxOutputTokens = 8192
	Temperature     = 1.0
	TopP            = 0.95
)

// Finish reasons a provider reports for a candidate. Backends with other
// vocabularies normalize onto these in their adapters.
const (
	FinishReasonStop      = "STOP"
	FinishReasonSafety    = "SAFETY"
	FinishReasonMaxTokens = "MAX_TOKENS"
)

// Provider defines the interface for generative backends.
// A backend supplies zero or more candidates, each carrying a finish reason,
// optional text parts and per-category safety ratings; any backend producing
// that shape is substitutable.
type Provider interface {
	// Generate runs one content-generation call. Transport and backend
	// faults wrap ErrProviderFailure; moderation blocks are NOT errors,
	// they come back as candidates with a SAFETY finish reason.
	Generate(ctx context.Context, request *GenerationRequest) (*ProviderResponse, error)

	// Name returns the provider name (e.g., "gemini", "openai")
	Name() string
}

// GenerationRequest contains all parameters needed for one generation call.
type GenerationRequest struct {
	Prompt string
	Level  safety.Level
	Model  string
}

// SafetyRating is one (harm category, probability ordinal) pair attached to
// a candidate. Ordinals run 1 to 4 from negligible to high; zero means the
// backend reported something outside that range.
type SafetyRating struct {
	Category    safety.Category
	Probability int
}

// Candidate is one generated alternative returned by a provider.
type Candidate struct {
	FinishReason  string
	Parts         []string
	SafetyRatings []SafetyRating
}

// Usage carries provider-reported token counts; all zero when the backend
// reported none.
type Usage struct {
	PromptTokens int
	OutputTokens int
	TotalTokens  int
}

// ProviderResponse is the raw provider result the interpreter classifies.
type ProviderResponse struct {
	Candidates []Candidate
	Usage      Usage
}
