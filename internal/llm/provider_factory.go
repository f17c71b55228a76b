package llm

import (
	"context"
	"fmt"
	"strings"
)

// ProviderFactory creates providers based on model name or explicit provider choice
type ProviderFactory struct {
	geminiOpts   GeminiOptions
	openaiAPIKey string
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(geminiOpts GeminiOptions, openaiAPIKey string) *ProviderFactory {
	return &ProviderFactory{
		geminiOpts:   geminiOpts,
		openaiAPIKey: openaiAPIKey,
	}
}

// GetProvider returns the appropriate provider for the given model/provider name
func (f *ProviderFactory) GetProvider(ctx context.Context, model, providerName string) (Provider, error) {
	// If provider is explicitly specified, use that
	if providerName != "" {
		return f.getProviderByName(ctx, providerName)
	}

	// Otherwise, infer from model name
	return f.getProviderByModel(ctx, model)
}

// getProviderByName creates a provider by explicit name
func (f *ProviderFactory) getProviderByName(ctx context.Context, providerName string) (Provider, error) {
	switch strings.ToLower(providerName) {
	case providerNameGemini:
		return NewGeminiProvider(ctx, f.geminiOpts)

	case providerNameOpenAI:
		if f.openaiAPIKey == "" {
			return nil, fmt.Errorf("openai API key not configured")
		}
		return NewOpenAIProvider(f.openaiAPIKey), nil

	default:
		return nil, fmt.Errorf("unknown provider: %s (allowed: gemini, openai)", providerName)
	}
}

// getProviderByModel infers provider from model name
func (f *ProviderFactory) getProviderByModel(ctx context.Context, model string) (Provider, error) {
	modelLower := strings.ToLower(model)

	// GPT models use OpenAI
	if strings.HasPrefix(modelLower, "gpt-") {
		if f.openaiAPIKey == "" {
			return nil, fmt.Errorf("openai API key not configured")
		}
		return NewOpenAIProvider(f.openaiAPIKey), nil
	}

	// Everything else, gemini-* included, goes to Gemini
	return NewGeminiProvider(ctx, f.geminiOpts)
}
