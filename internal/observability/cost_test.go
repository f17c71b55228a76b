package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dzivkovi/serverless-app-gemini/internal/llm"
)

func TestCalculateCost_KnownModel(t *testing.T) {
	usage := llm.Usage{PromptTokens: 1000, OutputTokens: 2000, TotalTokens: 3000}

	cost := CalculateCost("gemini-1.5-pro", usage)

	// 1K input at 0.00125 + 2K output at 0.005
	assert.InDelta(t, 0.00125+0.01, cost, 1e-9)
}

func TestCalculateCost_VersionedModelUsesBaseRate(t *testing.T) {
	usage := llm.Usage{PromptTokens: 1000, OutputTokens: 1000}

	versioned := CalculateCost("gemini-1.5-pro-001", usage)
	base := CalculateCost("gemini-1.5-pro", usage)

	assert.InDelta(t, base, versioned, 1e-9)
}

func TestCalculateCost_LongestPrefixWins(t *testing.T) {
	usage := llm.Usage{PromptTokens: 1000, OutputTokens: 1000}

	// gpt-4o-mini-2024... must price as gpt-4o-mini, not gpt-4o.
	cost := CalculateCost("gpt-4o-mini-2024-07-18", usage)

	assert.InDelta(t, CalculateCost("gpt-4o-mini", usage), cost, 1e-9)
	assert.NotEqual(t, CalculateCost("gpt-4o", usage), cost)
}

func TestCalculateCost_UnknownModelUsesDefault(t *testing.T) {
	usage := llm.Usage{PromptTokens: 500, OutputTokens: 500}

	cost := CalculateCost("some-future-model", usage)

	assert.InDelta(t, CalculateCost(defaultPricingModel, usage), cost, 1e-9)
}

func TestCalculateCost_ZeroUsage(t *testing.T) {
	assert.Zero(t, CalculateCost("gemini-1.5-pro", llm.Usage{}))
}

func TestFormatCost(t *testing.T) {
	assert.Equal(t, "$0.012500", FormatCost(0.0125))
	assert.Equal(t, "$0.000000", FormatCost(0))
}
