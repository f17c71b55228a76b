package observability

import (
	"strconv"
	"strings"

	"github.com/dzivkovi/serverless-app-gemini/internal/llm"
)

// Pricing constants (USD per 1K tokens)
const (
	tokensPerKilo       = 1000.0
	costFormatPrecision = 6

	// Gemini 1.5 Pro pricing
	gemini15ProInputPrice  = 0.00125
	gemini15ProOutputPrice = 0.005

	// Gemini 1.5 Flash pricing
	gemini15FlashInputPrice  = 0.000075
	gemini15FlashOutputPrice = 0.0003

	// Gemini 2.0 Flash pricing
	gemini20FlashInputPrice  = 0.0001
	gemini20FlashOutputPrice = 0.0004

	// GPT-4o pricing
	gpt4oInputPrice  = 0.005
	gpt4oOutputPrice = 0.015

	// GPT-4o-mini pricing
	gpt4oMiniInputPrice  = 0.00015
	gpt4oMiniOutputPrice = 0.0006
)

const defaultPricingModel = "gemini-1.5-pro"

// ModelPricing contains pricing information per 1K tokens
type ModelPricing struct {
	InputPricePer1K  float64 // Price per 1K input tokens in USD
	OutputPricePer1K float64 // Price per 1K output tokens in USD
}

// PricingTable contains pricing for all supported base models
var PricingTable = map[string]ModelPricing{
	"gemini-1.5-pro": {
		InputPricePer1K:  gemini15ProInputPrice,
		OutputPricePer1K: gemini15ProOutputPrice,
	},
	"gemini-1.5-flash": {
		InputPricePer1K:  gemini15FlashInputPrice,
		OutputPricePer1K: gemini15FlashOutputPrice,
	},
	"gemini-2.0-flash": {
		InputPricePer1K:  gemini20FlashInputPrice,
		OutputPricePer1K: gemini20FlashOutputPrice,
	},
	"gpt-4o": {
		InputPricePer1K:  gpt4oInputPrice,
		OutputPricePer1K: gpt4oOutputPrice,
	},
	"gpt-4o-mini": {
		InputPricePer1K:  gpt4oMiniInputPrice,
		OutputPricePer1K: gpt4oMiniOutputPrice,
	},
}

// CalculateCost estimates the USD cost of one generation call. Versioned
// model names (gemini-1.5-pro-001) price at their base model's rate; models
// with no table entry at all price at the default model's rate.
func CalculateCost(model string, usage llm.Usage) float64 {
	pricing, exists := PricingTable[model]
	if !exists {
		pricing = basePricing(model)
	}

	inputCost := (float64(usage.PromptTokens) / tokensPerKilo) * pricing.InputPricePer1K
	outputCost := (float64(usage.OutputTokens) / tokensPerKilo) * pricing.OutputPricePer1K

	return inputCost + outputCost
}

// basePricing finds the longest table entry the model name starts with, so
// gpt-4o-mini-2024 resolves to gpt-4o-mini and not gpt-4o.
func basePricing(model string) ModelPricing {
	bestLen := 0
	pricing := PricingTable[defaultPricingModel]
	for name, p := range PricingTable {
		if strings.HasPrefix(model, name) && len(name) > bestLen {
			bestLen = len(name)
			pricing = p
		}
	}
	return pricing
}

// FormatCost formats a cost value as a USD string
func FormatCost(cost float64) string {
	return "$" + formatFloat(cost, costFormatPrecision)
}

// formatFloat formats a float with specified precision using strconv
func formatFloat(f float64, precision int) string {
	return strconv.FormatFloat(f, 'f', precision, 64)
}
