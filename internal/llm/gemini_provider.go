package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"google.golang.org/genai"

	"github.com/dzivkovi/serverless-app-gemini/internal/logger"
	"github.com/dzivkovi/serverless-app-gemini/internal/safety"
)

const (
	providerNameGemini = "gemini"
	geminiUserRole     = "user"
)

// geminiBlockThresholds translates policy thresholds into the genai enum.
var geminiBlockThresholds = map[safety.BlockThreshold]genai.HarmBlockThreshold{
	safety.BlockNone:           genai.HarmBlockThresholdBlockNone,
	safety.BlockOnlyHigh:       genai.HarmBlockThresholdBlockOnlyHigh,
	safety.BlockMediumAndAbove: genai.HarmBlockThresholdBlockMediumAndAbove,
	safety.BlockLowAndAbove:    genai.HarmBlockThresholdBlockLowAndAbove,
}

// geminiProbabilityOrdinals maps the genai probability enum onto the 1..4
// contract ordinals. Enum values outside the table come through as zero and
// render as Unknown downstream.
var geminiProbabilityOrdinals = map[genai.HarmProbability]int{
	genai.HarmProbabilityNegligible: 1,
	genai.HarmProbabilityLow:        2,
	genai.HarmProbabilityMedium:     3,
	genai.HarmProbabilityHigh:       4,
}

// GeminiProvider implements the Provider interface using Google's Gemini
// models, reached through Vertex AI or the public Gemini API.
type GeminiProvider struct {
	client *genai.Client
}

// GeminiOptions selects the backend the Gemini client talks to.
// ProjectID and Region route through Vertex AI; APIKey is the fallback for
// the public Gemini API.
type GeminiOptions struct {
	ProjectID string
	Region    string
	APIKey    string
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(ctx context.Context, opts GeminiOptions) (*GeminiProvider, error) {
	clientConfig := &genai.ClientConfig{}
	switch {
	case opts.ProjectID != "" && opts.Region != "":
		clientConfig.Backend = genai.BackendVertexAI
		clientConfig.Project = opts.ProjectID
		clientConfig.Location = opts.Region
	case opts.APIKey != "":
		clientConfig.Backend = genai.BackendGeminiAPI
		clientConfig.APIKey = opts.APIKey
	default:
		return nil, fmt.Errorf("gemini provider requires a project/region pair or an API key")
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client: client,
	}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return providerNameGemini
}

// Generate runs one non-streaming generation call against Gemini, with the
// safety settings derived from the request's moderation level.
func (p *GeminiProvider) Generate(ctx context.Context, request *GenerationRequest) (*ProviderResponse, error) {
	startTime := time.Now()
	logger.Debug("Gemini generation started", logger.Fields{
		"model":            request.Model,
		"moderation_level": string(request.Level),
		"prompt_length":    len(request.Prompt),
	})

	transaction := sentry.StartTransaction(ctx, "gemini.generate")
	defer transaction.Finish()

	transaction.SetTag("model", request.Model)
	transaction.SetTag("provider", providerNameGemini)
	transaction.SetTag("moderation_level", string(request.Level))

	contents := []*genai.Content{
		{
			Role:  geminiUserRole,
			Parts: []*genai.Part{{Text: request.Prompt}},
		},
	}

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: MaxOutputTokens,
		Temperature:     genai.Ptr[float32](Temperature),
		TopP:            genai.Ptr[float32](TopP),
		SafetySettings:  geminiSafetySettings(safety.Thresholds(request.Level)),
	}

	span := transaction.StartChild("gemini.api_call")
	result, err := p.client.Models.GenerateContent(ctx, request.Model, contents, config)
	span.Finish()

	if err != nil {
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		logger.Error("Gemini API call failed", err, logger.Fields{"model": request.Model})
		return nil, fmt.Errorf("%w: gemini request failed: %v", ErrProviderFailure, err)
	}
	transaction.SetTag("success", "true")

	response := adaptGeminiResponse(result)
	logger.Debug("Gemini generation completed", logger.Fields{
		"model":        request.Model,
		"duration_ms":  time.Since(startTime).Milliseconds(),
		"candidates":   len(response.Candidates),
		"total_tokens": response.Usage.TotalTokens,
	})
	return response, nil
}

// geminiSafetySettings builds one SafetySetting per harm category from the
// resolved threshold set.
func geminiSafetySettings(set safety.ThresholdSet) []*genai.SafetySetting {
	settings := make([]*genai.SafetySetting, 0, len(safety.Categories))
	for _, category := range safety.Categories {
		settings = append(settings, &genai.SafetySetting{
			Category:  genai.HarmCategory(category),
			Threshold: geminiBlockThresholds[set[category]],
		})
	}
	return settings
}

// adaptGeminiResponse flattens the genai response into the provider
// contract: text parts only, probability enums as ordinals.
func adaptGeminiResponse(result *genai.GenerateContentResponse) *ProviderResponse {
	response := &ProviderResponse{}

	for _, candidate := range result.Candidates {
		if candidate == nil {
			continue
		}
		adapted := Candidate{FinishReason: string(candidate.FinishReason)}
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				if part != nil && part.Text != "" {
					adapted.Parts = append(adapted.Parts, part.Text)
				}
			}
		}
		for _, rating := range candidate.SafetyRatings {
			if rating == nil {
				continue
			}
			adapted.SafetyRatings = append(adapted.SafetyRatings, SafetyRating{
				Category:    safety.Category(rating.Category),
				Probability: geminiProbabilityOrdinals[rating.Probability],
			})
		}
		response.Candidates = append(response.Candidates, adapted)
	}

	if result.UsageMetadata != nil {
		response.Usage = Usage{
			PromptTokens: int(result.UsageMetadata.PromptTokenCount),
			OutputTokens: int(result.UsageMetadata.CandidatesTokenCount),
			TotalTokens:  int(result.UsageMetadata.TotalTokenCount),
		}
	}

	return response
}
