package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/dzivkovi/serverless-app-gemini/internal/logger"
	"github.com/dzivkovi/serverless-app-gemini/internal/safety"
)

const (
	providerNameOpenAI = "openai"

	// Chat completion finish reasons on the wire.
	openaiFinishStop   = "stop"
	openaiFinishLength = "length"
	openaiFinishFilter = "content_filter"
)

// openaiBlockOrdinals gives the minimum probability ordinal a category score
// must reach before a threshold blocks the candidate. BlockNone is absent,
// so it never blocks.
var openaiBlockOrdinals = map[safety.BlockThreshold]int{
	safety.BlockLowAndAbove:    2,
	safety.BlockMediumAndAbove: 3,
	safety.BlockOnlyHigh:       4,
}

// OpenAIProvider implements the Provider interface using OpenAI chat
// completions. OpenAI attaches no per-category safety ratings to
// completions, so the moderation endpoint scores each completion and the
// policy thresholds are enforced here instead of server-side.
type OpenAIProvider struct {
	client *openai.Client
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIProvider{
		client: &client,
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return providerNameOpenAI
}

// Generate runs one chat completion and rates the first candidate through
// the moderation endpoint, blocking it when the request's moderation level
// says so.
func (p *OpenAIProvider) Generate(ctx context.Context, request *GenerationRequest) (*ProviderResponse, error) {
	startTime := time.Now()
	logger.Debug("OpenAI generation started", logger.Fields{
		"model":            request.Model,
		"moderation_level": string(request.Level),
		"prompt_length":    len(request.Prompt),
	})

	transaction := sentry.StartTransaction(ctx, "openai.generate")
	defer transaction.Finish()

	transaction.SetTag("model", request.Model)
	transaction.SetTag("provider", providerNameOpenAI)
	transaction.SetTag("moderation_level", string(request.Level))

	span := transaction.StartChild("openai.chat_completion")
	completion, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(request.Prompt),
		},
		Model:               openai.ChatModel(request.Model),
		MaxCompletionTokens: openai.Int(MaxOutputTokens),
		Temperature:         openai.Float(Temperature),
		TopP:                openai.Float(TopP),
	})
	span.Finish()

	if err != nil {
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		logger.Error("OpenAI API call failed", err, logger.Fields{"model": request.Model})
		return nil, fmt.Errorf("%w: openai request failed: %v", ErrProviderFailure, err)
	}
	transaction.SetTag("success", "true")

	response := &ProviderResponse{
		Usage: Usage{
			PromptTokens: int(completion.Usage.PromptTokens),
			OutputTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:  int(completion.Usage.TotalTokens),
		},
	}
	for _, choice := range completion.Choices {
		candidate := Candidate{FinishReason: normalizeOpenAIFinishReason(choice.FinishReason)}
		if choice.Message.Content != "" {
			candidate.Parts = []string{choice.Message.Content}
		}
		response.Candidates = append(response.Candidates, candidate)
	}

	if len(response.Candidates) > 0 {
		p.rateCandidate(ctx, transaction, &response.Candidates[0], safety.Thresholds(request.Level))
	}

	logger.Debug("OpenAI generation completed", logger.Fields{
		"model":        request.Model,
		"duration_ms":  time.Since(startTime).Milliseconds(),
		"candidates":   len(response.Candidates),
		"total_tokens": response.Usage.TotalTokens,
	})
	return response, nil
}

// rateCandidate scores the candidate's text with the moderation endpoint,
// attaches per-category ratings and flips the finish reason to SAFETY when
// a score crosses the category's block threshold. A moderation outage
// degrades to an unrated candidate rather than failing the generation.
func (p *OpenAIProvider) rateCandidate(ctx context.Context, transaction *sentry.Span, candidate *Candidate, set safety.ThresholdSet) {
	if len(candidate.Parts) == 0 {
		return
	}

	span := transaction.StartChild("openai.moderation")
	moderation, err := p.client.Moderations.New(ctx, openai.ModerationNewParams{
		Input: openai.ModerationNewParamsInputUnion{
			OfString: openai.String(candidate.Parts[0]),
		},
		Model: openai.ModerationModelOmniModerationLatest,
	})
	span.Finish()

	if err != nil {
		logger.Warn("Moderation call failed, candidate left unrated", logger.Fields{"error": err.Error()})
		return
	}
	if len(moderation.Results) == 0 {
		return
	}

	scores := moderation.Results[0].CategoryScores
	blocked := false
	for _, category := range safety.Categories {
		ordinal := scoreOrdinal(moderationScore(scores, category))
		candidate.SafetyRatings = append(candidate.SafetyRatings, SafetyRating{
			Category:    category,
			Probability: ordinal,
		})
		if minOrdinal, ok := openaiBlockOrdinals[set[category]]; ok && ordinal >= minOrdinal {
			blocked = true
		}
	}

	if blocked {
		candidate.FinishReason = FinishReasonSafety
		logger.Info("Completion blocked by moderation scores", logger.Fields{"ratings": len(candidate.SafetyRatings)})
	}
}

// moderationScore collapses the omni-moderation category scores onto the
// four harm categories, taking the worst score in each group.
func moderationScore(scores openai.ModerationCategoryScores, category safety.Category) float64 {
	switch category {
	case safety.CategoryHateSpeech:
		return maxScore(scores.Hate, scores.HateThreatening)
	case safety.CategoryHarassment:
		return maxScore(scores.Harassment, scores.HarassmentThreatening)
	case safety.CategorySexuallyExplicit:
		return maxScore(scores.Sexual, scores.SexualMinors)
	case safety.CategoryDangerousContent:
		return maxScore(scores.Violence, scores.ViolenceGraphic, scores.Illicit, scores.IllicitViolent,
			scores.SelfHarm, scores.SelfHarmInstructions, scores.SelfHarmIntent)
	}
	return 0
}

// scoreOrdinal buckets a 0..1 moderation score into the 1..4 probability
// ordinals used by the provider contract.
func scoreOrdinal(score float64) int {
	switch {
	case score >= 0.8:
		return 4
	case score >= 0.5:
		return 3
	case score >= 0.2:
		return 2
	default:
		return 1
	}
}

func maxScore(scores ...float64) float64 {
	best := 0.0
	for _, s := range scores {
		if s > best {
			best = s
		}
	}
	return best
}

// normalizeOpenAIFinishReason maps chat completion finish reasons onto the
// provider contract vocabulary.
func normalizeOpenAIFinishReason(reason string) string {
	switch reason {
	case openaiFinishStop:
		return FinishReasonStop
	case openaiFinishLength:
		return FinishReasonMaxTokens
	case openaiFinishFilter:
		return FinishReasonSafety
	default:
		return strings.ToUpper(reason)
	}
}
