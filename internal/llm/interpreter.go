package llm

import (
	"fmt"

	"github.com/dzivkovi/serverless-app-gemini/internal/logger"
)

// OutcomeKind classifies what a provider response amounted to.
type OutcomeKind string

const (
	OutcomeGenerated OutcomeKind = "generated"
	OutcomeModerated OutcomeKind = "moderated"
	OutcomeEmpty     OutcomeKind = "empty"
)

// Reasons reported for non-generated outcomes.
const (
	ReasonNoCandidates = "No candidates in the response"
	ReasonModerated    = "Content blocked due to safety concerns"
	ReasonNoContent    = "No content generated"
)

// Outcome is the normalized result of one generation call.
// Text is set for generated outcomes, Reason for moderated and empty ones;
// SafetyInfo always holds the human-readable ratings (possibly none).
type Outcome struct {
	Kind       OutcomeKind
	Text       string
	Reason     string
	SafetyInfo []string
}

// probabilityLabels maps rating ordinals onto display labels. Anything
// outside the table renders as Unknown rather than failing the request.
var probabilityLabels = map[int]string{
	1: "Low",
	2: "Medium",
	3: "High",
	4: "Very High",
}

// Interpret classifies a provider response into exactly one outcome.
// Only the first candidate is consulted; providers order candidates by
// preference and the gateway returns a single result.
func Interpret(response *ProviderResponse) Outcome {
	if response == nil || len(response.Candidates) == 0 {
		logger.Debug("Interpreted response", logger.Fields{"outcome": string(OutcomeEmpty), "reason": ReasonNoCandidates})
		return Outcome{Kind: OutcomeEmpty, Reason: ReasonNoCandidates, SafetyInfo: []string{}}
	}

	candidate := response.Candidates[0]
	info := describeRatings(candidate.SafetyRatings)

	var outcome Outcome
	switch {
	case candidate.FinishReason == FinishReasonSafety:
		outcome = Outcome{Kind: OutcomeModerated, Reason: ReasonModerated, SafetyInfo: info}
	case len(candidate.Parts) > 0:
		outcome = Outcome{Kind: OutcomeGenerated, Text: candidate.Parts[0], SafetyInfo: info}
	default:
		outcome = Outcome{Kind: OutcomeEmpty, Reason: ReasonNoContent, SafetyInfo: info}
	}

	logger.Debug("Interpreted response", logger.Fields{
		"outcome":        string(outcome.Kind),
		"finish_reason":  candidate.FinishReason,
		"safety_ratings": len(info),
	})
	return outcome
}

// describeRatings renders safety ratings as "<Category>: <Label>" strings,
// preserving the provider's rating order.
func describeRatings(ratings []SafetyRating) []string {
	info := make([]string, 0, len(ratings))
	for _, rating := range ratings {
		label, ok := probabilityLabels[rating.Probability]
		if !ok {
			label = "Unknown"
		}
		info = append(info, fmt.Sprintf("%s: %s", rating.Category.DisplayName(), label))
	}
	return info
}
