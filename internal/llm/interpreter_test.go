package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dzivkovi/serverless-app-gemini/internal/safety"
)

func TestInterpret_Generated(t *testing.T) {
	response := &ProviderResponse{
		Candidates: []Candidate{
			{
				FinishReason: FinishReasonStop,
				Parts:        []string{"# Hello\n\nGenerated text."},
				SafetyRatings: []SafetyRating{
					{Category: safety.CategoryHateSpeech, Probability: 1},
					{Category: safety.CategoryDangerousContent, Probability: 2},
					{Category: safety.CategoryHarassment, Probability: 1},
					{Category: safety.CategorySexuallyExplicit, Probability: 1},
				},
			},
		},
	}

	outcome := Interpret(response)

	assert.Equal(t, OutcomeGenerated, outcome.Kind)
	assert.Equal(t, "# Hello\n\nGenerated text.", outcome.Text)
	assert.Empty(t, outcome.Reason)
	assert.Equal(t, []string{
		"Hate Speech: Low",
		"Dangerous Content: Medium",
		"Harassment: Low",
		"Sexually Explicit: Low",
	}, outcome.SafetyInfo)
}

func TestInterpret_ModeratedBeforeContent(t *testing.T) {
	// A SAFETY finish reason wins even when partial text came back.
	response := &ProviderResponse{
		Candidates: []Candidate{
			{
				FinishReason: FinishReasonSafety,
				Parts:        []string{"partial output before the block"},
				SafetyRatings: []SafetyRating{
					{Category: safety.CategoryDangerousContent, Probability: 4},
				},
			},
		},
	}

	outcome := Interpret(response)

	assert.Equal(t, OutcomeModerated, outcome.Kind)
	assert.Equal(t, "Content blocked due to safety concerns", outcome.Reason)
	assert.Empty(t, outcome.Text)
	assert.Equal(t, []string{"Dangerous Content: Very High"}, outcome.SafetyInfo)
}

func TestInterpret_Empty(t *testing.T) {
	tests := []struct {
		name       string
		response   *ProviderResponse
		wantReason string
	}{
		{
			name:       "nil response",
			response:   nil,
			wantReason: "No candidates in the response",
		},
		{
			name:       "no candidates",
			response:   &ProviderResponse{},
			wantReason: "No candidates in the response",
		},
		{
			name: "candidate without parts",
			response: &ProviderResponse{
				Candidates: []Candidate{
					{
						FinishReason: FinishReasonStop,
						SafetyRatings: []SafetyRating{
							{Category: safety.CategoryHateSpeech, Probability: 1},
						},
					},
				},
			},
			wantReason: "No content generated",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := Interpret(tt.response)

			assert.Equal(t, OutcomeEmpty, outcome.Kind)
			assert.Equal(t, tt.wantReason, outcome.Reason)
			assert.Empty(t, outcome.Text)
			assert.NotNil(t, outcome.SafetyInfo)
		})
	}
}

func TestInterpret_FirstCandidateOnly(t *testing.T) {
	response := &ProviderResponse{
		Candidates: []Candidate{
			{FinishReason: FinishReasonStop, Parts: []string{"first"}},
			{FinishReason: FinishReasonSafety, Parts: []string{"second"}},
		},
	}

	outcome := Interpret(response)

	assert.Equal(t, OutcomeGenerated, outcome.Kind)
	assert.Equal(t, "first", outcome.Text)
}

func TestInterpret_MaxTokensStillGenerated(t *testing.T) {
	// Truncated output is still output; only SAFETY short-circuits.
	response := &ProviderResponse{
		Candidates: []Candidate{
			{FinishReason: FinishReasonMaxTokens, Parts: []string{"truncated te"}},
		},
	}

	outcome := Interpret(response)

	assert.Equal(t, OutcomeGenerated, outcome.Kind)
	assert.Equal(t, "truncated te", outcome.Text)
}

func TestDescribeRatings_UnknownOrdinal(t *testing.T) {
	tests := []struct {
		name        string
		probability int
		want        string
	}{
		{name: "zero", probability: 0, want: "Harassment: Unknown"},
		{name: "negative", probability: -3, want: "Harassment: Unknown"},
		{name: "out of range", probability: 9, want: "Harassment: Unknown"},
		{name: "low", probability: 1, want: "Harassment: Low"},
		{name: "very high", probability: 4, want: "Harassment: Very High"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := describeRatings([]SafetyRating{
				{Category: safety.CategoryHarassment, Probability: tt.probability},
			})
			assert.Equal(t, []string{tt.want}, info)
		})
	}
}
