package safety

import (
	"strings"

	"github.com/dzivkovi/serverless-app-gemini/internal/logger"
)

// Level is the caller-selectable strength of content-safety filtering.
type Level string

const (
	LevelStrict   Level = "strict"
	LevelModerate Level = "moderate"
	LevelRelaxed  Level = "relaxed"
	LevelMinimal  Level = "minimal"
)

// DefaultLevel is used when neither the request nor the configuration
// carries a usable moderation level.
const DefaultLevel = LevelModerate

// Levels lists the selectable moderation levels, strongest first.
var Levels = []Level{
	LevelStrict,
	LevelModerate,
	LevelRelaxed,
	LevelMinimal,
}

// Category is one of the fixed harm axes providers rate candidates against.
// Values match the wire names used by the generative backends.
type Category string

const (
	CategoryHateSpeech       Category = "HARM_CATEGORY_HATE_SPEECH"
	CategoryDangerousContent Category = "HARM_CATEGORY_DANGEROUS_CONTENT"
	CategorySexuallyExplicit Category = "HARM_CATEGORY_SEXUALLY_EXPLICIT"
	CategoryHarassment       Category = "HARM_CATEGORY_HARASSMENT"
)

// Categories lists the harm categories in the order they are attached to
// provider requests.
var Categories = []Category{
	CategoryHateSpeech,
	CategoryDangerousContent,
	CategorySexuallyExplicit,
	CategoryHarassment,
}

// BlockThreshold is a provider-neutral block strength, ordered from blocking
// nothing to blocking everything rated low probability and above.
type BlockThreshold int

const (
	BlockNone BlockThreshold = iota
	BlockOnlyHigh
	BlockMediumAndAbove
	BlockLowAndAbove
)

// ThresholdSet maps every harm category to its block threshold.
type ThresholdSet map[Category]BlockThreshold

// ValidLevel reports whether s is one of the four known moderation labels
// (case-insensitive).
func ValidLevel(s string) bool {
	switch Level(strings.ToLower(s)) {
	case LevelStrict, LevelModerate, LevelRelaxed, LevelMinimal:
		return true
	}
	return false
}

// ParseLevel normalizes a moderation-level label. Unknown or empty input
// falls back to moderate.
func ParseLevel(s string) Level {
	level := Level(strings.ToLower(strings.TrimSpace(s)))
	switch level {
	case LevelStrict, LevelModerate, LevelRelaxed, LevelMinimal:
		return level
	}
	return LevelModerate
}

// Thresholds resolves a moderation level into per-category block thresholds.
// All four categories share the same threshold; the policy is not tunable
// per category. Any level outside the known four behaves like moderate.
func Thresholds(level Level) ThresholdSet {
	var threshold BlockThreshold
	switch level {
	case LevelStrict:
		threshold = BlockLowAndAbove
	case LevelRelaxed:
		threshold = BlockOnlyHigh
	case LevelMinimal:
		threshold = BlockNone
	default: // moderate and anything unrecognized
		threshold = BlockMediumAndAbove
	}

	logger.Info("Content filter set", logger.Fields{
		"moderation_level": string(level),
	})

	set := make(ThresholdSet, len(Categories))
	for _, category := range Categories {
		set[category] = threshold
	}
	return set
}

// DisplayName renders a wire category as a human-readable label,
// e.g. HARM_CATEGORY_HATE_SPEECH -> "Hate Speech". Categories outside the
// known four prettify the same way.
func (c Category) DisplayName() string {
	name := strings.TrimPrefix(string(c), "HARM_CATEGORY_")
	words := strings.Split(strings.ToLower(name), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
