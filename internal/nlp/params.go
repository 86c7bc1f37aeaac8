package nlp

import (
	"regexp"
	"strconv"
	"strings"

	"mathviz/internal/animation"
)

// QualityRule sets Quality when any keyword appears in the text.
type QualityRule struct {
	Quality  animation.Quality
	Keywords []string
}

// StyleRule sets Style when any keyword appears in the text.
type StyleRule struct {
	Style    animation.Style
	Keywords []string
}

// DefaultQualityRules returns the quality keyword rules in priority order.
func DefaultQualityRules() []QualityRule {
	return []QualityRule{
		{animation.Quality4K, []string{"4k", "high quality", "ultra"}},
		{animation.QualityPreview, []string{"preview", "quick"}},
	}
}

// DefaultStyleRules returns the style keyword rules in priority order.
func DefaultStyleRules() []StyleRule {
	return []StyleRule{
		{animation.StyleArtistic, []string{"artistic", "beautiful"}},
		{animation.StyleMinimalist, []string{"minimal", "simple"}},
	}
}

const durationPattern = `(?i)(\d+(?:\.\d+)?)\s*(?:second|sec)s?`

// ParameterExtractor reads duration, quality and style hints.
type ParameterExtractor struct {
	duration *regexp.Regexp
	quality  []QualityRule
	style    []StyleRule
}

// NewParameterExtractor builds an extractor over the given keyword rules.
func NewParameterExtractor(quality []QualityRule, style []StyleRule) *ParameterExtractor {
	return &ParameterExtractor{
		duration: regexp.MustCompile(durationPattern),
		quality:  quality,
		style:    style,
	}
}

// Extract starts from animation.DefaultParameters and overrides each field whose hint
// appears in text. The first matching rule wins; a zero duration keeps the default.
func (e *ParameterExtractor) Extract(text string) animation.Parameters {
	params := animation.DefaultParameters()

	if m := e.duration.FindStringSubmatch(text); m != nil {
		if d, err := strconv.ParseFloat(m[1], 64); err == nil && d > 0 {
			params.Duration = d
		}
	}

	for _, rule := range e.quality {
		if containsAny(text, rule.Keywords) {
			params.Quality = rule.Quality
			break
		}
	}
	for _, rule := range e.style {
		if containsAny(text, rule.Keywords) {
			params.Style = rule.Style
			break
		}
	}
	return params
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
