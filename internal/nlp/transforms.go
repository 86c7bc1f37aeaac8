package nlp

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"mathviz/internal/animation"
)

// TransformRule is one row of the transformation keyword table.
type TransformRule struct {
	Kind     animation.TransformKind
	Keywords []string
}

// DefaultTransforms returns the transformation keyword table.
func DefaultTransforms() []TransformRule {
	return []TransformRule{
		{animation.Rotation, []string{"rotate", "rotating", "rotation", "spin", "turn"}},
		{animation.Projection, []string{"project", "map"}},
		{animation.Translation, []string{"translate", "move", "shift"}},
		{animation.Scaling, []string{"scale", "resize", "zoom"}},
	}
}

// DefaultWindowRadius is how many characters either side of a keyword are searched
// for its parameters.
const DefaultWindowRadius = 50

const (
	anglePattern     = `(?i)(\d+(?:\.\d+)?)\s*(degree|rad|°)`
	referencePattern = `(?i)(?:relative to|around)\s+(?:the\s+)?(\w+)`
	// the optional unit group lets "by 45 degrees" be skipped as a scale factor
	factorPattern = `(?i)(?:factor of|by)\s+(\d+(?:\.\d+)?)\s*(x\b|times\b|degrees?|rad\w*|°|sec\w*)?`
	timesPattern  = `(?i)\b(\d+(?:\.\d+)?)\s*x\b`
)

// TransformExtractor finds transformation verbs and their parameters.
type TransformExtractor struct {
	table  []TransformRule
	radius int

	angle     *regexp.Regexp
	reference *regexp.Regexp
	factor    *regexp.Regexp
	times     *regexp.Regexp
}

// NewTransformExtractor builds an extractor over the given keyword table. A radius
// of zero or less uses DefaultWindowRadius.
func NewTransformExtractor(rules []TransformRule, radius int) (*TransformExtractor, error) {
	if radius <= 0 {
		radius = DefaultWindowRadius
	}
	for _, rule := range rules {
		for _, kw := range rule.Keywords {
			if strings.TrimSpace(kw) == "" {
				return nil, fmt.Errorf("transform %s: empty keyword", rule.Kind)
			}
		}
	}
	return &TransformExtractor{
		table:     rules,
		radius:    radius,
		angle:     regexp.MustCompile(anglePattern),
		reference: regexp.MustCompile(referencePattern),
		factor:    regexp.MustCompile(factorPattern),
		times:     regexp.MustCompile(timesPattern),
	}, nil
}

// Extract returns one transformation per keyword found in text, in table order.
// Each keyword contributes at most one record, read from its first occurrence.
func (e *TransformExtractor) Extract(text string) []animation.Transformation {
	var out []animation.Transformation
	runes := []rune(text)
	for _, row := range e.table {
		for _, kw := range row.Keywords {
			idx := strings.Index(text, kw)
			if idx < 0 {
				continue
			}
			window := e.window(runes, len([]rune(text[:idx])))
			out = append(out, animation.Transformation{
				Kind:           row.Kind,
				TriggerKeyword: kw,
				Parameters:     e.params(row.Kind, window),
			})
		}
	}
	return out
}

func (e *TransformExtractor) window(runes []rune, pos int) string {
	start := max(0, pos-e.radius)
	end := min(len(runes), pos+e.radius)
	return string(runes[start:end])
}

func (e *TransformExtractor) params(kind animation.TransformKind, window string) animation.TransformParams {
	var params animation.TransformParams

	if kind == animation.Rotation {
		if m := e.angle.FindStringSubmatch(window); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				params.Angle = &v
				params.AngleUnit = animation.Radians
				if strings.HasPrefix(strings.ToLower(m[2]), "degree") || m[2] == "°" {
					params.AngleUnit = animation.Degrees
				}
			}
		}
	}

	if m := e.reference.FindStringSubmatch(window); m != nil {
		params.ReferenceObject = m[1]
	}

	if kind == animation.Scaling {
		params.Factor = e.scaleFactor(window)
	}
	return params
}

// scaleFactor skips "by" phrases that carry an angle or time unit.
func (e *TransformExtractor) scaleFactor(window string) *float64 {
	for _, m := range e.factor.FindAllStringSubmatch(window, -1) {
		unit := strings.ToLower(m[2])
		if unit != "" && unit != "x" && unit != "times" {
			continue
		}
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 {
			return &v
		}
	}
	if m := e.times.FindStringSubmatch(window); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 {
			return &v
		}
	}
	return nil
}
