package nlp

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"mathviz/internal/animation"
)

// ObjectRule is one row of the object table.
type ObjectRule struct {
	Kind    animation.ObjectKind
	Pattern string
}

// DefaultObjects returns the object table. The order breaks ties between matches
// that start at the same offset.
func DefaultObjects() []ObjectRule {
	return []ObjectRule{
		{animation.Sphere, `\bs(?:[²³⁴]|\^\d)?\s*sphere|(?:unit\s+)?sphere`},
		{animation.Plane, `\b(?:(?:polar|complex|euclidean|hyperbolic)\s+)?planes?\b`},
		{animation.Vector, `\[[\d.,\s-]+\]|vector\s*\([\d.,\s-]+\)`},
		{animation.Point, `point\s*(?:at\s*)?\([\d.,\s-]+\)`},
		{animation.Manifold, `\b(?:manifold|surface|space)s?\b`},
	}
}

type compiledObject struct {
	kind    animation.ObjectKind
	pattern *regexp.Regexp
}

// ObjectExtractor finds mathematical objects in normalized text.
type ObjectExtractor struct {
	table []compiledObject
}

// NewObjectExtractor compiles an object table. Patterns match case-insensitively.
func NewObjectExtractor(rules []ObjectRule) (*ObjectExtractor, error) {
	e := &ObjectExtractor{table: make([]compiledObject, 0, len(rules))}
	for _, rule := range rules {
		re, err := regexp.Compile("(?i)" + rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("object %s: invalid pattern %q: %w", rule.Kind, rule.Pattern, err)
		}
		e.table = append(e.table, compiledObject{kind: rule.Kind, pattern: re})
	}
	return e, nil
}

// Extract returns one object per non-overlapping match of each kind's pattern,
// ordered by first appearance in text. Spans are rune offsets.
func (e *ObjectExtractor) Extract(text string) []animation.MathObject {
	var objects []animation.MathObject
	for _, row := range e.table {
		for _, loc := range row.pattern.FindAllStringIndex(text, -1) {
			raw := text[loc[0]:loc[1]]
			obj := animation.MathObject{
				Kind:    row.kind,
				RawText: raw,
				Span: animation.Span{
					Start: utf8.RuneCountInString(text[:loc[0]]),
					End:   utf8.RuneCountInString(text[:loc[1]]),
				},
			}
			if row.kind.HasCoordinates() {
				obj.Coordinates = ParseCoordinates(raw)
			}
			objects = append(objects, obj)
		}
	}
	slices.SortStableFunc(objects, func(a, b animation.MathObject) int {
		return a.Span.Start - b.Span.Start
	})
	return objects
}

// ParseCoordinates reads the comma-separated numbers between the first bracket or
// parenthesis in raw and its closing partner. It returns nil when the list is empty
// or any element is not a number.
func ParseCoordinates(raw string) []float64 {
	open := strings.IndexAny(raw, "[(")
	if open < 0 {
		return nil
	}
	closer := "]"
	if raw[open] == '(' {
		closer = ")"
	}
	end := strings.Index(raw[open+1:], closer)
	if end < 0 {
		return nil
	}
	body := raw[open+1 : open+1+end]

	var coords []float64
	for _, part := range strings.Split(body, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil
		}
		f, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil
		}
		coords = append(coords, f)
	}
	return coords
}
