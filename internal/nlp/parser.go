package nlp

import (
	"fmt"

	"mathviz/internal/animation"
)

// Rules bundles the compiled tables every extraction stage reads. Build it once and
// share it; nothing in it is mutated after construction.
type Rules struct {
	Classifier *Classifier
	Objects    *ObjectExtractor
	Transforms *TransformExtractor
	Params     *ParameterExtractor
}

// NewRules compiles a full rule set from its tables.
func NewRules(concepts []ConceptRule, objects []ObjectRule, transforms []TransformRule, quality []QualityRule, style []StyleRule) (*Rules, error) {
	classifier, err := NewClassifier(concepts)
	if err != nil {
		return nil, fmt.Errorf("failed to build classifier: %w", err)
	}
	objectExtractor, err := NewObjectExtractor(objects)
	if err != nil {
		return nil, fmt.Errorf("failed to build object extractor: %w", err)
	}
	transformExtractor, err := NewTransformExtractor(transforms, DefaultWindowRadius)
	if err != nil {
		return nil, fmt.Errorf("failed to build transformation extractor: %w", err)
	}
	return &Rules{
		Classifier: classifier,
		Objects:    objectExtractor,
		Transforms: transformExtractor,
		Params:     NewParameterExtractor(quality, style),
	}, nil
}

// DefaultRules compiles the built-in tables. It panics only if a built-in pattern is invalid.
func DefaultRules() *Rules {
	rules, err := NewRules(DefaultConcepts(), DefaultObjects(), DefaultTransforms(), DefaultQualityRules(), DefaultStyleRules())
	if err != nil {
		panic(err)
	}
	return rules
}

// Parser turns descriptions into validated animation requests.
type Parser struct {
	rules *Rules
}

// NewParser returns a Parser over rules. A nil rules uses DefaultRules.
func NewParser(rules *Rules) *Parser {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Parser{rules: rules}
}

// Parse normalizes description, runs every extraction stage and assembles the Request.
// Invariant violations are returned as *animation.ValidationError.
func (p *Parser) Parse(description string) (*animation.Request, error) {
	text := Normalize(description)
	return animation.NewRequest(
		text,
		p.rules.Classifier.Classify(text),
		p.rules.Objects.Extract(text),
		p.rules.Transforms.Extract(text),
		p.rules.Params.Extract(text),
	)
}
