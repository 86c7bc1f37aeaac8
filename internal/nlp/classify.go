package nlp

import (
	"fmt"
	"regexp"
	"strings"

	"mathviz/internal/animation"
)

// Normalize lowercases and trims a description.
func Normalize(description string) string {
	return strings.ToLower(strings.TrimSpace(description))
}

// Concept is a mathematical idea the classifier can recognise.
type Concept int

const (
	ConceptStereographicProjection Concept = iota
	ConceptGyrovectorOperation
	ConceptRotation
	ConceptMobiusTransformation
	ConceptHyperbolicSpace
	ConceptFieldDynamics
	ConceptAlgebraicStructure
)

func (c Concept) String() string {
	switch c {
	case ConceptStereographicProjection:
		return "stereographic_projection"
	case ConceptGyrovectorOperation:
		return "gyrovector_operation"
	case ConceptRotation:
		return "rotation"
	case ConceptMobiusTransformation:
		return "mobius_transformation"
	case ConceptHyperbolicSpace:
		return "hyperbolic_space"
	case ConceptFieldDynamics:
		return "field_dynamics"
	case ConceptAlgebraicStructure:
		return "algebraic_structure"
	default:
		return fmt.Sprintf("Concept(%d)", int(c))
	}
}

// Category maps a concept to the category it decides. Rotation is a hint only:
// it returns false and the classifier keeps scanning.
func (c Concept) Category() (animation.Category, bool) {
	switch c {
	case ConceptStereographicProjection, ConceptMobiusTransformation:
		return animation.GeometricTransform, true
	case ConceptGyrovectorOperation:
		return animation.VectorOperation, true
	case ConceptHyperbolicSpace:
		return animation.ManifoldVisualization, true
	case ConceptFieldDynamics:
		return animation.FieldDynamics, true
	case ConceptAlgebraicStructure:
		return animation.AlgebraicStructure, true
	case ConceptRotation:
		return 0, false
	default:
		return 0, false
	}
}

// ConceptRule is one row of the classifier table.
type ConceptRule struct {
	Concept  Concept
	Patterns []string
}

// DefaultConcepts returns the classifier table in priority order.
func DefaultConcepts() []ConceptRule {
	return []ConceptRule{
		{ConceptStereographicProjection, []string{
			`stereo(?:graphic)?\s+project(?:ed|ion)?`,
			`project\s+.*\s+(?:on|onto)\s+.*\s+plane`,
		}},
		{ConceptGyrovectorOperation, []string{
			`gyro(?:addition|scalar|distance|parallel)`,
			`(?:add|multiply|transport)\s+.*\s+gyrovector`,
		}},
		{ConceptRotation, []string{
			`rotate\s+.*\s+(?:around|about|relative)`,
			`(?:spin|turn)\s+.*\s+(?:by|through)`,
		}},
		{ConceptMobiusTransformation, []string{
			`(?:mobius|möbius)\s+transform`,
			`conformal\s+map`,
		}},
		{ConceptHyperbolicSpace, []string{
			`(?:poincaré|poincare|klein|hyperboloid)\s+(?:disk|ball|model)`,
			`hyperbolic\s+(?:plane|space|geometry)`,
		}},
		{ConceptFieldDynamics, []string{
			`(?:vector|gradient|electric|magnetic|velocity|flow)\s+field`,
			`\b(?:divergence|curl|flux)\b`,
		}},
		{ConceptAlgebraicStructure, []string{
			`\b(?:lie|quaternion|symmetry|permutation)\s+(?:group|algebra)`,
			`\bcayley\s+(?:table|graph)`,
		}},
	}
}

type compiledConcept struct {
	concept  Concept
	patterns []*regexp.Regexp
}

// Classifier maps normalized text to exactly one animation category.
type Classifier struct {
	table []compiledConcept
}

// NewClassifier compiles a concept table. Patterns match case-insensitively.
func NewClassifier(rules []ConceptRule) (*Classifier, error) {
	c := &Classifier{table: make([]compiledConcept, 0, len(rules))}
	for _, rule := range rules {
		cc := compiledConcept{concept: rule.Concept}
		for _, p := range rule.Patterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, fmt.Errorf("concept %s: invalid pattern %q: %w", rule.Concept, p, err)
			}
			cc.patterns = append(cc.patterns, re)
		}
		c.table = append(c.table, cc)
	}
	return c, nil
}

// Classify returns the category of the first decisive concept whose pattern matches,
// scanning the table in order. It never fails: no match means GeometricTransform.
func (c *Classifier) Classify(text string) animation.Category {
	if concept, ok := c.Match(text); ok {
		cat, _ := concept.Category()
		return cat
	}
	return animation.GeometricTransform
}

// Match returns the first decisive concept found in text.
func (c *Classifier) Match(text string) (Concept, bool) {
	for _, row := range c.table {
		for _, re := range row.patterns {
			if !re.MatchString(text) {
				continue
			}
			if _, decisive := row.concept.Category(); decisive {
				return row.concept, true
			}
			// a non-decisive concept stops its own row but not the scan
			break
		}
	}
	return 0, false
}
