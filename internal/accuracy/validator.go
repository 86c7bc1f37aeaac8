// Package accuracy reviews a generated animation for mathematical problems.
//
// Findings are advisory. The validator never fails: every problem becomes a warning or a
// suggestion on the returned report.
package accuracy

import (
	"fmt"
	"math"
	"strings"

	"mathviz/internal/animation"
)

// DefaultNormBound is the radius of the unit ball vectors must stay inside for
// gyrovector operations.
const DefaultNormBound = 1.0

// Options tune the validator.
type Options struct {
	// NormBound is the exclusive upper bound on vector norms for VECTOR_OPERATION requests.
	NormBound float64
}

// StabilityRule flags source text that contains Trigger without Guard.
type StabilityRule struct {
	Trigger string
	Guard   string
	Reason  string
}

// DefaultStabilityRules are the textual numerical-stability heuristics.
func DefaultStabilityRules() []StabilityRule {
	return []StabilityRule{
		{Trigger: "/ (1 -", Guard: "0.99", Reason: "Division by (1-z) without bounds check"},
		{Trigger: "norm(", Guard: "if norm", Reason: "Vector normalization without zero check"},
	}
}

const projectionSuggestion = "Consider handling the north pole singularity in stereographic projection explicitly"

// Validator checks requests and their generated source.
type Validator struct {
	normBound float64
	stability []StabilityRule
}

// NewValidator returns a validator using the default stability rules. A non-positive
// NormBound uses DefaultNormBound.
func NewValidator(opts Options) *Validator {
	if opts.NormBound <= 0 {
		opts.NormBound = DefaultNormBound
	}
	return &Validator{normBound: opts.NormBound, stability: DefaultStabilityRules()}
}

// Validate reports vector-norm and projection findings for req and scans source for
// numerical-stability patterns. The report is accurate iff it carries no warnings.
func (v *Validator) Validate(req *animation.Request, source string) animation.ValidationReport {
	report := animation.ValidationReport{
		Warnings:    []string{},
		Suggestions: []string{},
	}

	if req != nil {
		switch req.Category() {
		case animation.VectorOperation:
			report.Warnings = append(report.Warnings, v.checkNorms(req)...)
		case animation.GeometricTransform:
			if req.HasTransform(animation.Projection) {
				report.Suggestions = append(report.Suggestions, projectionSuggestion)
			}
		}
	}

	if reasons := v.checkStability(source); len(reasons) > 0 {
		report.Warnings = append(report.Warnings,
			"Potential numerical instability: "+strings.Join(reasons, "; "))
	}

	report.Accurate = len(report.Warnings) == 0
	return report
}

func (v *Validator) checkNorms(req *animation.Request) []string {
	var warnings []string
	for _, obj := range req.ObjectsOfKind(animation.Vector) {
		if !obj.HasCoordinates() {
			continue
		}
		norm := Norm(obj.Coordinates)
		if norm >= v.normBound {
			warnings = append(warnings, fmt.Sprintf(
				"Vector %s has norm %.4f >= %s, not valid for Poincaré ball model",
				animation.FormatCoordinates(obj.Coordinates), norm, formatBound(v.normBound)))
		}
	}
	return warnings
}

func (v *Validator) checkStability(source string) []string {
	var reasons []string
	for _, rule := range v.stability {
		if strings.Contains(source, rule.Trigger) && !strings.Contains(source, rule.Guard) {
			reasons = append(reasons, rule.Reason)
		}
	}
	return reasons
}

// Norm is the Euclidean length of coords.
func Norm(coords []float64) float64 {
	var sum float64
	for _, c := range coords {
		sum += c * c
	}
	return math.Sqrt(sum)
}

func formatBound(b float64) string {
	if b == math.Trunc(b) {
		return fmt.Sprintf("%d", int64(b))
	}
	return animation.FormatNumber(b)
}
