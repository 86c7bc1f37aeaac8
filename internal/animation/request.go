package animation

import (
	"slices"
	"strconv"
	"strings"
)

// Span is a half-open [Start, End) range of character offsets into the normalized description.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// MathObject is one mathematical object referenced in a description.
type MathObject struct {
	Kind    ObjectKind `json:"kind"`
	RawText string     `json:"raw_text"`
	Span    Span       `json:"span"`
	// Coordinates is nil unless a numeric list was parsed for a vector or point.
	Coordinates []float64 `json:"coordinates,omitempty"`
}

// HasCoordinates reports whether coordinates were parsed for the object.
func (o MathObject) HasCoordinates() bool {
	return o.Coordinates != nil
}

func (o MathObject) clone() MathObject {
	if o.Coordinates != nil {
		o.Coordinates = slices.Clone(o.Coordinates)
	}
	return o
}

// TransformParams are the optional parameters attached to a transformation.
type TransformParams struct {
	Angle           *float64  `json:"angle,omitempty"`
	AngleUnit       AngleUnit `json:"angle_unit,omitempty"`
	ReferenceObject string    `json:"reference_object,omitempty"`
	// Factor is only read for scaling transformations.
	Factor *float64 `json:"factor,omitempty"`
}

func (p TransformParams) clone() TransformParams {
	if p.Angle != nil {
		a := *p.Angle
		p.Angle = &a
	}
	if p.Factor != nil {
		f := *p.Factor
		p.Factor = &f
	}
	return p
}

// Transformation is one transformation detected in a description.
type Transformation struct {
	Kind           TransformKind   `json:"kind"`
	TriggerKeyword string          `json:"trigger_keyword"`
	Parameters     TransformParams `json:"parameters"`
}

// Parameters are the cross-cutting rendering parameters of a request.
type Parameters struct {
	Duration float64 `json:"duration"`
	Quality  Quality `json:"quality"`
	Style    Style   `json:"style"`
}

// DefaultDuration is the animation length used when the description names none.
const DefaultDuration = 3.0

// DefaultParameters returns {duration: 3.0, quality: standard, style: academic}.
func DefaultParameters() Parameters {
	return Parameters{
		Duration: DefaultDuration,
		Quality:  QualityStandard,
		Style:    StyleAcademic,
	}
}

// Request is the structured, immutable form of an animation description.
type Request struct {
	description     string
	category        Category
	objects         []MathObject
	transformations []Transformation
	parameters      Parameters
}

// NewRequest assembles a Request and enforces its invariants:
//   - a projection transformation needs at least one sphere object
//   - every vector that carries coordinates has the same dimension
//   - the duration is positive
//
// Violations are reported as *ValidationError.
func NewRequest(description string, category Category, objects []MathObject, transformations []Transformation, params Parameters) (*Request, error) {
	if err := checkProjectionHasSphere(objects, transformations); err != nil {
		return nil, err
	}
	if err := checkVectorDimensions(objects); err != nil {
		return nil, err
	}
	if params.Duration <= 0 {
		return nil, &ValidationError{
			Invariant: InvariantPositiveDuration,
			Message:   "Duration must be a positive number of seconds",
		}
	}

	r := &Request{
		description:     description,
		category:        category,
		objects:         make([]MathObject, len(objects)),
		transformations: make([]Transformation, len(transformations)),
		parameters:      params,
	}
	for i, o := range objects {
		r.objects[i] = o.clone()
	}
	for i, t := range transformations {
		t.Parameters = t.Parameters.clone()
		r.transformations[i] = t
	}
	return r, nil
}

func checkProjectionHasSphere(objects []MathObject, transformations []Transformation) error {
	hasProjection := slices.ContainsFunc(transformations, func(t Transformation) bool {
		return t.Kind == Projection
	})
	if !hasProjection {
		return nil
	}
	hasSphere := slices.ContainsFunc(objects, func(o MathObject) bool {
		return o.Kind == Sphere
	})
	if !hasSphere {
		return &ValidationError{
			Invariant: InvariantProjectionNeedsSphere,
			Message:   "Stereographic projection requires a sphere object",
		}
	}
	return nil
}

func checkVectorDimensions(objects []MathObject) error {
	dim := -1
	for _, o := range objects {
		if o.Kind != Vector || !o.HasCoordinates() {
			continue
		}
		if dim == -1 {
			dim = len(o.Coordinates)
			continue
		}
		if len(o.Coordinates) != dim {
			return &ValidationError{
				Invariant: InvariantVectorDimensions,
				Message:   "All vectors must have the same dimension",
			}
		}
	}
	return nil
}

// Description returns the normalized source text.
func (r *Request) Description() string { return r.description }

// Category returns the classified animation category.
func (r *Request) Category() Category { return r.category }

// Parameters returns the rendering parameters.
func (r *Request) Parameters() Parameters { return r.parameters }

// Objects returns a copy of the extracted objects in order of first appearance.
func (r *Request) Objects() []MathObject {
	out := make([]MathObject, len(r.objects))
	for i, o := range r.objects {
		out[i] = o.clone()
	}
	return out
}

// Transformations returns a copy of the extracted transformations in detection order.
func (r *Request) Transformations() []Transformation {
	out := make([]Transformation, len(r.transformations))
	for i, t := range r.transformations {
		t.Parameters = t.Parameters.clone()
		out[i] = t
	}
	return out
}

// ObjectsOfKind returns the objects of one kind, preserving order.
func (r *Request) ObjectsOfKind(kind ObjectKind) []MathObject {
	var out []MathObject
	for _, o := range r.objects {
		if o.Kind == kind {
			out = append(out, o.clone())
		}
	}
	return out
}

// HasTransform reports whether any transformation of the given kind was detected.
func (r *Request) HasTransform(kind TransformKind) bool {
	return slices.ContainsFunc(r.transformations, func(t Transformation) bool {
		return t.Kind == kind
	})
}

// Snapshot is the JSON-serializable view of a Request.
type Snapshot struct {
	Description     string           `json:"description"`
	Category        Category         `json:"animation_category"`
	Objects         []MathObject     `json:"objects"`
	Transformations []Transformation `json:"transformations"`
	Parameters      Parameters       `json:"parameters"`
}

// Snapshot returns a detached copy of the request suitable for serialization.
func (r *Request) Snapshot() Snapshot {
	return Snapshot{
		Description:     r.description,
		Category:        r.category,
		Objects:         r.Objects(),
		Transformations: r.Transformations(),
		Parameters:      r.parameters,
	}
}

// ValidationReport is the advisory outcome of the accuracy checks.
type ValidationReport struct {
	Accurate    bool     `json:"accurate"`
	Warnings    []string `json:"warnings"`
	Suggestions []string `json:"suggestions"`
}

// Artifact is the generated renderer source together with its validation report.
// Report is nil when validation was not requested.
type Artifact struct {
	SourceText string
	Report     *ValidationReport
}

// FormatCoordinates renders coordinates as a bracketed list, e.g. "[1.1, 0.2, 0.0]".
func FormatCoordinates(coords []float64) string {
	parts := make([]string, len(coords))
	for i, c := range coords {
		parts[i] = FormatNumber(c)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// FormatNumber prints a float with the shortest exact representation, keeping at least
// one decimal so integral values still read as floats ("45.0").
func FormatNumber(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
