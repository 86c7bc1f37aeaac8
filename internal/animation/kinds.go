package animation

import (
	"encoding/json"
	"fmt"
)

// Category is the coarse animation family a description belongs to.
type Category int

const (
	GeometricTransform Category = iota
	VectorOperation
	ManifoldVisualization
	FieldDynamics
	AlgebraicStructure
)

// Categories lists every category in declaration order.
func Categories() []Category {
	return []Category{GeometricTransform, VectorOperation, ManifoldVisualization, FieldDynamics, AlgebraicStructure}
}

func (c Category) String() string {
	switch c {
	case GeometricTransform:
		return "GEOMETRIC_TRANSFORM"
	case VectorOperation:
		return "VECTOR_OPERATION"
	case ManifoldVisualization:
		return "MANIFOLD_VISUALIZATION"
	case FieldDynamics:
		return "FIELD_DYNAMICS"
	case AlgebraicStructure:
		return "ALGEBRAIC_STRUCTURE"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

func (c Category) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// ParseCategory is the inverse of Category.String.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories() {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown animation category: %q", s)
}

// ObjectKind is the type of a mathematical object referenced in a description.
type ObjectKind int

const (
	Sphere ObjectKind = iota
	Plane
	Vector
	Point
	Manifold
)

// ObjectKinds lists every object kind in extraction-table order.
func ObjectKinds() []ObjectKind {
	return []ObjectKind{Sphere, Plane, Vector, Point, Manifold}
}

func (k ObjectKind) String() string {
	switch k {
	case Sphere:
		return "sphere"
	case Plane:
		return "plane"
	case Vector:
		return "vector"
	case Point:
		return "point"
	case Manifold:
		return "manifold"
	default:
		return fmt.Sprintf("ObjectKind(%d)", int(k))
	}
}

func (k ObjectKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// HasCoordinates reports whether objects of this kind may carry parsed coordinates.
func (k ObjectKind) HasCoordinates() bool {
	switch k {
	case Vector, Point:
		return true
	case Sphere, Plane, Manifold:
		return false
	default:
		return false
	}
}

// ParseObjectKind is the inverse of ObjectKind.String.
func ParseObjectKind(s string) (ObjectKind, error) {
	for _, k := range ObjectKinds() {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown object kind: %q", s)
}

// TransformKind is the type of transformation applied to the scene.
type TransformKind int

const (
	Rotation TransformKind = iota
	Projection
	Translation
	Scaling
)

// TransformKinds lists every transformation kind in extraction-table order.
func TransformKinds() []TransformKind {
	return []TransformKind{Rotation, Projection, Translation, Scaling}
}

func (k TransformKind) String() string {
	switch k {
	case Rotation:
		return "rotation"
	case Projection:
		return "projection"
	case Translation:
		return "translation"
	case Scaling:
		return "scaling"
	default:
		return fmt.Sprintf("TransformKind(%d)", int(k))
	}
}

func (k TransformKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// ParseTransformKind is the inverse of TransformKind.String.
func ParseTransformKind(s string) (TransformKind, error) {
	for _, k := range TransformKinds() {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown transformation kind: %q", s)
}

// Quality is the render quality tier requested by the description.
type Quality string

const (
	QualityPreview  Quality = "preview"
	QualityStandard Quality = "standard"
	Quality4K       Quality = "4k"
)

// ParseQuality validates a quality tier name.
func ParseQuality(s string) (Quality, error) {
	switch q := Quality(s); q {
	case QualityPreview, QualityStandard, Quality4K:
		return q, nil
	default:
		return "", fmt.Errorf("unknown quality: %q (want preview, standard or 4k)", s)
	}
}

// Style is the visual style requested by the description.
type Style string

const (
	StyleAcademic   Style = "academic"
	StyleArtistic   Style = "artistic"
	StyleMinimalist Style = "minimalist"
)

// ParseStyle validates a style name.
func ParseStyle(s string) (Style, error) {
	switch st := Style(s); st {
	case StyleAcademic, StyleArtistic, StyleMinimalist:
		return st, nil
	default:
		return "", fmt.Errorf("unknown style: %q (want academic, artistic or minimalist)", s)
	}
}

// AngleUnit is the unit an extracted rotation angle was written in.
// The zero value means no unit was found.
type AngleUnit string

const (
	Degrees AngleUnit = "degrees"
	Radians AngleUnit = "radians"
)
