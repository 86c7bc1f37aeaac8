package codegen

import (
	"maps"
	"slices"

	"mathviz/internal/animation"
)

// Template is a named block of helper code emitted after the scene setup.
type Template struct {
	Name string
	Body string
}

// Key selects a template by category and transformation kind.
type Key struct {
	Category  animation.Category
	Transform animation.TransformKind
}

// Entry is one row of the keyed template table.
type Entry struct {
	Key      Key
	Template Template
}

// Templates is the immutable template table. Lookups try the keyed entries in table
// order, then the category fallback, then nothing.
type Templates struct {
	keyed      []Entry
	byCategory map[animation.Category]Template
	projection Template
}

// NewTemplates copies the given tables. projection holds the helpers every projection
// snippet calls and is added whenever the selected template does not already carry them.
func NewTemplates(keyed []Entry, byCategory map[animation.Category]Template, projection Template) *Templates {
	return &Templates{
		keyed:      slices.Clone(keyed),
		byCategory: maps.Clone(byCategory),
		projection: projection,
	}
}

// Select returns the helper templates for req in emission order.
func (t *Templates) Select(req *animation.Request) []Template {
	selected, ok := t.lookup(req)
	var out []Template
	if ok && selected.Body != "" {
		out = append(out, selected)
	}
	if req.HasTransform(animation.Projection) && selected.Name != t.projection.Name {
		out = append(out, t.projection)
	}
	return out
}

func (t *Templates) lookup(req *animation.Request) (Template, bool) {
	for _, e := range t.keyed {
		if e.Key.Category == req.Category() && req.HasTransform(e.Key.Transform) {
			return e.Template, true
		}
	}
	tpl, ok := t.byCategory[req.Category()]
	return tpl, ok
}

// DefaultTemplates returns the built-in template table.
func DefaultTemplates() *Templates {
	stereo := Template{Name: "stereographic_projection", Body: stereographicHelpers}
	return NewTemplates(
		[]Entry{
			{Key{animation.GeometricTransform, animation.Projection}, stereo},
			{Key{animation.ManifoldVisualization, animation.Projection}, stereo},
			{Key{animation.GeometricTransform, animation.Rotation}, Template{Name: "mobius_transformation", Body: mobiusHelpers}},
		},
		map[animation.Category]Template{
			animation.VectorOperation:       {Name: "gyrovector_addition", Body: gyrovectorHelpers},
			animation.ManifoldVisualization: {Name: "poincare_disk", Body: poincareDiskHelpers},
			animation.FieldDynamics:         {Name: "vector_field", Body: vectorFieldHelpers},
			animation.AlgebraicStructure:    {Name: "algebraic_structure"},
		},
		stereo,
	)
}

const stereographicHelpers = `        # Stereographic projection from the north pole onto the plane z = -3
        def stereo_project(point):
            x, y, z = np.asarray(point) / 2
            if z >= 0.99:  # north pole maps to infinity
                return np.array([0, 0, -3])
            factor = 1 / (1 - z)
            return np.array([2 * factor * x, 2 * factor * y, -3])`

const mobiusHelpers = `        # Möbius transformation f(z) = (a z + b) / (c z + d) on the complex plane
        def mobius(z, a=1, b=0.5j, c=-0.5j, d=1):
            return (a * z + b) / (c * z + d)

        def mobius_point(point):
            w = mobius(complex(point[0], point[1]))
            return np.array([w.real, w.imag, point[2]])`

const gyrovectorHelpers = `        # Gyrovector addition in the Poincaré ball
        boundary = Circle(radius=3, color=WHITE)
        self.add(boundary)

        def to_poincare(v):
            norm = np.linalg.norm(v)
            if norm >= 1:
                return 0.99 * v / norm
            return v

        def gyro_add(u, v):
            u_norm_sq = np.dot(u, u)
            v_norm_sq = np.dot(v, v)
            uv_dot = np.dot(u, v)
            denominator = 1 + 2 * uv_dot + u_norm_sq * v_norm_sq
            numerator_u = (1 + 2 * uv_dot + v_norm_sq) * u
            numerator_v = (1 - u_norm_sq) * v
            return (numerator_u + numerator_v) / denominator`

const poincareDiskHelpers = `        # Poincaré disk model
        boundary = Circle(radius=3, color=WHITE)
        self.add(boundary)

        def geodesic(theta1, theta2, **kwargs):
            p1 = 3 * np.array([np.cos(theta1), np.sin(theta1), 0])
            p2 = 3 * np.array([np.cos(theta2), np.sin(theta2), 0])
            half = abs(theta2 - theta1) / 2
            if abs(half - PI / 2) < 1e-6:
                return Line(p1, p2, **kwargs)
            return ArcBetweenPoints(p1, p2, angle=-(PI - 2 * half), **kwargs)`

const vectorFieldHelpers = `        # Vector field
        def field_func(pos):
            return 0.5 * np.array([-pos[1], pos[0], 0])

        field = ArrowVectorField(field_func, x_range=[-4, 4], y_range=[-3, 3])
        self.add(field)`
