package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mathviz/internal/animation"
	"mathviz/internal/nlp"
)

func parse(t *testing.T, description string) *animation.Request {
	t.Helper()
	req, err := nlp.NewParser(nlp.DefaultRules()).Parse(description)
	require.NoError(t, err)
	return req
}

func generate(t *testing.T, req *animation.Request) string {
	t.Helper()
	g, err := NewGenerator(DefaultTemplates())
	require.NoError(t, err)
	src, err := g.Generate(req)
	require.NoError(t, err)
	return src
}

func newRequest(t *testing.T, category animation.Category, objects []animation.MathObject, transforms []animation.Transformation, params animation.Parameters) *animation.Request {
	t.Helper()
	req, err := animation.NewRequest("test", category, objects, transforms, params)
	require.NoError(t, err)
	return req
}

func TestGenerateStereographicScene(t *testing.T) {
	src := generate(t, parse(t, "Create an animation showing a stereo projected sphere on a polar plane, then rotate the plane relative to the pole for 5 seconds in 4K quality"))

	assert.True(t, strings.HasPrefix(src, "from manim import *\n"))
	assert.Contains(t, src, "class GeneratedAnimation(ThreeDScene):\n    def construct(self):\n")
	assert.Contains(t, src, "def stereo_project(point):")
	assert.Contains(t, src, "if z >= 0.99:")
	assert.NotContains(t, src, "def mobius")

	assert.Contains(t, src, "        obj_0 = Sphere(radius=2, resolution=(30, 30))\n")
	assert.Contains(t, src, "obj_1 = PolarPlane(radius_max=3)")
	assert.Contains(t, src, "# Rotation relative to pole")
	assert.Contains(t, src, "Rotate(obj_0, angle=360.0 * DEGREES, axis=OUT, about_point=2.0 * OUT)")
	assert.Contains(t, src, "for p in obj_0.get_all_points()[::10]")
	assert.True(t, strings.HasSuffix(src, "        self.wait(5.0)\n"))

	setup := strings.Index(src, "def stereo_project")
	objects := strings.Index(src, "# Create objects")
	transforms := strings.Index(src, "# Apply transformations")
	rotation := strings.Index(src, "Rotate(")
	projection := strings.Index(src, "stereo_project(p)")
	wait := strings.Index(src, "self.wait(")
	assert.Less(t, setup, objects)
	assert.Less(t, objects, transforms)
	assert.Less(t, transforms, rotation)
	assert.Less(t, rotation, projection)
	assert.Less(t, projection, wait)
}

func TestGenerateMobiusRotation(t *testing.T) {
	src := generate(t, parse(t, "Visualize a Möbius transformation on the complex plane rotating by 45 degrees"))

	assert.Contains(t, src, "def mobius(z, a=1, b=0.5j, c=-0.5j, d=1):")
	assert.Contains(t, src, "obj_0 = ComplexPlane(")
	assert.Contains(t, src, "Rotate(obj_0, angle=45.0 * DEGREES, axis=OUT, about_point=ORIGIN)")
	assert.NotContains(t, src, "stereo_project")
	assert.Contains(t, src, "self.wait(3.0)")
}

func TestGenerateGyrovectors(t *testing.T) {
	src := generate(t, parse(t, "Show gyroaddition of [0.3,0.4,0] and [1.1,0.2,0.5] in the Poincaré ball model"))

	assert.Contains(t, src, "def gyro_add(u, v):")
	assert.Contains(t, src, "def to_poincare(v):")
	assert.Contains(t, src, "obj_0_coords = np.array([0.3, 0.4, 0.0])")
	assert.Contains(t, src, "obj_1_coords = np.array([1.1, 0.2, 0.5])")
	assert.Contains(t, src, "obj_1 = Arrow3D(ORIGIN, obj_1_coords, color=YELLOW)")
}

func TestGenerateSetupByCategoryAndStyle(t *testing.T) {
	artistic := animation.Parameters{Duration: 2, Quality: animation.QualityStandard, Style: animation.StyleArtistic}

	src := generate(t, newRequest(t, animation.ManifoldVisualization, nil, nil, artistic))
	assert.Contains(t, src, "self.set_camera_orientation(phi=75 * DEGREES, theta=-45 * DEGREES)")
	assert.Contains(t, src, `self.camera.background_color = "#1e1e2e"`)
	assert.Contains(t, src, "def geodesic(theta1, theta2, **kwargs):")
	assert.Less(t, strings.Index(src, "set_camera_orientation"), strings.Index(src, "background_color"))

	src = generate(t, newRequest(t, animation.FieldDynamics, nil, nil, animation.DefaultParameters()))
	assert.Contains(t, src, "ArrowVectorField(field_func")
	assert.NotContains(t, src, "set_camera_orientation")
	assert.NotContains(t, src, "background_color")

	src = generate(t, newRequest(t, animation.AlgebraicStructure, nil, nil, animation.DefaultParameters()))
	assert.NotContains(t, src, "        def ")
	assert.Contains(t, src, "        # Create objects\n\n        # Apply transformations\n\n        self.wait(3.0)\n")
}

func TestGenerateProjectionOutsideGeometricCategory(t *testing.T) {
	sphere := animation.MathObject{Kind: animation.Sphere, RawText: "sphere"}
	projection := animation.Transformation{Kind: animation.Projection, TriggerKeyword: "map"}

	src := generate(t, newRequest(t, animation.VectorOperation,
		[]animation.MathObject{{Kind: animation.Vector, RawText: "[0.1, 0.2]", Coordinates: []float64{0.1, 0.2}}, sphere},
		[]animation.Transformation{projection}, animation.DefaultParameters()))

	assert.Contains(t, src, "def gyro_add")
	assert.Contains(t, src, "def stereo_project")
	assert.Less(t, strings.Index(src, "def gyro_add"), strings.Index(src, "def stereo_project"))
	assert.Contains(t, src, "obj_0_coords = np.array([0.1, 0.2, 0.0])")
	assert.Contains(t, src, "for p in obj_1.get_all_points()")
}

func TestGenerateTransformationParameters(t *testing.T) {
	rad := 1.5
	factor := 2.0

	t.Run("radians and no objects", func(t *testing.T) {
		src := generate(t, newRequest(t, animation.GeometricTransform, nil,
			[]animation.Transformation{{Kind: animation.Rotation, TriggerKeyword: "spin",
				Parameters: animation.TransformParams{Angle: &rad, AngleUnit: animation.Radians}}},
			animation.DefaultParameters()))
		assert.Contains(t, src, "Rotate(VGroup(*self.mobjects), angle=1.5, axis=OUT, about_point=ORIGIN)")
	})

	t.Run("scaling factor and default", func(t *testing.T) {
		plane := animation.MathObject{Kind: animation.Plane, RawText: "plane"}
		src := generate(t, newRequest(t, animation.GeometricTransform, []animation.MathObject{plane},
			[]animation.Transformation{{Kind: animation.Scaling, TriggerKeyword: "scale", Parameters: animation.TransformParams{Factor: &factor}}},
			animation.DefaultParameters()))
		assert.Contains(t, src, "self.play(obj_0.animate.scale(2.0), run_time=2)")
		assert.Contains(t, src, "obj_0 = Square(side_length=6)")

		src = generate(t, newRequest(t, animation.GeometricTransform, []animation.MathObject{plane},
			[]animation.Transformation{{Kind: animation.Scaling, TriggerKeyword: "zoom"}},
			animation.DefaultParameters()))
		assert.Contains(t, src, "obj_0.animate.scale(1.5)")
	})

	t.Run("references", func(t *testing.T) {
		objects := []animation.MathObject{
			{Kind: animation.Point, RawText: "point at (1, 2)", Coordinates: []float64{1, 2}},
			{Kind: animation.Sphere, RawText: "sphere"},
		}
		src := generate(t, newRequest(t, animation.GeometricTransform, objects,
			[]animation.Transformation{
				{Kind: animation.Rotation, TriggerKeyword: "rotate", Parameters: animation.TransformParams{ReferenceObject: "sphere"}},
				{Kind: animation.Translation, TriggerKeyword: "move", Parameters: animation.TransformParams{ReferenceObject: "axis"}},
			},
			animation.DefaultParameters()))
		assert.Contains(t, src, "obj_0 = Dot3D(point=np.array([1.0, 2.0, 0.0]), color=RED)")
		assert.Contains(t, src, "about_point=obj_1.get_center()")
		assert.Contains(t, src, "self.play(obj_0.animate.shift(2 * RIGHT), run_time=2)")
	})

	t.Run("unresolved rotation reference", func(t *testing.T) {
		src := generate(t, newRequest(t, animation.GeometricTransform, nil,
			[]animation.Transformation{{Kind: animation.Rotation, TriggerKeyword: "rotate", Parameters: animation.TransformParams{ReferenceObject: "axis"}}},
			animation.DefaultParameters()))
		assert.Contains(t, src, `# reference "axis" is not an object in the scene, rotating about ORIGIN`)
	})
}

func TestGenerateIsDeterministic(t *testing.T) {
	req := parse(t, "Show gyroaddition of [0.3,0.4,0] and [1.1,0.2,0.5] and rotate by 2 rad for 4 seconds, artistic")
	g, err := NewGenerator(nil)
	require.NoError(t, err)

	first, err := g.Generate(req)
	require.NoError(t, err)
	second, err := g.Generate(req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestTemplatesSelect(t *testing.T) {
	stereo := Template{Name: "stereo", Body: "# stereo"}
	templates := NewTemplates(
		[]Entry{{Key{animation.GeometricTransform, animation.Rotation}, Template{Name: "rot", Body: "# rot"}}},
		map[animation.Category]Template{animation.GeometricTransform: {Name: "geo", Body: "# geo"}},
		stereo,
	)

	rotation := animation.Transformation{Kind: animation.Rotation, TriggerKeyword: "rotate"}
	req := newRequest(t, animation.GeometricTransform, nil, []animation.Transformation{rotation}, animation.DefaultParameters())
	assert.Equal(t, []Template{{Name: "rot", Body: "# rot"}}, templates.Select(req))

	req = newRequest(t, animation.GeometricTransform, nil, nil, animation.DefaultParameters())
	assert.Equal(t, []Template{{Name: "geo", Body: "# geo"}}, templates.Select(req))

	req = newRequest(t, animation.FieldDynamics, nil, nil, animation.DefaultParameters())
	assert.Empty(t, templates.Select(req))
}

func TestGenerateNilRequest(t *testing.T) {
	g, err := NewGenerator(nil)
	require.NoError(t, err)
	_, err = g.Generate(nil)
	assert.Error(t, err)
}
