package nlp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mathviz/internal/animation"
)

func TestClassify(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		text string
		want animation.Category
	}{
		{"Stereographic projection of the unit sphere", animation.GeometricTransform},
		{"project the sphere onto the complex plane", animation.GeometricTransform},
		{"Show gyroaddition of two vectors", animation.VectorOperation},
		{"transport the gyrovector along a geodesic", animation.VectorOperation},
		{"conformal map of the unit disk", animation.GeometricTransform},
		{"Möbius transformation of the plane", animation.GeometricTransform},
		{"geodesics in the Poincaré disk", animation.ManifoldVisualization},
		{"tiling of the hyperbolic plane", animation.ManifoldVisualization},
		{"draw the electric field of a dipole", animation.FieldDynamics},
		{"visualize the curl of F", animation.FieldDynamics},
		{"the Lie algebra so(3)", animation.AlgebraicStructure},
		{"Cayley table of S3", animation.AlgebraicStructure},
		{"hello world", animation.GeometricTransform},
		{"", animation.GeometricTransform},
		// earlier rows win
		{"gyroaddition in hyperbolic space", animation.VectorOperation},
		{"stereographic projection onto the poincaré disk", animation.GeometricTransform},
		// rotation is a hint, the scan continues past it
		{"rotate the disk around its center in the Poincaré disk", animation.ManifoldVisualization},
		{"rotate the square around the origin", animation.GeometricTransform},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, rules.Classifier.Classify(Normalize(tt.text)))
		})
	}
}

func TestClassifierMatchSkipsRotationHint(t *testing.T) {
	rules := DefaultRules()

	_, ok := rules.Classifier.Match("rotate the square around the origin")
	assert.False(t, ok)

	concept, ok := rules.Classifier.Match("spin the vector field by hand")
	require.True(t, ok)
	assert.Equal(t, ConceptFieldDynamics, concept)
}

func TestNewClassifierRejectsBadPattern(t *testing.T) {
	_, err := NewClassifier([]ConceptRule{{ConceptRotation, []string{"(unclosed"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rotation")
}

func TestExtractObjects(t *testing.T) {
	rules := DefaultRules()

	t.Run("ordered by first appearance", func(t *testing.T) {
		text := Normalize("A plane cutting the unit sphere near point at (1, 2, 3)")
		objects := rules.Objects.Extract(text)
		require.Len(t, objects, 3)

		assert.Equal(t, animation.Plane, objects[0].Kind)
		assert.Equal(t, "plane", objects[0].RawText)
		assert.Equal(t, animation.Span{Start: 2, End: 7}, objects[0].Span)

		assert.Equal(t, animation.Sphere, objects[1].Kind)
		assert.Equal(t, "unit sphere", objects[1].RawText)
		assert.Nil(t, objects[1].Coordinates)

		assert.Equal(t, animation.Point, objects[2].Kind)
		assert.Equal(t, []float64{1, 2, 3}, objects[2].Coordinates)
	})

	t.Run("vectors carry coordinates", func(t *testing.T) {
		text := Normalize("Show gyroaddition of [0.3,0.4,0] and [1.1,0.2,0.5]")
		objects := rules.Objects.Extract(text)
		require.Len(t, objects, 2)
		assert.Equal(t, []float64{0.3, 0.4, 0}, objects[0].Coordinates)
		assert.Equal(t, []float64{1.1, 0.2, 0.5}, objects[1].Coordinates)
		assert.Equal(t, "[1.1,0.2,0.5]", objects[1].RawText)
	})

	t.Run("vector call syntax", func(t *testing.T) {
		objects := rules.Objects.Extract("take vector(1, -2)")
		require.Len(t, objects, 1)
		assert.Equal(t, animation.Vector, objects[0].Kind)
		assert.Equal(t, []float64{1, -2}, objects[0].Coordinates)
	})

	t.Run("malformed coordinates are absent", func(t *testing.T) {
		objects := rules.Objects.Extract("the vector [1..2, 3]")
		require.Len(t, objects, 1)
		assert.Equal(t, animation.Vector, objects[0].Kind)
		assert.False(t, objects[0].HasCoordinates())
	})

	t.Run("qualified planes and manifolds", func(t *testing.T) {
		objects := rules.Objects.Extract("a polar plane inside a riemannian manifold")
		require.Len(t, objects, 2)
		assert.Equal(t, "polar plane", objects[0].RawText)
		assert.Equal(t, animation.Manifold, objects[1].Kind)
	})

	t.Run("spans count runes", func(t *testing.T) {
		objects := rules.Objects.Extract("möbius sphere")
		require.Len(t, objects, 1)
		assert.Equal(t, animation.Span{Start: 7, End: 13}, objects[0].Span)
	})

	t.Run("nothing to find", func(t *testing.T) {
		assert.Empty(t, rules.Objects.Extract("hello there"))
	})
}

func TestParseCoordinates(t *testing.T) {
	assert.Equal(t, []float64{1, 2}, ParseCoordinates("[1, 2]"))
	assert.Equal(t, []float64{-0.5}, ParseCoordinates("point at (-0.5)"))
	assert.Nil(t, ParseCoordinates("[ ]"))
	assert.Nil(t, ParseCoordinates("[1,,2]"))
	assert.Nil(t, ParseCoordinates("[1-2]"))
	assert.Nil(t, ParseCoordinates("sphere"))
}

func TestExtractTransformations(t *testing.T) {
	rules := DefaultRules()

	t.Run("rotation angle in degrees", func(t *testing.T) {
		got := rules.Transforms.Extract("rotate the square by 90 degrees")
		require.Len(t, got, 1)
		assert.Equal(t, animation.Rotation, got[0].Kind)
		assert.Equal(t, "rotate", got[0].TriggerKeyword)
		require.NotNil(t, got[0].Parameters.Angle)
		assert.Equal(t, 90.0, *got[0].Parameters.Angle)
		assert.Equal(t, animation.Degrees, got[0].Parameters.AngleUnit)
	})

	t.Run("degree sign", func(t *testing.T) {
		got := rules.Transforms.Extract("turn it 30°")
		require.Len(t, got, 1)
		assert.Equal(t, animation.Degrees, got[0].Parameters.AngleUnit)
	})

	t.Run("rotation angle in radians", func(t *testing.T) {
		got := rules.Transforms.Extract("spin the top by 1.5 rad")
		require.Len(t, got, 1)
		assert.Equal(t, "spin", got[0].TriggerKeyword)
		require.NotNil(t, got[0].Parameters.Angle)
		assert.Equal(t, 1.5, *got[0].Parameters.Angle)
		assert.Equal(t, animation.Radians, got[0].Parameters.AngleUnit)
	})

	t.Run("angle outside the window is ignored", func(t *testing.T) {
		text := "rotate " + strings.Repeat("x", 60) + " 30 degrees"
		got := rules.Transforms.Extract(text)
		require.Len(t, got, 1)
		assert.Nil(t, got[0].Parameters.Angle)
		assert.Empty(t, got[0].Parameters.AngleUnit)
	})

	t.Run("reference object on any kind", func(t *testing.T) {
		got := rules.Transforms.Extract("shift the point around the origin")
		require.Len(t, got, 1)
		assert.Equal(t, animation.Translation, got[0].Kind)
		assert.Equal(t, "origin", got[0].Parameters.ReferenceObject)
		assert.Nil(t, got[0].Parameters.Angle)
	})

	t.Run("table order", func(t *testing.T) {
		got := rules.Transforms.Extract("project the sphere onto the plane and rotate it")
		require.Len(t, got, 2)
		assert.Equal(t, animation.Rotation, got[0].Kind)
		assert.Equal(t, animation.Projection, got[1].Kind)
	})

	t.Run("scale factor phrases", func(t *testing.T) {
		got := rules.Transforms.Extract("scale the sphere by a factor of 2")
		require.Len(t, got, 1)
		require.NotNil(t, got[0].Parameters.Factor)
		assert.Equal(t, 2.0, *got[0].Parameters.Factor)

		got = rules.Transforms.Extract("zoom 3x on the disk")
		require.Len(t, got, 1)
		require.NotNil(t, got[0].Parameters.Factor)
		assert.Equal(t, 3.0, *got[0].Parameters.Factor)

		got = rules.Transforms.Extract("resize by 45 degrees")
		require.Len(t, got, 1)
		assert.Nil(t, got[0].Parameters.Factor)
	})

	t.Run("no keywords", func(t *testing.T) {
		assert.Empty(t, rules.Transforms.Extract("hello there"))
	})
}

func TestNewTransformExtractorRejectsEmptyKeyword(t *testing.T) {
	_, err := NewTransformExtractor([]TransformRule{{animation.Scaling, []string{" "}}}, 0)
	assert.Error(t, err)
}

func TestExtractParameters(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		text string
		want animation.Parameters
	}{
		{"", animation.DefaultParameters()},
		{"for 2.5 seconds in preview", animation.Parameters{Duration: 2.5, Quality: animation.QualityPreview, Style: animation.StyleAcademic}},
		{"a beautiful 4k render", animation.Parameters{Duration: 3, Quality: animation.Quality4K, Style: animation.StyleArtistic}},
		{"simple quick sketch, 10 sec", animation.Parameters{Duration: 10, Quality: animation.QualityPreview, Style: animation.StyleMinimalist}},
		{"ultra high quality but also a preview", animation.Parameters{Duration: 3, Quality: animation.Quality4K, Style: animation.StyleAcademic}},
		{"for 0 seconds", animation.DefaultParameters()},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, rules.Params.Extract(Normalize(tt.text)))
		})
	}
}

func TestParseScenarios(t *testing.T) {
	parser := NewParser(DefaultRules())

	t.Run("stereographic projection then rotation", func(t *testing.T) {
		req, err := parser.Parse("Create an animation showing a stereo projected sphere on a polar plane, then rotate the plane relative to the pole for 5 seconds in 4K quality")
		require.NoError(t, err)

		assert.Equal(t, animation.GeometricTransform, req.Category())
		assert.Len(t, req.ObjectsOfKind(animation.Sphere), 1)
		assert.NotEmpty(t, req.ObjectsOfKind(animation.Plane))

		transforms := req.Transformations()
		require.Len(t, transforms, 2)
		assert.Equal(t, animation.Rotation, transforms[0].Kind)
		assert.Equal(t, "pole", transforms[0].Parameters.ReferenceObject)
		assert.Equal(t, animation.Projection, transforms[1].Kind)

		assert.Equal(t, animation.Parameters{Duration: 5, Quality: animation.Quality4K, Style: animation.StyleAcademic}, req.Parameters())
	})

	t.Run("möbius rotation", func(t *testing.T) {
		req, err := parser.Parse("Visualize a Möbius transformation on the complex plane rotating by 45 degrees")
		require.NoError(t, err)

		transforms := req.Transformations()
		require.Len(t, transforms, 1)
		assert.Equal(t, animation.Rotation, transforms[0].Kind)
		require.NotNil(t, transforms[0].Parameters.Angle)
		assert.Equal(t, 45.0, *transforms[0].Parameters.Angle)
		assert.Equal(t, animation.Degrees, transforms[0].Parameters.AngleUnit)
	})

	t.Run("gyroaddition", func(t *testing.T) {
		req, err := parser.Parse("Show gyroaddition of [0.3,0.4,0] and [1.1,0.2,0.5] in the Poincaré ball model")
		require.NoError(t, err)
		assert.Equal(t, animation.VectorOperation, req.Category())
		vectors := req.ObjectsOfKind(animation.Vector)
		require.Len(t, vectors, 2)
		assert.Equal(t, []float64{1.1, 0.2, 0.5}, vectors[1].Coordinates)
	})

	t.Run("no keywords yields defaults", func(t *testing.T) {
		req, err := parser.Parse("  Hello There  ")
		require.NoError(t, err)
		assert.Equal(t, "hello there", req.Description())
		assert.Equal(t, animation.GeometricTransform, req.Category())
		assert.Empty(t, req.Objects())
		assert.Empty(t, req.Transformations())
		assert.Equal(t, animation.DefaultParameters(), req.Parameters())
	})
}

func TestParseInvariantFailures(t *testing.T) {
	parser := NewParser(nil)

	_, err := parser.Parse("project the plane onto the polar plane")
	require.Error(t, err)
	assert.ErrorIs(t, err, animation.ErrInvalidRequest)
	assert.Contains(t, err.Error(), "sphere")

	_, err = parser.Parse("add [1, 2] and [1, 2, 3]")
	require.Error(t, err)
	assert.True(t, animation.IsInvariant(err, animation.InvariantVectorDimensions))
	assert.Contains(t, err.Error(), "dimension")
}
