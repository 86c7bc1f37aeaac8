package codegen

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"mathviz/internal/animation"
)

// SceneName is the class name of every generated scene. Renderers use it to pick the
// scene out of the script.
const SceneName = "GeneratedAnimation"

const (
	defaultRotationDegrees = 360.0
	defaultScaleFactor     = 1.5
	sphereRadius           = 2.0
)

const scriptTemplate = `from manim import *
import numpy as np
from math import *


class {{.Scene}}(ThreeDScene):
    def construct(self):
{{- range .Setup}}
{{.}}
{{- end}}
{{- range .Helpers}}

{{.Body}}
{{- end}}

        # Create objects
{{- range .Objects}}
{{.}}
{{- end}}

        # Apply transformations
{{- range .Transforms}}
{{.}}
{{- end}}

        self.wait({{.Duration}})
`

const snippetTemplates = `
{{- define "camera3d"}}
        self.set_camera_orientation(phi=75 * DEGREES, theta=-45 * DEGREES)
        self.begin_ambient_camera_rotation(rate=0.1)
{{- end}}

{{- define "artistic"}}
        self.camera.background_color = "#1e1e2e"
{{- end}}

{{- define "sphere"}}
        {{.Name}} = Sphere(radius=2, resolution=(30, 30))
        {{.Name}}.set_color(BLUE_E)
        self.add({{.Name}})
{{- end}}

{{- define "plane"}}
{{- if .Polar}}
        {{.Name}} = PolarPlane(radius_max=3)
{{- else if .Complex}}
        {{.Name}} = ComplexPlane(x_range=[-4, 4], y_range=[-3, 3])
{{- else}}
        {{.Name}} = Square(side_length=6).rotate(PI / 2, RIGHT)
        {{.Name}}.set_fill(GRAY, opacity=0.3)
{{- end}}
        {{.Name}}.shift(3 * IN)
        self.add({{.Name}})
{{- end}}

{{- define "vector"}}
{{- if .Coords}}
        {{.Name}}_coords = np.array({{.Coords}})
        {{.Name}} = Arrow3D(ORIGIN, {{.Name}}_coords, color=YELLOW)
{{- else}}
        {{.Name}} = Arrow3D(ORIGIN, RIGHT, color=YELLOW)
{{- end}}
        self.add({{.Name}})
{{- end}}

{{- define "point"}}
{{- if .Coords}}
        {{.Name}} = Dot3D(point=np.array({{.Coords}}), color=RED)
{{- else}}
        {{.Name}} = Dot3D(point=ORIGIN, color=RED)
{{- end}}
        self.add({{.Name}})
{{- end}}

{{- define "manifold"}}
        {{.Name}} = Surface(
            lambda u, v: np.array([u, v, 0.5 * np.sin(u) * np.cos(v)]),
            u_range=[-PI, PI],
            v_range=[-PI, PI],
            resolution=(24, 24),
        )
        {{.Name}}.set_fill_by_checkerboard(BLUE_D, BLUE_E, opacity=0.6)
        self.add({{.Name}})
{{- end}}

{{- define "rotation"}}
        # Rotation{{with .Reference}} relative to {{.}}{{end}}
{{- with .Unresolved}}
        # reference "{{.}}" is not an object in the scene, rotating about ORIGIN
{{- end}}
        self.play(
            Rotate({{.Target}}, angle={{.Angle}}, axis=OUT, about_point={{.Anchor}}),
            run_time=3,
        )
{{- end}}

{{- define "projection"}}
        # Stereographic projection of {{.Target}}
        projected = VGroup(*[
            Dot(stereo_project(p), radius=0.03, color=BLUE_B)
            for p in {{.Target}}.get_all_points()[::10]
        ])
        self.play(Transform({{.Target}}.copy(), projected), run_time=4)
{{- end}}

{{- define "translation"}}
        # Translation{{with .Reference}} towards {{.}}{{end}}
{{- if and .Reference (not .Unresolved)}}
        self.play({{.Target}}.animate.move_to({{.Anchor}}), run_time=2)
{{- else}}
        self.play({{.Target}}.animate.shift(2 * RIGHT), run_time=2)
{{- end}}
{{- end}}

{{- define "scaling"}}
        # Scaling by {{.Factor}}
        self.play({{.Target}}.animate.scale({{.Factor}}), run_time=2)
{{- end}}
`

// Generator renders animation requests into Manim scene scripts. It only assembles
// text and never runs or parses the result.
type Generator struct {
	templates *Templates
	script    *template.Template
	snippets  *template.Template
}

// NewGenerator builds a generator over the given template table. A nil table uses
// DefaultTemplates.
func NewGenerator(templates *Templates) (*Generator, error) {
	if templates == nil {
		templates = DefaultTemplates()
	}
	script, err := template.New("script").Parse(scriptTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse script template: %w", err)
	}
	snippets, err := template.New("snippets").Parse(snippetTemplates)
	if err != nil {
		return nil, fmt.Errorf("failed to parse snippet templates: %w", err)
	}
	return &Generator{templates: templates, script: script, snippets: snippets}, nil
}

type scriptData struct {
	Scene      string
	Setup      []string
	Helpers    []Template
	Objects    []string
	Transforms []string
	Duration   string
}

type objectData struct {
	Name    string
	Coords  string
	Polar   bool
	Complex bool
}

type transformData struct {
	Target     string
	Angle      string
	Anchor     string
	Reference  string
	Unresolved string
	Factor     string
}

// Generate returns the scene script for req. Output is a pure function of the request.
func (g *Generator) Generate(req *animation.Request) (string, error) {
	if req == nil {
		return "", fmt.Errorf("nil request")
	}
	data := scriptData{
		Scene:    SceneName,
		Helpers:  g.templates.Select(req),
		Duration: animation.FormatNumber(req.Parameters().Duration),
	}

	if req.Category() == animation.ManifoldVisualization {
		s, err := g.snippet("camera3d", nil)
		if err != nil {
			return "", err
		}
		data.Setup = append(data.Setup, s)
	}
	if req.Parameters().Style == animation.StyleArtistic {
		s, err := g.snippet("artistic", nil)
		if err != nil {
			return "", err
		}
		data.Setup = append(data.Setup, s)
	}

	objects := req.Objects()
	for i, obj := range objects {
		s, err := g.snippet(obj.Kind.String(), objectSnippetData(i, obj))
		if err != nil {
			return "", err
		}
		data.Objects = append(data.Objects, s)
	}

	for _, tr := range req.Transformations() {
		s, err := g.snippet(tr.Kind.String(), transformSnippetData(tr, objects))
		if err != nil {
			return "", err
		}
		data.Transforms = append(data.Transforms, s)
	}

	var buf bytes.Buffer
	if err := g.script.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render script: %w", err)
	}
	return buf.String(), nil
}

func (g *Generator) snippet(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := g.snippets.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s snippet: %w", name, err)
	}
	return strings.TrimLeft(buf.String(), "\n"), nil
}

// ObjectName is the scene variable bound to the i-th object.
func ObjectName(i int) string {
	return fmt.Sprintf("obj_%d", i)
}

func objectSnippetData(i int, obj animation.MathObject) objectData {
	d := objectData{
		Name:    ObjectName(i),
		Polar:   strings.Contains(obj.RawText, "polar"),
		Complex: strings.Contains(obj.RawText, "complex"),
	}
	if obj.HasCoordinates() {
		d.Coords = animation.FormatCoordinates(toScene(obj.Coordinates))
	}
	return d
}

// toScene pads or truncates coordinates to three dimensions.
func toScene(coords []float64) []float64 {
	out := make([]float64, 3)
	copy(out, coords)
	return out
}

func transformSnippetData(tr animation.Transformation, objects []animation.MathObject) transformData {
	p := tr.Parameters
	d := transformData{
		Target:    "VGroup(*self.mobjects)",
		Anchor:    "ORIGIN",
		Reference: p.ReferenceObject,
	}
	if len(objects) > 0 {
		d.Target = ObjectName(0)
	}

	if p.ReferenceObject != "" {
		if anchor, ok := resolveReference(p.ReferenceObject, objects); ok {
			d.Anchor = anchor
		} else {
			d.Unresolved = p.ReferenceObject
		}
	}

	switch tr.Kind {
	case animation.Rotation:
		d.Angle = animation.FormatNumber(defaultRotationDegrees) + " * DEGREES"
		if p.Angle != nil {
			d.Angle = animation.FormatNumber(*p.Angle)
			if p.AngleUnit != animation.Radians {
				d.Angle += " * DEGREES"
			}
		}
	case animation.Projection:
		for i, obj := range objects {
			if obj.Kind == animation.Sphere {
				d.Target = ObjectName(i)
				break
			}
		}
	case animation.Scaling:
		f := defaultScaleFactor
		if p.Factor != nil {
			f = *p.Factor
		}
		d.Factor = animation.FormatNumber(f)
	}
	return d
}

// resolveReference maps a reference word to a scene position: named poles and the
// origin, or the centre of the first object of a matching kind.
func resolveReference(ref string, objects []animation.MathObject) (string, bool) {
	switch ref {
	case "pole", "north":
		return animation.FormatNumber(sphereRadius) + " * OUT", true
	case "south":
		return animation.FormatNumber(sphereRadius) + " * IN", true
	case "origin", "center", "centre":
		return "ORIGIN", true
	}
	kind, err := animation.ParseObjectKind(ref)
	if err != nil {
		return "", false
	}
	for i, obj := range objects {
		if obj.Kind == kind {
			return ObjectName(i) + ".get_center()", true
		}
	}
	return "", false
}
