package notes

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mathviz/internal/logging"
	"mathviz/internal/pipeline"
	"mathviz/internal/storage"
)

const (
	stereoScenario = "Create an animation showing a stereo projected sphere on a polar plane, then rotate the plane relative to the pole for 5 seconds in 4K quality"
	gyroScenario   = "Show gyroaddition of [0.3,0.4,0] and [1.1,0.2,0.5] in the Poincaré ball model"
)

func newTestIngestor(t *testing.T) (*Ingestor, string) {
	t.Helper()
	dir := t.TempDir()
	logger, _ := logging.NewTestLogger()
	mirror, err := storage.Open(dir, storage.DefaultPolicy(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { mirror.Close() })

	in, err := NewIngestor(mirror, "MathematicalResearch/Vault", logger)
	require.NoError(t, err)
	in.now = func() time.Time { return time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC) }
	return in, dir
}

func TestWriteAnimationNote(t *testing.T) {
	in, dir := newTestIngestor(t)
	res := pipeline.Process(stereoScenario, true)
	require.True(t, res.Success)

	p, err := in.WriteAnimationNote("Stereographic Sphere", res, []string{"#geometry", "manim", "geometry"}, []string{"Riemann Sphere"})
	require.NoError(t, err)
	assert.Equal(t, "MathematicalResearch/Vault/Visualizations/Stereographic_Sphere.md", p)

	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(p)))
	require.NoError(t, err)
	content := string(data)

	var meta Frontmatter
	body, err := frontmatter.Parse(bytes.NewReader(data), &meta)
	require.NoError(t, err)
	assert.Equal(t, "Stereographic Sphere", meta.Title)
	assert.Equal(t, []string{"geometry", "manim"}, meta.Tags)
	assert.Equal(t, "GEOMETRIC_TRANSFORM", meta.Category)
	assert.Equal(t, "4k", meta.Quality)
	require.NotNil(t, meta.Accurate)
	assert.True(t, *meta.Accurate)
	assert.True(t, meta.Created.Equal(in.now()))

	assert.True(t, strings.HasPrefix(string(body), "\n# Stereographic Sphere") || strings.HasPrefix(string(body), "# Stereographic Sphere"))
	assert.Contains(t, content, "## Related Notes\n\n- [[Riemann Sphere]]\n")
	assert.Contains(t, content, "```python\nfrom manim import *")
	assert.Contains(t, content, "```dataview\nLIST\nFROM [[Stereographic Sphere]]\n```\n")
}

func TestWriteAnimationNoteDefaults(t *testing.T) {
	in, dir := newTestIngestor(t)

	p, err := in.WriteAnimationNote("Plain", pipeline.Process("hello there", false), nil, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(p)))
	require.NoError(t, err)

	var meta Frontmatter
	_, err = frontmatter.Parse(bytes.NewReader(data), &meta)
	require.NoError(t, err)
	assert.Equal(t, []string{"untagged"}, meta.Tags)
	assert.Nil(t, meta.Accurate)
	assert.NotContains(t, string(data), "## Related Notes")
}

func TestWriteAnimationNoteRejectsBadTitle(t *testing.T) {
	in, _ := newTestIngestor(t)
	_, err := in.WriteAnimationNote("!!!", pipeline.Process("hello", true), nil, nil)
	assert.Error(t, err)
}

func TestNewIngestorRejectsEscapingVault(t *testing.T) {
	_, err := NewIngestor(nil, "../vault", nil)
	assert.Error(t, err)
}

func TestBuildIndex(t *testing.T) {
	in, dir := newTestIngestor(t)

	_, err := in.WriteAnimationNote("Stereo", pipeline.Process(stereoScenario, true), []string{"geometry"}, nil)
	require.NoError(t, err)
	_, err = in.WriteAnimationNote("Gyro", pipeline.Process(gyroScenario, true), []string{"hyperbolic", "geometry"}, nil)
	require.NoError(t, err)

	loose := filepath.Join(dir, "MathematicalResearch", "Vault", "Loose_Thoughts.md")
	require.NoError(t, os.WriteFile(loose, []byte("just text\n"), 0o644))

	p, err := in.BuildIndex(ByCategory)
	require.NoError(t, err)
	assert.Equal(t, "MathematicalResearch/Vault/Index.md", p)

	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(p)))
	require.NoError(t, err)
	index := string(data)
	assert.Contains(t, index, "Notes: 3 | Grouping: category")
	assert.Contains(t, index, "## GEOMETRIC_TRANSFORM\n\n- [[Stereo|Stereo]]\n")
	assert.Contains(t, index, "## VECTOR_OPERATION\n\n- [[Gyro|Gyro]]\n")
	assert.Contains(t, index, "## ungrouped\n\n- [[Loose_Thoughts|Loose Thoughts]]\n")

	_, err = in.BuildIndex(ByTag)
	require.NoError(t, err)
	data, err = os.ReadFile(filepath.Join(dir, filepath.FromSlash(p)))
	require.NoError(t, err)
	index = string(data)
	assert.Contains(t, index, "Notes: 3 | Grouping: tag")
	assert.Contains(t, index, "## geometry\n\n- [[Gyro|Gyro]]\n- [[Stereo|Stereo]]\n")
	assert.Contains(t, index, "## hyperbolic\n\n- [[Gyro|Gyro]]\n")
}

func TestParseGrouping(t *testing.T) {
	g, err := ParseGrouping("")
	require.NoError(t, err)
	assert.Equal(t, ByCategory, g)

	g, err = ParseGrouping("TAG")
	require.NoError(t, err)
	assert.Equal(t, ByTag, g)

	_, err = ParseGrouping("date")
	assert.Error(t, err)
}
