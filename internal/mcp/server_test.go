package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mathviz/internal/config"
	"mathviz/internal/credentials"
	"mathviz/internal/logging"
)

const (
	stereoScenario = "Create an animation showing a stereo projected sphere on a polar plane, then rotate the plane relative to the pole for 5 seconds in 4K quality"
	gyroScenario   = "Show gyroaddition of [0.3,0.4,0] and [1.1,0.2,0.5] in the Poincaré ball model"
)

type noTokens struct{}

func (noTokens) Token() (string, error) { return "", credentials.ErrNoToken }

func newTestServer(t *testing.T) (*Server, *config.Config) {
	t.Helper()
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.MirrorRoot = filepath.Join(dir, "mirror")
	cfg.Archive.Path = filepath.Join(dir, "archive")
	cfg.Render.Command = filepath.Join(dir, "no-renderer")

	logger, _ := logging.NewTestLogger()
	s := NewServer(&cfg, logger)
	s.tokens = noTokens{}
	require.NoError(t, s.initializeComponents())
	t.Cleanup(func() { s.Stop() })
	return s, &cfg
}

func call(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

func decodeResult(t *testing.T, res *mcp.CallToolResult) map[string]any {
	t.Helper()
	require.False(t, res.IsError, resultText(t, res))
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	return out
}

func TestNewServer(t *testing.T) {
	cfg := config.DefaultConfig()
	logger, _ := logging.NewTestLogger()

	s := NewServer(&cfg, logger)
	require.NotNil(t, s)
	assert.Same(t, logger, s.logger)
	assert.Nil(t, s.mirror, "mirror should not be opened until components are initialized")
	assert.Nil(t, s.mcpServer)
}

func TestInitializeWithoutConfig(t *testing.T) {
	s := NewServer(nil, nil)
	assert.Error(t, s.initializeComponents())
}

func TestRegisteredTools(t *testing.T) {
	s, _ := newTestServer(t)

	tools := s.mcpServer.ListTools()
	for _, name := range []string{
		"nlp_to_manim", "save_animation", "render_animation", "ingest_animation_note",
		"archive_animation", "list_animations", "read_animation", "search_mirror", "build_notes_index",
	} {
		assert.Contains(t, tools, name)
	}
}

func TestNLPToManim(t *testing.T) {
	s, _ := newTestServer(t)

	res, err := s.handleNLPToManim(context.Background(), call("nlp_to_manim", map[string]any{"description": gyroScenario}))
	require.NoError(t, err)
	out := decodeResult(t, res)
	assert.Equal(t, true, out["success"])
	assert.Contains(t, out["source_text"], "class GeneratedAnimation(ThreeDScene)")
	assert.Equal(t, false, out["validation_report"].(map[string]any)["accurate"])

	res, err = s.handleNLPToManim(context.Background(), call("nlp_to_manim", map[string]any{"description": gyroScenario, "validate": false}))
	require.NoError(t, err)
	out = decodeResult(t, res)
	assert.Equal(t, map[string]any{}, out["validation_report"])

	res, err = s.handleNLPToManim(context.Background(), call("nlp_to_manim", map[string]any{"description": "project the square onto the plane"}))
	require.NoError(t, err)
	out = decodeResult(t, res)
	assert.Equal(t, false, out["success"])
	assert.Contains(t, out["error"], "sphere")

	res, err = s.handleNLPToManim(context.Background(), call("nlp_to_manim", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestSaveReadListAnimation(t *testing.T) {
	s, cfg := newTestServer(t)

	res, err := s.handleSaveAnimation(context.Background(), call("save_animation", map[string]any{"description": stereoScenario}))
	require.NoError(t, err)
	out := decodeResult(t, res)
	saved := out["saved_path"].(string)
	assert.True(t, strings.HasPrefix(saved, cfg.OutputDir+"/anim_"), saved)

	res, err = s.handleReadAnimation(context.Background(), call("read_animation", map[string]any{"path": saved}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "def stereo_project")

	res, err = s.handleListAnimations(context.Background(), call("list_animations", map[string]any{}))
	require.NoError(t, err)
	out = decodeResult(t, res)
	entries := out["entries"].([]any)
	require.Len(t, entries, 1)
	assert.Equal(t, saved, entries[0].(map[string]any)["path"])

	res, err = s.handleSaveAnimation(context.Background(), call("save_animation", map[string]any{
		"description": stereoScenario,
		"path":        "Media/Manim/custom.py",
	}))
	require.NoError(t, err)
	assert.Equal(t, "Media/Manim/custom.py", decodeResult(t, res)["saved_path"])
}

func TestSaveAnimationRejections(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"pipeline failure", map[string]any{"description": "add [1, 2] and [1, 2, 3]"}, "dimension"},
		{"forbidden path", map[string]any{"description": stereoScenario, "path": "01_Totem_Networks/x.py"}, "access denied"},
		{"outside allow list", map[string]any{"description": stereoScenario, "path": "Private/x.py"}, "access denied"},
		{"not a script", map[string]any{"description": stereoScenario, "path": "Media/Manim/x.txt"}, ".py"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.handleSaveAnimation(context.Background(), call("save_animation", tt.args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Contains(t, resultText(t, res), tt.want)
		})
	}
}

func TestReadAnimationDenied(t *testing.T) {
	s, cfg := newTestServer(t)
	secret := filepath.Join(cfg.MirrorRoot, ".ssh", "id_rsa")
	require.NoError(t, os.MkdirAll(filepath.Dir(secret), 0o700))
	require.NoError(t, os.WriteFile(secret, []byte("key"), 0o600))

	for _, p := range []string{".ssh/id_rsa", "../../etc/passwd", "Media/.ssh/id_rsa"} {
		res, err := s.handleReadAnimation(context.Background(), call("read_animation", map[string]any{"path": p}))
		require.NoError(t, err)
		assert.True(t, res.IsError, p)
	}
}

func TestSearchMirror(t *testing.T) {
	s, _ := newTestServer(t)
	_, err := s.handleSaveAnimation(context.Background(), call("save_animation", map[string]any{"description": gyroScenario}))
	require.NoError(t, err)

	res, err := s.handleSearchMirror(context.Background(), call("search_mirror", map[string]any{
		"query":       "gyro_add",
		"search_type": "content",
	}))
	require.NoError(t, err)
	out := decodeResult(t, res)
	assert.Len(t, out["matches"], 1)

	res, err = s.handleSearchMirror(context.Background(), call("search_mirror", map[string]any{
		"query":       "x",
		"search_type": "regex",
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestIngestNoteAndIndex(t *testing.T) {
	s, cfg := newTestServer(t)

	res, err := s.handleIngestNote(context.Background(), call("ingest_animation_note", map[string]any{
		"description": stereoScenario,
		"title":       "Stereographic Sphere",
		"tags":        []any{"geometry", "projection"},
		"links":       []any{"Riemann Sphere"},
	}))
	require.NoError(t, err)
	out := decodeResult(t, res)
	notePath := out["note_path"].(string)
	assert.Equal(t, cfg.Notes.VaultDir+"/Visualizations/Stereographic_Sphere.md", notePath)

	data, err := os.ReadFile(filepath.Join(cfg.MirrorRoot, filepath.FromSlash(notePath)))
	require.NoError(t, err)
	assert.Contains(t, string(data), "- [[Riemann Sphere]]")
	assert.Contains(t, string(data), "- projection")

	res, err = s.handleBuildIndex(context.Background(), call("build_notes_index", map[string]any{"grouping": "tag"}))
	require.NoError(t, err)
	out = decodeResult(t, res)
	index, err := os.ReadFile(filepath.Join(cfg.MirrorRoot, filepath.FromSlash(out["index_path"].(string))))
	require.NoError(t, err)
	assert.Contains(t, string(index), "## projection")

	res, err = s.handleIngestNote(context.Background(), call("ingest_animation_note", map[string]any{"description": stereoScenario}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestArchiveAnimation(t *testing.T) {
	s, cfg := newTestServer(t)

	res, err := s.handleArchiveAnimation(context.Background(), call("archive_animation", map[string]any{
		"description": gyroScenario,
		"message":     "Archive gyrovector scene",
	}))
	require.NoError(t, err)
	out := decodeResult(t, res)
	assert.Len(t, out["commit"], 40)
	assert.Equal(t, float64(2), out["files"])
	assert.Equal(t, false, out["pushed"])

	repo, err := s.openArchive()
	require.NoError(t, err)
	history, err := repo.History(1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Archive gyrovector scene", history[0].Message)

	matches, err := filepath.Glob(filepath.Join(cfg.Archive.Path, "scripts", "anim_*.json"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	res, err = s.handleArchiveAnimation(context.Background(), call("archive_animation", map[string]any{
		"description": stereoScenario,
		"push":        true,
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "push failed")
}

func TestRenderAnimation(t *testing.T) {
	s, cfg := newTestServer(t)

	res, err := s.handleRenderAnimation(context.Background(), call("render_animation", map[string]any{"description": gyroScenario}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "renderer command not found")

	if runtime.GOOS == "windows" {
		t.Skip("shell stub requires a POSIX shell")
	}
	stub := filepath.Join(t.TempDir(), "fake-manim")
	script := "#!/bin/sh\nstem=$(basename \"$4\" .py)\nmkdir -p \"media/videos/$stem/480p15\"\necho v > \"media/videos/$stem/480p15/$5.mp4\"\n"
	require.NoError(t, os.WriteFile(stub, []byte(script), 0o755))
	cfg.Render.Command = stub
	require.NoError(t, s.Stop())
	require.NoError(t, s.initializeComponents())

	res, err = s.handleRenderAnimation(context.Background(), call("render_animation", map[string]any{
		"description": gyroScenario,
		"quality":     "preview",
	}))
	require.NoError(t, err)
	out := decodeResult(t, res)
	assert.Equal(t, "l", out["quality"])
	assert.True(t, strings.HasSuffix(out["video_path"].(string), filepath.Join("480p15", "GeneratedAnimation.mp4")))
	assert.FileExists(t, out["video_path"].(string))

	res, err = s.handleRenderAnimation(context.Background(), call("render_animation", map[string]any{
		"description": gyroScenario,
		"quality":     "ultra",
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
