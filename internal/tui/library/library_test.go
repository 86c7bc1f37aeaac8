package library

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mathviz/internal/config"
	"mathviz/internal/logging"
	"mathviz/internal/tui/helpers"
)

func newTestLibrary(t *testing.T, scripts map[string]string) (*Model, *config.Config) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.MirrorRoot = t.TempDir()

	dir := filepath.Join(cfg.MirrorRoot, filepath.FromSlash(cfg.OutputDir))
	mod := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for name, content := range scripts {
		require.NoError(t, os.MkdirAll(dir, 0o755))
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		require.NoError(t, os.Chtimes(p, mod, mod))
		mod = mod.Add(time.Hour)
	}

	logger, _ := logging.NewTestLogger()
	return New(helpers.NewUIContext(100, 40, &cfg, logger)), &cfg
}

func TestLoadEntries(t *testing.T) {
	m, _ := newTestLibrary(t, map[string]string{
		"anim_one.py": "from manim import *\n",
		"notes.txt":   "not a script",
	})
	assert.Contains(t, m.View(), "Loading")

	m.Update(m.Init()())

	require.Equal(t, stateList, m.state)
	items := m.list.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "anim_one.py", items[0].(scriptItem).Title())
	assert.Contains(t, items[0].(scriptItem).Description(), "Media/Manim/anim_one.py")
}

func TestEntriesNewestFirst(t *testing.T) {
	m, cfg := newTestLibrary(t, nil)
	dir := filepath.Join(cfg.MirrorRoot, "Media", "Manim")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"old.py", "new.py"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
		ts := older.Add(time.Duration(i) * time.Hour)
		require.NoError(t, os.Chtimes(p, ts, ts))
	}

	m.Update(m.Init()())

	items := m.list.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "new.py", items[0].(scriptItem).Title())
}

func TestEmptyOutputDir(t *testing.T) {
	m, _ := newTestLibrary(t, nil)

	m.Update(m.Init()())

	assert.Equal(t, stateEmpty, m.state)
	assert.Nil(t, m.layout.GetError(), "a missing output directory is not an error")
	assert.Contains(t, m.View(), "No saved animations yet")
}

func TestOpenSource(t *testing.T) {
	m, _ := newTestLibrary(t, map[string]string{
		"anim_one.py": "from manim import *\n\nclass GeneratedAnimation(ThreeDScene):\n    pass\n",
	})
	m.Update(m.Init()())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m.Update(cmd())

	assert.Equal(t, stateSource, m.state)
	assert.Equal(t, "Media/Manim/anim_one.py", m.current)
	view := m.View()
	assert.Contains(t, view, "class GeneratedAnimation")
	assert.Contains(t, view, "anim_one.py")

	m.Update(tea.KeyMsg{Type: tea.KeyEscape})
	assert.Equal(t, stateList, m.state)

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEscape})
	require.NotNil(t, cmd)
	assert.IsType(t, helpers.NavigateToMainMenuMsg{}, cmd())
}

func TestWithoutConfig(t *testing.T) {
	logger, _ := logging.NewTestLogger()
	m := New(helpers.NewUIContext(100, 40, nil, logger))

	m.Update(m.Init()())

	assert.Equal(t, stateEmpty, m.state)
	require.Error(t, m.layout.GetError())
	assert.True(t, strings.Contains(m.View(), "configuration not loaded"))
}

func TestEditorCommand(t *testing.T) {
	t.Setenv("EDITOR", "myeditor --wait")

	cmd, err := editorCommand("/mirror/Media/Manim/anim_one.py")
	require.NoError(t, err)
	assert.Equal(t, []string{"myeditor", "--wait", "/mirror/Media/Manim/anim_one.py"}, cmd.Args)
}

func TestEditorFailureShowsError(t *testing.T) {
	m, _ := newTestLibrary(t, map[string]string{"anim_one.py": "x"})
	m.Update(m.Init()())

	m.Update(editorFinishedMsg{path: "Media/Manim/anim_one.py", err: errors.New("editor exited with status 1")})

	require.Error(t, m.layout.GetError())
	assert.Contains(t, m.View(), "editor exited")
}

func TestEditorFinishedReloadsSource(t *testing.T) {
	m, cfg := newTestLibrary(t, map[string]string{"anim_one.py": "before\n"})
	m.Update(m.Init()())
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(cmd())
	require.Equal(t, stateSource, m.state)

	p := filepath.Join(cfg.MirrorRoot, "Media", "Manim", "anim_one.py")
	require.NoError(t, os.WriteFile(p, []byte("after\n"), 0o644))

	_, cmd = m.Update(editorFinishedMsg{path: "Media/Manim/anim_one.py"})
	require.NotNil(t, cmd)
	for _, c := range cmd().(tea.BatchMsg) {
		m.Update(c())
	}

	assert.Equal(t, stateSource, m.state, "reloading entries keeps the source view open")
	assert.Contains(t, m.View(), "after")
}
