// Package library lists the scene scripts saved in the mirror's output directory
// and shows their source.
package library

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/truncate"

	"mathviz/internal/config"
	"mathviz/internal/logging"
	"mathviz/internal/storage"
	"mathviz/internal/tui/components"
	"mathviz/internal/tui/helpers"
	"mathviz/internal/tui/styles"
)

type state int

const (
	stateLoading state = iota
	stateList
	stateEmpty
	stateSource
)

type (
	entriesMsg struct {
		entries []storage.Entry
		err     error
	}

	sourceMsg struct {
		path    string
		content string
		err     error
	}
)

type scriptItem struct {
	entry storage.Entry
}

func (i scriptItem) Title() string { return i.entry.Name }
func (i scriptItem) Description() string {
	return fmt.Sprintf("%s • %d bytes • %s", i.entry.Path, i.entry.Size, i.entry.ModTime.Format("2006-01-02 15:04"))
}
func (i scriptItem) FilterValue() string { return i.entry.Name }

// Model is the saved-animation browser.
type Model struct {
	config *config.Config
	logger *logging.AppLogger

	state    state
	list     list.Model
	viewport viewport.Model
	layout   components.LayoutModel

	current string
}

// New creates the browser. Entries are loaded by Init.
func New(ctx helpers.UIContext) *Model {
	logger := ctx.Logger
	if logger == nil {
		logger = logging.GetDefault()
	}

	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)

	m := &Model{
		config:   ctx.Config,
		logger:   logger,
		state:    stateLoading,
		list:     l,
		viewport: viewport.New(0, 0),
		layout:   components.NewLayout(components.LayoutConfig{MarginX: 2, MarginY: 1, MaxWidth: 120}),
	}
	if ctx.HasValidDimensions() {
		m.resize(ctx.Width, ctx.Height)
	}
	return m
}

func (m *Model) Init() tea.Cmd {
	return m.loadEntries()
}

// withMirror opens the configured mirror for the duration of fn.
func (m *Model) withMirror(fn func(*storage.Mirror) error) error {
	if m.config == nil {
		return errors.New("configuration not loaded")
	}
	policy := storage.Policy{Allowed: m.config.AllowedPaths, Forbidden: m.config.ForbiddenPaths}
	mirror, err := storage.Open(m.config.MirrorRoot, policy, m.logger)
	if err != nil {
		return err
	}
	defer mirror.Close()
	return fn(mirror)
}

func (m *Model) loadEntries() tea.Cmd {
	return func() tea.Msg {
		var scripts []storage.Entry
		err := m.withMirror(func(mirror *storage.Mirror) error {
			entries, err := mirror.List(m.config.OutputDir, false)
			if err != nil {
				return err
			}
			for _, e := range entries {
				if !e.IsDir && path.Ext(e.Name) == ".py" {
					scripts = append(scripts, e)
				}
			}
			return nil
		})
		if errors.Is(err, storage.ErrNotFound) {
			err = nil
		}
		sort.Slice(scripts, func(i, j int) bool {
			return scripts[i].ModTime.After(scripts[j].ModTime)
		})
		return entriesMsg{entries: scripts, err: err}
	}
}

func (m *Model) loadSource(p string) tea.Cmd {
	return func() tea.Msg {
		var content string
		err := m.withMirror(func(mirror *storage.Mirror) error {
			var err error
			content, err = mirror.Read(p)
			return err
		})
		return sourceMsg{path: p, content: content, err: err}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m.logger.LogMessage(msg)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case entriesMsg:
		if msg.err != nil {
			m.logger.Error("Failed to list animations", "error", msg.err)
			m.layout = m.layout.SetError(msg.err)
			m.state = stateEmpty
			return m, nil
		}
		items := make([]list.Item, len(msg.entries))
		for i, e := range msg.entries {
			items[i] = scriptItem{entry: e}
		}
		cmd := m.list.SetItems(items)
		if m.state != stateSource {
			m.state = stateList
			if len(items) == 0 {
				m.state = stateEmpty
			}
		}
		return m, cmd

	case editorFinishedMsg:
		if msg.err != nil {
			m.logger.Error("Editor failed", "path", msg.path, "error", msg.err)
			m.layout = m.layout.SetError(msg.err)
			return m, nil
		}
		// the script may have changed on disk
		cmds := []tea.Cmd{m.loadEntries()}
		if m.state == stateSource && m.current == msg.path {
			cmds = append(cmds, m.loadSource(msg.path))
		}
		return m, tea.Batch(cmds...)

	case sourceMsg:
		if msg.err != nil {
			m.layout = m.layout.SetError(msg.err)
			return m, nil
		}
		m.current = msg.path
		m.viewport.SetContent(msg.content)
		m.viewport.GotoTop()
		m.logger.LogStateTransition("Library", "list", "source")
		m.state = stateSource
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	if m.state == stateList {
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.state {
	case stateSource:
		switch msg.String() {
		case "esc":
			m.logger.LogStateTransition("Library", "source", "list")
			m.state = stateList
			m.layout = m.layout.ClearError()
			return m, nil
		case "e":
			return m, m.openEditor(m.current)
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case stateList:
		filtering := m.list.FilterState() == list.Filtering
		switch {
		case msg.String() == "esc" && m.list.FilterState() == list.Unfiltered:
			return m, back
		case msg.String() == "enter" && !filtering:
			if it, ok := m.list.SelectedItem().(scriptItem); ok {
				m.logger.LogUserAction("library_open", it.entry.Path)
				return m, m.loadSource(it.entry.Path)
			}
			return m, nil
		case msg.String() == "e" && !filtering:
			if it, ok := m.list.SelectedItem().(scriptItem); ok {
				return m, m.openEditor(it.entry.Path)
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd

	default:
		if msg.String() == "esc" {
			return m, back
		}
	}
	return m, nil
}

func back() tea.Msg { return helpers.NavigateToMainMenuMsg{} }

func (m *Model) resize(width, height int) {
	m.layout, _ = m.layout.Update(tea.WindowSizeMsg{Width: width, Height: height})
	w := m.layout.ContentWidth()
	h := max(height-12, 3)
	m.list.SetSize(w, h)
	m.viewport.Width = w - 4
	m.viewport.Height = h
}

func (m *Model) View() string {
	switch m.state {
	case stateLoading:
		m.layout = m.layout.SetConfig(components.LayoutConfig{
			Title:    "📚 Saved animations",
			HelpText: "Esc back • Ctrl+C quit",
		})
		return m.layout.Render("Loading...")

	case stateEmpty:
		m.layout = m.layout.SetConfig(components.LayoutConfig{
			Title:    "📚 Saved animations",
			Subtitle: m.outputDir(),
			HelpText: "Esc back • Ctrl+C quit",
		})
		return m.layout.Render("No saved animations yet. `mathviz render` and the save_animation MCP tool write scripts here.")

	case stateSource:
		m.layout = m.layout.SetConfig(components.LayoutConfig{
			Title:        "📜 " + path.Base(m.current),
			Subtitle:     truncate.StringWithTail(m.current, uint(m.layout.ContentWidth()), "…"),
			Status:       fmt.Sprintf("%3.f%%", m.viewport.ScrollPercent()*100),
			HelpText:     "↑/↓ scroll • e edit • Esc back to list • Ctrl+C quit",
			Preformatted: true,
		})
		return m.layout.Render(styles.PaneFocusedStyle.Render(m.viewport.View()))

	default:
		m.layout = m.layout.SetConfig(components.LayoutConfig{
			Title:        "📚 Saved animations",
			Subtitle:     m.outputDir(),
			HelpText:     "↑/↓ navigate • Enter view source • e edit • / filter • Esc back • Ctrl+C quit",
			Preformatted: true,
		})
		return m.layout.Render(m.list.View())
	}
}

func (m *Model) outputDir() string {
	if m.config == nil {
		return ""
	}
	return strings.TrimSuffix(m.config.OutputDir, "/") + "/"
}
