// Package tui provides the terminal user interface for mathviz.
//
// The root MainModel shows a menu and hosts one screen at a time:
//
//   - Playground: type a description and see the generated scene and its report
//   - Saved animations: browse scripts saved in the mirror's output directory
//   - Setup: rewrite the configuration with the first-run wizard
//   - Configuration: show the loaded configuration
//
// Screens are plain tea.Models. They return helpers.NavigateToMainMenuMsg to close
// themselves, and the root model owns window sizing, errors and quitting.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"gopkg.in/yaml.v3"

	"mathviz/internal/config"
	"mathviz/internal/logging"
	"mathviz/internal/pipeline"
	"mathviz/internal/tui/components"
	"mathviz/internal/tui/helpers"
	"mathviz/internal/tui/library"
	"mathviz/internal/tui/playground"
	"mathviz/internal/tui/setupmenu"
)

// AppState represents the current state of the TUI application.
type AppState int

const (
	StateMenu AppState = iota
	StateError
	StateQuitting

	StatePlayground
	StateLibrary
	StateSetup
	StateConfig
)

func (s AppState) String() string {
	switch s {
	case StateMenu:
		return "menu"
	case StateError:
		return "error"
	case StateQuitting:
		return "quitting"
	case StatePlayground:
		return "playground"
	case StateLibrary:
		return "library"
	case StateSetup:
		return "setup"
	case StateConfig:
		return "config"
	default:
		return fmt.Sprintf("AppState(%d)", int(s))
	}
}

type (
	NavigateMsg struct {
		State AppState
	}

	ErrorMsg struct {
		Err error
	}
)

type item struct {
	title       string
	description string
	state       AppState
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.description }
func (i item) FilterValue() string { return i.title }

// Option configures a MainModel.
type Option func(*MainModel)

// WithMarkdownStyle sets the glamour style for rendered reports.
func WithMarkdownStyle(style string) Option {
	return func(m *MainModel) { m.markdownStyle = style }
}

// WithPipeline replaces the default pipeline.
func WithPipeline(p *pipeline.Pipeline) Option {
	return func(m *MainModel) { m.pipeline = p }
}

// MainModel is the root model. It owns the menu, the active screen and the
// window size, and turns ErrorMsg into an error screen.
type MainModel struct {
	config    *config.Config
	logger    *logging.AppLogger
	pipeline  *pipeline.Pipeline
	state     AppState
	prevState AppState

	markdownStyle string

	menu        list.Model
	activeModel tea.Model
	layout      components.LayoutModel

	windowWidth  int
	windowHeight int

	err error
}

func NewMainModel(cfg *config.Config, logger *logging.AppLogger, opts ...Option) *MainModel {
	if logger == nil {
		logger = logging.GetDefault()
	}

	items := []list.Item{
		item{
			title:       "∑  Playground",
			description: "Describe an animation in plain language and inspect the generated Manim scene",
			state:       StatePlayground,
		},
		item{
			title:       "📚  Saved animations",
			description: "Browse scene scripts saved in the mirror",
			state:       StateLibrary,
		},
		item{
			title:       "🔧  Setup",
			description: "Choose the mirror root and archive remote",
			state:       StateSetup,
		},
		item{
			title:       "⚙️  Configuration",
			description: "Show the loaded configuration",
			state:       StateConfig,
		},
	}

	menuList := list.New(items, list.NewDefaultDelegate(), 0, 0)
	menuList.SetShowTitle(false)
	menuList.SetShowStatusBar(false)
	menuList.SetFilteringEnabled(true)
	menuList.SetShowHelp(false)

	m := &MainModel{
		config:        cfg,
		logger:        logger,
		state:         StateMenu,
		prevState:     StateMenu,
		markdownStyle: "dark",
		menu:          menuList,
		layout: components.NewLayout(components.LayoutConfig{
			MarginX:  2,
			MarginY:  1,
			MaxWidth: 100,
		}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MainModel) Init() tea.Cmd {
	m.logger.Info("MainModel initialized")
	return nil
}

func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m.layout, _ = m.layout.Update(msg)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.logger.Debug("window resize", "width", msg.Width, "height", msg.Height)
		if msg.Width <= 0 || msg.Height <= 0 {
			m.logger.Warn("Invalid window dimensions received", "width", msg.Width, "height", msg.Height)
			return m, nil
		}
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		m.menu.SetSize(msg.Width-4, msg.Height-14)
		return m, m.delegate(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.state = StateQuitting
			return m, tea.Quit
		}
		return m.handleKey(msg)

	case NavigateMsg:
		m.logger.LogStateTransition("MainModel", m.state.String(), msg.State.String())
		m.prevState = m.state
		m.state = msg.State
		m.err = nil
		m.layout = m.layout.ClearError()
		return m, nil

	case ErrorMsg:
		m.logger.Error("Application error occurred", "error", msg.Err)
		m.err = msg.Err
		m.prevState = m.state
		m.state = StateError
		m.layout = m.layout.SetError(msg.Err)
		return m, nil

	case helpers.NavigateToMainMenuMsg:
		m.logger.LogStateTransition("MainModel", m.state.String(), StateMenu.String())
		if m.state == StateSetup {
			m.reloadConfig()
		}
		return m.returnToMenu(), nil

	case list.FilterMatchesMsg:
		if m.state == StateMenu {
			var cmd tea.Cmd
			m.menu, cmd = m.menu.Update(msg)
			return m, cmd
		}
	}

	return m, m.delegate(msg)
}

func (m *MainModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.state {
	case StateMenu:
		filtering := m.menu.FilterState() == list.Filtering
		switch msg.String() {
		case "q", "esc":
			if !filtering && m.menu.FilterState() == list.Unfiltered {
				m.state = StateQuitting
				return m, tea.Quit
			}
		case "enter":
			if !filtering {
				if selected, ok := m.menu.SelectedItem().(item); ok {
					m.logger.LogUserAction("menu_selection", selected.title)
					return m.handleMenuSelection(selected)
				}
			}
		}
		var cmd tea.Cmd
		m.menu, cmd = m.menu.Update(msg)
		return m, cmd

	case StateError:
		if msg.String() == "esc" {
			m.logger.LogStateTransition("MainModel", StateError.String(), m.prevState.String())
			if m.activeModel == nil {
				m.prevState = StateMenu
			}
			m.state = m.prevState
			m.err = nil
			m.layout = m.layout.ClearError()
		}
		return m, nil

	case StateConfig:
		if msg.String() == "esc" || msg.String() == "q" {
			return m.returnToMenu(), nil
		}
		return m, nil
	}

	return m, m.delegate(msg)
}

// delegate forwards msg to the active screen, if any.
func (m *MainModel) delegate(msg tea.Msg) tea.Cmd {
	if m.activeModel == nil {
		return nil
	}
	updated, cmd := m.activeModel.Update(msg)
	m.activeModel = updated
	return cmd
}

func (m *MainModel) handleMenuSelection(selected item) (tea.Model, tea.Cmd) {
	if selected.state == StateConfig {
		return m, NavigateTo(StateConfig)
	}

	model, err := m.newScreen(selected.state)
	if err != nil {
		return m, func() tea.Msg { return ErrorMsg{Err: err} }
	}
	m.activeModel = model

	var cmds []tea.Cmd
	if cmd := model.Init(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	cmds = append(cmds, NavigateTo(selected.state))
	return m, tea.Batch(cmds...)
}

// GetUIContext creates a UI context with current dimensions and app state
func (m *MainModel) GetUIContext() helpers.UIContext {
	return helpers.NewUIContext(m.windowWidth, m.windowHeight, m.config, m.logger)
}

// newScreen always builds a fresh screen so it sees the current configuration.
func (m *MainModel) newScreen(state AppState) (tea.Model, error) {
	ctx := m.GetUIContext()

	switch state {
	case StatePlayground:
		if m.pipeline == nil {
			p, err := pipeline.Default(pipeline.WithLogger(m.logger))
			if err != nil {
				return nil, fmt.Errorf("failed to build pipeline: %w", err)
			}
			m.pipeline = p
		}
		return playground.New(ctx, m.pipeline, m.markdownStyle), nil

	case StateLibrary:
		if !ctx.HasConfig() {
			return nil, config.ErrNoConfig
		}
		return library.New(ctx), nil

	case StateSetup:
		return setupmenu.NewSetupModel(ctx), nil

	default:
		return nil, fmt.Errorf("no screen for state %s", state)
	}
}

// reloadConfig picks up a configuration written by the setup wizard.
func (m *MainModel) reloadConfig() {
	cfg, err := config.Load()
	if err != nil {
		m.logger.Debug("Configuration not reloaded", "error", err)
		return
	}
	m.logger.Info("Configuration reloaded")
	m.config = cfg
}

func (m *MainModel) returnToMenu() tea.Model {
	m.state = StateMenu
	m.activeModel = nil
	m.err = nil
	m.layout = m.layout.ClearError()
	return m
}

func (m *MainModel) View() string {
	switch m.state {
	case StateQuitting:
		m.layout = m.layout.SetConfig(components.LayoutConfig{Title: "👋 Goodbye!"})
		return m.layout.Render("Thank you for using mathviz!")
	case StateMenu:
		return m.viewMenu()
	case StateError:
		return m.viewError()
	case StateConfig:
		return m.viewConfig()
	}

	if m.activeModel != nil {
		return m.activeModel.View()
	}
	return m.viewMenu()
}

func (m *MainModel) viewMenu() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:        "∑ mathviz",
		Subtitle:     "Natural-language mathematical animations for Manim",
		HelpText:     "↑/↓ to navigate • Enter to select • / to filter • q to quit • Ctrl+C to force quit",
		Preformatted: true,
	})
	return m.layout.Render(m.menu.View())
}

func (m *MainModel) viewError() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "❌ Error",
		Subtitle: "Something went wrong",
		HelpText: "Press Esc to return • Ctrl+C to quit",
	})
	// the layout renders m.err itself
	return m.layout.Render("")
}

func (m *MainModel) viewConfig() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:        "⚙️  Configuration",
		Subtitle:     config.ConfigPath(),
		HelpText:     "Esc to return • Ctrl+C to quit",
		Preformatted: true,
	})
	if m.config == nil {
		return m.layout.Render("No configuration file. Choose Setup from the menu or run `mathviz config init`.")
	}
	data, err := yaml.Marshal(m.config)
	if err != nil {
		return m.layout.Render("failed to encode configuration: " + err.Error())
	}
	return m.layout.Render(string(data))
}

// NavigateTo returns a command that switches the root model to state.
func NavigateTo(state AppState) tea.Cmd {
	return func() tea.Msg {
		return NavigateMsg{State: state}
	}
}
