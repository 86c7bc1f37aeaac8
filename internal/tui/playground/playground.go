// Package playground is the interactive screen for trying descriptions.
//
// The user types a description and presses Enter. The pipeline runs in a command so
// the UI stays responsive, and the result is shown in a scrollable viewport either
// as the rendered markdown report or as the raw scene source.
//
// Keys:
//   - enter: run the pipeline on the current description
//   - tab: switch between the report and the source
//   - ctrl+v: toggle the accuracy checks for the next run
//   - pgup/pgdown, up/down: scroll the output
//   - esc: leave the playground
//   - ctrl+c: quit
package playground

import (
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"mathviz/internal/logging"
	"mathviz/internal/pipeline"
	"mathviz/internal/report"
	"mathviz/internal/tui/components"
	"mathviz/internal/tui/helpers"
	"mathviz/internal/tui/styles"
)

const (
	placeholder = "Show gyroaddition of [0.3,0.4,0] and [1.1,0.2,0.5] in the Poincaré ball model"
	charLimit   = 1000

	// rows taken by everything except the viewport
	chromeHeight = 14
)

// resultMsg carries a finished pipeline run back to Update.
type resultMsg struct {
	description string
	result      pipeline.Result
	rendered    string
	renderErr   error
	elapsed     time.Duration
}

// Model is the playground screen.
type Model struct {
	logger   *logging.AppLogger
	pipeline *pipeline.Pipeline
	style    string

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	layout   components.LayoutModel

	validate   bool
	showSource bool
	running    bool

	description string
	result      *pipeline.Result
	rendered    string
	elapsed     time.Duration
}

// New creates the playground. style is the glamour style used for reports.
func New(ctx helpers.UIContext, p *pipeline.Pipeline, style string) *Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = charLimit
	ti.Prompt = "› "
	ti.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.SpinnerStyle))

	layout := components.NewLayout(components.LayoutConfig{
		MarginX:  2,
		MarginY:  1,
		MaxWidth: 120,
	})

	logger := ctx.Logger
	if logger == nil {
		logger = logging.GetDefault()
	}

	m := &Model{
		logger:   logger,
		pipeline: p,
		style:    style,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		layout:   layout,
		validate: true,
	}
	if ctx.HasValidDimensions() {
		m.resize(ctx.Width, ctx.Height)
	}
	return m
}

func (m *Model) Init() tea.Cmd {
	m.logger.Info("Playground initialized")
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m.logger.LogMessage(msg)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case resultMsg:
		return m.handleResult(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "esc":
		m.logger.LogUserAction("playground_leave", "")
		return m, func() tea.Msg { return helpers.NavigateToMainMenuMsg{} }

	case "enter":
		description := strings.TrimSpace(m.input.Value())
		if m.running || description == "" {
			return m, nil
		}
		m.logger.LogUserAction("playground_submit", description)
		m.running = true
		m.layout = m.layout.ClearError()
		return m, tea.Batch(m.spinner.Tick, m.run(description))

	case "tab":
		m.showSource = !m.showSource
		m.refreshViewport()
		return m, nil

	case "ctrl+v":
		m.validate = !m.validate
		m.logger.LogUserAction("playground_toggle_validation", onOff(m.validate))
		return m, nil

	case "pgup", "pgdown", "up", "down":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// run processes description off the UI loop and renders the report for the
// current viewport width.
func (m *Model) run(description string) tea.Cmd {
	p, validate, style, width := m.pipeline, m.validate, m.style, m.viewport.Width
	return func() tea.Msg {
		start := time.Now()
		res := p.Process(description, validate)
		rendered, err := report.RenderTerminal(report.Markdown(res), style, width)
		return resultMsg{
			description: description,
			result:      res,
			rendered:    rendered,
			renderErr:   err,
			elapsed:     time.Since(start),
		}
	}
}

func (m *Model) handleResult(msg resultMsg) (tea.Model, tea.Cmd) {
	m.running = false
	m.description = msg.description
	m.result = &msg.result
	m.elapsed = msg.elapsed

	m.rendered = msg.rendered
	if msg.renderErr != nil {
		m.logger.Warn("Report rendering failed, showing markdown", "error", msg.renderErr)
		m.rendered = report.Markdown(msg.result)
	}
	if !msg.result.Success {
		m.layout = m.layout.SetError(errors.New(msg.result.Error))
	}

	m.refreshViewport()
	return m, nil
}

func (m *Model) refreshViewport() {
	if m.result == nil {
		return
	}
	if m.showSource && m.result.Success {
		m.viewport.SetContent(m.result.SourceText)
	} else {
		m.viewport.SetContent(m.rendered)
	}
	m.viewport.GotoTop()
}

func (m *Model) resize(width, height int) {
	m.layout, _ = m.layout.Update(tea.WindowSizeMsg{Width: width, Height: height})
	m.input.Width = m.layout.InputWidth()

	m.viewport.Width = m.layout.ContentWidth() - 4 // pane border and padding
	m.viewport.Height = max(height-chromeHeight, 3)
	m.refreshViewport()
}

func (m *Model) View() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:        "∑ mathviz playground",
		Subtitle:     "Describe a mathematical animation in plain language",
		HelpText:     "Enter to generate • Tab report/source • Ctrl+V validation • PgUp/PgDn scroll • Esc back • Ctrl+C quit",
		Status:       m.status(),
		Preformatted: true,
	})

	var b strings.Builder
	b.WriteString(styles.InputStyle.Render(m.input.View()))
	b.WriteString("\n\n")

	switch {
	case m.running:
		b.WriteString(m.spinner.View() + " Generating...")
	case m.result != nil:
		b.WriteString(styles.PaneStyle.Render(m.viewport.View()))
	default:
		b.WriteString(styles.SubtitleStyle.Render("No animation yet. Type a description and press Enter."))
	}

	return m.layout.Render(b.String())
}

func (m *Model) status() string {
	parts := []string{
		"Validation: " + toggle(m.validate),
		"View: " + m.viewName(),
	}
	if m.result != nil {
		summary := strings.SplitN(report.Summary(*m.result, 0), "\n", 2)[0]
		if m.result.Success {
			summary = styles.SuccessStyle.Render("✓ ") + summary
		}
		parts = append(parts, summary, m.elapsed.Round(time.Millisecond).String())
	}
	return strings.Join(parts, " • ")
}

func (m *Model) viewName() string {
	if m.showSource {
		return "source"
	}
	return "report"
}

// Result returns the last pipeline result, or nil before the first run.
func (m *Model) Result() *pipeline.Result {
	return m.result
}

// Validate reports whether the next run includes the accuracy checks.
func (m *Model) Validate() bool {
	return m.validate
}

func toggle(on bool) string {
	if on {
		return styles.ToggleOnStyle.Render("on")
	}
	return styles.ToggleOffStyle.Render("off")
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
