// Package components holds view building blocks shared by the TUI screens.
package components

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"mathviz/internal/tui/styles"
)

const (
	minContentWidth = 40
	minInputWidth   = 30
	maxInputWidth   = 80
)

// LayoutConfig describes the frame drawn around a screen's content.
type LayoutConfig struct {
	Title    string
	Subtitle string
	HelpText string
	// Status is a single line rendered between the content and the help text.
	Status   string
	MarginX  int
	MarginY  int
	MaxWidth int
	// Preformatted content is rendered as is. Use it for output that is already
	// wrapped, such as a viewport or rendered markdown.
	Preformatted bool
}

// LayoutModel frames content with a title block, an error line and help text,
// sized to the last window size it saw. Screens own one by value.
type LayoutModel struct {
	config LayoutConfig
	width  int
	height int
	err    error
}

func NewLayout(config LayoutConfig) LayoutModel {
	return LayoutModel{}.SetConfig(config)
}

func (m LayoutModel) Update(msg tea.Msg) (LayoutModel, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.width, m.height = size.Width, size.Height
	}
	return m, nil
}

// SetConfig replaces the configuration. Zero margins and width keep the current
// values, or the defaults on a fresh layout.
func (m LayoutModel) SetConfig(config LayoutConfig) LayoutModel {
	config.MarginX = firstPositive(config.MarginX, m.config.MarginX, 2)
	config.MarginY = firstPositive(config.MarginY, m.config.MarginY, 1)
	config.MaxWidth = firstPositive(config.MaxWidth, m.config.MaxWidth, 100)
	m.config = config
	return m
}

// SetError shows err under the content until ClearError. A nil err is ignored.
func (m LayoutModel) SetError(err error) LayoutModel {
	if err != nil {
		m.err = err
	}
	return m
}

func (m LayoutModel) ClearError() LayoutModel {
	m.err = nil
	return m
}

func (m LayoutModel) GetError() error {
	return m.err
}

type section struct {
	text  string
	style lipgloss.Style
	wrap  bool
}

// Render frames content. Sections are separated by a blank line and empty ones
// are skipped.
func (m LayoutModel) Render(content string) string {
	width := m.ContentWidth()

	var errText string
	if m.err != nil {
		errText = "Error: " + m.err.Error()
	}

	sections := []section{
		{m.config.Title, styles.TitleStyle, true},
		{m.config.Subtitle, styles.SubtitleStyle, true},
		{content, styles.NormalTextStyle, true},
		{m.config.Status, styles.StatusStyle, false},
		{errText, styles.ErrorStyle, true},
		{m.config.HelpText, styles.HelpStyle, true},
	}
	if m.config.Preformatted {
		sections[2] = section{text: content, style: lipgloss.NewStyle()}
	}

	rendered := make([]string, 0, len(sections))
	for _, s := range sections {
		if s.text == "" {
			continue
		}
		text := s.text
		if s.wrap {
			text = wrap(text, width)
		}
		rendered = append(rendered, s.style.Render(text))
	}

	return m.frame(strings.Join(rendered, "\n\n"))
}

// wrap word-wraps each line of text to width, trimming stray indentation and
// keeping blank lines.
func wrap(text string, width int) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = wordwrap.String(strings.TrimSpace(line), width)
	}
	return strings.Join(lines, "\n")
}

func (m LayoutModel) frame(body string) string {
	pad := strings.Repeat(" ", m.config.MarginX)
	lines := strings.Split(body, "\n")
	for i := range lines {
		lines[i] = pad + lines[i]
	}
	vertical := strings.Repeat("\n", m.config.MarginY)
	return vertical + strings.Join(lines, "\n") + vertical
}

// ContentWidth is the usable width inside the margins, between the minimum
// readable width and MaxWidth.
func (m LayoutModel) ContentWidth() int {
	return clamp(m.width-2*m.config.MarginX, minContentWidth, m.config.MaxWidth)
}

// InputWidth is the width for text inputs, clamped to a readable range.
func (m LayoutModel) InputWidth() int {
	return clamp(m.ContentWidth()-8, minInputWidth, maxInputWidth)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func firstPositive(vals ...int) int {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}
