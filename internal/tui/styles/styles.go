package styles

import "github.com/charmbracelet/lipgloss"

// Shared Lip Gloss styles for the mathviz TUI. Colors are hex codes.

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff5fd2")).
			MarginBottom(1).
			PaddingLeft(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			MarginBottom(1).
			PaddingLeft(1)

	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5fd7ff")).
			Padding(0, 1)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff005f")).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ff5f")).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffaf00")).
			Bold(true)

	NormalTextStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			MarginBottom(1)

	HelpStyle = lipgloss.NewStyle().
			Faint(true).
			Foreground(lipgloss.Color("#a8a8a8")).
			MarginTop(1).
			Padding(0, 1)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5fd7ff"))

	// StatusStyle renders the one-line status bar under the viewport.
	StatusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a8a8a8")).
			PaddingLeft(1)

	// ToggleOnStyle and ToggleOffStyle mark the state of a boolean option.
	ToggleOnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ff5f"))

	ToggleOffStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	// Rounded pane around scrollable output.
	PaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5f5fff")).
			PaddingLeft(1).
			PaddingRight(1)

	// Focused pane variant that highlights the active pane.
	PaneFocusedStyle = PaneStyle.
				BorderForeground(lipgloss.Color("#ff5faf"))
)
