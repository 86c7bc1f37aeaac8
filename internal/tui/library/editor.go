package library

import (
	"errors"
	"os"
	"os/exec"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"mathviz/internal/storage"
)

type editorFinishedMsg struct {
	path string
	err  error
}

// editorCommand builds the command that opens path in the user's editor.
// Uses $EDITOR, or falls back to nano/vi.
func editorCommand(path string) (*exec.Cmd, error) {
	editor := strings.Fields(os.Getenv("EDITOR"))
	if len(editor) == 0 {
		for _, fallback := range []string{"nano", "vi"} {
			if _, err := exec.LookPath(fallback); err == nil {
				editor = []string{fallback}
				break
			}
		}
	}
	if len(editor) == 0 {
		return nil, errors.New("no editor found, set $EDITOR")
	}
	return exec.Command(editor[0], append(editor[1:], path)...), nil
}

// openEditor suspends the program while the editor runs on the script at p.
func (m *Model) openEditor(p string) tea.Cmd {
	var abs string
	err := m.withMirror(func(mirror *storage.Mirror) error {
		var err error
		abs, err = mirror.Abs(p)
		return err
	})
	var cmd *exec.Cmd
	if err == nil {
		cmd, err = editorCommand(abs)
	}
	if err != nil {
		return func() tea.Msg { return editorFinishedMsg{path: p, err: err} }
	}

	m.logger.LogUserAction("library_edit", p)
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return editorFinishedMsg{path: p, err: err}
	})
}
