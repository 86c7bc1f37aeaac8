package playground

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"

	"mathviz/internal/logging"
	"mathviz/internal/pipeline"
	"mathviz/internal/tui/helpers"
)

const gyroScenario = "Show gyroaddition of [0.3,0.4,0] and [1.1,0.2,0.5] in the Poincaré ball model"

func newTestModel(t *testing.T) *Model {
	t.Helper()
	logger, _ := logging.NewTestLogger()
	p, err := pipeline.Default(pipeline.WithLogger(logger))
	if err != nil {
		t.Fatalf("pipeline.Default() error = %v", err)
	}
	return New(helpers.NewUIContext(120, 60, nil, logger), p, "notty")
}

func TestNew(t *testing.T) {
	m := newTestModel(t)

	if !m.Validate() {
		t.Error("validation should be on by default")
	}
	if m.Result() != nil {
		t.Error("no result expected before the first run")
	}
	if m.viewport.Width <= 0 || m.viewport.Height <= 0 {
		t.Errorf("viewport not sized: %dx%d", m.viewport.Width, m.viewport.Height)
	}

	view := m.View()
	for _, want := range []string{"mathviz playground", "No animation yet", "Validation: on", "View: report"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestToggleKeys(t *testing.T) {
	m := newTestModel(t)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlV})
	if m.Validate() {
		t.Error("ctrl+v should turn validation off")
	}
	if !strings.Contains(m.View(), "Validation: off") {
		t.Error("status should show validation off")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if !m.showSource {
		t.Error("tab should switch to the source view")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.showSource {
		t.Error("tab should switch back to the report view")
	}
}

func TestEnterIgnoresEmptyInput(t *testing.T) {
	m := newTestModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("enter with no description should not start a run")
	}
	if m.running {
		t.Error("model should not be running")
	}
}

func TestEscNavigatesBack(t *testing.T) {
	m := newTestModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEscape})
	if cmd == nil {
		t.Fatal("esc should return a command")
	}
	if _, ok := cmd().(helpers.NavigateToMainMenuMsg); !ok {
		t.Error("esc should navigate to the main menu")
	}
}

func TestRunShowsReportAndSource(t *testing.T) {
	m := newTestModel(t)

	m.Update(m.run(gyroScenario)())

	res := m.Result()
	if res == nil || !res.Success {
		t.Fatalf("expected a successful result, got %+v", res)
	}
	if res.Report == nil {
		t.Error("validation was on, report expected")
	}
	if m.running {
		t.Error("running should be cleared by the result")
	}

	view := m.View()
	if !strings.Contains(view, "VECTOR_OPERATION") {
		t.Error("status should summarize the request")
	}
	if !strings.Contains(m.viewport.View(), "Request") {
		t.Error("report view should show the request section")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if !strings.Contains(m.viewport.View(), "from manim import *") {
		t.Error("source view should show the script")
	}
	if !strings.Contains(m.View(), "View: source") {
		t.Error("status should show the source view")
	}
}

func TestRunWithoutValidation(t *testing.T) {
	m := newTestModel(t)
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlV})

	m.Update(m.run(gyroScenario)())

	if m.Result().Report != nil {
		t.Error("no report expected when validation is off")
	}
}

func TestRunFailureShowsError(t *testing.T) {
	m := newTestModel(t)

	m.Update(m.run("project the square onto the plane")())

	if m.Result().Success {
		t.Fatal("expected a failed result")
	}
	if !strings.Contains(m.View(), "requires a sphere") {
		t.Error("view should show the pipeline error")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if strings.Contains(m.viewport.View(), "from manim") {
		t.Error("a failed run has no source to show")
	}
}

func TestPlaygroundInteractive(t *testing.T) {
	m := newTestModel(t)
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(120, 60))

	waitForString(t, tm, "No animation yet")

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(gyroScenario)})
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	waitForString(t, tm, "VECTOR_OPERATION")

	tm.Send(tea.KeyMsg{Type: tea.KeyTab})
	waitForString(t, tm, "View: source")

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
	final, ok := tm.FinalModel(t, teatest.WithFinalTimeout(3*time.Second)).(*Model)
	if !ok {
		t.Fatal("final model has unexpected type")
	}
	if final.Result() == nil || !final.Result().Success {
		t.Error("final model should hold the successful result")
	}
	if !final.showSource {
		t.Error("final model should be on the source view")
	}
}

func waitForString(t *testing.T, tm *teatest.TestModel, s string) {
	t.Helper()
	teatest.WaitFor(
		t,
		tm.Output(),
		func(b []byte) bool {
			return strings.Contains(string(b), s)
		},
		teatest.WithCheckInterval(time.Millisecond*100),
		teatest.WithDuration(time.Second*3),
	)
}
