package tui

import (
	"strings"
	"testing"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskdeck/taskdeck/internal/bus"
	"github.com/taskdeck/taskdeck/internal/supervisor"
	"github.com/taskdeck/taskdeck/internal/task"
)

func newTestModel(t *testing.T, descs ...task.Descriptor) Model {
	t.Helper()
	events := bus.New()
	sup := supervisor.New(supervisor.Options{
		Tasks: descs,
		Bus:   events,
	})
	t.Cleanup(sup.Close)

	model := NewModel(ModelConfig{
		Supervisor: sup,
		Events:     events.Subscribe(),
	})
	model.width = 100
	model.height = 40
	return model
}

// taskPane digs the supervisor pane out of the shell; panes are
// pointers, so the reference stays valid across model copies.
func taskPane(m Model) *TaskPane {
	return m.panes[0].(*TaskPane)
}

func activityPane(m Model) *ActivityPane {
	return m.panes[1].(*ActivityPane)
}

func threeTasks() []task.Descriptor {
	return []task.Descriptor{
		{ID: "build", Name: "Build", Command: "true", Group: "Dev"},
		{ID: "serve", Name: "Serve", Command: "true", Group: "Dev"},
		{ID: "lint", Name: "Lint", Command: "true", Group: "CI"},
	}
}

func TestNewModel(t *testing.T) {
	model := newTestModel(t, threeTasks()...)

	if model.activeTab != 0 {
		t.Errorf("activeTab = %d, want 0", model.activeTab)
	}
	if len(model.panes) != 2 {
		t.Fatalf("pane count = %d, want 2", len(model.panes))
	}
	tp := taskPane(model)
	if tp.viewMode != ViewList {
		t.Errorf("viewMode = %v, want ViewList", tp.viewMode)
	}
	if tp.sup.Len() != 3 {
		t.Errorf("task count = %d, want 3", tp.sup.Len())
	}
}

func TestModel_SelectionWrapsAround(t *testing.T) {
	model := newTestModel(t, threeTasks()...)

	// Down past the end wraps to the top
	for i := 0; i < 3; i++ {
		newModel, _ := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
		model = newModel.(Model)
	}
	if taskPane(model).selected != 0 {
		t.Errorf("after 3x j: selected = %d, want 0", taskPane(model).selected)
	}

	// Up from the top wraps to the bottom
	newModel, _ := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k")})
	model = newModel.(Model)
	if taskPane(model).selected != 2 {
		t.Errorf("after k from top: selected = %d, want 2", taskPane(model).selected)
	}
}

func TestModel_TabSwitching(t *testing.T) {
	model := newTestModel(t, threeTasks()...)

	newModel, _ := model.Update(tea.KeyMsg{Type: tea.KeyTab})
	model = newModel.(Model)
	if model.activeTab != 1 {
		t.Errorf("after tab: activeTab = %d, want 1", model.activeTab)
	}

	newModel, _ = model.Update(tea.KeyMsg{Type: tea.KeyTab})
	model = newModel.(Model)
	if model.activeTab != 0 {
		t.Errorf("after wrap: activeTab = %d, want 0", model.activeTab)
	}
}

func TestModel_KeysRouteToActivePane(t *testing.T) {
	model := newTestModel(t, threeTasks()...)

	// On the Activity tab, j scrolls the activity pane and leaves the
	// task selection alone.
	newModel, _ := model.Update(tea.KeyMsg{Type: tea.KeyTab})
	model = newModel.(Model)
	newModel, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	model = newModel.(Model)

	if activityPane(model).scroll != 1 {
		t.Errorf("activity scroll = %d, want 1", activityPane(model).scroll)
	}
	if taskPane(model).selected != 0 {
		t.Errorf("task selection moved to %d while the activity pane was active", taskPane(model).selected)
	}
}

func TestModel_EnterOpensLogView(t *testing.T) {
	model := newTestModel(t, threeTasks()...)

	newModel, _ := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	model = newModel.(Model)
	if taskPane(model).viewMode != ViewLog {
		t.Fatalf("viewMode = %v, want ViewLog", taskPane(model).viewMode)
	}

	// Esc returns to the list and clears the input buffer
	taskPane(model).stdinInput = "half-typed"
	newModel, _ = model.Update(tea.KeyMsg{Type: tea.KeyEsc})
	model = newModel.(Model)
	if taskPane(model).viewMode != ViewList {
		t.Errorf("viewMode = %v, want ViewList", taskPane(model).viewMode)
	}
	if taskPane(model).stdinInput != "" {
		t.Errorf("stdinInput = %q, want empty", taskPane(model).stdinInput)
	}
}

func TestModel_EnterWithoutTasksStaysInList(t *testing.T) {
	model := newTestModel(t)

	newModel, _ := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	model = newModel.(Model)
	if taskPane(model).viewMode != ViewList {
		t.Errorf("viewMode = %v, want ViewList with no tasks", taskPane(model).viewMode)
	}
}

func TestModel_LogInputEditing(t *testing.T) {
	model := newTestModel(t, threeTasks()...)
	taskPane(model).viewMode = ViewLog

	for _, r := range "ls -la" {
		var msg tea.KeyMsg
		if r == ' ' {
			msg = tea.KeyMsg{Type: tea.KeySpace}
		} else {
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
		}
		newModel, _ := model.Update(msg)
		model = newModel.(Model)
	}
	if taskPane(model).stdinInput != "ls -la" {
		t.Fatalf("stdinInput = %q, want %q", taskPane(model).stdinInput, "ls -la")
	}

	newModel, _ := model.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	model = newModel.(Model)
	if taskPane(model).stdinInput != "ls -l" {
		t.Errorf("after backspace: stdinInput = %q, want %q", taskPane(model).stdinInput, "ls -l")
	}

	// q is a printable character here, not a quit binding
	newModel, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	model = newModel.(Model)
	if cmd != nil {
		t.Error("q in log view should not quit")
	}
	if taskPane(model).stdinInput != "ls -lq" {
		t.Errorf("stdinInput = %q, want %q", taskPane(model).stdinInput, "ls -lq")
	}
}

func TestModel_LogViewConsumesTabKey(t *testing.T) {
	model := newTestModel(t, threeTasks()...)
	taskPane(model).viewMode = ViewLog

	newModel, _ := model.Update(tea.KeyMsg{Type: tea.KeyTab})
	model = newModel.(Model)
	if model.activeTab != 0 {
		t.Errorf("activeTab = %d; tab must not switch panes while composing stdin", model.activeTab)
	}
}

func TestModel_LogScrollKeys(t *testing.T) {
	model := newTestModel(t, threeTasks()...)
	taskPane(model).viewMode = ViewLog

	newModel, _ := model.Update(tea.KeyMsg{Type: tea.KeyUp})
	model = newModel.(Model)
	if taskPane(model).logScroll != 1 {
		t.Errorf("after up: logScroll = %d, want 1", taskPane(model).logScroll)
	}

	newModel, _ = model.Update(tea.KeyMsg{Type: tea.KeyDown})
	model = newModel.(Model)
	newModel, _ = model.Update(tea.KeyMsg{Type: tea.KeyDown})
	model = newModel.(Model)
	if taskPane(model).logScroll != 0 {
		t.Errorf("logScroll = %d, should clamp at 0", taskPane(model).logScroll)
	}
}

func TestModel_EnterSendsStdinAndClearsBuffer(t *testing.T) {
	model := newTestModel(t, threeTasks()...)
	taskPane(model).viewMode = ViewLog
	taskPane(model).stdinInput = "hello"

	// Task is not running, so the send is dropped; the buffer still clears
	newModel, _ := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	model = newModel.(Model)
	if taskPane(model).stdinInput != "" {
		t.Errorf("stdinInput = %q, want empty after enter", taskPane(model).stdinInput)
	}
}

func TestModel_BusNotifySetsStatusMessage(t *testing.T) {
	model := newTestModel(t, threeTasks()...)

	newModel, _ := model.Update(BusMsg{Kind: bus.KindNotify, Level: bus.LevelWarning, Text: "serve exited: exit code 1"})
	model = newModel.(Model)
	if model.statusMsg != "serve exited: exit code 1" {
		t.Errorf("statusMsg = %q", model.statusMsg)
	}
}

func TestModel_ViewListsTasks(t *testing.T) {
	model := newTestModel(t, threeTasks()...)

	out := model.View()
	for _, want := range []string{"TASKS", "Build", "Serve", "Lint"} {
		if !strings.Contains(out, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestModel_ViewLogShowsInputBuffer(t *testing.T) {
	model := newTestModel(t, threeTasks()...)
	taskPane(model).viewMode = ViewLog
	taskPane(model).stdinInput = "echo hi"

	out := model.View()
	if !strings.Contains(out, "echo hi") {
		t.Error("log view should show the composed input buffer")
	}
	if !strings.Contains(out, "LOG: Build") {
		t.Error("log view should name the selected task")
	}
}

func TestTruncate_MultibyteSafe(t *testing.T) {
	tests := []struct {
		input string
		max   int
		want  string
	}{
		{"short", 24, "short"},
		{"exactly-four", 12, "exactly-four"},
		{"abcdefghij", 8, "abcde..."},
		{"日本語のログ行です", 6, "日本語..."},
		{"naïve café output naïve café", 10, "naïve c..."},
	}

	for _, tt := range tests {
		got := truncate(tt.input, tt.max)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) produced invalid UTF-8: %q", tt.input, tt.max, got)
		}
	}
}
