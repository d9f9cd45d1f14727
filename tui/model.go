package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskdeck/taskdeck/internal/bus"
	"github.com/taskdeck/taskdeck/internal/supervisor"
)

// Model is the thin host shell: it owns the tab chrome, the notice
// lane, and the bus bridge, and routes everything else to the active
// pane. All task and history behavior lives in the Component panes.
type Model struct {
	panes     []Component
	activeTab int

	width  int
	height int

	events <-chan bus.Event

	// Footer notice lane
	statusMsg string
	statusExp time.Time
}

// ModelConfig holds initial data for the TUI model
type ModelConfig struct {
	Supervisor *supervisor.Supervisor
	History    RunSource
	Events     <-chan bus.Event
}

// NewModel creates the shell with its two panes
func NewModel(cfg ModelConfig) Model {
	return Model{
		panes: []Component{
			NewTaskPane(cfg.Supervisor),
			NewActivityPane(cfg.History),
		},
		events: cfg.Events,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		waitForEvent(m.events),
	)
}

// TickMsg triggers a periodic refresh
type TickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// BusMsg wraps one event from the shared notification bus
type BusMsg bus.Event

// waitForEvent blocks on the bus subscription; receiving any event wakes
// the program and triggers a repaint at bubbletea's own cadence.
func waitForEvent(ch <-chan bus.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return BusMsg(ev)
	}
}
