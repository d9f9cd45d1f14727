package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskdeck/taskdeck/internal/bus"
)

// Update handles messages. Keys go to the active pane first; only keys
// the pane declines reach the shell's global bindings, so a pane in a
// capture mode (the log view's stdin compose line) keeps the whole
// keyboard except ctrl+c.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.panes[m.activeTab].HandleKey(msg) {
			return m, nil
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % len(m.panes)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case TickMsg:
		m.panes[m.activeTab].Update()
		return m, tickCmd()

	case BusMsg:
		if msg.Kind == bus.KindNotify {
			m.statusMsg = msg.Text
			m.statusExp = time.Now().Add(5 * time.Second)
		}
		// A redraw event needs nothing beyond waking the program
		return m, waitForEvent(m.events)
	}

	return m, nil
}
