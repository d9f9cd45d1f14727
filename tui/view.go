package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/taskdeck/taskdeck/internal/supervisor"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("255")).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	runningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	stoppedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	failedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("255"))

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Underline(true)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("244"))

	groupStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	dimmedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	inputStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

var tabNames = []string{"Tasks", "Activity"}

// View renders the shell chrome around the active pane
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(headerStyle.Width(m.width).Render(" taskdeck "))
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n")

	b.WriteString(m.panes[m.activeTab].View(m.width, m.height-3))

	if m.statusMsg != "" && time.Now().Before(m.statusExp) {
		b.WriteString("\n")
		b.WriteString(warningStyle.Width(m.width).Render(fmt.Sprintf(" %s ", m.statusMsg)))
	}

	return b.String()
}

func (m Model) renderTabs() string {
	var parts []string
	for i, tab := range tabNames {
		if i == m.activeTab {
			parts = append(parts, tabActiveStyle.Render(fmt.Sprintf(" %s ", tab)))
		} else {
			parts = append(parts, tabInactiveStyle.Render(fmt.Sprintf(" %s ", tab)))
		}
	}
	return strings.Join(parts, "│")
}

func statusBadge(rt *supervisor.TaskRuntime) (string, lipgloss.Style) {
	st, ok := rt.Status.TrySnapshot()
	if !ok {
		return "○", stoppedStyle
	}
	switch st.State {
	case supervisor.StateRunning:
		return "●", runningStyle
	case supervisor.StateFailed:
		return "✗", failedStyle
	default:
		return "○", stoppedStyle
	}
}

// truncate shortens s to at most max runes. Log lines carry arbitrary
// child output, so cutting must never split a multibyte sequence.
func truncate(s string, max int) string {
	if max < 4 {
		max = 4
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
