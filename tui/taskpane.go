package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/taskdeck/taskdeck/internal/supervisor"
)

// ViewMode determines what the task pane displays
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewLog
)

// TaskPane is the supervisor-facing pane: a task list with a detail
// panel, and a full log view with a stdin compose line for the selected
// task. All supervisor interaction of the TUI lives here.
type TaskPane struct {
	sup        *supervisor.Supervisor
	viewMode   ViewMode
	selected   int
	logScroll  int
	stdinInput string
}

// NewTaskPane creates a task pane in list mode
func NewTaskPane(sup *supervisor.Supervisor) *TaskPane {
	return &TaskPane{sup: sup}
}

// Update implements Component; task state is read live at render time
func (p *TaskPane) Update() bool {
	return false
}

// HandleKey implements Component
func (p *TaskPane) HandleKey(msg tea.KeyMsg) bool {
	if p.viewMode == ViewLog {
		p.handleLogKey(msg)
		// The log view owns the whole keyboard: printable characters
		// belong to the stdin buffer, so nothing falls through.
		return true
	}
	return p.handleListKey(msg)
}

func (p *TaskPane) handleListKey(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "j", "down":
		if n := p.sup.Len(); n > 0 {
			p.selected = (p.selected + 1) % n
		}
	case "k", "up":
		if n := p.sup.Len(); n > 0 {
			p.selected = (p.selected + n - 1) % n
		}
	case "x":
		if p.sup.Len() > 0 {
			p.sup.Toggle(p.selected)
		}
	case "enter":
		if p.sup.Len() > 0 {
			p.viewMode = ViewLog
			p.logScroll = 0
		}
	default:
		return false
	}
	return true
}

func (p *TaskPane) handleLogKey(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyEsc:
		p.viewMode = ViewList
		p.stdinInput = ""
		p.logScroll = 0
	case tea.KeyEnter:
		if p.stdinInput != "" {
			p.sup.SendStdin(p.selected, p.stdinInput)
			p.stdinInput = ""
		}
	case tea.KeyBackspace:
		if runes := []rune(p.stdinInput); len(runes) > 0 {
			p.stdinInput = string(runes[:len(runes)-1])
		}
	case tea.KeyUp:
		p.logScroll++
	case tea.KeyDown:
		if p.logScroll > 0 {
			p.logScroll--
		}
	case tea.KeySpace:
		p.stdinInput += " "
	case tea.KeyRunes:
		p.stdinInput += string(msg.Runes)
	}
}

// View implements Component
func (p *TaskPane) View(width, height int) string {
	if p.viewMode == ViewLog {
		return p.renderLogView(width, height)
	}

	runtimes := p.sup.Runtimes()

	var b strings.Builder
	b.WriteString(sectionStyle.Width(width - 2).Render(p.renderTaskList(runtimes)))
	b.WriteString("\n")
	b.WriteString(sectionStyle.Width(width - 2).Render(p.renderTaskDetail(runtimes)))
	b.WriteString("\n")
	b.WriteString(statusBarStyle.Width(width).Render(" [tab]switch [j/k]navigate [x]start/stop [enter]logs [q]uit "))
	return b.String()
}

func (p *TaskPane) renderTaskList(runtimes []*supervisor.TaskRuntime) string {
	running := 0
	for _, rt := range runtimes {
		if st, ok := rt.Status.TrySnapshot(); ok && st.State == supervisor.StateRunning {
			running++
		}
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("TASKS (%d, %d running)", len(runtimes), running)))
	b.WriteString("\n")

	if len(runtimes) == 0 {
		b.WriteString(stoppedStyle.Render("  No tasks declared"))
		return b.String()
	}

	for i, rt := range runtimes {
		icon, style := statusBadge(rt)

		line := fmt.Sprintf("  %s %-24s %s",
			icon, truncate(rt.Desc.DisplayName(), 24), groupStyle.Render(rt.Desc.Group))

		if i == p.selected {
			line = "> " + line[2:]
			b.WriteString(tabActiveStyle.Render(line))
		} else {
			b.WriteString(style.Render(line))
		}
		b.WriteString("\n")
	}

	return strings.TrimSuffix(b.String(), "\n")
}

func (p *TaskPane) renderTaskDetail(runtimes []*supervisor.TaskRuntime) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("DETAIL"))
	b.WriteString("\n")

	if p.selected < 0 || p.selected >= len(runtimes) {
		b.WriteString(stoppedStyle.Render("  Nothing selected"))
		return b.String()
	}
	rt := runtimes[p.selected]

	// Skip this frame's data if the owning runner holds the cell
	st, ok := rt.Status.TrySnapshot()
	if !ok {
		b.WriteString(stoppedStyle.Render("  ..."))
		return b.String()
	}

	var statusLine string
	var style lipgloss.Style
	switch st.State {
	case supervisor.StateRunning:
		statusLine = fmt.Sprintf("Running (PID %d, started %s)", st.PID, humanize.Time(st.StartedAt))
		style = runningStyle
	case supervisor.StateFailed:
		statusLine = "Failed: " + st.Reason
		style = failedStyle
	default:
		statusLine = "Stopped"
		style = stoppedStyle
	}

	b.WriteString(fmt.Sprintf("  Status:  %s\n", style.Render(statusLine)))
	b.WriteString(fmt.Sprintf("  Command: %s\n", rt.Desc.CommandLine()))
	if rt.Desc.Cwd != "" {
		b.WriteString(fmt.Sprintf("  Cwd:     %s\n", rt.Desc.Cwd))
	}
	if rt.Desc.Group != "" {
		b.WriteString(fmt.Sprintf("  Group:   %s\n", rt.Desc.Group))
	}
	if rt.Desc.RestartPolicy != "" {
		b.WriteString(fmt.Sprintf("  Restart: %s\n", rt.Desc.RestartPolicy))
	}
	if rt.Desc.Schedule != "" {
		b.WriteString(fmt.Sprintf("  Cron:    %s\n", rt.Desc.Schedule))
	}
	b.WriteString("\n")
	b.WriteString(stoppedStyle.Render("  [x]start/stop [enter]open log"))

	return b.String()
}

// renderLogView draws the selected task's full log above a one-line
// stdin input box.
func (p *TaskPane) renderLogView(width, height int) string {
	var b strings.Builder

	rt := p.sup.Runtime(p.selected)
	if rt == nil {
		return "No task selected"
	}

	title := fmt.Sprintf(" LOG: %s ", rt.Desc.DisplayName())
	b.WriteString(headerStyle.Width(width).Render(title))
	b.WriteString("\n")

	// Skip this frame's lines if the pump holds the buffer; the next
	// redraw event repaints almost immediately.
	lines, ok := rt.Logs.TrySnapshot()
	if !ok {
		lines = nil
	}

	maxLines := height - 6
	if maxLines < 3 {
		maxLines = 3
	}

	// logScroll counts lines scrolled up from the tail
	total := len(lines)
	scroll := p.logScroll
	if scroll > total-maxLines {
		scroll = total - maxLines
	}
	if scroll < 0 {
		scroll = 0
	}
	end := total - scroll
	start := end - maxLines
	if start < 0 {
		start = 0
	}

	if start > 0 {
		b.WriteString(dimmedStyle.Render(fmt.Sprintf("  ↑ (%d more above)", start)))
		b.WriteString("\n")
	}
	for _, line := range lines[start:end] {
		if strings.HasPrefix(line, "[ERR] ") {
			b.WriteString(warningStyle.Render(truncate(line, width-2)))
		} else if strings.HasPrefix(line, ">>> ") {
			b.WriteString(groupStyle.Render(truncate(line, width-2)))
		} else {
			b.WriteString(truncate(line, width-2))
		}
		b.WriteString("\n")
	}
	if end < total {
		b.WriteString(dimmedStyle.Render(fmt.Sprintf("  ↓ (%d more below)", total-end)))
		b.WriteString("\n")
	}

	input := fmt.Sprintf("> %s█", p.stdinInput)
	b.WriteString(inputStyle.Width(width - 2).Render(input))
	b.WriteString("\n")
	b.WriteString(statusBarStyle.Width(width).Render(" [esc]back [enter]send stdin [↑/↓]scroll "))

	return b.String()
}
