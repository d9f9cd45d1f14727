package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/taskdeck/taskdeck/internal/history"
)

// RunSource supplies recent run history for the activity pane
type RunSource interface {
	Recent(limit int) ([]history.Run, error)
}

// ActivityPane shows recent run records from the history store. With no
// store configured the pane stays empty.
type ActivityPane struct {
	source RunSource
	runs   []history.Run
	scroll int
}

// NewActivityPane creates an activity pane over the given source
func NewActivityPane(source RunSource) *ActivityPane {
	return &ActivityPane{source: source}
}

// Update implements Component: re-query the store on each tick
func (p *ActivityPane) Update() bool {
	if p.source == nil {
		return false
	}
	runs, err := p.source.Recent(30)
	if err != nil {
		return false
	}
	p.runs = runs
	return true
}

// HandleKey implements Component
func (p *ActivityPane) HandleKey(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "j", "down":
		p.scroll++
	case "k", "up":
		if p.scroll > 0 {
			p.scroll--
		}
	default:
		return false
	}
	return true
}

// View implements Component
func (p *ActivityPane) View(width, height int) string {
	var b strings.Builder
	b.WriteString(sectionStyle.Width(width - 2).Render(p.renderRuns()))
	b.WriteString("\n")
	b.WriteString(statusBarStyle.Width(width).Render(" [tab]switch [j/k]scroll [q]uit "))
	return b.String()
}

func (p *ActivityPane) renderRuns() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("RECENT RUNS"))
	b.WriteString("\n")

	if len(p.runs) == 0 {
		b.WriteString(stoppedStyle.Render("  No runs recorded yet"))
		return b.String()
	}

	maxVisible := 15
	start := p.scroll
	if start >= len(p.runs) {
		start = 0
	}
	end := start + maxVisible
	if end > len(p.runs) {
		end = len(p.runs)
	}

	for _, run := range p.runs[start:end] {
		var icon string
		var style lipgloss.Style
		switch run.Status {
		case "running":
			icon = "●"
			style = runningStyle
		case "failed":
			icon = "✗"
			style = failedStyle
		default:
			icon = "○"
			style = stoppedStyle
		}

		extra := run.Reason
		if extra == "" && !run.FinishedAt.IsZero() {
			extra = "ran " + run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String()
		}
		line := fmt.Sprintf("  %s %-20s %-12s %s",
			icon, truncate(run.TaskID, 20), humanize.Time(run.StartedAt), truncate(extra, 30))
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	if len(p.runs) > maxVisible {
		b.WriteString(dimmedStyle.Render(fmt.Sprintf("  ... showing %d-%d of %d (j/k to scroll)", start+1, end, len(p.runs))))
		b.WriteString("\n")
	}

	return strings.TrimSuffix(b.String(), "\n")
}
