package tui

import tea "github.com/charmbracelet/bubbletea"

// Component is one switchable pane hosted by the shell model. The shell
// knows nothing about what a pane shows; it only routes messages and
// stacks the rendered content between its own header and footer chrome.
type Component interface {
	// Update refreshes the pane's data on the periodic tick. True means
	// the pane changed and wants a repaint.
	Update() bool
	// HandleKey reacts to a key press. True means the key was consumed
	// and must not reach the shell's global bindings.
	HandleKey(msg tea.KeyMsg) bool
	// View renders the pane's content for the given terminal size.
	View(width, height int) string
}
