package supervisor

import (
	"fmt"
	"sync"
	"time"
)

// State is a task's lifecycle state
type State int

const (
	StateStopped State = iota
	StateRunning
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateFailed:
		return "failed"
	default:
		return "stopped"
	}
}

// Status is one observation of a task's lifecycle.
// PID and StartedAt are meaningful only while running; Reason only when failed.
type Status struct {
	State     State
	PID       int
	StartedAt time.Time
	Reason    string
}

// Describe renders the status for the detail panel
func (s Status) Describe() string {
	switch s.State {
	case StateRunning:
		return fmt.Sprintf("Running (PID %d)", s.PID)
	case StateFailed:
		return "Failed: " + s.Reason
	default:
		return "Stopped"
	}
}

// StatusCell holds a task's current status, shared between the owning
// runner (sole writer during a run) and the render path (reader only).
type StatusCell struct {
	mu     sync.Mutex
	status Status

	// observe, when set, is invoked with the lock held on every write.
	// Must be set before the first runner takes ownership.
	observe func(from, to State)
}

// NewStatusCell creates a cell in the stopped state
func NewStatusCell() *StatusCell {
	return &StatusCell{}
}

// Snapshot returns the current status, waiting for any in-flight write
func (c *StatusCell) Snapshot() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// TrySnapshot returns the current status without blocking. When the cell
// is contended the second result is false and the caller should reuse its
// previous frame's data instead of stalling.
func (c *StatusCell) TrySnapshot() (Status, bool) {
	if !c.mu.TryLock() {
		return Status{}, false
	}
	defer c.mu.Unlock()
	return c.status, true
}

func (c *StatusCell) setRunning(pid int) {
	c.set(Status{State: StateRunning, PID: pid, StartedAt: time.Now()})
}

func (c *StatusCell) setStopped() {
	c.set(Status{State: StateStopped})
}

func (c *StatusCell) setFailed(reason string) {
	c.set(Status{State: StateFailed, Reason: reason})
}

func (c *StatusCell) set(next Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	from := c.status.State
	c.status = next
	if c.observe != nil {
		c.observe(from, next.State)
	}
}
