package supervisor

import "sync"

// DefaultLogLimit is the per-task line capacity when the descriptor
// does not override it.
const DefaultLogLimit = 1000

const (
	stderrPrefix = "[ERR] "
	echoPrefix   = ">>> "
)

// LogBuffer is a bounded, FIFO-evicting sequence of captured output
// lines. The owning runner appends pump output; the UI appends local
// echoes of submitted stdin; the render path reads snapshots.
type LogBuffer struct {
	mu    sync.Mutex
	lines []string
	start int // ring head once full
	count int
	cap   int
}

// NewLogBuffer creates a buffer holding at most limit lines.
// A non-positive limit falls back to DefaultLogLimit.
func NewLogBuffer(limit int) *LogBuffer {
	if limit <= 0 {
		limit = DefaultLogLimit
	}
	return &LogBuffer{
		lines: make([]string, limit),
		cap:   limit,
	}
}

// Append adds a line, evicting the oldest once at capacity
func (b *LogBuffer) Append(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.count < b.cap {
		b.lines[(b.start+b.count)%b.cap] = line
		b.count++
		return
	}
	b.lines[b.start] = line
	b.start = (b.start + 1) % b.cap
}

// AppendStderr adds a tagged stderr line
func (b *LogBuffer) AppendStderr(line string) {
	b.Append(stderrPrefix + line)
}

// Echo adds a local echo of user-submitted stdin
func (b *LogBuffer) Echo(text string) {
	b.Append(echoPrefix + text)
}

// Len returns the number of stored lines
func (b *LogBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Cap returns the configured capacity
func (b *LogBuffer) Cap() int {
	return b.cap
}

// Snapshot returns the stored lines oldest-first
func (b *LogBuffer) Snapshot() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.copyLines()
}

// TrySnapshot returns the stored lines without blocking; false means the
// buffer was contended and the caller should skip this frame's data.
func (b *LogBuffer) TrySnapshot() ([]string, bool) {
	if !b.mu.TryLock() {
		return nil, false
	}
	defer b.mu.Unlock()
	return b.copyLines(), true
}

func (b *LogBuffer) copyLines() []string {
	out := make([]string, b.count)
	for i := 0; i < b.count; i++ {
		out[i] = b.lines[(b.start+i)%b.cap]
	}
	return out
}
