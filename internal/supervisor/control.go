package supervisor

// controlCap bounds the per-task mailbox. Sends are best-effort: a burst
// beyond the capacity drops the newest message rather than blocking the
// UI loop that issued it.
const controlCap = 32

type controlKind int

const (
	ctrlStdin controlKind = iota
	ctrlStop
)

type controlMsg struct {
	kind controlKind
	text string
}

// ControlSender is the supervisor-side handle of a running task's
// mailbox. It exists only while a runner owns the task's execution.
type ControlSender struct {
	ch chan<- controlMsg
}

// SendStdin forwards text to the child's stdin. Returns false if the
// mailbox is full and the message was dropped.
func (s *ControlSender) SendStdin(text string) bool {
	return s.trySend(controlMsg{kind: ctrlStdin, text: text})
}

// SendStop requests termination of the running child. Returns false if
// the mailbox is full and the request was dropped.
func (s *ControlSender) SendStop() bool {
	return s.trySend(controlMsg{kind: ctrlStop})
}

func (s *ControlSender) trySend(msg controlMsg) bool {
	select {
	case s.ch <- msg:
		return true
	default:
		return false
	}
}
