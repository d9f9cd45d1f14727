package supervisor

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/taskdeck/taskdeck/internal/bus"
	"github.com/taskdeck/taskdeck/internal/notify"
	"github.com/taskdeck/taskdeck/internal/task"
)

// TaskRuntime is the aggregate held per task: the immutable descriptor
// plus the cells shared with the owning runner. Control is non-nil only
// while a runner owns the task's execution; it is cleared once the
// runner has fully exited and the process is reaped.
type TaskRuntime struct {
	Desc   task.Descriptor
	Status *StatusCell
	Logs   *LogBuffer

	control *ControlSender
}

// Options configures a Supervisor
type Options struct {
	Tasks           []task.Descriptor
	Bus             *bus.Bus
	Notifier        notify.Notifier
	History         RunRecorder
	DefaultLogLimit int
	RestartCooldown time.Duration
}

// Supervisor owns the task collection, starts and stops runners, and
// publishes redraw events. All methods are safe for concurrent use.
type Supervisor struct {
	mu       sync.Mutex
	runtimes []*TaskRuntime
	index    map[string]int

	events   *bus.Bus
	notifier notify.Notifier
	history  RunRecorder
	logLimit int
	cooldown time.Duration

	cron *cron.Cron
	wg   sync.WaitGroup
}

// New builds a supervisor with every task in the stopped state
func New(opts Options) *Supervisor {
	events := opts.Bus
	if events == nil {
		events = bus.New()
	}
	logLimit := opts.DefaultLogLimit
	if logLimit <= 0 {
		logLimit = DefaultLogLimit
	}
	cooldown := opts.RestartCooldown
	if cooldown <= 0 {
		cooldown = 2 * time.Second
	}

	s := &Supervisor{
		index:    make(map[string]int),
		events:   events,
		notifier: opts.Notifier,
		history:  opts.History,
		logLimit: logLimit,
		cooldown: cooldown,
	}
	for _, d := range opts.Tasks {
		s.addLocked(d)
	}
	return s
}

func (s *Supervisor) addLocked(d task.Descriptor) bool {
	if _, exists := s.index[d.ID]; exists {
		return false
	}
	limit := d.LogLimit
	if limit <= 0 {
		limit = s.logLimit
	}
	s.index[d.ID] = len(s.runtimes)
	s.runtimes = append(s.runtimes, &TaskRuntime{
		Desc:   d,
		Status: NewStatusCell(),
		Logs:   NewLogBuffer(limit),
	})
	return true
}

// Len returns the number of managed tasks
func (s *Supervisor) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runtimes)
}

// Runtime returns the runtime at index i, or nil when out of range
func (s *Supervisor) Runtime(i int) *TaskRuntime {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.runtimes) {
		return nil
	}
	return s.runtimes[i]
}

// Runtimes returns a snapshot of the runtime list
func (s *Supervisor) Runtimes() []*TaskRuntime {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*TaskRuntime, len(s.runtimes))
	copy(out, s.runtimes)
	return out
}

// Toggle starts the task at index i, or requests a stop when a runner
// currently owns it (running, or cooling down before a restart).
func (s *Supervisor) Toggle(i int) {
	s.mu.Lock()
	rt := s.runtimeLocked(i)
	if rt == nil {
		s.mu.Unlock()
		return
	}
	if rt.control != nil {
		rt.control.SendStop()
		s.mu.Unlock()
		// The runner resolves the status transition asynchronously
		s.events.Redraw()
		return
	}
	s.startLocked(rt)
	s.mu.Unlock()
	s.events.Redraw()
}

// Start launches the task at index i if no runner currently owns it
func (s *Supervisor) Start(i int) {
	s.mu.Lock()
	rt := s.runtimeLocked(i)
	if rt == nil || rt.control != nil {
		s.mu.Unlock()
		return
	}
	s.startLocked(rt)
	s.mu.Unlock()
	s.events.Redraw()
}

// StartByID launches the named task if no runner currently owns it
func (s *Supervisor) StartByID(id string) {
	s.mu.Lock()
	i, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	rt := s.runtimes[i]
	if rt.control != nil {
		s.mu.Unlock()
		return
	}
	s.startLocked(rt)
	s.mu.Unlock()
	s.events.Redraw()
}

// Stop requests termination of the task at index i. Stopping a task
// that is not running is a no-op.
func (s *Supervisor) Stop(i int) {
	s.mu.Lock()
	rt := s.runtimeLocked(i)
	if rt == nil || rt.control == nil {
		s.mu.Unlock()
		return
	}
	rt.control.SendStop()
	s.mu.Unlock()
}

// SendStdin forwards text to the task's child process and echoes it
// into the task's log. Returns false when the task has no active runner
// or the mailbox dropped the message.
func (s *Supervisor) SendStdin(i int, text string) bool {
	s.mu.Lock()
	rt := s.runtimeLocked(i)
	if rt == nil || rt.control == nil {
		s.mu.Unlock()
		return false
	}
	sent := rt.control.SendStdin(text)
	s.mu.Unlock()
	if sent {
		rt.Logs.Echo(text)
		s.events.Redraw()
	}
	return sent
}

// AutoStartAll starts every task declared with autostart
func (s *Supervisor) AutoStartAll() {
	for i, rt := range s.Runtimes() {
		if rt.Desc.Autostart {
			s.Start(i)
		}
	}
}

// AddTasks registers descriptors discovered after startup (for example
// scripts dropped into the watched directory). Existing ids are kept;
// runtimes are never replaced while the supervisor lives.
func (s *Supervisor) AddTasks(descs []task.Descriptor) int {
	s.mu.Lock()
	added := 0
	for _, d := range descs {
		if d.Validate() != nil {
			continue
		}
		if s.addLocked(d) {
			added++
		}
	}
	s.mu.Unlock()
	if added > 0 {
		s.events.Notify(bus.LevelInfo, fmt.Sprintf("discovered %d new task(s)", added))
		s.events.Redraw()
	}
	return added
}

// StartSchedules registers cron entries for tasks carrying a schedule
// expression and starts the shared cron runner. A scheduled fire on an
// already-owned task is a no-op.
func (s *Supervisor) StartSchedules() error {
	s.mu.Lock()
	if s.cron == nil {
		s.cron = cron.New()
	}
	c := s.cron
	var firstErr error
	for _, rt := range s.runtimes {
		if rt.Desc.Schedule == "" {
			continue
		}
		id := rt.Desc.ID
		if _, err := c.AddFunc(rt.Desc.Schedule, func() { s.StartByID(id) }); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("schedule for %s: %w", id, err)
			}
		}
	}
	s.mu.Unlock()
	c.Start()
	return firstErr
}

// StopAll requests termination of every owned task
func (s *Supervisor) StopAll() {
	s.mu.Lock()
	for _, rt := range s.runtimes {
		if rt.control != nil {
			rt.control.SendStop()
		}
	}
	s.mu.Unlock()
}

// Close stops schedules, terminates all running tasks, and waits for
// every runner to reap its child.
func (s *Supervisor) Close() {
	s.mu.Lock()
	if s.cron != nil {
		s.cron.Stop()
	}
	s.mu.Unlock()

	s.StopAll()
	s.wg.Wait()
}

func (s *Supervisor) runtimeLocked(i int) *TaskRuntime {
	if i < 0 || i >= len(s.runtimes) {
		return nil
	}
	return s.runtimes[i]
}

// startLocked creates the control channel and hands the task to a fresh
// runner. Caller holds s.mu.
func (s *Supervisor) startLocked(rt *TaskRuntime) {
	ch := make(chan controlMsg, controlCap)
	rt.control = &ControlSender{ch: ch}

	r := &runner{
		desc:     rt.Desc,
		status:   rt.Status,
		logs:     rt.Logs,
		control:  ch,
		events:   s.events,
		notifier: s.notifier,
		history:  s.history,
		cooldown: s.cooldown,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		r.run()
		s.mu.Lock()
		rt.control = nil
		s.mu.Unlock()
		s.events.Redraw()
	}()
}
