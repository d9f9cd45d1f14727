package supervisor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/taskdeck/taskdeck/internal/bus"
	"github.com/taskdeck/taskdeck/internal/notify"
	"github.com/taskdeck/taskdeck/internal/task"
)

// RunRecord describes one execution for the history store
type RunRecord struct {
	ID        string
	TaskID    string
	PID       int
	StartedAt time.Time
}

// RunRecorder persists run lifecycles. Implementations must not block
// for long; the runner calls them inline.
type RunRecorder interface {
	RecordStart(rec RunRecord) error
	RecordExit(id string, finishedAt time.Time, status, reason string) error
}

// runner owns one task execution from spawn to terminal status. It is
// the sole writer of the task's StatusCell for the duration of the run.
type runner struct {
	desc     task.Descriptor
	status   *StatusCell
	logs     *LogBuffer
	control  <-chan controlMsg
	events   *bus.Bus
	notifier notify.Notifier
	history  RunRecorder
	cooldown time.Duration
}

type outcome int

const (
	outcomeDone outcome = iota
	outcomeRestart
)

// run executes the task, re-spawning after failures when the restart
// policy is always. Each restart passes back through the stopped state.
func (r *runner) run() {
	// A fresh run always enters from stopped; starting a task whose last
	// run failed clears the failed status before the spawn.
	if r.status.Snapshot().State == StateFailed {
		r.status.setStopped()
		r.events.Redraw()
	}
	for {
		if r.runOnce() != outcomeRestart {
			return
		}
		if !r.waitCooldown() {
			return
		}
		r.status.setStopped()
		r.events.Redraw()
	}
}

// waitCooldown delays the next restart attempt. A stop request arriving
// during the cooldown abandons the restart; false means stop.
func (r *runner) waitCooldown() bool {
	timer := time.NewTimer(r.cooldown)
	defer timer.Stop()
	for {
		select {
		case msg := <-r.control:
			if msg.kind == ctrlStop {
				return false
			}
			// Stdin for a dead child is dropped
		case <-timer.C:
			return true
		}
	}
}

func (r *runner) runOnce() outcome {
	cmd := exec.Command(r.desc.Command, r.desc.Args...)
	if r.desc.Cwd != "" {
		cmd.Dir = r.desc.Cwd
	}
	if len(r.desc.Envs) > 0 {
		cmd.Env = os.Environ()
		for k, v := range r.desc.Envs {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return r.failSpawn(err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return r.failSpawn(err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return r.failSpawn(err)
	}

	if err := cmd.Start(); err != nil {
		return r.failSpawn(err)
	}

	pid := cmd.Process.Pid
	r.status.setRunning(pid)
	r.events.Redraw()

	runID := uuid.NewString()
	if r.history != nil {
		r.history.RecordStart(RunRecord{
			ID:        runID,
			TaskID:    r.desc.ID,
			PID:       pid,
			StartedAt: time.Now(),
		})
	}

	// Pump both output streams into the log buffer. Wait may only be
	// called once the pipes are fully drained.
	var pumps errgroup.Group
	pumps.Go(func() error {
		r.pump(stdout, false)
		return nil
	})
	pumps.Go(func() error {
		r.pump(stderr, true)
		return nil
	})

	exitCh := make(chan error, 1)
	go func() {
		pumps.Wait()
		exitCh <- cmd.Wait()
	}()

	// The crux: race child exit against control messages so a stop can
	// always interrupt a long-running child and an unprompted exit is
	// observed promptly.
	manualStop := false
	var exitErr error
loop:
	for {
		select {
		case exitErr = <-exitCh:
			break loop
		case msg := <-r.control:
			switch msg.kind {
			case ctrlStdin:
				// Best effort; the child may have closed stdin
				io.WriteString(stdin, msg.text+"\n")
			case ctrlStop:
				manualStop = true
				cmd.Process.Kill()
				// Keep looping so the exit wait reaps the process
			}
		}
	}
	stdin.Close()

	finished := time.Now()
	if manualStop || exitErr == nil {
		r.status.setStopped()
		r.recordExit(runID, finished, "stopped", "")
		r.events.Redraw()
		return outcomeDone
	}

	reason := exitReason(exitErr)
	r.status.setFailed(reason)
	r.recordExit(runID, finished, "failed", reason)
	r.events.Redraw()

	switch r.desc.RestartPolicy {
	case task.RestartAlways:
		return outcomeRestart
	case task.RestartWarn:
		r.warn(reason)
	}
	return outcomeDone
}

// failSpawn resolves a spawn-stage error. Spawn failures never restart,
// regardless of policy.
func (r *runner) failSpawn(err error) outcome {
	r.status.setFailed(err.Error())
	r.events.Redraw()
	return outcomeDone
}

func (r *runner) pump(stream io.Reader, isStderr bool) {
	scanner := bufio.NewScanner(stream)
	// Long lines are common in tool output
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	for scanner.Scan() {
		if isStderr {
			r.logs.AppendStderr(scanner.Text())
		} else {
			r.logs.Append(scanner.Text())
		}
		r.events.Redraw()
	}
}

func (r *runner) recordExit(runID string, finished time.Time, status, reason string) {
	if r.history != nil {
		r.history.RecordExit(runID, finished, status, reason)
	}
}

func (r *runner) warn(reason string) {
	text := fmt.Sprintf("%s exited: %s", r.desc.DisplayName(), reason)
	r.events.Notify(bus.LevelWarning, text)
	if r.notifier != nil {
		r.notifier.Send(notify.Notification{
			Title:   "taskdeck",
			Message: text,
			Type:    notify.NotifyWarning,
			TaskID:  r.desc.ID,
		})
	}
}

func exitReason(err error) string {
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		if code := ee.ExitCode(); code >= 0 {
			return fmt.Sprintf("exit code %d", code)
		}
		return ee.ProcessState.String()
	}
	return err.Error()
}
