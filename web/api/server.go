// Package api exposes the supervisor's task state over HTTP: JSON
// snapshots for dashboards and a WebSocket feed that pushes a task's
// log on every state change.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/taskdeck/taskdeck/internal/bus"
	"github.com/taskdeck/taskdeck/internal/supervisor"
)

// Config configures the API server
type Config struct {
	Host string
	Port int
}

// Server serves read-only task state
type Server struct {
	config   Config
	sup      *supervisor.Supervisor
	events   *bus.Bus
	upgrader websocket.Upgrader

	server *http.Server
}

// NewServer creates an API server over the given supervisor
func NewServer(config Config, sup *supervisor.Supervisor, events *bus.Bus) *Server {
	return &Server{
		config: config,
		sup:    sup,
		events: events,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// TaskView is the JSON shape of one task
type TaskView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Group     string `json:"group,omitempty"`
	Command   string `json:"command"`
	State     string `json:"state"`
	PID       int    `json:"pid,omitempty"`
	StartedAt string `json:"started_at,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Start starts the HTTP server and blocks until it closes
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tasks", s.HandleTasks)
	mux.HandleFunc("/api/status", s.HandleStatus)
	mux.HandleFunc("/ws/logs", s.HandleLogs)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		s.server.Close()
	}()

	log.Printf("api listening on %s", addr)
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop stops the HTTP server
func (s *Server) Stop() error {
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}

// HandleTasks returns every task with its current status (GET /api/tasks)
func (s *Server) HandleTasks(w http.ResponseWriter, r *http.Request) {
	views := []TaskView{}
	for _, rt := range s.sup.Runtimes() {
		st := rt.Status.Snapshot()
		view := TaskView{
			ID:      rt.Desc.ID,
			Name:    rt.Desc.DisplayName(),
			Group:   rt.Desc.Group,
			Command: rt.Desc.CommandLine(),
			State:   st.State.String(),
			Reason:  st.Reason,
		}
		if st.State == supervisor.StateRunning {
			view.PID = st.PID
			view.StartedAt = st.StartedAt.Format(time.RFC3339)
		}
		views = append(views, view)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(views)
}

// HandleStatus returns summary counts (GET /api/status)
func (s *Server) HandleStatus(w http.ResponseWriter, r *http.Request) {
	counts := map[string]int{"stopped": 0, "running": 0, "failed": 0}
	for _, rt := range s.sup.Runtimes() {
		counts[rt.Status.Snapshot().State.String()]++
	}

	status := map[string]interface{}{
		"tasks":   s.sup.Len(),
		"running": counts["running"],
		"stopped": counts["stopped"],
		"failed":  counts["failed"],
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

// LogFrame is one WebSocket message on the log feed
type LogFrame struct {
	TaskID string   `json:"task_id"`
	State  string   `json:"state"`
	Lines  []string `json:"lines"`
}

// HandleLogs streams a task's log over WebSocket (GET /ws/logs?task=<id>).
// The first frame carries the full current log; a fresh frame follows
// every state change, throttled to one per 250ms.
func (s *Server) HandleLogs(w http.ResponseWriter, r *http.Request) {
	taskID := r.URL.Query().Get("task")
	rt := s.findTask(taskID)
	if rt == nil {
		http.Error(w, "unknown task", http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("upgrade failed: %v", err)
		return
	}

	go s.streamLogs(conn, rt)
}

func (s *Server) findTask(id string) *supervisor.TaskRuntime {
	for _, rt := range s.sup.Runtimes() {
		if rt.Desc.ID == id {
			return rt
		}
	}
	return nil
}

func (s *Server) streamLogs(conn *websocket.Conn, rt *supervisor.TaskRuntime) {
	defer conn.Close()

	// Reads are discarded; a read error means the client went away
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	events := s.events.Subscribe()
	defer s.events.Unsubscribe(events)

	if err := s.writeFrame(conn, rt); err != nil {
		return
	}

	throttle := time.NewTicker(250 * time.Millisecond)
	defer throttle.Stop()

	dirty := false
	for {
		select {
		case <-done:
			return
		case ev := <-events:
			if ev.Kind == bus.KindRedraw {
				dirty = true
			}
		case <-throttle.C:
			if !dirty {
				continue
			}
			dirty = false
			if err := s.writeFrame(conn, rt); err != nil {
				return
			}
		}
	}
}

func (s *Server) writeFrame(conn *websocket.Conn, rt *supervisor.TaskRuntime) error {
	frame := LogFrame{
		TaskID: rt.Desc.ID,
		State:  rt.Status.Snapshot().State.String(),
		Lines:  rt.Logs.Snapshot(),
	}
	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteJSON(frame)
}
