package task

import (
	"fmt"
	"strings"
)

// RestartPolicy governs what happens after a task exits unexpectedly
type RestartPolicy string

const (
	RestartAlways RestartPolicy = "always"
	RestartWarn   RestartPolicy = "warn"
	RestartNever  RestartPolicy = "never"
)

// ParseRestartPolicy normalizes a policy string from a task document.
// An empty value defaults to never.
func ParseRestartPolicy(s string) (RestartPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return RestartNever, nil
	case "always":
		return RestartAlways, nil
	case "warn":
		return RestartWarn, nil
	case "never":
		return RestartNever, nil
	default:
		return RestartNever, fmt.Errorf("unknown restart policy %q", s)
	}
}

// Descriptor is the immutable declaration of one manageable task
type Descriptor struct {
	ID            string            `json:"id" yaml:"id"`
	Name          string            `json:"name" yaml:"name"`
	Command       string            `json:"command" yaml:"command"`
	Args          []string          `json:"args" yaml:"args"`
	Cwd           string            `json:"cwd,omitempty" yaml:"cwd,omitempty"`
	Envs          map[string]string `json:"envs,omitempty" yaml:"envs,omitempty"`
	Autostart     bool              `json:"autostart" yaml:"autostart"`
	Group         string            `json:"group" yaml:"group"`
	LogLimit      int               `json:"log_limit,omitempty" yaml:"log_limit,omitempty"`
	RestartPolicy RestartPolicy     `json:"restart_policy,omitempty" yaml:"restart_policy,omitempty"`
	Schedule      string            `json:"schedule,omitempty" yaml:"schedule,omitempty"`
}

// Validate checks the fields a descriptor cannot function without
func (d *Descriptor) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("task has no id")
	}
	if d.Command == "" {
		return fmt.Errorf("task %s has no command", d.ID)
	}
	return nil
}

// DisplayName returns the name, falling back to the id
func (d *Descriptor) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.ID
}

// CommandLine renders the full invocation for display
func (d *Descriptor) CommandLine() string {
	if len(d.Args) == 0 {
		return d.Command
	}
	return d.Command + " " + strings.Join(d.Args, " ")
}
