package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Default()

	if cfg.General.DefaultLogLimit != 1000 {
		t.Errorf("DefaultLogLimit = %d, want 1000", cfg.General.DefaultLogLimit)
	}
	if cfg.Scripts.Extension != ".ts" {
		t.Errorf("Scripts.Extension = %q, want .ts", cfg.Scripts.Extension)
	}
	if cfg.Scripts.Interpreter != "deno" {
		t.Errorf("Scripts.Interpreter = %q, want deno", cfg.Scripts.Interpreter)
	}
	if cfg.Web.Port != 8080 {
		t.Errorf("Web.Port = %d, want 8080", cfg.Web.Port)
	}
	if cfg.Web.Host != "127.0.0.1" {
		t.Errorf("Web.Host = %q, want 127.0.0.1", cfg.Web.Host)
	}
	if cfg.Web.Enabled {
		t.Error("Web.Enabled should default to false")
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")

	content := `
[general]
tasks_path = "/test/tasks.json"
default_log_limit = 500

[scripts]
dir = "/test/scripts"
extension = ".sh"
interpreter = "bash"
args = []

[web]
enabled = true
port = 9000
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.General.TasksPath != "/test/tasks.json" {
		t.Errorf("TasksPath = %q, want /test/tasks.json", cfg.General.TasksPath)
	}
	if cfg.General.DefaultLogLimit != 500 {
		t.Errorf("DefaultLogLimit = %d, want 500", cfg.General.DefaultLogLimit)
	}
	if cfg.Scripts.Extension != ".sh" {
		t.Errorf("Scripts.Extension = %q, want .sh", cfg.Scripts.Extension)
	}
	if len(cfg.Scripts.Args) != 0 {
		t.Errorf("Scripts.Args = %v, want empty", cfg.Scripts.Args)
	}
	if !cfg.Web.Enabled {
		t.Error("Web.Enabled should be true")
	}
	if cfg.Web.Port != 9000 {
		t.Errorf("Web.Port = %d, want 9000", cfg.Web.Port)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v, want defaults", err)
	}
	if cfg.General.DefaultLogLimit != 1000 {
		t.Errorf("DefaultLogLimit = %d, want default 1000", cfg.General.DefaultLogLimit)
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		input string
		want  string
	}{
		{"~/test", filepath.Join(home, "test")},
		{"/absolute/path", "/absolute/path"},
		{"relative", "relative"},
	}

	for _, tt := range tests {
		got := ExpandPath(tt.input)
		if got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
