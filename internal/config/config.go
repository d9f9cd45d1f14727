package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration
type Config struct {
	General       GeneralConfig       `toml:"general"`
	Scripts       ScriptsConfig       `toml:"scripts"`
	Notifications NotificationsConfig `toml:"notifications"`
	Web           WebConfig           `toml:"web"`
}

// GeneralConfig holds general settings
type GeneralConfig struct {
	TasksPath       string `toml:"tasks_path"`
	DatabasePath    string `toml:"database_path"`
	DefaultLogLimit int    `toml:"default_log_limit"`
	RestartCooldown int    `toml:"restart_cooldown_seconds"`
}

// ScriptsConfig controls discovery of script tasks
type ScriptsConfig struct {
	Dir         string   `toml:"dir"`
	Extension   string   `toml:"extension"`
	Interpreter string   `toml:"interpreter"`
	Args        []string `toml:"args"`
	Watch       bool     `toml:"watch"`
}

// NotificationsConfig holds notification settings
type NotificationsConfig struct {
	Desktop      bool   `toml:"desktop"`
	SlackWebhook string `toml:"slack_webhook"`
}

// WebConfig holds the status API settings
type WebConfig struct {
	Enabled bool   `toml:"enabled"`
	Port    int    `toml:"port"`
	Host    string `toml:"host"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		General: GeneralConfig{
			TasksPath:       filepath.Join(home, ".config", "taskdeck", "tasks.json"),
			DatabasePath:    filepath.Join(home, ".taskdeck", "taskdeck.db"),
			DefaultLogLimit: 1000,
			RestartCooldown: 2,
		},
		Scripts: ScriptsConfig{
			Dir:         filepath.Join(home, ".taskdeck", "scripts"),
			Extension:   ".ts",
			Interpreter: "deno",
			Args:        []string{"run", "-A"},
			Watch:       true,
		},
		Notifications: NotificationsConfig{
			Desktop: true,
		},
		Web: WebConfig{
			Enabled: false,
			Port:    8080,
			Host:    "127.0.0.1",
		},
	}
}

// Load reads configuration from a TOML file, falling back to defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// Expand paths
	cfg.General.TasksPath = ExpandPath(cfg.General.TasksPath)
	cfg.General.DatabasePath = ExpandPath(cfg.General.DatabasePath)
	cfg.Scripts.Dir = ExpandPath(cfg.Scripts.Dir)

	return cfg, nil
}

// ExpandPath expands ~ to the user's home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// DefaultConfigPath returns the default config file location
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "taskdeck", "config.toml")
}
