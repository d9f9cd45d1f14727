package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/bus"
	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/history"
	"github.com/taskdeck/taskdeck/internal/notify"
	"github.com/taskdeck/taskdeck/internal/supervisor"
	"github.com/taskdeck/taskdeck/internal/task"
	"github.com/taskdeck/taskdeck/tui"
	"github.com/taskdeck/taskdeck/web/api"
)

var (
	historyLimit int
	servePort    int
)

func init() {
	// tasks command
	tasksCmd := &cobra.Command{
		Use:   "tasks",
		Short: "List the assembled task set",
		RunE:  runTasks,
	}
	rootCmd.AddCommand(tasksCmd)

	// history command
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent task runs",
		RunE:  runHistory,
	}
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of runs to show")
	rootCmd.AddCommand(historyCmd)

	// serve command
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the supervisor headless with the status API",
		RunE:  runServe,
	}
	serveCmd.Flags().IntVar(&servePort, "port", 0, "override the API port")
	rootCmd.AddCommand(serveCmd)
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	return config.Load(path)
}

func scriptOptions(cfg *config.Config) task.ScriptOptions {
	return task.ScriptOptions{
		Dir:         cfg.Scripts.Dir,
		Extension:   cfg.Scripts.Extension,
		Interpreter: cfg.Scripts.Interpreter,
		Args:        cfg.Scripts.Args,
		LogLimit:    cfg.General.DefaultLogLimit,
	}
}

func buildNotifier(cfg *config.Config) notify.Notifier {
	var notifiers []notify.Notifier
	if cfg.Notifications.Desktop {
		notifiers = append(notifiers, notify.NewDesktopNotifier(true))
	}
	if cfg.Notifications.SlackWebhook != "" {
		notifiers = append(notifiers, notify.NewSlackNotifier(cfg.Notifications.SlackWebhook))
	}
	if len(notifiers) == 0 {
		return notify.NoopNotifier{}
	}
	return notify.NewMultiNotifier(notifiers...)
}

func openHistory(cfg *config.Config) (*history.Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.General.DatabasePath), 0o755); err != nil {
		return nil, err
	}
	return history.New(cfg.General.DatabasePath)
}

// buildSupervisor assembles the supervisor and its collaborators from
// the loaded config. The history store may be nil when opening it fails;
// the supervisor runs fine without persistence.
func buildSupervisor(cfg *config.Config, events *bus.Bus, store *history.Store) *supervisor.Supervisor {
	res := task.Load(cfg.General.TasksPath, scriptOptions(cfg))

	opts := supervisor.Options{
		Tasks:           res.Tasks,
		Bus:             events,
		Notifier:        buildNotifier(cfg),
		DefaultLogLimit: cfg.General.DefaultLogLimit,
		RestartCooldown: time.Duration(cfg.General.RestartCooldown) * time.Second,
	}
	if store != nil {
		opts.History = store
	}

	sup := supervisor.New(opts)
	for _, w := range res.Warnings {
		events.Notify(bus.LevelWarning, w)
	}
	return sup
}

func runDashboard(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	events := bus.New()

	store, err := openHistory(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "history disabled: %v\n", err)
		store = nil
	}

	sup := buildSupervisor(cfg, events, store)

	modelCfg := tui.ModelConfig{
		Supervisor: sup,
		Events:     events.Subscribe(),
	}
	if store != nil {
		modelCfg.History = store
	}
	model := tui.NewModel(modelCfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var watcher *task.ScriptWatcher
	if cfg.Scripts.Watch && cfg.Scripts.Dir != "" {
		watcher, err = task.NewScriptWatcher(scriptOptions(cfg), func(descs []task.Descriptor) {
			sup.AddTasks(descs)
		})
		if err == nil {
			watcher.Start(ctx)
		}
	}

	if cfg.Web.Enabled {
		server := api.NewServer(api.Config{Host: cfg.Web.Host, Port: cfg.Web.Port}, sup, events)
		go server.Start(ctx)
	}

	if err := sup.StartSchedules(); err != nil {
		events.Notify(bus.LevelWarning, err.Error())
	}
	sup.AutoStartAll()

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, runErr := p.Run()

	cancel()
	if watcher != nil {
		watcher.Stop()
	}
	sup.Close()
	if store != nil {
		store.Close()
	}

	return runErr
}

func runTasks(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	res := task.Load(cfg.General.TasksPath, scriptOptions(cfg))
	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tGROUP\tAUTOSTART\tRESTART\tCOMMAND")
	for _, d := range res.Tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%v\t%s\t%s\n",
			d.ID, d.DisplayName(), d.Group, d.Autostart, d.RestartPolicy, d.CommandLine())
	}
	return tw.Flush()
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Recent(historyLimit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TASK\tSTATUS\tSTARTED\tDURATION\tREASON")
	for _, run := range runs {
		duration := "-"
		if !run.FinishedAt.IsZero() {
			duration = run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			run.TaskID, run.Status, run.StartedAt.Format(time.RFC3339), duration, run.Reason)
	}
	return tw.Flush()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Web.Port = servePort
	}

	events := bus.New()

	store, err := openHistory(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "history disabled: %v\n", err)
		store = nil
	}

	sup := buildSupervisor(cfg, events, store)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := sup.StartSchedules(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	sup.AutoStartAll()

	server := api.NewServer(api.Config{Host: cfg.Web.Host, Port: cfg.Web.Port}, sup, events)
	serveErr := server.Start(ctx)

	sup.Close()
	if store != nil {
		store.Close()
	}
	return serveErr
}
