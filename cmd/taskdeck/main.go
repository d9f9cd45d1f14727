package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	rootCmd    = &cobra.Command{
		Use:   "taskdeck",
		Short: "taskdeck - terminal dashboard for background tasks",
		Long: `taskdeck supervises a declared set of background commands: it starts and
stops them on demand, captures their output into bounded per-task logs,
forwards interactive stdin, and shows their lifecycle state in a TUI.`,
		RunE: runDashboard,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
