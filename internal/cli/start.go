package cli

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/harun/thakir/internal/daemon"
	"github.com/harun/thakir/internal/logger"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:     "start",
	Aliases: []string{"serve"},
	Short:   "Start the Thakir daemon service",
	Long: `Start the Thakir daemon service in the foreground.
The daemon scans for due sessions, fires alerts and serves the HTTP and
WebSocket API until it receives SIGINT or SIGTERM.`,
	RunE: runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	loader, cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if pid, err := daemon.RunningPID(cfg.DataDir); err == nil {
		return fmt.Errorf("daemon is already running (PID %d)", pid)
	} else if !errors.Is(err, daemon.ErrNotRunning) {
		return fmt.Errorf("failed to check PID file: %w", err)
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Close()

	d, err := daemon.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}

	if err := d.Start(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	loader.Watch(d.ApplyConfig)

	out := cmd.OutOrStdout()
	green := color.New(color.FgGreen, color.Bold)
	green.Fprintln(out, "Thakir daemon started")
	fmt.Fprintf(out, "API:      %s\n", "http://"+d.Status().Addr)
	fmt.Fprintf(out, "Data dir: %s\n", cfg.DataDir)

	d.Wait()

	return nil
}
