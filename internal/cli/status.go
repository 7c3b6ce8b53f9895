package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/harun/thakir/internal/daemon"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	Long:  `Show the current status of the Thakir daemon service.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	green := color.New(color.FgGreen, color.Bold)
	red := color.New(color.FgRed, color.Bold)

	pid := 0
	if serverURL == "" {
		_, cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		pid, err = daemon.RunningPID(cfg.DataDir)
		if errors.Is(err, daemon.ErrNotRunning) {
			fmt.Fprint(out, "Status: ")
			red.Fprintln(out, "stopped")
			return nil
		}
		if err != nil {
			return err
		}
	}

	client, err := newAPIClient(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	status, err := client.Status(ctx)
	if err != nil {
		fmt.Fprint(out, "Status: ")
		red.Fprintln(out, "unreachable")
		return fmt.Errorf("daemon did not answer: %w", err)
	}

	fmt.Fprint(out, "Status: ")
	green.Fprintln(out, "running")
	if pid > 0 {
		fmt.Fprintf(out, "PID: %d\n", pid)
	}
	if uptime, err := time.ParseDuration(status.Uptime); err == nil {
		fmt.Fprintf(out, "Uptime: %s\n", formatDuration(uptime))
	}
	fmt.Fprintf(out, "Sessions: %d (%d pending)\n", status.Sessions, status.Pending)
	fmt.Fprintf(out, "Alerts: %d unacknowledged\n", status.PendingAlerts)
	fmt.Fprintf(out, "Clients: %d\n", status.Clients)
	if len(status.Providers) > 0 {
		fmt.Fprintf(out, "AI providers: %s\n", strings.Join(status.Providers, ", "))
	} else {
		fmt.Fprintln(out, "AI providers: none")
	}
	if len(status.AlertChannels) > 0 {
		fmt.Fprintf(out, "Alert channels: %s\n", strings.Join(status.AlertChannels, ", "))
	}
	for _, task := range status.Tasks {
		if task.NextRun.IsZero() {
			continue
		}
		fmt.Fprintf(out, "Next %s: %s\n", task.Name, task.NextRun.Local().Format("15:04:05"))
	}

	return nil
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
