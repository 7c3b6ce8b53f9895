package alert

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/harun/thakir/internal/config"
)

// SystemChannel raises a desktop notification through the platform notifier.
// It only runs when the user has enabled it and the notifier is installed.
type SystemChannel struct {
	enabled bool
	command string

	lookPath func(string) (string, error)
	run      func(ctx context.Context, name string, args ...string) error
}

// NewSystemChannel creates a system notification channel from cfg
func NewSystemChannel(cfg config.SystemConfig) *SystemChannel {
	command := cfg.Command
	if command == "" {
		command = defaultNotifier()
	}

	return &SystemChannel{
		enabled:  cfg.Enabled,
		command:  command,
		lookPath: exec.LookPath,
		run:      runCommand,
	}
}

// Name returns the channel name
func (c *SystemChannel) Name() string {
	return "system"
}

// Permitted reports whether notifications may be shown
func (c *SystemChannel) Permitted() bool {
	if !c.enabled || c.command == "" {
		return false
	}
	_, err := c.lookPath(c.command)
	return err == nil
}

// Deliver shows the notification
func (c *SystemChannel) Deliver(ctx context.Context, a Alert) error {
	if !c.Permitted() {
		return ErrPermissionDenied
	}

	if err := c.run(ctx, c.command, notifierArgs(c.command, a)...); err != nil {
		return fmt.Errorf("%s failed: %w", c.command, err)
	}
	return nil
}

func notifierArgs(command string, a Alert) []string {
	switch command {
	case "osascript":
		script := fmt.Sprintf("display notification %q with title %q sound name \"default\"", a.Body(), Title)
		return []string{"-e", script}
	default:
		// notify-send compatible
		return []string{"--app-name=thakir", "--urgency=critical", Title, a.Body()}
	}
}

func defaultNotifier() string {
	switch runtime.GOOS {
	case "darwin":
		return "osascript"
	case "linux", "freebsd", "openbsd":
		return "notify-send"
	default:
		return ""
	}
}

func runCommand(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}
