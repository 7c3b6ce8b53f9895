package daemon

import (
	"fmt"

	sddaemon "github.com/coreos/go-systemd/v22/daemon"
)

// Notifier reports lifecycle transitions to the service manager
type Notifier interface {
	Ready() error
	Stopping() error
}

// systemdNotifier speaks the sd_notify protocol. Outside systemd
// NOTIFY_SOCKET is unset and every call is a no-op.
type systemdNotifier struct{}

// Ready sends READY=1
func (systemdNotifier) Ready() error {
	if _, err := sddaemon.SdNotify(false, sddaemon.SdNotifyReady); err != nil {
		return fmt.Errorf("failed to send sd_notify: %w", err)
	}
	return nil
}

// Stopping sends STOPPING=1
func (systemdNotifier) Stopping() error {
	if _, err := sddaemon.SdNotify(false, sddaemon.SdNotifyStopping); err != nil {
		return fmt.Errorf("failed to send sd_notify stopping: %w", err)
	}
	return nil
}
