package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "List unacknowledged in-app alerts",
	RunE:  runAlerts,
}

var ackCmd = &cobra.Command{
	Use:   "ack <id>",
	Short: "Acknowledge an in-app alert",
	Args:  cobra.ExactArgs(1),
	RunE:  runAck,
}

func init() {
	alertsCmd.AddCommand(ackCmd)
	rootCmd.AddCommand(alertsCmd)
}

func runAlerts(cmd *cobra.Command, args []string) error {
	client, err := newAPIClient(cmd)
	if err != nil {
		return err
	}

	alerts, err := client.ListAlerts(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(alerts) == 0 {
		fmt.Fprintln(out, "No pending alerts")
		return nil
	}

	bold := color.New(color.FgCyan, color.Bold)
	for _, a := range alerts {
		bold.Fprintf(out, "[%s] ", a.ID)
		fmt.Fprintf(out, "%s  (%s)\n", a.Body(), time.UnixMilli(a.FiredAt).Format("15:04:05"))
	}
	return nil
}

func runAck(cmd *cobra.Command, args []string) error {
	client, err := newAPIClient(cmd)
	if err != nil {
		return err
	}

	if err := client.AckAlert(cmd.Context(), args[0]); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Acknowledged %s\n", args[0])
	return nil
}
