package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/harun/thakir/pkg/gateway"
	"github.com/harun/thakir/pkg/reminder"
	"github.com/spf13/cobra"
)

var (
	addNotes string
	addIn    int64
	addUnit  string
)

var addCmd = &cobra.Command{
	Use:   "add <topic>",
	Short: "Schedule a study session",
	Long: `Schedule a one-shot study session. The alert fires once the delay has
elapsed, even if the daemon was down at that moment.`,
	Example: `  thakir add "Linear algebra" --in 2 --unit hours --notes "chapter 3"`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runAdd,
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List scheduled study sessions",
	RunE:    runList,
}

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a study session",
	Args:    cobra.ExactArgs(1),
	RunE:    runDelete,
}

func init() {
	addCmd.Flags().StringVar(&addNotes, "notes", "", "notes shown with the alert")
	addCmd.Flags().Int64Var(&addIn, "in", reminder.DefaultDurationValue, "delay before the alert")
	addCmd.Flags().StringVar(&addUnit, "unit", string(reminder.DefaultDurationUnit), "delay unit (minutes, hours, days, months)")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deleteCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	client, err := newAPIClient(cmd)
	if err != nil {
		return err
	}

	value := addIn
	session, err := client.AddSession(cmd.Context(), gateway.CreateSessionRequest{
		Topic:         strings.Join(args, " "),
		Notes:         addNotes,
		DurationValue: &value,
		DurationUnit:  addUnit,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	color.New(color.FgGreen).Fprintf(out, "Scheduled %q\n", session.Topic)
	fmt.Fprintf(out, "ID:  %s\n", session.ID)
	fmt.Fprintf(out, "Due: %s\n", time.UnixMilli(session.ScheduledFor).Format("2006-01-02 15:04:05"))
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	client, err := newAPIClient(cmd)
	if err != nil {
		return err
	}

	sessions, err := client.ListSessions(cmd.Context())
	if err != nil {
		return err
	}

	printSessions(cmd.OutOrStdout(), sessions)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	client, err := newAPIClient(cmd)
	if err != nil {
		return err
	}

	if err := client.DeleteSession(cmd.Context(), args[0]); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
	return nil
}

func printSessions(out io.Writer, sessions []reminder.SessionView) {
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No study sessions scheduled")
		return
	}

	yellow := color.New(color.FgYellow, color.Bold)
	faint := color.New(color.Faint)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTOPIC\tDUE AT\tREMAINING")
	for _, s := range sessions {
		remaining := s.Remaining
		switch {
		case s.Notified:
			remaining = faint.Sprint("alerted")
		case s.Due:
			remaining = yellow.Sprint("due")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			s.ID,
			s.Topic,
			time.UnixMilli(s.ScheduledFor).Format("2006-01-02 15:04"),
			remaining,
		)
	}
	_ = w.Flush()
}
