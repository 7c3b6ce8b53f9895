package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/harun/thakir/pkg/gateway"
	"github.com/harun/thakir/pkg/reminder"
	"github.com/harun/thakir/pkg/summarizer"
	"github.com/spf13/cobra"
)

var (
	sumSubject    string
	sumGrade      string
	sumLength     string
	sumConcepts   int
	sumNoGlossary bool
	sumSchedule   bool
	sumIn         int64
	sumUnit       string
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <topic>",
	Short: "Generate an AI lesson summary",
	Long: `Generate a structured lesson summary with the configured AI providers.
With --schedule the summary title and introduction become a study session.`,
	Example: `  thakir summarize "Photosynthesis" --subject Biology --grade "Grade 8"
  thakir summarize "Photosynthesis" --subject Biology --grade "Grade 8" --schedule --in 1 --unit days`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSummarize,
}

func init() {
	f := summarizeCmd.Flags()
	f.StringVar(&sumSubject, "subject", "", "subject the topic belongs to (required)")
	f.StringVar(&sumGrade, "grade", "", "grade level of the reader (required)")
	f.StringVar(&sumLength, "length", string(summarizer.LengthMedium), "summary length (short, medium, long)")
	f.IntVar(&sumConcepts, "concepts", 0, "number of key concepts (default 5)")
	f.BoolVar(&sumNoGlossary, "no-glossary", false, "omit the terminology section")
	f.BoolVar(&sumSchedule, "schedule", false, "schedule a study session from the summary")
	f.Int64Var(&sumIn, "in", reminder.DefaultDurationValue, "delay before the study session alert")
	f.StringVar(&sumUnit, "unit", string(reminder.DefaultDurationUnit), "delay unit (minutes, hours, days, months)")
	_ = summarizeCmd.MarkFlagRequired("subject")
	_ = summarizeCmd.MarkFlagRequired("grade")

	rootCmd.AddCommand(summarizeCmd)
}

func runSummarize(cmd *cobra.Command, args []string) error {
	client, err := newAPIClient(cmd)
	if err != nil {
		return err
	}

	req := summarizer.Request{
		Topic:        strings.Join(args, " "),
		Subject:      sumSubject,
		GradeLevel:   sumGrade,
		Length:       summarizer.Length(sumLength),
		ConceptCount: sumConcepts,
	}
	if sumNoGlossary {
		glossary := false
		req.IncludeGlossary = &glossary
	}

	resp, err := client.Summarize(cmd.Context(), req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printSummary(out, resp.Summary)

	if !sumSchedule {
		return nil
	}

	value := sumIn
	session, err := client.ScheduleSummary(cmd.Context(), gateway.ScheduleRequest{
		Prefill:       resp.Prefill,
		DurationValue: &value,
		DurationUnit:  sumUnit,
	})
	if err != nil {
		return fmt.Errorf("summary generated but scheduling failed: %w", err)
	}

	fmt.Fprintln(out)
	color.New(color.FgGreen).Fprintf(out, "Scheduled %q\n", session.Topic)
	fmt.Fprintf(out, "ID:  %s\n", session.ID)
	fmt.Fprintf(out, "Due: %s\n", time.UnixMilli(session.ScheduledFor).Format("2006-01-02 15:04:05"))
	return nil
}

func printSummary(out io.Writer, s *summarizer.LessonSummary) {
	if s == nil {
		return
	}

	title := color.New(color.FgCyan, color.Bold)
	heading := color.New(color.Bold)

	title.Fprintln(out, s.Title)
	fmt.Fprintln(out)
	if s.Introduction != "" {
		fmt.Fprintln(out, s.Introduction)
		fmt.Fprintln(out)
	}

	if len(s.KeyConcepts) > 0 {
		heading.Fprintln(out, "Key concepts")
		for i, c := range s.KeyConcepts {
			fmt.Fprintf(out, "  %d. %s: %s\n", i+1, c.Concept, c.Explanation)
		}
		fmt.Fprintln(out)
	}

	if len(s.Terminology) > 0 {
		heading.Fprintln(out, "Terminology")
		for _, t := range s.Terminology {
			fmt.Fprintf(out, "  %s: %s\n", t.Term, t.Definition)
		}
		fmt.Fprintln(out)
	}

	if len(s.StudyTips) > 0 {
		heading.Fprintln(out, "Study tips")
		for _, tip := range s.StudyTips {
			fmt.Fprintf(out, "  - %s\n", tip)
		}
	}
}
