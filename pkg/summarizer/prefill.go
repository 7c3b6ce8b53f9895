package summarizer

import (
	"strings"

	"github.com/harun/thakir/pkg/reminder"
)

const maxPrefillNotes = 100

// ToPrefill turns a summary into reminder form content: the title becomes the
// topic and the concept names become the notes.
func ToPrefill(summary *LessonSummary) reminder.Prefill {
	if summary == nil {
		return reminder.Prefill{}
	}

	names := make([]string, 0, len(summary.KeyConcepts))
	for _, c := range summary.KeyConcepts {
		names = append(names, c.Concept)
	}

	notes := "Concepts: " + strings.Join(names, ", ")
	if runes := []rune(notes); len(runes) > maxPrefillNotes {
		notes = string(runes[:maxPrefillNotes]) + "..."
	}

	return reminder.Prefill{
		Topic: summary.Title,
		Notes: notes,
	}
}
