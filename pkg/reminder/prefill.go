package reminder

import "context"

// Prefill is the scheduling form content produced from a lesson summary
type Prefill struct {
	Topic string `json:"topic"`
	Notes string `json:"notes"`
}

// ScheduleFromSummary schedules a session from a summary prefill. The duration
// falls back to the form defaults when left empty.
func (c *Controller) ScheduleFromSummary(ctx context.Context, prefill Prefill, value int64, unit DurationUnit) (StudySession, error) {
	params := SessionParams{
		Topic:         prefill.Topic,
		Notes:         prefill.Notes,
		DurationValue: value,
		DurationUnit:  unit,
	}.WithDefaults()

	return c.AddSession(ctx, params)
}
