package cli

import (
	"context"
	"testing"
	"time"

	"github.com/harun/thakir/pkg/reminder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertsCommand(t *testing.T) {
	t.Run("no pending alerts", func(t *testing.T) {
		td := startTestDaemon(t, false)

		output, err := executeCommand(t, "alerts", "--server", td.url)
		require.NoError(t, err)
		assert.Contains(t, output, "No pending alerts")
	})

	t.Run("lists and acknowledges", func(t *testing.T) {
		td := startTestDaemon(t, false)
		ctx := context.Background()

		_, err := td.controller.AddSession(ctx, reminder.SessionParams{
			Topic: "Algebra", Notes: "chapter 2", DurationValue: 1, DurationUnit: reminder.UnitMinutes,
		})
		require.NoError(t, err)

		td.clock.Advance(time.Minute)
		td.controller.Tick(ctx)

		pending := td.board.Pending()
		require.Len(t, pending, 1)

		output, err := executeCommand(t, "alerts", "--server", td.url)
		require.NoError(t, err)
		assert.Contains(t, output, pending[0].ID)
		assert.Contains(t, output, "Lesson: Algebra")

		output, err = executeCommand(t, "alerts", "ack", pending[0].ID, "--server", td.url)
		require.NoError(t, err)
		assert.Contains(t, output, "Acknowledged")
		assert.Empty(t, td.board.Pending())
	})

	t.Run("ack unknown alert", func(t *testing.T) {
		td := startTestDaemon(t, false)

		_, err := executeCommand(t, "alerts", "ack", "nope", "--server", td.url)
		assert.Error(t, err)
	})
}
