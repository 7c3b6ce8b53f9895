package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStopCommand(t *testing.T) {
	t.Run("help text", func(t *testing.T) {
		output, err := executeCommand(t, "stop", "--help")
		require.NoError(t, err)

		assert.Contains(t, output, "Stop the Thakir daemon service")
		assert.Contains(t, output, "timeout")
	})

	t.Run("daemon not running", func(t *testing.T) {
		output, err := executeCommand(t, "stop")
		require.NoError(t, err)
		assert.Contains(t, output, "Daemon is not running")
	})
}

func TestWaitForExit(t *testing.T) {
	assert.True(t, waitForExit(t.TempDir(), 0))
}
