package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harun/thakir/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureCommand(t *testing.T) {
	t.Run("help text", func(t *testing.T) {
		output, err := executeCommand(t, "configure", "--help")
		require.NoError(t, err)
		assert.Contains(t, output, "interactive configuration wizard")
	})

	t.Run("saves wizard answers", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "thakir.json")
		answers := strings.Join([]string{
			"sqlite", // backend
			"n",      // desktop notifications
			"",       // sound player
			"",       // AI provider
			"debug",  // log level
		}, "\n") + "\n"

		output, err := executeWithInput(t, answers, "configure", "--config", configPath)
		require.NoError(t, err)
		assert.Contains(t, output, "Configuration saved to")

		_, err = os.Stat(configPath)
		require.NoError(t, err)

		cfg, err := config.Load(configPath)
		require.NoError(t, err)
		assert.Equal(t, "sqlite", cfg.Storage.Backend)
		assert.False(t, cfg.Alerts.System.Enabled)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})
}
