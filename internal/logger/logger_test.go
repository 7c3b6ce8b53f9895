package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/harun/thakir/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("console output", func(t *testing.T) {
		logger, err := New(config.LoggingConfig{Level: "info", Console: true})
		require.NoError(t, err)
		defer logger.Close()

		assert.Equal(t, zerolog.InfoLevel, logger.Level())
	})

	t.Run("file output", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "logs", "thakir.log")

		logger, err := New(config.LoggingConfig{Level: "debug", File: logFile})
		require.NoError(t, err)

		log.Info().Str("topic", "Algebra").Msg("Session added")
		require.NoError(t, logger.Close())

		content, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.Contains(t, string(content), "Session added")
		assert.Contains(t, string(content), "Algebra")
	})

	t.Run("redacts provider keys in file", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "thakir.log")

		logger, err := New(config.LoggingConfig{Level: "info", File: logFile, Redaction: true})
		require.NoError(t, err)
		assert.NotNil(t, logger.redactor)

		log.Info().Str("key", "sk-ant-REDACTED").Msg("Provider configured")
		require.NoError(t, logger.Close())

		content, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.NotContains(t, string(content), "sk-ant-api03")
		assert.Contains(t, string(content), "[REDACTED]")
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		logger, err := New(config.LoggingConfig{Level: "loud"})
		require.NoError(t, err)
		defer logger.Close()

		assert.Equal(t, zerolog.InfoLevel, logger.Level())
	})

	t.Run("unwritable log directory", func(t *testing.T) {
		blocker := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(blocker, nil, 0644))

		_, err := New(config.LoggingConfig{File: filepath.Join(blocker, "thakir.log")})
		assert.Error(t, err)
	})
}

func TestSetLevel(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "thakir.log")

	logger, err := New(config.LoggingConfig{Level: "info", File: logFile})
	require.NoError(t, err)

	log.Debug().Msg("hidden before")
	logger.SetLevel("debug")
	assert.Equal(t, zerolog.DebugLevel, logger.Level())
	log.Debug().Msg("visible after")
	require.NoError(t, logger.Close())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "hidden before")
	assert.Contains(t, string(content), "visible after")

	logger.SetLevel("info")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("verbose"))
}

func TestLoggerWith(t *testing.T) {
	logger, err := New(config.LoggingConfig{Level: "info"})
	require.NoError(t, err)
	defer logger.Close()

	child := logger.With().Str("component", "test").Logger()
	assert.Equal(t, zerolog.InfoLevel, child.GetLevel())
	assert.Equal(t, zerolog.InfoLevel, logger.Zerolog().GetLevel())
}
