package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAPIKey(t *testing.T) {
	v := NewValidator()

	t.Run("valid anthropic key", func(t *testing.T) {
		err := v.ValidateAPIKey("sk-ant-test123", "anthropic")
		assert.NoError(t, err)
	})

	t.Run("invalid anthropic key", func(t *testing.T) {
		err := v.ValidateAPIKey("invalid-key", "anthropic")
		assert.Error(t, err)
	})

	t.Run("valid openai key", func(t *testing.T) {
		err := v.ValidateAPIKey("sk-test123", "openai")
		assert.NoError(t, err)
	})

	t.Run("valid gemini key", func(t *testing.T) {
		err := v.ValidateAPIKey("AIzaSyTest", "gemini")
		assert.NoError(t, err)
	})

	t.Run("invalid gemini key", func(t *testing.T) {
		err := v.ValidateAPIKey("sk-test", "gemini")
		assert.Error(t, err)
	})

	t.Run("empty key", func(t *testing.T) {
		err := v.ValidateAPIKey("", "anthropic")
		assert.Error(t, err)
	})
}

func TestValidateLogLevel(t *testing.T) {
	v := NewValidator()

	for _, level := range []string{"debug", "info", "warn", "error"} {
		assert.NoError(t, v.ValidateLogLevel(level))
	}
	assert.Error(t, v.ValidateLogLevel("verbose"))
}

func TestValidateInterval(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateInterval("scan", "5s"))
	assert.NoError(t, v.ValidateInterval("scan", "1s"))
	assert.Error(t, v.ValidateInterval("scan", "500ms"))
	assert.Error(t, v.ValidateInterval("scan", "2m"))
	assert.Error(t, v.ValidateInterval("scan", "soon"))
}

func TestValidateCommand(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateCommand(""))
	assert.NoError(t, v.ValidateCommand("sh"))
	assert.Error(t, v.ValidateCommand("definitely-not-a-real-binary-xyz"))
}

func TestValidateConfig(t *testing.T) {
	v := NewValidator()

	t.Run("default config", func(t *testing.T) {
		errs := v.ValidateConfig(DefaultConfig())
		assert.Empty(t, errs)
	})

	t.Run("collects multiple errors", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Logging.Level = "loud"
		cfg.Scheduler.RefreshInterval = "10m"
		cfg.AI.Profiles = []AIProfile{{ID: "p", Provider: "anthropic", APIKey: "bad"}}

		errs := v.ValidateConfig(cfg)
		assert.GreaterOrEqual(t, len(errs), 3)
	})
}
