package config

import (
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAPIKey validates an API key format
func (v *Validator) ValidateAPIKey(key string, provider string) error {
	if key == "" {
		return fmt.Errorf("%s API key cannot be empty", provider)
	}

	switch provider {
	case "anthropic":
		if !strings.HasPrefix(key, "sk-ant-") {
			return fmt.Errorf("invalid Anthropic API key format (should start with sk-ant-)")
		}
	case "openai":
		if !strings.HasPrefix(key, "sk-") {
			return fmt.Errorf("invalid OpenAI API key format (should start with sk-)")
		}
	case "gemini":
		if !strings.HasPrefix(key, "AIza") {
			return fmt.Errorf("invalid Gemini API key format (should start with AIza)")
		}
	}

	return nil
}

// ValidateLogLevel validates log level
func (v *Validator) ValidateLogLevel(level string) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	for _, valid := range validLevels {
		if level == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid log level: %s (must be one of: %s)", level, strings.Join(validLevels, ", "))
}

// ValidateInterval validates a polling interval string
func (v *Validator) ValidateInterval(name, value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if d < time.Second || d > time.Minute {
		return fmt.Errorf("%s must be between 1s and 1m, got %s", name, d)
	}
	return nil
}

// ValidateCommand checks that an external command resolves on PATH
func (v *Validator) ValidateCommand(name string) error {
	if name == "" {
		return nil // Detected at runtime
	}
	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("command %s not found on PATH", name)
	}
	return nil
}

// ValidateConfig performs comprehensive validation
func (v *Validator) ValidateConfig(cfg *Config) []error {
	var errors []error

	if err := cfg.Validate(); err != nil {
		errors = append(errors, err)
	}

	for i, profile := range cfg.AI.Profiles {
		if profile.Provider != "" {
			if err := v.ValidateAPIKey(profile.APIKey, profile.Provider); err != nil {
				errors = append(errors, fmt.Errorf("AI profile %d (%s): %w", i, profile.ID, err))
			}
		}
	}

	if err := v.ValidateInterval("scheduler.scan_interval", cfg.Scheduler.ScanInterval); err != nil {
		errors = append(errors, err)
	}
	if err := v.ValidateInterval("scheduler.refresh_interval", cfg.Scheduler.RefreshInterval); err != nil {
		errors = append(errors, err)
	}

	if cfg.Alerts.Sound.Enabled {
		if err := v.ValidateCommand(cfg.Alerts.Sound.Player); err != nil {
			errors = append(errors, fmt.Errorf("alerts.sound.player: %w", err))
		}
	}
	if cfg.Alerts.System.Enabled {
		if err := v.ValidateCommand(cfg.Alerts.System.Command); err != nil {
			errors = append(errors, fmt.Errorf("alerts.system.command: %w", err))
		}
	}

	if err := v.ValidateLogLevel(cfg.Logging.Level); err != nil {
		errors = append(errors, err)
	}

	return errors
}
