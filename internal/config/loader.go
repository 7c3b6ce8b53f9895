package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Loader handles configuration loading
type Loader struct {
	configPath string
	v          *viper.Viper
}

// NewLoader creates a new config loader
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
	}
}

// DefaultDataDir returns ~/.thakir
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".thakir"), nil
}

// Load loads the configuration from file
func (l *Loader) Load() (*Config, error) {
	configPath, err := l.resolvePath()
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// No file: defaults only
		if err := applyPathDefaults(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	v := l.newViper(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyPathDefaults(cfg); err != nil {
		return nil, err
	}

	l.v = v
	return cfg, nil
}

// Watch reloads the config file whenever it changes and hands the new config
// to onChange. It is a no-op when Load found no file to watch.
func (l *Loader) Watch(onChange func(*Config)) {
	if l.v == nil {
		return
	}

	v := l.v
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}

		cfg := DefaultConfig()
		if err := v.Unmarshal(cfg); err != nil {
			log.Warn().Err(err).Str("path", e.Name).Msg("Ignoring unreadable config change")
			return
		}
		if err := applyPathDefaults(cfg); err != nil {
			log.Warn().Err(err).Msg("Ignoring config change")
			return
		}
		if err := cfg.Validate(); err != nil {
			log.Warn().Err(err).Msg("Ignoring invalid config change")
			return
		}

		log.Info().Str("path", e.Name).Msg("Config reloaded")
		onChange(cfg)
	})
	v.WatchConfig()
}

// Save saves the configuration to file
func (l *Loader) Save(cfg *Config) error {
	configPath, err := l.resolvePath()
	if err != nil {
		return err
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")

	v.Set("data_dir", cfg.DataDir)
	v.Set("storage", cfg.Storage)
	v.Set("scheduler", cfg.Scheduler)
	v.Set("alerts", cfg.Alerts)
	v.Set("gateway", cfg.Gateway)
	v.Set("ai", cfg.AI)
	v.Set("logging", cfg.Logging)
	v.Set("tracing", cfg.Tracing)

	if err := v.WriteConfig(); err != nil {
		if os.IsNotExist(err) {
			if err := v.SafeWriteConfig(); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}
		} else {
			return fmt.Errorf("failed to write config file: %w", err)
		}
	}

	return nil
}

// GetConfigPath returns the config file path
func (l *Loader) GetConfigPath() string {
	path, err := l.resolvePath()
	if err != nil {
		return ""
	}
	return path
}

func (l *Loader) resolvePath() (string, error) {
	if l.configPath != "" {
		return l.configPath, nil
	}
	dataDir, err := DefaultDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "thakir.json"), nil
}

func (l *Loader) newViper(configPath string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")

	// THAKIR_STORAGE_BACKEND overrides storage.backend
	v.SetEnvPrefix("THAKIR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

func applyPathDefaults(cfg *Config) error {
	if cfg.DataDir == "" {
		dataDir, err := DefaultDataDir()
		if err != nil {
			return err
		}
		cfg.DataDir = dataDir
	}

	if cfg.Storage.Path == "" {
		switch cfg.Storage.Backend {
		case "sqlite":
			cfg.Storage.Path = filepath.Join(cfg.DataDir, "thakir.db")
		default:
			cfg.Storage.Path = filepath.Join(cfg.DataDir, "sessions.json")
		}
	}

	if cfg.Logging.File == "" {
		cfg.Logging.File = filepath.Join(cfg.DataDir, "thakir.log")
	}

	return nil
}

// Load is a convenience function that creates a loader and loads the config
func Load(configPath string) (*Config, error) {
	loader := NewLoader(configPath)
	return loader.Load()
}
