package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Config represents the main thakir configuration
type Config struct {
	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`

	// Session storage
	Storage StorageConfig `json:"storage" mapstructure:"storage"`

	// Scan and display timers
	Scheduler SchedulerConfig `json:"scheduler" mapstructure:"scheduler"`

	// Alert channels
	Alerts AlertsConfig `json:"alerts" mapstructure:"alerts"`

	// Gateway configuration
	Gateway GatewayConfig `json:"gateway" mapstructure:"gateway"`

	// AI configuration
	AI AIConfig `json:"ai" mapstructure:"ai"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Tracing
	Tracing TracingConfig `json:"tracing" mapstructure:"tracing"`
}

// StorageConfig selects and configures the session store backend
type StorageConfig struct {
	Backend string      `json:"backend" mapstructure:"backend"` // file, sqlite, redis
	Path    string      `json:"path" mapstructure:"path"`       // file or sqlite database path
	Key     string      `json:"key" mapstructure:"key"`
	Redis   RedisConfig `json:"redis" mapstructure:"redis"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr         string `json:"addr" mapstructure:"addr"`
	Password     string `json:"password" mapstructure:"password"`
	DB           int    `json:"db" mapstructure:"db"`
	Prefix       string `json:"prefix" mapstructure:"prefix"`
	DialTimeout  string `json:"dial_timeout" mapstructure:"dial_timeout"`
	ReadTimeout  string `json:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout string `json:"write_timeout" mapstructure:"write_timeout"`
}

// SchedulerConfig holds the polling intervals
type SchedulerConfig struct {
	ScanInterval    string `json:"scan_interval" mapstructure:"scan_interval"`
	RefreshInterval string `json:"refresh_interval" mapstructure:"refresh_interval"`
}

// AlertsConfig holds alert channel configuration
type AlertsConfig struct {
	Sound  SoundConfig  `json:"sound" mapstructure:"sound"`
	System SystemConfig `json:"system" mapstructure:"system"`

	// ChannelTimeout bounds a single channel delivery
	ChannelTimeout string `json:"channel_timeout" mapstructure:"channel_timeout"`
}

// SoundConfig configures the audible cue
type SoundConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	File    string `json:"file" mapstructure:"file"`
	Player  string `json:"player" mapstructure:"player"` // paplay, aplay, afplay, ...
}

// SystemConfig configures desktop notifications. Enabled doubles as the
// user's notification permission.
type SystemConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Command string `json:"command" mapstructure:"command"` // notify-send, osascript
}

// GatewayConfig holds gateway server configuration
type GatewayConfig struct {
	Port int    `json:"port" mapstructure:"port"`
	Host string `json:"host" mapstructure:"host"`
}

// AIConfig holds AI provider configuration
type AIConfig struct {
	Profiles   []AIProfile `json:"profiles" mapstructure:"profiles"`
	MaxRetries int         `json:"max_retries" mapstructure:"max_retries"`
	CacheSize  int         `json:"cache_size" mapstructure:"cache_size"`
	Timeout    string      `json:"timeout" mapstructure:"timeout"`
}

// AIProfile represents an AI provider profile
type AIProfile struct {
	ID       string `json:"id" mapstructure:"id"`
	Provider string `json:"provider" mapstructure:"provider"` // anthropic, openai, gemini
	APIKey   string `json:"api_key" mapstructure:"api_key"`
	Model    string `json:"model" mapstructure:"model"`
	Priority int    `json:"priority" mapstructure:"priority"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Console   bool   `json:"console" mapstructure:"console"`
	Pretty    bool   `json:"pretty" mapstructure:"pretty"`
	MaxSize   int    `json:"max_size" mapstructure:"max_size"` // MB
	MaxAge    int    `json:"max_age" mapstructure:"max_age"`   // days
	Compress  bool   `json:"compress" mapstructure:"compress"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// TracingConfig toggles OpenTelemetry spans
type TracingConfig struct {
	Enabled     bool   `json:"enabled" mapstructure:"enabled"`
	ServiceName string `json:"service_name" mapstructure:"service_name"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		DataDir: "",
		Storage: StorageConfig{
			Backend: "file",
			Key:     "thakir_sessions_v2",
			Redis: RedisConfig{
				Addr:         "127.0.0.1:6379",
				Prefix:       "thakir",
				DialTimeout:  "5s",
				ReadTimeout:  "3s",
				WriteTimeout: "3s",
			},
		},
		Scheduler: SchedulerConfig{
			ScanInterval:    "5s",
			RefreshInterval: "1s",
		},
		Alerts: AlertsConfig{
			Sound: SoundConfig{
				Enabled: true,
			},
			System: SystemConfig{
				Enabled: false,
			},
			ChannelTimeout: "5s",
		},
		Gateway: GatewayConfig{
			Port: 8787,
			Host: "127.0.0.1",
		},
		AI: AIConfig{
			Profiles:   []AIProfile{},
			MaxRetries: 2,
			CacheSize:  64,
			Timeout:    "60s",
		},
		Logging: LoggingConfig{
			Level:     "info",
			Console:   true,
			MaxSize:   100,
			MaxAge:    7,
			Compress:  true,
			Redaction: true,
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "thakir",
		},
	}
}

// ScanInterval returns the parsed due-scan interval
func (c *Config) ScanInterval() time.Duration {
	return parseDurationOr(c.Scheduler.ScanInterval, 5*time.Second)
}

// RefreshInterval returns the parsed display refresh interval
func (c *Config) RefreshInterval() time.Duration {
	return parseDurationOr(c.Scheduler.RefreshInterval, time.Second)
}

// AlertChannelTimeout returns the per-channel alert delivery timeout
func (c *Config) AlertChannelTimeout() time.Duration {
	return parseDurationOr(c.Alerts.ChannelTimeout, 5*time.Second)
}

// AITimeout returns the per-call summarizer timeout
func (c *Config) AITimeout() time.Duration {
	return parseDurationOr(c.AI.Timeout, 60*time.Second)
}

// GatewayAddr returns host:port for the gateway listener
func (c *Config) GatewayAddr() string {
	return fmt.Sprintf("%s:%d", c.Gateway.Host, c.Gateway.Port)
}

// GatewayURL returns the base URL clients use to reach the gateway
func (c *Config) GatewayURL() string {
	host := c.Gateway.Host
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s:%d", host, c.Gateway.Port)
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "file", "sqlite":
	case "redis":
		if c.Storage.Redis.Addr == "" {
			return fmt.Errorf("storage.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("invalid storage backend %q (must be: file, sqlite, redis)", c.Storage.Backend)
	}

	if c.Storage.Key == "" {
		return fmt.Errorf("storage.key is required")
	}

	for name, value := range map[string]string{
		"scheduler.scan_interval":    c.Scheduler.ScanInterval,
		"scheduler.refresh_interval": c.Scheduler.RefreshInterval,
	} {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		if d < time.Second {
			return fmt.Errorf("%s must be at least 1s, got %s", name, d)
		}
	}

	if c.Alerts.ChannelTimeout != "" {
		d, err := time.ParseDuration(c.Alerts.ChannelTimeout)
		if err != nil {
			return fmt.Errorf("invalid alerts.channel_timeout: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("alerts.channel_timeout must be positive, got %s", d)
		}
	}

	if c.Gateway.Port <= 0 || c.Gateway.Port > 65535 {
		return fmt.Errorf("invalid gateway port %d", c.Gateway.Port)
	}

	if c.AI.MaxRetries < 0 {
		return fmt.Errorf("ai.max_retries cannot be negative")
	}

	for i, profile := range c.AI.Profiles {
		if profile.ID == "" {
			return fmt.Errorf("AI profile %d: ID is required", i)
		}
		if profile.Provider == "" {
			return fmt.Errorf("AI profile %s: provider is required", profile.ID)
		}
		if profile.APIKey == "" {
			return fmt.Errorf("AI profile %s: api_key is required", profile.ID)
		}
		validProviders := []string{"anthropic", "openai", "gemini"}
		valid := false
		for _, vp := range validProviders {
			if profile.Provider == vp {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("AI profile %s: invalid provider %s (must be: anthropic, openai, gemini)", profile.ID, profile.Provider)
		}
	}

	return nil
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
