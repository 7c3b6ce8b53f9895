package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Wizard provides an interactive configuration wizard
type Wizard struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewWizard creates a new configuration wizard on stdin/stdout
func NewWizard() *Wizard {
	return NewWizardIO(os.Stdin, os.Stdout)
}

// NewWizardIO creates a wizard reading answers from in and writing prompts to out
func NewWizardIO(in io.Reader, out io.Writer) *Wizard {
	return &Wizard{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// Run runs the interactive configuration wizard
func (w *Wizard) Run() (*Config, error) {
	w.println("=== Thakir Configuration Wizard ===")
	w.println()

	cfg := DefaultConfig()
	validator := NewValidator()

	// Storage
	w.println("Session storage:")
	w.println("  file   - JSON file in the data directory (default)")
	w.println("  sqlite - SQLite database in the data directory")
	w.println("  redis  - Redis server")
	backend, err := w.ask("Backend [file]: ")
	if err != nil {
		return nil, err
	}
	switch backend {
	case "", "file":
		cfg.Storage.Backend = "file"
	case "sqlite", "redis":
		cfg.Storage.Backend = backend
	default:
		w.printf("Warning: unknown backend %s, using default (file)\n", backend)
	}

	if cfg.Storage.Backend == "redis" {
		addr, err := w.ask(fmt.Sprintf("Redis address [%s]: ", cfg.Storage.Redis.Addr))
		if err != nil {
			return nil, err
		}
		if addr != "" {
			cfg.Storage.Redis.Addr = addr
		}
	}

	w.println()

	// Alerts
	w.println("Alerts:")
	enable, err := w.ask("Show desktop notifications? (y/n) [y]: ")
	if err != nil {
		return nil, err
	}
	cfg.Alerts.System.Enabled = enable == "" || strings.ToLower(enable) == "y"

	player, err := w.ask("Sound player command (press Enter for terminal bell): ")
	if err != nil {
		return nil, err
	}
	if player != "" {
		if err := validator.ValidateCommand(player); err != nil {
			w.printf("Warning: %v\n", err)
		}
		cfg.Alerts.Sound.Player = player

		file, err := w.ask("Sound file: ")
		if err != nil {
			return nil, err
		}
		cfg.Alerts.Sound.File = file
	}

	w.println()

	// AI provider
	w.println("Lesson summaries (optional):")
	for {
		provider, err := w.ask("Provider (gemini/anthropic/openai, press Enter to skip): ")
		if err != nil {
			return nil, err
		}
		if provider == "" {
			break
		}
		if provider != "gemini" && provider != "anthropic" && provider != "openai" {
			w.printf("Error: unknown provider %s\n", provider)
			continue
		}

		key, err := w.ask("API Key: ")
		if err != nil {
			return nil, err
		}
		if err := validator.ValidateAPIKey(key, provider); err != nil {
			w.printf("Error: %v\n", err)
			continue
		}

		cfg.AI.Profiles = append(cfg.AI.Profiles, AIProfile{
			ID:       provider,
			Provider: provider,
			APIKey:   key,
			Priority: len(cfg.AI.Profiles) + 1,
		})
		break
	}

	w.println()

	// Log Level
	w.println("Logging:")
	level, err := w.ask("Log level (debug/info/warn/error) [info]: ")
	if err != nil {
		return nil, err
	}

	if level != "" {
		if err := validator.ValidateLogLevel(level); err != nil {
			w.printf("Warning: %v, using default (info)\n", err)
		} else {
			cfg.Logging.Level = level
		}
	}

	w.println()
	w.println("Configuration complete!")

	return cfg, nil
}

func (w *Wizard) ask(prompt string) (string, error) {
	fmt.Fprint(w.out, prompt)
	return w.readLine()
}

func (w *Wizard) println(a ...any) {
	fmt.Fprintln(w.out, a...)
}

func (w *Wizard) printf(format string, a ...any) {
	fmt.Fprintf(w.out, format, a...)
}

func (w *Wizard) readLine() (string, error) {
	line, err := w.reader.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
