package cli

import (
	"fmt"

	"github.com/harun/thakir/internal/config"
	"github.com/harun/thakir/pkg/gateway"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	cfgFile   string
	logLevel  string
	serverURL string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "thakir",
	Short: "Thakir - study reminders with AI lesson summaries",
	Long: `Thakir schedules one-shot study reminders and alerts you when they fall due.
It runs as a local daemon with an HTTP and WebSocket API, and can turn an
AI-generated lesson summary into a reminder.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.thakir/thakir.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "daemon URL (default from config gateway settings)")

	// Version template
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)
}

// GetRootCmd returns the root command for testing
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// GetVersion returns the current version
func GetVersion() string {
	return version
}

// loadConfig loads the config file and applies the --log-level override
func loadConfig(cmd *cobra.Command) (*config.Loader, *config.Config, error) {
	loader := config.NewLoader(cfgFile)
	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if flag := cmd.Flags().Lookup("log-level"); flag != nil && flag.Changed {
		cfg.Logging.Level = logLevel
	}

	return loader, cfg, nil
}

// newAPIClient returns a client for the running daemon. --server wins over
// the configured gateway address.
func newAPIClient(cmd *cobra.Command) (*gateway.APIClient, error) {
	if serverURL != "" {
		return gateway.NewClient(serverURL), nil
	}

	_, cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return gateway.NewClient(cfg.GatewayURL()), nil
}
