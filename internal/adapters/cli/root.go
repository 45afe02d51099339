package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/mediator-go/internal/infrastructure/config"
)

var (
	// Global flags
	configPath string
	verbose    bool
)

// NewRootCommand creates the root command for the CLI
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mediator",
		Short: "Order service built on a request/behavior pipeline",
		Long: `mediator dispatches order commands and queries through an ordered
pipeline of behaviors (tracing, logging, metrics, rate limiting,
authorization, validation, caching) to exactly one handler each.

The serve command exposes the pipeline over HTTP. The order commands run
the same pipeline in-process against the configured database.

Examples:
  mediator serve
  mediator order create --as 7 --total 2500
  mediator order get 1b4e28ba-2fa1-11d2-883f-0016d3cca427 --as 7
  mediator order list --customer 7 --status PENDING --admin
  mediator config show`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file (default: search ., ./configs, /etc/mediator)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")

	// Add command groups
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewOrderCommand())

	return rootCmd
}

// loadConfig loads the configuration named by --config and applies --verbose
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
