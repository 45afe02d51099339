package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/andrescamacho/mediator-go/internal/infrastructure/config"
)

const masked = "****"

// NewConfigCommand creates the config command with subcommands
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration settings",
		Long: `Inspect the effective configuration.

Configuration is loaded from multiple sources with priority:
1. Environment variables (MD_* prefix, plus DATABASE_URL and REDIS_URL)
2. Config file (config.yaml)
3. Default values

Examples:
  mediator config show
  mediator config validate --config ./configs/config.yaml`,
	}

	// Add subcommands
	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigValidateCommand())

	return cmd
}

// newConfigShowCommand creates the config show subcommand
func newConfigShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration as YAML",
		Long: `Display the effective configuration after defaults, the config file
and the environment have been merged. Passwords are masked.

Example:
  mediator config show`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: Failed to load config: %v\n", err)
				fmt.Fprintln(cmd.ErrOrStderr(), "Using default configuration.")
				cfg = config.LoadConfigOrDefault(configPath)
			}

			out, err := yaml.Marshal(redact(*cfg))
			if err != nil {
				return fmt.Errorf("failed to render config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	return cmd
}

// newConfigValidateCommand creates the config validate subcommand
func newConfigValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.LoadConfig(configPath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration is valid")
			return nil
		},
	}
}

// redact returns a copy of cfg with every credential masked
func redact(cfg config.Config) config.Config {
	cfg.Database.URL = maskPassword(cfg.Database.URL)
	if cfg.Database.Password != "" {
		cfg.Database.Password = masked
	}
	cfg.Cache.Redis.URL = maskPassword(cfg.Cache.Redis.URL)
	if cfg.Cache.Redis.Password != "" {
		cfg.Cache.Redis.Password = masked
	}
	cfg.Messaging.NATS.URL = maskPassword(cfg.Messaging.NATS.URL)
	return cfg
}

// maskPassword hides the password of a connection URL, leaving the rest readable
func maskPassword(raw string) string {
	if raw == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return masked
	}
	if u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), masked)
	}
	return u.String()
}
