package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/courtside/wintracker/internal/conf"
)

const redacted = "********"

// Command creates the config command and its init subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Long:  "Print the configuration after defaults, config file, .env and WINTRACKER_* variables are applied. Secrets are masked.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(Redact(settings))
			if err != nil {
				return fmt.Errorf("error marshaling settings: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.AddCommand(initCommand())
	return cmd
}

func initCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default config.yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "config.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if err := conf.WriteDefaultConfig(path); err != nil {
				return err
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				abs = path
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", abs)
			return nil
		},
	}
}

// Redact returns a copy of settings with credentials masked.
func Redact(settings *conf.Settings) conf.Settings {
	out := *settings
	mask := func(s *string) {
		if *s != "" {
			*s = redacted
		}
	}
	mask(&out.Output.MySQL.Password)
	mask(&out.MQTT.Password)
	mask(&out.Sentry.DSN)
	return out
}
