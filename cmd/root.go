package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/courtside/wintracker/cmd/add"
	"github.com/courtside/wintracker/cmd/config"
	"github.com/courtside/wintracker/cmd/report"
	"github.com/courtside/wintracker/cmd/serve"
	"github.com/courtside/wintracker/internal/conf"
	"github.com/courtside/wintracker/internal/logger"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "wintracker",
		Short:        "Basketball wins tracker",
		Long:         "Record basketball games and follow the win record from a browser or the terminal.",
		SilenceUsage: true,
	}

	setupFlags(rootCmd, settings)

	rootCmd.AddCommand(
		serve.Command(settings),
		add.Command(settings),
		report.Command(settings),
		config.Command(settings),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return initialize(settings)
	}

	return rootCmd
}

// setupFlags defines the global flags. Their defaults are the loaded settings,
// so a flag only overrides what the config file or environment set.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", settings.Debug, "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.Output.SQLite.Path, "db", settings.Output.SQLite.Path, "Path to the SQLite database file")
}

// initialize re-validates settings after flag parsing and installs the global logger.
func initialize(settings *conf.Settings) error {
	if err := conf.ValidateSettings(settings); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	if settings.Debug {
		settings.Logging.DefaultLevel = string(logger.LogLevelDebug)
		if settings.Logging.Console != nil {
			settings.Logging.Console.Level = string(logger.LogLevelDebug)
		}
	}

	centralLogger, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.SetGlobal(centralLogger)

	return nil
}
