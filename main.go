package main

import (
	"fmt"
	"os"

	"github.com/courtside/wintracker/cmd"
	"github.com/courtside/wintracker/internal/buildinfo"
	"github.com/courtside/wintracker/internal/conf"
	"github.com/courtside/wintracker/internal/logger"
)

func main() {
	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	rootCmd := cmd.RootCommand(settings)
	rootCmd.Version = buildinfo.Get().String()

	err = rootCmd.Execute()
	if closeErr := logger.Global().Close(); closeErr != nil {
		fmt.Fprintf(os.Stderr, "Error closing log file: %v\n", closeErr)
	}
	if err != nil {
		os.Exit(1)
	}
}
