package main

import (
	"fmt"
	"os"

	"github.com/warplab/gwstrain/cmd"
	"github.com/warplab/gwstrain/internal/conf"
	"github.com/warplab/gwstrain/internal/logging"
)

func main() {
	// Structured loggers must exist before any package logger is used
	logging.Init()

	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
