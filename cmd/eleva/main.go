package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "eleva",
		Short: "Minimal reactive component runtime",
		Long: `Eleva is a minimal reactive component runtime.

Components declare markup with {{ expression }} interpolation,
reactive state as cells, and lifecycle hooks. The preview server
renders component files from disk and live-reloads connected
browsers on edit.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
