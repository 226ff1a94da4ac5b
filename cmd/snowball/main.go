package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set by the release build via -ldflags.
var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "snowball",
		Short: "Snowball sampling - keyword discovery simulator",
		Long: `snowball simulates snowball sampling over a keyword network.

Starting from seed keywords, each round samples the undiscovered neighbours
of everything found so far and discovers each one with a probability
proportional to its frequency, until a round finds nothing new.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.snowball/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug or trace")
	rootCmd.PersistentFlags().String("content-base", "", "Course content directory or URL")
	rootCmd.PersistentFlags().String("course-version", "", "Course version to read content from")
	rootCmd.PersistentFlags().String("corpus", "", "Corpus JSON file, URL or SQLite corpus database")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newServeCmd(),
		newMCPServerCmd(),
		newSimulateCmd(),
		newCorpusCmd(),
		newContentCmd(),
		newConfigCmd(),
	)
	return rootCmd
}
