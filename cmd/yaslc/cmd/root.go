package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "yaslc [file]",
	Short: "YASL compiler",
	Long: `yaslc compiles a YASL source file to stack-machine assembly.

YASL is a small Pascal-family imperative language: declarations, if/while
control flow, and procedures, compiled single-pass to a fixed-width
register/stack instruction set.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCompile,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "emit structured trace lines on stderr")
	rootCmd.Flags().StringVar(&configPath, "config", ".yaslc.yaml", "path to an optional YAML config file")
}

func exitWithError(msg string, args ...any) error {
	fmt.Fprintf(os.Stderr, "Error: "+msg+"\n", args...)
	return fmt.Errorf(msg, args...)
}
