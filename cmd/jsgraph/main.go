package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/ludo-technologies/jsgraph/internal/version"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version = version.Version
)

// ExitError carries a process exit code out of a command
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// Exit codes
const (
	exitIssues = 1
	exitError  = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			if exitErr.Message != "" {
				fmt.Fprintf(os.Stderr, "Error: %s\n", exitErr.Message)
			}
			os.Exit(exitErr.Code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitError)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "jsgraph",
		Short: "jsgraph - module graph and dead code analyzer for JavaScript/TypeScript",
		Long: `jsgraph builds the import graph of a JavaScript/TypeScript project and reports
dead code: unused exports, modules no entry point reaches, and npm dependencies
nothing imports.

Exit codes:
  0 - Success
  1 - Issues found (with --fail-on-issues)
  2 - Error`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	opts.register(rootCmd)

	rootCmd.AddCommand(analyzeCmd(opts))
	rootCmd.AddCommand(unusedCmd(opts))
	rootCmd.AddCommand(unreachableCmd(opts))
	rootCmd.AddCommand(chainsCmd(opts))
	rootCmd.AddCommand(depsCmd(opts))
	rootCmd.AddCommand(graphCmd(opts))
	rootCmd.AddCommand(statsCmd(opts))
	rootCmd.AddCommand(initCmd(opts))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func versionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				fmt.Fprintln(cmd.OutOrStdout(), version.Get())
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "jsgraph version %s\n", version.GetVersion())
			}
		},
	}

	cmd.Flags().BoolP("verbose", "v", false, "Show detailed version information")
	return cmd
}
