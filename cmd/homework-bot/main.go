// homework-bot polls the Practicum homework status API and reports review
// verdicts to a Telegram chat.
//
// Usage:
//
//	homework-bot [--env-file FILE]... [command]
//
// Commands:
//
//	run       poll forever and serve the operator API (default)
//	check     run a single cycle and exit
//	verdicts  print the status → verdict table
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// version is set via ldflags at build time.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFiles []string

	root := &cobra.Command{
		Use:           "homework-bot",
		Short:         "Practicum homework status bot for Telegram",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runService(cmd.Context(), envFiles)
		},
	}
	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load (default .env)")

	root.AddCommand(
		newRunCmd(&envFiles),
		newCheckCmd(&envFiles),
		newVerdictsCmd(),
	)
	return root
}

func newRunCmd(envFiles *[]string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Poll the status API forever and serve the operator API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runService(cmd.Context(), *envFiles)
		},
	}
}

func newCheckCmd(envFiles *[]string) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run one polling cycle and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), *envFiles, newOutput(cmd.OutOrStdout(), jsonOutput))
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the cycle as JSON")
	return cmd
}

func newVerdictsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "verdicts",
		Short: "Print the status to verdict table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printVerdicts(newOutput(cmd.OutOrStdout(), jsonOutput))
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the table as JSON")
	return cmd
}
