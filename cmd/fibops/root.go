package main

import (
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
)

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "fibops",
		Short: "Memoized Fibonacci service",
		Long: `fibops computes Fibonacci numbers with a process-wide memo table.

Run "fibops serve" to expose GET /fib/{n} over HTTP, or "fibops eval" to
evaluate indices locally.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, toml or json)")

	root.AddCommand(newServeCmd(&cfgFile))
	root.AddCommand(newEvalCmd(&cfgFile))
	root.AddCommand(newVersionCmd())
	return root
}
