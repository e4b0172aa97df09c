// Package main provides the entry point for the webgrep CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for webgrep.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webgrep",
		Short: "Recursive web crawler that greps pages for text",
		Long: `Webgrep crawls the web from one or more seed URLs and greps every
fetched page for a text expression. The links of every fetched page are
followed recursively, up to a configurable link budget.

Results are reported per page: fetch status, title, and excerpts around
each match.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
