package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for TorSpider.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "torspider",
		Short: "Distributed crawler for Tor hidden services",
		Long: `TorSpider crawls Tor hidden services (.onion addresses) and maps the
web graph they form: domains, urls, pages, the links between services,
and the forms found on their pages.

Worker spiders coordinate through a shared frontier, either a local
SQLite database or the backend REST API, so several nodes can crawl
into one graph.

By default, TorSpider starts an embedded Tor daemon automatically.
Use --external-tor to use an existing Tor proxy instead.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .torspider.yaml in current or XDG config directory)")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewSeedCmd())
	cmd.AddCommand(NewStatsCmd())
	cmd.AddCommand(NewExportCmd())
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
