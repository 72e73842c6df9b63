package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/torspider/torspider/internal/report"
)

// NewStatsCmd creates the stats command.
func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Report crawl progress over the local frontier",
		Long: `Stats renders a markdown report of the local frontier: how many onions
are known, how many are online, how far the url scan has progressed,
and the size of the web graph.

Requires the sqlite store; nodes using the backend API should query the
backend for statistics.

Examples:
  torspider stats
  torspider stats -o report.md`,
		Args: cobra.NoArgs,
		RunE: runStatsCmd,
	}

	addStoreFlags(cmd)
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path instead of stdout")

	return cmd
}

// runStatsCmd executes the stats command.
func runStatsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	setupLogger(cfg.Verbose)

	db, err := openFrontierDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // Read-only access

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	stats, err := db.Stats(ctx)
	if err != nil {
		return err
	}

	output, cleanup, err := openOutput(cmd, "output")
	if err != nil {
		return err
	}
	defer cleanup()

	return report.NewStatsWriter(output).Write(stats)
}

// openOutput resolves a command's output flag to a writer: the named
// file (directories created as needed) or the command's stdout.
func openOutput(cmd *cobra.Command, flag string) (*os.File, func(), error) {
	path, err := cmd.Flags().GetString(flag)
	if err != nil {
		return nil, nil, err
	}
	if path == "" {
		if stdout, ok := cmd.OutOrStdout().(*os.File); ok {
			return stdout, func() {}, nil
		}
		return os.Stdout, func() {}, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
