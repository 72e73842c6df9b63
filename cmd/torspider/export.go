package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/torspider/torspider/internal/report"
)

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the visible web graph as JSON",
		Long: `Export writes the visible web graph as JSON: nodes are online onion
domains that have been scanned at least once, edges are the links
between them. Self-loops and never-seen domains are excluded.

Requires the sqlite store.

Examples:
  torspider export > graph.json
  torspider export -o graph.json --pretty`,
		Args: cobra.NoArgs,
		RunE: runExportCmd,
	}

	addStoreFlags(cmd)
	cmd.Flags().StringP("output", "o", "",
		"Write graph to specified file path instead of stdout")
	cmd.Flags().Bool("pretty", false,
		"Pretty-print the JSON output")

	return cmd
}

// runExportCmd executes the export command.
func runExportCmd(cmd *cobra.Command, _ []string) error {
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

	graph, err := db.VisibleWeb(ctx)
	if err != nil {
		return err
	}

	output, cleanup, err := openOutput(cmd, "output")
	if err != nil {
		return err
	}
	defer cleanup()

	pretty, err := cmd.Flags().GetBool("pretty")
	if err != nil {
		return err
	}

	var opts []report.GraphOption
	if pretty {
		opts = append(opts, report.WithIndent())
	}
	return report.NewGraphWriter(output, opts...).Write(graph)
}
