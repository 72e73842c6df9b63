package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/torspider/torspider/internal/crawler"
	"github.com/torspider/torspider/internal/urlutil"
)

// NewSeedCmd creates the seed command.
func NewSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed <url>...",
		Short: "Add onion urls to the frontier",
		Long: `Seed adds one or more onion urls to the frontier so the spiders have
somewhere to start. Bare domains get an http:// prefix; everything else
is normalized the same way discovered links are.

Examples:
  torspider seed http://exampleonion.onion/
  torspider seed exampleonion.onion anotheronion.onion/directory.html`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSeedCmd,
	}

	addStoreFlags(cmd)

	return cmd
}

// runSeedCmd executes the seed command.
func runSeedCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	setupLogger(cfg.Verbose)

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore() //nolint:errcheck // Best effort cleanup

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	for _, arg := range args {
		url, err := addSeed(ctx, store, cfg.NodeName, arg)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %s\n", url)
	}
	return nil
}

// addSeed normalizes one seed url and records its domain and url in the
// frontier. Returns the normalized url.
func addSeed(ctx context.Context, store crawler.Store, nodeName, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	url := urlutil.FixURL(raw)
	if urlutil.Path(url) == "" {
		url += "/"
	}

	domain := urlutil.RegistrableDomain(url)
	if !urlutil.IsOnion(domain) {
		return "", fmt.Errorf("not an onion url: %s", raw)
	}

	if err := store.UpsertOnion(ctx, domain, nodeName); err != nil {
		return "", fmt.Errorf("failed to seed domain %s: %w", domain, err)
	}
	if err := store.UpsertURL(ctx, domain, url); err != nil {
		return "", fmt.Errorf("failed to seed url %s: %w", url, err)
	}
	return url, nil
}
