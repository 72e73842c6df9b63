package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/torspider/torspider/internal/config"
	"github.com/torspider/torspider/internal/crawler"
	"github.com/torspider/torspider/internal/database"
	"github.com/torspider/torspider/internal/tor"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [seed-url...]",
		Short: "Run the spider pool against the frontier",
		Long: `Crawl starts the worker pool. Each spider repeatedly claims a url from
the shared frontier, fetches it through Tor, classifies the outcome, and
records discovered links, pages and forms back into the frontier.

Any seed urls given as arguments are added to the frontier before the
pool starts.

The pool runs until interrupted (Ctrl-C) or until the sleep file
appears; both let workers finish their current iteration first.

Examples:
  # Crawl with the embedded Tor daemon and local SQLite frontier
  torspider crawl http://exampleonion.onion/

  # Use an existing Tor proxy
  torspider crawl --external-tor 127.0.0.1:9050

  # Contribute to a shared remote frontier
  torspider crawl -s api --api-url https://backend.example/api --api-key TOKEN

  # Sixteen workers, verbose crawl log
  torspider crawl -w 16 -v`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	addStoreFlags(cmd)

	cmd.Flags().StringP("external-tor", "e", "",
		"Use external Tor proxy at specified address (e.g., 127.0.0.1:9050)")
	cmd.Flags().DurationP("tor-timeout", "T", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")
	cmd.Flags().DurationP("timeout", "t", config.DefaultFetchTimeout,
		"Timeout for each HTTP request")
	cmd.Flags().IntP("workers", "w", 0,
		"Number of spiders (default: 2x CPU count)")
	cmd.Flags().String("sleep-file", config.DefaultSleepFile,
		"Path whose existence tells workers to exit after their iteration")
	cmd.Flags().Bool("skip-anonymity-check", false,
		"Skip the startup check that the Tor egress differs from the direct egress")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildCrawlConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, stopping spiders...")
		cancel()
	}()

	skipAnonCheck, err := cmd.Flags().GetBool("skip-anonymity-check")
	if err != nil {
		return err
	}

	return runCrawl(ctx, cfg, args, skipAnonCheck, logger)
}

// buildCrawlConfig layers crawl-specific flags over the base
// configuration.
func buildCrawlConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return nil, err
	}

	externalTor, err := cmd.Flags().GetString("external-tor")
	if err != nil {
		return nil, err
	}
	if externalTor != "" {
		cfg.UseExternalTor = true
		cfg.TorProxyAddress = externalTor
	}

	if cfg.TorStartupTimeout, err = cmd.Flags().GetDuration("tor-timeout"); err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("timeout") {
		if cfg.FetchTimeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if workers, err := cmd.Flags().GetInt("workers"); err == nil && workers > 0 {
		cfg.Workers = workers
	}
	if cfg.SleepFile, err = cmd.Flags().GetString("sleep-file"); err != nil {
		return nil, err
	}

	return cfg, nil
}

// runCrawl wires the store, Tor transport and spider pool together and
// runs the pool to completion.
func runCrawl(ctx context.Context, cfg *config.Config, seeds []string, skipAnonCheck bool, logger *slog.Logger) error {
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore() //nolint:errcheck // Best effort cleanup

	client, stopTor, err := connectTor(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer stopTor()

	if skipAnonCheck {
		logger.Warn("anonymity check skipped")
	} else {
		logger.Info("verifying Tor egress anonymity...")
		if err := client.VerifyAnonymity(ctx, nil); err != nil {
			if errors.Is(err, tor.ErrNotAnonymous) {
				return fmt.Errorf("refusing to crawl: %w", err)
			}
			return fmt.Errorf("anonymity check failed: %w", err)
		}
		logger.Info("Tor egress verified")
	}

	for _, seed := range seeds {
		url, err := addSeed(ctx, store, cfg.NodeName, seed)
		if err != nil {
			return err
		}
		logger.Info("seed added", "url", url)
	}

	warnIfEmptyFrontier(ctx, store, logger)

	fetcher := crawler.NewFetcher(client.HTTPClient(), cfg.MaxBodySize)
	egress := &torEgress{client: client}

	pool := crawler.NewPool(
		func(name string) *crawler.Spider {
			return crawler.NewSpider(store, fetcher,
				crawler.WithName(name),
				crawler.WithNodeName(cfg.NodeName),
				crawler.WithLogger(logger),
				crawler.WithEgressChecker(egress),
				crawler.WithIdleWait(cfg.IdleWait),
				crawler.WithSleepFile(cfg.SleepFile),
			)
		},
		crawler.WithWorkers(cfg.Workers),
		crawler.WithPoolLogger(logger),
	)

	fmt.Printf("Starting %d spiders as node %q...\n", pool.Workers(), cfg.NodeName)
	return pool.Run(ctx)
}

// connectTor provides a Tor client, starting the embedded daemon unless
// an external proxy is configured. The returned stop function shuts the
// embedded daemon down.
func connectTor(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*tor.Client, func(), error) {
	if cfg.UseExternalTor {
		client, err := tor.NewClient(cfg.TorProxyAddress, cfg.FetchTimeout, cfg.UserAgent)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Tor client: %w", err)
		}
		logger.Info("using external Tor proxy", "address", cfg.TorProxyAddress)
		return client, func() {}, nil
	}

	fmt.Println("Starting embedded Tor daemon...")
	fmt.Printf("This may take 1-3 minutes while Tor bootstraps and connects to the network.\n\n")

	embedded := tor.NewEmbeddedTor(cfg.TorStartupTimeout)
	if err := embedded.Start(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to start embedded Tor: %w", err)
	}

	client, err := tor.NewClient(embedded.SocksAddr(), cfg.FetchTimeout, cfg.UserAgent)
	if err != nil {
		_ = embedded.Stop() //nolint:errcheck // Best effort cleanup
		return nil, nil, fmt.Errorf("failed to create Tor client: %w", err)
	}

	logger.Info("embedded Tor daemon started", "socksAddr", embedded.SocksAddr())
	fmt.Printf("Embedded Tor daemon started (SOCKS proxy: %s)\n\n", embedded.SocksAddr())

	stop := func() {
		logger.Info("stopping embedded Tor daemon...")
		if err := embedded.Stop(); err != nil {
			logger.Error("failed to stop embedded Tor", "error", err)
		}
	}
	return client, stop, nil
}

// warnIfEmptyFrontier logs a warning when a local frontier has no urls,
// which means the pool would only idle.
func warnIfEmptyFrontier(ctx context.Context, store crawler.Store, logger *slog.Logger) {
	db, ok := store.(*database.FrontierDB)
	if !ok {
		return
	}
	stats, err := db.Stats(ctx)
	if err != nil {
		return
	}
	if stats.URLs == 0 {
		logger.Warn("frontier is empty; add targets with 'torspider seed' or pass seed urls to crawl")
	}
}

// torEgress adapts the Tor client's egress probe to the crawler's
// EgressChecker.
type torEgress struct {
	client *tor.Client
}

// Healthy reports whether our Tor egress currently works.
func (t *torEgress) Healthy(ctx context.Context) bool {
	return t.client.EgressHealthy(ctx, nil)
}
