package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/torspider/torspider/internal/apistore"
	"github.com/torspider/torspider/internal/config"
	"github.com/torspider/torspider/internal/crawler"
	"github.com/torspider/torspider/internal/database"
	"github.com/torspider/torspider/internal/log"
)

// addStoreFlags registers the frontier store flags shared by every
// command that touches the store.
func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("store", "s", "",
		"Frontier store backend: sqlite or api (default: sqlite)")
	cmd.Flags().String("db-dir", "",
		"SQLite database directory (default: XDG data directory)")
	cmd.Flags().String("api-url", "",
		"Backend API base url (api store only)")
	cmd.Flags().String("api-key", "",
		"Backend API token (api store only)")
	cmd.Flags().StringP("node", "n", "",
		"Node name in the shared frontier (default: hostname)")
}

// buildConfig layers the configuration file and store flags over the
// defaults. Commands add their own flags on top afterwards.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		configPath, _ = cmd.Root().PersistentFlags().GetString("config") //nolint:errcheck // Missing flag means no config file
	}
	explicit := configPath != ""

	if found := config.FindConfigFile(configPath); found != "" {
		cf, err := config.LoadConfigFile(found)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", found, err)
		}
		cf.Apply(cfg)
	} else if explicit {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	if store, err := cmd.Flags().GetString("store"); err == nil && store != "" {
		cfg.StoreBackend = store
	}
	if dbDir, err := cmd.Flags().GetString("db-dir"); err == nil && dbDir != "" {
		cfg.DBDir = dbDir
	}
	if apiURL, err := cmd.Flags().GetString("api-url"); err == nil && apiURL != "" {
		cfg.APIURL = apiURL
	}
	if apiKey, err := cmd.Flags().GetString("api-key"); err == nil && apiKey != "" {
		cfg.APIKey = apiKey
	}
	if node, err := cmd.Flags().GetString("node"); err == nil && node != "" {
		cfg.NodeName = node
	}
	cfg.Verbose = getVerboseFlag(cmd)

	return cfg, nil
}

// getVerboseFlag retrieves the verbose flag from the command or its
// parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates the sanitizing structured logger and installs it
// as the default.
func setupLogger(verbose bool) *slog.Logger {
	logger := log.NewLogger(os.Stderr, verbose)
	slog.SetDefault(logger)
	return logger
}

// openStore opens the configured frontier store. The returned closer is
// a no-op for the API store.
func openStore(cfg *config.Config) (crawler.Store, func() error, error) {
	switch cfg.StoreBackend {
	case config.StoreAPI:
		client := apistore.New(cfg.APIURL, cfg.APIKey, cfg.NodeName)
		return client, func() error { return nil }, nil

	case config.StoreSQLite:
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open frontier database: %w", err)
		}
		return db, db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend: %s", cfg.StoreBackend)
	}
}

// openFrontierDB opens the SQLite frontier directly, for the read-only
// reporting commands that need its query methods.
func openFrontierDB(cfg *config.Config) (*database.FrontierDB, error) {
	if cfg.StoreBackend != config.StoreSQLite {
		return nil, fmt.Errorf("this command requires the sqlite store (configured: %s)", cfg.StoreBackend)
	}

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(cfg.DBDir, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open frontier database: %w", err)
	}
	return db, nil
}
