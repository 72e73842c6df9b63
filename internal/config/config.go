package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Store backend selectors.
const (
	// StoreSQLite coordinates workers through a shared local SQLite
	// frontier database.
	StoreSQLite = "sqlite"

	// StoreAPI coordinates workers through the backend REST API, for
	// nodes contributing to a remote shared frontier.
	StoreAPI = "api"
)

// Default configuration values. Chosen to match Tor network latency and
// the behavior the shared frontier was built around.
const (
	// DefaultTorProxyAddress is the standard Tor SOCKS5 proxy address.
	DefaultTorProxyAddress = "127.0.0.1:9050"

	// DefaultFetchTimeout bounds each HEAD/GET request. Thirty seconds
	// is generous enough for slow hidden services without letting one
	// dead circuit stall a worker for minutes.
	DefaultFetchTimeout = 30 * time.Second

	// DefaultUserAgent is the Tor Browser Bundle's User-Agent. Blending
	// in with browser traffic avoids trivially fingerprinting the
	// spiders to every service they visit.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 6.1; rv:52.0) Gecko/20100101 Firefox/52.0"

	// DefaultMaxBodySize caps how much of a response body is read.
	// Bodies over the cap record a memory fault instead of being
	// swallowed whole.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultIdleWait is how long a worker sleeps when the frontier has
	// no claimable url, instead of busy-spinning on the store.
	DefaultIdleWait = 30 * time.Second

	// DefaultSleepFile is the sentinel file whose presence tells every
	// worker on this node to finish its iteration and exit.
	DefaultSleepFile = "sleep"

	// DefaultTorStartupTimeout bounds embedded Tor bootstrap.
	DefaultTorStartupTimeout = 3 * time.Minute

	// AppName is used for XDG directory paths.
	AppName = "torspider"
)

// Config holds all options for a spider node. It is populated from CLI
// flags layered over the YAML config file, validated once, and passed
// to components by value semantics (no process-wide mutable globals).
type Config struct {
	// TorProxyAddress is the SOCKS5 proxy in "host:port" form. Ignored
	// when the embedded daemon is used (its assigned port wins).
	TorProxyAddress string

	// UseExternalTor disables the embedded Tor daemon and connects to
	// TorProxyAddress instead.
	UseExternalTor bool

	// TorStartupTimeout bounds embedded Tor bootstrap.
	TorStartupTimeout time.Duration

	// FetchTimeout bounds each HTTP request a worker issues.
	FetchTimeout time.Duration

	// NodeName identifies this node in the shared frontier. Workers
	// record it as the claiming identity; the same-node skip rule
	// depends on it being stable and unique per deployment.
	NodeName string

	// Workers is the pool size. Zero means 2x the CPU count.
	Workers int

	// UserAgent is sent on every request.
	UserAgent string

	// MaxBodySize caps response body reads in bytes.
	MaxBodySize int64

	// StoreBackend selects the frontier store: StoreSQLite or StoreAPI.
	StoreBackend string

	// DBDir is the directory holding the SQLite frontier database.
	// Empty means the XDG data directory.
	DBDir string

	// APIURL is the backend API base url (StoreAPI only).
	APIURL string

	// APIKey is the backend API token (StoreAPI only).
	APIKey string

	// IdleWait is the sleep between claim attempts when the frontier is
	// empty.
	IdleWait time.Duration

	// SleepFile is the cooperative shutdown sentinel path.
	SleepFile string

	// Verbose switches logging from Warn to Debug.
	Verbose bool
}

// NewConfig returns a Config with all defaults filled in. NodeName
// defaults to the hostname so single-host deployments need no config
// at all.
func NewConfig() *Config {
	hostname, _ := os.Hostname() //nolint:errcheck // Empty hostname is caught by Validate

	return &Config{
		TorProxyAddress:   DefaultTorProxyAddress,
		TorStartupTimeout: DefaultTorStartupTimeout,
		FetchTimeout:      DefaultFetchTimeout,
		NodeName:          hostname,
		UserAgent:         DefaultUserAgent,
		MaxBodySize:       DefaultMaxBodySize,
		StoreBackend:      StoreSQLite,
		DBDir:             XDGDataDir(),
		IdleWait:          DefaultIdleWait,
		SleepFile:         DefaultSleepFile,
	}
}

// XDGDataDir returns the XDG data directory for torspider
// (~/.local/share/torspider on Linux).
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for torspider
// (~/.config/torspider on Linux).
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns the first problem
// found. Called once after flag parsing, before anything starts.
func (c *Config) Validate() error {
	if c.FetchTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Workers < 0 {
		return ErrInvalidWorkers
	}
	if c.NodeName == "" {
		return ErrMissingNodeName
	}

	switch c.StoreBackend {
	case StoreSQLite:
	case StoreAPI:
		if c.APIURL == "" {
			return ErrMissingAPIEndpoint
		}
		if c.APIKey == "" {
			return ErrMissingAPIKey
		}
	default:
		return ErrUnknownStore
	}

	return nil
}
