package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".torspider.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the YAML configuration file layout. Every field is optional;
// flags override whatever the file sets.
type File struct {
	// NodeName identifies this node in the shared frontier.
	NodeName string `yaml:"nodeName,omitempty"`

	// TorProxy is the external SOCKS5 proxy address.
	TorProxy string `yaml:"torProxy,omitempty"`

	// ExternalTor disables the embedded daemon.
	ExternalTor bool `yaml:"externalTor,omitempty"`

	// Store selects the frontier backend ("sqlite" or "api").
	Store string `yaml:"store,omitempty"`

	// DBDir is the SQLite database directory.
	DBDir string `yaml:"dbDir,omitempty"`

	// API holds backend API credentials for remote coordination.
	API APIFile `yaml:"api,omitempty"`

	// Workers is the pool size (0 = 2x CPU count).
	Workers int `yaml:"workers,omitempty"`

	// FetchTimeout bounds each request, e.g. "30s".
	FetchTimeout time.Duration `yaml:"fetchTimeout,omitempty"`

	// UserAgent overrides the default Tor Browser User-Agent.
	UserAgent string `yaml:"userAgent,omitempty"`
}

// APIFile is the backend API section of the configuration file.
type APIFile struct {
	// URL is the API base url, e.g. "https://backend.example/api/".
	URL string `yaml:"url,omitempty"`

	// Key is the authorization token.
	Key string `yaml:"key,omitempty"`
}

// LoadConfigFile reads and parses a YAML configuration file.
// Returns ErrConfigNotFound if the file does not exist, so callers can
// treat a missing default file as non-fatal.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// FindConfigFile locates the configuration file:
//  1. the explicit path, when given
//  2. .torspider.yaml in the current directory
//  3. .torspider.yaml in the XDG config directory
//
// Returns "" when nothing is found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		candidate := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	candidate := filepath.Join(XDGConfigDir(), DefaultConfigFile)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}

	return ""
}

// Apply layers the file's values onto a Config. Only set fields
// override; zero values leave the Config untouched.
func (cf *File) Apply(c *Config) {
	if cf.NodeName != "" {
		c.NodeName = cf.NodeName
	}
	if cf.TorProxy != "" {
		c.TorProxyAddress = cf.TorProxy
	}
	if cf.ExternalTor {
		c.UseExternalTor = true
	}
	if cf.Store != "" {
		c.StoreBackend = cf.Store
	}
	if cf.DBDir != "" {
		c.DBDir = cf.DBDir
	}
	if cf.API.URL != "" {
		c.APIURL = cf.API.URL
	}
	if cf.API.Key != "" {
		c.APIKey = cf.API.Key
	}
	if cf.Workers != 0 {
		c.Workers = cf.Workers
	}
	if cf.FetchTimeout != 0 {
		c.FetchTimeout = cf.FetchTimeout
	}
	if cf.UserAgent != "" {
		c.UserAgent = cf.UserAgent
	}
}
