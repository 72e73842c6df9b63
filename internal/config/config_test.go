package config

import (
	"errors"
	"testing"
	"time"
)

func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	if cfg.TorProxyAddress != DefaultTorProxyAddress {
		t.Errorf("TorProxyAddress = %q, want %q", cfg.TorProxyAddress, DefaultTorProxyAddress)
	}
	if cfg.FetchTimeout != DefaultFetchTimeout {
		t.Errorf("FetchTimeout = %v, want %v", cfg.FetchTimeout, DefaultFetchTimeout)
	}
	if cfg.StoreBackend != StoreSQLite {
		t.Errorf("StoreBackend = %q, want %q", cfg.StoreBackend, StoreSQLite)
	}
	if cfg.MaxBodySize != DefaultMaxBodySize {
		t.Errorf("MaxBodySize = %d, want %d", cfg.MaxBodySize, DefaultMaxBodySize)
	}
	if cfg.UserAgent != DefaultUserAgent {
		t.Errorf("UserAgent = %q, want %q", cfg.UserAgent, DefaultUserAgent)
	}
	if cfg.DBDir == "" {
		t.Error("DBDir is empty, want XDG data dir")
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		cfg := NewConfig()
		cfg.NodeName = "node1"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "valid defaults",
			mutate:  func(c *Config) {},
			wantErr: nil,
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.FetchTimeout = 0 },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "negative workers",
			mutate:  func(c *Config) { c.Workers = -1 },
			wantErr: ErrInvalidWorkers,
		},
		{
			name:    "missing node name",
			mutate:  func(c *Config) { c.NodeName = "" },
			wantErr: ErrMissingNodeName,
		},
		{
			name: "api store without url",
			mutate: func(c *Config) {
				c.StoreBackend = StoreAPI
				c.APIKey = "key"
			},
			wantErr: ErrMissingAPIEndpoint,
		},
		{
			name: "api store without key",
			mutate: func(c *Config) {
				c.StoreBackend = StoreAPI
				c.APIURL = "https://backend.example/api/"
			},
			wantErr: ErrMissingAPIKey,
		},
		{
			name: "api store fully configured",
			mutate: func(c *Config) {
				c.StoreBackend = StoreAPI
				c.APIURL = "https://backend.example/api/"
				c.APIKey = "key"
			},
			wantErr: nil,
		},
		{
			name:    "unknown store backend",
			mutate:  func(c *Config) { c.StoreBackend = "redis" },
			wantErr: ErrUnknownStore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateWorkersZeroIsAllowed(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cfg.NodeName = "node1"
	cfg.Workers = 0
	cfg.FetchTimeout = 10 * time.Second

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate = %v, want nil for zero workers", err)
	}
}
