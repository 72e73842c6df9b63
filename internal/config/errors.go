package config

import "errors"

var (
	// ErrInvalidTimeout is returned when the fetch timeout is zero or negative.
	ErrInvalidTimeout = errors.New("fetch timeout must be positive")

	// ErrInvalidWorkers is returned when the worker count is negative.
	ErrInvalidWorkers = errors.New("worker count must not be negative")

	// ErrUnknownStore is returned for a store backend other than "sqlite" or "api".
	ErrUnknownStore = errors.New(`store backend must be "sqlite" or "api"`)

	// ErrMissingAPIEndpoint is returned when the api backend is selected
	// without an API url.
	ErrMissingAPIEndpoint = errors.New("api store selected but no API url configured")

	// ErrMissingAPIKey is returned when the api backend is selected
	// without an API token.
	ErrMissingAPIKey = errors.New("api store selected but no API key configured")

	// ErrMissingNodeName is returned when no node identity is configured
	// and none could be derived from the hostname.
	ErrMissingNodeName = errors.New("node name must be configured")
)
