// Package config holds the immutable runtime configuration for a
// spider node: transport endpoint, frontier store selection and
// credentials, node identity, and crawl tuning. It is loaded once at
// startup (flags layered over an optional YAML file) and handed to the
// workers; nothing mutates it afterward.
package config
