// Package log builds the slog loggers used by the spiders. All output
// passes through a sanitizing handler that masks frontier API tokens
// and HTTP credentials, so debug-level crawl logs can be shared without
// scrubbing.
package log
