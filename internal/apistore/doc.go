// Package apistore implements the frontier store against the backend
// REST API, letting many nodes crawl into one shared web graph. It
// mirrors the SQLite store's semantics: idempotent upserts, atomic
// claims (delegated to the backend's next endpoint), and the same
// offline backoff arithmetic.
package apistore
