// Package database provides the SQLite-backed frontier store. It holds
// the shared web graph (onions, urls, pages, links, form fields) and
// implements the claim protocol the spiders coordinate through when a
// node runs standalone instead of against the backend API.
package database
