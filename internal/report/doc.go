// Package report renders frontier data for humans and downstream
// tools: a markdown progress report over the crawl statistics, and a
// JSON export of the visible web graph.
package report
