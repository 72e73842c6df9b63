// Package main provides the entry point for the TorSpider CLI.
//
// TorSpider is a distributed crawler for Tor hidden services. Worker
// spiders claim urls from a shared frontier, fetch them through Tor,
// and record the resulting web graph of onions, urls, pages, links and
// forms.
//
// Usage:
//
//	torspider seed http://exampleonion.onion/
//	torspider crawl
//
// See --help for all available options.
package main

// main is the entry point for TorSpider.
func main() {
	Execute()
}
