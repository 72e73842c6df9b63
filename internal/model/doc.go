// Package model defines the web-graph entities shared by every spider:
// onion domains, urls, pages, links between domains, and discovered form
// fields. These records mirror the frontier store schema and carry no
// behavior beyond small helpers; all mutation happens through the store.
package model
