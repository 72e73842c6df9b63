package model

// FrontierStats is a snapshot of the web graph's size and crawl
// progress, used by the stats report.
type FrontierStats struct {
	// Onions is the total number of known domains.
	Onions int

	// OnionsOnline is how many domains were online at their last scan.
	OnionsOnline int

	// OnionsScanned is how many domains have been scanned at least once.
	OnionsScanned int

	// URLs is the total number of known urls.
	URLs int

	// URLsScanned is how many urls have been scanned at least once.
	URLsScanned int

	// URLsFaulted is how many urls carry a fault marker.
	URLsFaulted int

	// Pages is the total number of known logical pages.
	Pages int

	// Links is the number of directed domain-to-domain edges.
	Links int

	// FormFields is the number of discovered (page, field) pairs.
	FormFields int
}

// GraphNode is one domain in the visible-web export: an online,
// scanned onion with its front page title.
type GraphNode struct {
	Domain string `json:"domain"`
	Title  string `json:"title"`
}

// GraphEdge is one directed link in the visible-web export.
type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// WebGraph is the visible-web export document.
type WebGraph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}
