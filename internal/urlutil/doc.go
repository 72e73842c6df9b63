// Package urlutil canonicalizes the urls the spiders trade in: it
// defragments obfuscated onion domains, repairs parser misreads, merges
// redirect locations and form actions against a base url, and extracts
// the registrable onion domain.
//
// The merge functions intentionally do NOT implement RFC 3986 reference
// resolution. Redirect locations use a coarse scheme/host merge, and
// form actions use directory-relative resolution with explicit ../
// ascent; both match how the crawl frontier was built historically, so
// changing them would fork stored urls away from new discoveries.
package urlutil
