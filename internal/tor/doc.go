// Package tor provides the anonymizing transport for the spiders: a
// SOCKS5 client for an external Tor daemon, an optional embedded daemon
// managed through tornago, self-IP probes used to tell local outages
// from dead targets, and onion address validation.
package tor
