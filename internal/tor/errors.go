package tor

import "errors"

var (
	// ErrInvalidProxyAddress is returned when the SOCKS5 proxy address
	// is not in "host:port" format.
	ErrInvalidProxyAddress = errors.New("invalid Tor proxy address, expected host:port")

	// ErrTooManyRedirects is returned by the HTTP client when a fetch
	// follows more than maxRedirects redirections. The crawler records
	// it as a permanent "redirect" fault on the url.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrNotAnonymous is returned when the direct and Tor-routed
	// egress IPs match, meaning the proxy is not actually anonymizing.
	ErrNotAnonymous = errors.New("tor connection not anonymous: direct and proxied IPs match")

	// ErrEgressUnavailable is returned when no self-IP endpoint could
	// be reached, i.e. our own connectivity is broken.
	ErrEgressUnavailable = errors.New("egress check failed: no self-IP endpoint reachable")
)
