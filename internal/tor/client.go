package tor

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// maxRedirects bounds redirect chains before the client gives up with
// ErrTooManyRedirects. Ten matches common browser behavior; onion
// redirect loops are how several trap sites try to pin crawlers.
const maxRedirects = 10

// Client provides Tor network connectivity for the spiders.
// It wraps a SOCKS5 dialer and builds HTTP clients routed through it.
//
// Design decision: The client only speaks to an already-running SOCKS
// port; daemon lifecycle lives in EmbeddedTor. This keeps the spiders
// testable against any SOCKS5 endpoint, including httptest servers
// reached without a proxy in tests.
type Client struct {
	// proxyAddress is the Tor SOCKS5 address in "host:port" form.
	proxyAddress string

	// dialer is the cached SOCKS5 dialer.
	dialer proxy.Dialer

	// timeout applies to each HTTP request issued by derived clients.
	timeout time.Duration

	// userAgent is sent on every request.
	userAgent string
}

// NewClient creates a Tor client for the given SOCKS5 proxy address.
// The address format is validated; actual reachability is not checked
// here (use VerifyAnonymity or EgressHealthy after construction).
func NewClient(proxyAddress string, timeout time.Duration, userAgent string) (*Client, error) {
	if !validProxyAddress(proxyAddress) {
		return nil, ErrInvalidProxyAddress
	}

	// Tor's SOCKS port does not require authentication.
	dialer, err := proxy.SOCKS5("tcp", proxyAddress, nil, proxy.Direct)
	if err != nil {
		return nil, err
	}

	return &Client{
		proxyAddress: proxyAddress,
		dialer:       dialer,
		timeout:      timeout,
		userAgent:    userAgent,
	}, nil
}

// validProxyAddress reports whether address is "host:port" with a port
// in range.
func validProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n >= 1 && n <= 65535
}

// HTTPClient returns an HTTP client routed through the Tor proxy.
//
// Design decisions:
//   - TLS verification is disabled: hidden services use self-signed
//     certificates and the onion address itself authenticates the peer.
//   - Compression is disabled to avoid compression side channels over
//     anonymized circuits.
//   - Redirect chains longer than maxRedirects fail with
//     ErrTooManyRedirects so the crawler can record a redirect fault.
func (c *Client) HTTPClient() *http.Client {
	transport := &http.Transport{
		DialContext: func(_ context.Context, network, addr string) (net.Conn, error) {
			return c.dialer.Dial(network, addr)
		},
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // Hidden services use self-signed certs
		},
		// Circuits are a limited resource; keep the pool small.
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
		DisableCompression:  true,
	}

	return &http.Client{
		Transport: &userAgentTransport{base: transport, userAgent: c.userAgent},
		Timeout:   c.timeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return ErrTooManyRedirects
			}
			return nil
		},
	}
}

// ProxyAddress returns the configured SOCKS5 proxy address.
func (c *Client) ProxyAddress() string {
	return c.proxyAddress
}

// userAgentTransport stamps the configured User-Agent on every request,
// including redirects, so no request leaks the Go default UA.
type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

// RoundTrip implements http.RoundTripper.
func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if t.userAgent != "" && strings.TrimSpace(clone.Header.Get("User-Agent")) == "" {
		clone.Header.Set("User-Agent", t.userAgent)
	}
	return t.base.RoundTrip(clone)
}
