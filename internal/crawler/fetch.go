package crawler

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/torspider/torspider/internal/tor"
)

// HeadResult is the outcome of a HEAD probe.
type HeadResult struct {
	// Status is the HTTP status code.
	Status int

	// ContentType is the raw Content-Type header ("" when absent).
	ContentType string

	// Location is the raw Location header, set on redirect statuses.
	Location string
}

// GetResult is the outcome of a body fetch.
type GetResult struct {
	Status      int
	ContentType string

	// Body is the full response body, bounded by the fetcher's size cap.
	Body []byte
}

// Fetcher issues the HEAD-then-GET probe sequence against claimed urls.
//
// Design decision: HEAD goes first and never follows redirects, so the
// spider sees the 3xx itself and can classify it; paying for a body
// download only happens once the status and content type have passed
// the gates. The GET client does follow redirects (bounded by the Tor
// client) because by then the url is known to answer 2xx.
type Fetcher struct {
	head        *http.Client
	get         *http.Client
	maxBodySize int64
}

// NewFetcher wraps an HTTP client (normally tor.Client.HTTPClient) for
// crawling. maxBodySize caps how many body bytes a single GET may
// consume.
func NewFetcher(client *http.Client, maxBodySize int64) *Fetcher {
	head := *client
	head.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return &Fetcher{
		head:        &head,
		get:         client,
		maxBodySize: maxBodySize,
	}
}

// Head probes the url without downloading its body.
func (f *Fetcher) Head(ctx context.Context, url string) (*HeadResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURL, url)
	}

	resp, err := f.head.Do(req)
	if err != nil {
		return nil, fmt.Errorf("head %s: %w", url, err)
	}
	defer resp.Body.Close() //nolint:errcheck // HEAD bodies are empty

	return &HeadResult{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Location:    resp.Header.Get("Location"),
	}, nil
}

// Get downloads the url's body, bounded by the size cap. A body larger
// than the cap returns ErrBodyTooLarge.
func (f *Fetcher) Get(ctx context.Context, url string) (*GetResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURL, url)
	}

	resp, err := f.get.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close() //nolint:errcheck // Read errors surface below

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	if int64(len(body)) > f.maxBodySize {
		return nil, fmt.Errorf("get %s: %w", url, ErrBodyTooLarge)
	}

	return &GetResult{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// FetchErrorKind buckets fetch errors into the frontier's handling
// outcomes.
type FetchErrorKind int

const (
	// FetchErrUnexpected is any error outside the known taxonomy. The
	// worker stops rather than guessing; silent misclassification would
	// corrupt the shared frontier.
	FetchErrUnexpected FetchErrorKind = iota

	// FetchErrInvalidURL faults the url with "invalid url".
	FetchErrInvalidURL

	// FetchErrUnsupportedScheme faults the url with "invalid schema"
	// and requeues explicit http and https variants.
	FetchErrUnsupportedScheme

	// FetchErrTLS faults the url with "bad ssl".
	FetchErrTLS

	// FetchErrRedirectLoop faults the url with "redirect".
	FetchErrRedirectLoop

	// FetchErrTransient records nothing; the url stays claimable.
	FetchErrTransient

	// FetchErrTooLarge faults the url with "memory error".
	FetchErrTooLarge

	// FetchErrConnect feeds the domain's failure counter, unless our
	// own egress turns out to be down.
	FetchErrConnect
)

// ClassifyFetchError maps a fetch error to its handling bucket.
//
// Connect-level failures (timeouts, refused connections, SOCKS errors)
// are the catch-all for network trouble; everything recognizably
// protocol-shaped gets its own bucket first.
func ClassifyFetchError(err error) FetchErrorKind {
	switch {
	case errors.Is(err, ErrInvalidURL):
		return FetchErrInvalidURL
	case errors.Is(err, ErrBodyTooLarge):
		return FetchErrTooLarge
	case errors.Is(err, tor.ErrTooManyRedirects):
		return FetchErrRedirectLoop
	}

	if isTLSError(err) {
		return FetchErrTLS
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "unsupported protocol scheme"),
		strings.Contains(msg, "no Host in request URL"):
		return FetchErrUnsupportedScheme
	case strings.Contains(msg, "malformed chunked encoding"),
		errors.Is(err, io.ErrUnexpectedEOF):
		return FetchErrTransient
	}

	if isConnectError(err) {
		return FetchErrConnect
	}

	return FetchErrUnexpected
}

// isTLSError recognizes handshake and certificate failures.
func isTLSError(err error) bool {
	var recordErr tls.RecordHeaderError
	var certErr x509.CertificateInvalidError
	var authErr x509.UnknownAuthorityError
	if errors.As(err, &recordErr) || errors.As(err, &certErr) || errors.As(err, &authErr) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "tls:") || strings.Contains(msg, "x509:")
}

// isConnectError recognizes network-level failures: timeouts, refused
// or reset connections, DNS failures, and SOCKS dial errors from the
// Tor proxy.
func isConnectError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}
