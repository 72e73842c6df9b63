package apistore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/torspider/torspider/internal/model"
	"github.com/torspider/torspider/internal/urlutil"
)

// ErrUnexpectedStatus is returned when the backend answers with a
// status the client does not handle.
var ErrUnexpectedStatus = errors.New("unexpected api response status")

// defaultTimeout bounds each API request. The backend is a plain
// clearnet service, so this is much tighter than the Tor fetch timeout.
const defaultTimeout = 30 * time.Second

// Client is the REST frontier store.
//
// Design decision: The claim round-trip is delegated entirely to the
// backend's next endpoint rather than reimplemented with reads and
// conditional writes, because only the backend can make the claim
// atomic across nodes.
type Client struct {
	baseURL  string
	apiKey   string
	nodeName string
	http     *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a frontier API client. baseURL is the API root; apiKey
// authenticates the node and nodeName identifies it in claim and scan
// bookkeeping.
func New(baseURL, apiKey, nodeName string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		nodeName: nodeName,
		http:     &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// patchRequest is the body shape for conditional updates: filter
// selects the rows, data carries the new values.
type patchRequest struct {
	Filter map[string]any `json:"filter"`
	Data   map[string]any `json:"data"`
}

// do issues one API request. body and out may be nil. A 404 or 204
// returns errNotFound so callers can map it to their empty value.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + "/" + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build %s %s request: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Authorization-Node", c.nodeName)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close() //nolint:errcheck // Best-effort drain

	switch {
	case resp.StatusCode == http.StatusNoContent, resp.StatusCode == http.StatusNotFound:
		return errNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%w: %s %s returned %d", ErrUnexpectedStatus, method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// errNotFound marks empty lookups internally; public methods translate
// it to their empty value.
var errNotFound = errors.New("not found")

// claimResponse is the next endpoint's answer.
type claimResponse struct {
	URL          string `json:"url"`
	Domain       string `json:"domain"`
	Tries        int    `json:"tries"`
	LastNode     string `json:"last_node"`
	OfflineScans int    `json:"offline_scans"`
}

// ClaimNext asks the backend for the next claimable url. The backend
// stamps the claim atomically; (nil, nil) means the frontier has
// nothing for us.
func (c *Client) ClaimNext(ctx context.Context, nodeName string) (*model.Claim, error) {
	query := url.Values{"node": {nodeName}}

	var resp claimResponse
	err := c.do(ctx, http.MethodGet, "next", query, nil, &resp)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &model.Claim{
		URL:          resp.URL,
		Domain:       resp.Domain,
		Tries:        resp.Tries,
		LastNode:     resp.LastNode,
		OfflineScans: resp.OfflineScans,
	}, nil
}

// UpsertOnion records a discovered onion domain.
func (c *Client) UpsertOnion(ctx context.Context, domain, nodeName string) error {
	body := map[string]any{"domain": domain, "last_node": nodeName}
	return ignoreNotFound(c.do(ctx, http.MethodPost, "onions", nil, body, nil))
}

// UpsertURL records a discovered url under its domain.
func (c *Client) UpsertURL(ctx context.Context, domain, url string) error {
	body := map[string]any{"domain": domain, "url": url}
	return ignoreNotFound(c.do(ctx, http.MethodPost, "urls", nil, body, nil))
}

// UpsertLink records a directed domain-to-domain edge.
func (c *Client) UpsertLink(ctx context.Context, fromDomain, toDomain string) error {
	body := map[string]any{"domain_from": fromDomain, "domain_to": toDomain}
	return ignoreNotFound(c.do(ctx, http.MethodPost, "links", nil, body, nil))
}

// UpsertPage records the logical page for (domain, path).
func (c *Client) UpsertPage(ctx context.Context, domain, path string) error {
	body := map[string]any{"domain": domain, "path": path}
	return ignoreNotFound(c.do(ctx, http.MethodPost, "pages", nil, body, nil))
}

// SetFault marks the url and its page as faulted.
func (c *Client) SetFault(ctx context.Context, domain, url, fault string) error {
	urlPatch := patchRequest{
		Filter: map[string]any{"url": url},
		Data:   map[string]any{"fault": fault},
	}
	if err := ignoreNotFound(c.do(ctx, http.MethodPatch, "urls", nil, urlPatch, nil)); err != nil {
		return err
	}

	pagePatch := patchRequest{
		Filter: map[string]any{"domain": domain, "path": urlutil.Path(url)},
		Data:   map[string]any{"fault": fault},
	}
	return ignoreNotFound(c.do(ctx, http.MethodPatch, "pages", nil, pagePatch, nil))
}

// MarkDomainScanned stamps the domain's scan date and claiming node.
func (c *Client) MarkDomainScanned(ctx context.Context, domain, nodeName string) error {
	patch := patchRequest{
		Filter: map[string]any{"domain": domain},
		Data:   map[string]any{"scan_date": model.Today(), "last_node": nodeName},
	}
	return ignoreNotFound(c.do(ctx, http.MethodPatch, "onions", nil, patch, nil))
}

// MarkURLScanned stamps the url's scan date.
func (c *Client) MarkURLScanned(ctx context.Context, url string) error {
	patch := patchRequest{
		Filter: map[string]any{"url": url},
		Data:   map[string]any{"scan_date": model.Today()},
	}
	return ignoreNotFound(c.do(ctx, http.MethodPatch, "urls", nil, patch, nil))
}

// MarkDomainOnline records a successful contact with the domain.
func (c *Client) MarkDomainOnline(ctx context.Context, domain string) error {
	patch := patchRequest{
		Filter: map[string]any{"domain": domain},
		Data: map[string]any{
			"online":        true,
			"last_online":   model.Today(),
			"tries":         0,
			"offline_scans": 0,
		},
	}
	return ignoreNotFound(c.do(ctx, http.MethodPatch, "onions", nil, patch, nil))
}

// SetDomainTries persists the consecutive connect-failure counter.
func (c *Client) SetDomainTries(ctx context.Context, domain string, tries int) error {
	patch := patchRequest{
		Filter: map[string]any{"domain": domain},
		Data:   map[string]any{"tries": tries},
	}
	return ignoreNotFound(c.do(ctx, http.MethodPatch, "onions", nil, patch, nil))
}

// onionState is the subset of the onion record the offline transition
// needs.
type onionState struct {
	OfflineScans int `json:"offline_scans"`
}

// MarkDomainOffline transitions the domain to offline with backed-off
// rescheduling. Returns the new offline_scans count.
func (c *Client) MarkDomainOffline(ctx context.Context, domain string) (int, error) {
	query := url.Values{"domain": {domain}}

	var state onionState
	err := c.do(ctx, http.MethodGet, "onions", query, nil, &state)
	if err != nil && !errors.Is(err, errNotFound) {
		return 0, err
	}

	offlineScans := state.OfflineScans + 1
	patch := patchRequest{
		Filter: map[string]any{"domain": domain},
		Data: map[string]any{
			"online":        false,
			"tries":         0,
			"offline_scans": offlineScans,
			"scan_date":     model.NextScanAfterOffline(offlineScans),
		},
	}
	if err := ignoreNotFound(c.do(ctx, http.MethodPatch, "onions", nil, patch, nil)); err != nil {
		return 0, err
	}
	return offlineScans, nil
}

// urlState is the subset of the url record lookups read back.
type urlState struct {
	Hash  string `json:"hash"`
	Title string `json:"title"`
}

// URLHash returns the stored content fingerprint ("" when none).
func (c *Client) URLHash(ctx context.Context, target string) (string, error) {
	query := url.Values{"url": {target}}

	var state urlState
	err := c.do(ctx, http.MethodGet, "urls", query, nil, &state)
	if errors.Is(err, errNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return state.Hash, nil
}

// SetURLHash stores a new content fingerprint.
func (c *Client) SetURLHash(ctx context.Context, url, hash string) error {
	patch := patchRequest{
		Filter: map[string]any{"url": url},
		Data:   map[string]any{"hash": hash},
	}
	return ignoreNotFound(c.do(ctx, http.MethodPatch, "urls", nil, patch, nil))
}

// SetURLTitle stores the url's freshly scraped title.
func (c *Client) SetURLTitle(ctx context.Context, url, title string) error {
	patch := patchRequest{
		Filter: map[string]any{"url": url},
		Data:   map[string]any{"title": title},
	}
	return ignoreNotFound(c.do(ctx, http.MethodPatch, "urls", nil, patch, nil))
}

// pageState is the subset of the page record lookups read back.
type pageState struct {
	Title string `json:"title"`
}

// PageTitle returns the stored title for (domain, path) ("" when none).
func (c *Client) PageTitle(ctx context.Context, domain, path string) (string, error) {
	query := url.Values{"domain": {domain}, "path": {path}}

	var state pageState
	err := c.do(ctx, http.MethodGet, "pages", query, nil, &state)
	if errors.Is(err, errNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return state.Title, nil
}

// SetPageTitle stores the merged title for (domain, path).
func (c *Client) SetPageTitle(ctx context.Context, domain, path, title string) error {
	patch := patchRequest{
		Filter: map[string]any{"domain": domain, "path": path},
		Data:   map[string]any{"title": title},
	}
	return ignoreNotFound(c.do(ctx, http.MethodPatch, "pages", nil, patch, nil))
}

// UpsertFormField records a (page, field) form field.
func (c *Client) UpsertFormField(ctx context.Context, page, field string) error {
	body := map[string]any{"page": page, "field": field}
	return ignoreNotFound(c.do(ctx, http.MethodPost, "forms", nil, body, nil))
}

// formState is the subset of the form record lookups read back.
type formState struct {
	Examples string `json:"examples"`
}

// FormExamples returns the comma-joined example set ("" when none).
func (c *Client) FormExamples(ctx context.Context, page, field string) (string, error) {
	query := url.Values{"page": {page}, "field": {field}}

	var state formState
	err := c.do(ctx, http.MethodGet, "forms", query, nil, &state)
	if errors.Is(err, errNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return state.Examples, nil
}

// SetFormExamples stores a merged example set.
func (c *Client) SetFormExamples(ctx context.Context, page, field, examples string) error {
	patch := patchRequest{
		Filter: map[string]any{"page": page, "field": field},
		Data:   map[string]any{"examples": examples},
	}
	return ignoreNotFound(c.do(ctx, http.MethodPatch, "forms", nil, patch, nil))
}

// ignoreNotFound treats empty-result answers on writes as success:
// patching a row that does not exist (yet) is a no-op, mirroring the
// SQLite store's behavior.
func ignoreNotFound(err error) error {
	if errors.Is(err, errNotFound) {
		return nil
	}
	return err
}
