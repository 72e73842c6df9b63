package tor

import (
	"context"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"
)

// DefaultIPEndpoints are the "what is my IP" services probed to learn
// our own egress address. Queried directly they report the real IP;
// queried through Tor they report the exit relay's IP.
var DefaultIPEndpoints = []string{
	"https://api.ipify.org",
	"https://ipapi.co/ip",
	"https://icanhazip.com/",
	"https://wtfismyip.com/text",
}

// egressProbeTimeout bounds each individual self-IP request. These
// endpoints are tiny; anything slower than this is effectively down.
const egressProbeTimeout = 5 * time.Second

// egressProbeTries is the number of endpoints tried before concluding
// that egress is unavailable.
const egressProbeTries = 5

// probeIP fetches our apparent egress IP using the given client,
// trying random endpoints until one answers.
func probeIP(ctx context.Context, client *http.Client, endpoints []string) (string, error) {
	if len(endpoints) == 0 {
		endpoints = DefaultIPEndpoints
	}

	for try := 0; try < egressProbeTries; try++ {
		endpoint := endpoints[rand.Intn(len(endpoints))] //nolint:gosec // Endpoint shuffling, not crypto

		reqCtx, cancel := context.WithTimeout(ctx, egressProbeTimeout)
		ip, err := fetchIP(reqCtx, client, endpoint)
		cancel()
		if err == nil {
			return ip, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	return "", ErrEgressUnavailable
}

// fetchIP performs one self-IP request.
func fetchIP(ctx context.Context, client *http.Client, endpoint string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", ErrEgressUnavailable
	}

	// These services return a bare IP, sometimes with a trailing newline.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 256))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

// TorIP returns our egress IP as seen through the Tor proxy.
func (c *Client) TorIP(ctx context.Context, endpoints []string) (string, error) {
	return probeIP(ctx, c.HTTPClient(), endpoints)
}

// DirectIP returns our egress IP over a direct (non-Tor) connection.
func DirectIP(ctx context.Context, endpoints []string) (string, error) {
	client := &http.Client{Timeout: egressProbeTimeout}
	return probeIP(ctx, client, endpoints)
}

// VerifyAnonymity confirms at startup that the proxy actually
// anonymizes: the direct IP and the Tor-routed IP must both resolve and
// must differ. Workers never start when this fails.
func (c *Client) VerifyAnonymity(ctx context.Context, endpoints []string) error {
	directIP, err := DirectIP(ctx, endpoints)
	if err != nil {
		return err
	}

	torIP, err := c.TorIP(ctx, endpoints)
	if err != nil {
		return err
	}

	if directIP == torIP {
		return ErrNotAnonymous
	}
	return nil
}

// EgressHealthy reports whether our own Tor egress still works. The
// crawler calls this before counting a connect failure against a
// target domain: if egress itself is down, the failure is ours, not
// the target's.
func (c *Client) EgressHealthy(ctx context.Context, endpoints []string) bool {
	_, err := c.TorIP(ctx, endpoints)
	return err == nil
}
