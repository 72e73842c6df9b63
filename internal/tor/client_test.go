package tor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewClient(t *testing.T) {
	t.Parallel()

	t.Run("valid address", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient("127.0.0.1:9050", 30*time.Second, "test-agent")
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}
		if client.ProxyAddress() != "127.0.0.1:9050" {
			t.Errorf("ProxyAddress = %q", client.ProxyAddress())
		}
	})

	t.Run("invalid addresses", func(t *testing.T) {
		t.Parallel()

		for _, address := range []string{"", "no-port", ":9050", "127.0.0.1:0", "127.0.0.1:99999", "127.0.0.1:abc"} {
			if _, err := NewClient(address, time.Second, ""); !errors.Is(err, ErrInvalidProxyAddress) {
				t.Errorf("NewClient(%q) = %v, want ErrInvalidProxyAddress", address, err)
			}
		}
	})
}

func TestUserAgentTransport(t *testing.T) {
	t.Parallel()

	t.Run("stamps the configured agent", func(t *testing.T) {
		t.Parallel()

		var seen string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = r.Header.Get("User-Agent")
		}))
		defer server.Close()

		client := &http.Client{
			Transport: &userAgentTransport{base: http.DefaultTransport, userAgent: "spider-agent"},
		}
		resp, err := client.Get(server.URL)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		_ = resp.Body.Close()

		if seen != "spider-agent" {
			t.Errorf("User-Agent = %q, want spider-agent", seen)
		}
	})

	t.Run("explicit agent wins", func(t *testing.T) {
		t.Parallel()

		var seen string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = r.Header.Get("User-Agent")
		}))
		defer server.Close()

		client := &http.Client{
			Transport: &userAgentTransport{base: http.DefaultTransport, userAgent: "spider-agent"},
		}
		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, nil)
		if err != nil {
			t.Fatal(err)
		}
		req.Header.Set("User-Agent", "explicit-agent")

		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		_ = resp.Body.Close()

		if seen != "explicit-agent" {
			t.Errorf("User-Agent = %q, want explicit-agent", seen)
		}
	})
}

func TestRedirectLimit(t *testing.T) {
	t.Parallel()

	// Endless self-redirect, the shape of a crawler trap.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, fmt.Sprintf("/loop%d", len(r.URL.Path)), http.StatusFound)
	}))
	defer server.Close()

	// Same redirect policy as HTTPClient, without the SOCKS dialer.
	client := &http.Client{
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return ErrTooManyRedirects
			}
			return nil
		},
	}

	_, err := client.Get(server.URL)
	if !errors.Is(err, ErrTooManyRedirects) {
		t.Errorf("err = %v, want ErrTooManyRedirects", err)
	}
}
