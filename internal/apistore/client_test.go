package apistore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// recordedRequest captures what the backend saw for one call.
type recordedRequest struct {
	method string
	path   string
	query  map[string]string
	body   map[string]any
}

// newTestBackend spins up a backend stub that records every request and
// answers with the handler's response (or 200 with an empty object).
func newTestBackend(t *testing.T, handler http.HandlerFunc) (*Client, *[]recordedRequest) {
	t.Helper()

	var recorded []recordedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			query:  make(map[string]string),
		}
		for key, values := range r.URL.Query() {
			rec.query[key] = values[0]
		}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&rec.body)
		}
		recorded = append(recorded, rec)

		if got := r.Header.Get("Authorization"); got != "Token test-key" {
			t.Errorf("Authorization = %q, want Token test-key", got)
		}
		if got := r.Header.Get("Authorization-Node"); got != "node1" {
			t.Errorf("Authorization-Node = %q, want node1", got)
		}

		if handler != nil {
			handler(w, r)
			return
		}
		fmt.Fprint(w, "{}")
	}))
	t.Cleanup(server.Close)

	client := New(server.URL, "test-key", "node1", WithHTTPClient(server.Client()))
	return client, &recorded
}

func TestClaimNext(t *testing.T) {
	t.Parallel()

	t.Run("decodes a claim", func(t *testing.T) {
		t.Parallel()

		client, recorded := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"url":"http://abc.onion/","domain":"abc.onion","tries":2,"last_node":"node2","offline_scans":1}`)
		})

		claim, err := client.ClaimNext(context.Background(), "node1")
		if err != nil {
			t.Fatalf("ClaimNext failed: %v", err)
		}
		if claim == nil {
			t.Fatal("expected a claim")
		}
		if claim.URL != "http://abc.onion/" || claim.Domain != "abc.onion" {
			t.Errorf("claim = %+v", claim)
		}
		if claim.Tries != 2 || claim.LastNode != "node2" || claim.OfflineScans != 1 {
			t.Errorf("claim bookkeeping = %+v", claim)
		}

		rec := (*recorded)[0]
		if rec.method != http.MethodGet || rec.path != "/next" {
			t.Errorf("request = %s %s, want GET /next", rec.method, rec.path)
		}
		if rec.query["node"] != "node1" {
			t.Errorf("node query = %q, want node1", rec.query["node"])
		}
	})

	t.Run("empty frontier yields nil", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})

		claim, err := client.ClaimNext(context.Background(), "node1")
		if err != nil {
			t.Fatalf("ClaimNext failed: %v", err)
		}
		if claim != nil {
			t.Errorf("claim = %+v, want nil", claim)
		}
	})

	t.Run("server error surfaces", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		if _, err := client.ClaimNext(context.Background(), "node1"); !errors.Is(err, ErrUnexpectedStatus) {
			t.Errorf("err = %v, want ErrUnexpectedStatus", err)
		}
	})
}

func TestUpserts(t *testing.T) {
	t.Parallel()

	client, recorded := newTestBackend(t, nil)
	ctx := context.Background()

	if err := client.UpsertOnion(ctx, "abc.onion", "node1"); err != nil {
		t.Fatalf("UpsertOnion failed: %v", err)
	}
	if err := client.UpsertURL(ctx, "abc.onion", "http://abc.onion/"); err != nil {
		t.Fatalf("UpsertURL failed: %v", err)
	}
	if err := client.UpsertLink(ctx, "abc.onion", "def.onion"); err != nil {
		t.Fatalf("UpsertLink failed: %v", err)
	}
	if err := client.UpsertPage(ctx, "abc.onion", "/"); err != nil {
		t.Fatalf("UpsertPage failed: %v", err)
	}
	if err := client.UpsertFormField(ctx, "http://abc.onion/search", "q"); err != nil {
		t.Fatalf("UpsertFormField failed: %v", err)
	}

	want := []struct {
		path string
		body map[string]any
	}{
		{"/onions", map[string]any{"domain": "abc.onion", "last_node": "node1"}},
		{"/urls", map[string]any{"domain": "abc.onion", "url": "http://abc.onion/"}},
		{"/links", map[string]any{"domain_from": "abc.onion", "domain_to": "def.onion"}},
		{"/pages", map[string]any{"domain": "abc.onion", "path": "/"}},
		{"/forms", map[string]any{"page": "http://abc.onion/search", "field": "q"}},
	}

	if len(*recorded) != len(want) {
		t.Fatalf("got %d requests, want %d", len(*recorded), len(want))
	}
	for i, w := range want {
		rec := (*recorded)[i]
		if rec.method != http.MethodPost {
			t.Errorf("request %d method = %s, want POST", i, rec.method)
		}
		if rec.path != w.path {
			t.Errorf("request %d path = %s, want %s", i, rec.path, w.path)
		}
		for key, value := range w.body {
			if rec.body[key] != value {
				t.Errorf("request %d body[%s] = %v, want %v", i, key, rec.body[key], value)
			}
		}
	}
}

func TestPatchShape(t *testing.T) {
	t.Parallel()

	client, recorded := newTestBackend(t, nil)
	ctx := context.Background()

	if err := client.SetURLHash(ctx, "http://abc.onion/", "deadbeef"); err != nil {
		t.Fatalf("SetURLHash failed: %v", err)
	}

	rec := (*recorded)[0]
	if rec.method != http.MethodPatch || rec.path != "/urls" {
		t.Fatalf("request = %s %s, want PATCH /urls", rec.method, rec.path)
	}

	filter, ok := rec.body["filter"].(map[string]any)
	if !ok || filter["url"] != "http://abc.onion/" {
		t.Errorf("filter = %v", rec.body["filter"])
	}
	data, ok := rec.body["data"].(map[string]any)
	if !ok || data["hash"] != "deadbeef" {
		t.Errorf("data = %v", rec.body["data"])
	}
}

func TestSetFaultPatchesURLAndPage(t *testing.T) {
	t.Parallel()

	client, recorded := newTestBackend(t, nil)

	if err := client.SetFault(context.Background(), "abc.onion", "http://abc.onion/gone.html", "404"); err != nil {
		t.Fatalf("SetFault failed: %v", err)
	}

	if len(*recorded) != 2 {
		t.Fatalf("got %d requests, want 2", len(*recorded))
	}
	if (*recorded)[0].path != "/urls" || (*recorded)[1].path != "/pages" {
		t.Errorf("paths = %s, %s", (*recorded)[0].path, (*recorded)[1].path)
	}
	pageFilter := (*recorded)[1].body["filter"].(map[string]any)
	if pageFilter["path"] != "/gone.html" {
		t.Errorf("page filter path = %v, want /gone.html", pageFilter["path"])
	}
}

func TestMarkDomainOffline(t *testing.T) {
	t.Parallel()

	client, recorded := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			fmt.Fprint(w, `{"offline_scans":2}`)
			return
		}
		fmt.Fprint(w, "{}")
	})

	offlineScans, err := client.MarkDomainOffline(context.Background(), "abc.onion")
	if err != nil {
		t.Fatalf("MarkDomainOffline failed: %v", err)
	}
	if offlineScans != 3 {
		t.Errorf("offlineScans = %d, want 3", offlineScans)
	}

	if len(*recorded) != 2 {
		t.Fatalf("got %d requests, want read then patch", len(*recorded))
	}
	data := (*recorded)[1].body["data"].(map[string]any)
	if data["offline_scans"] != float64(3) {
		t.Errorf("patched offline_scans = %v, want 3", data["offline_scans"])
	}
	if data["online"] != false {
		t.Errorf("patched online = %v, want false", data["online"])
	}
	if data["scan_date"] == "" {
		t.Error("patched scan_date is empty")
	}
}

func TestLookupsMapNotFoundToEmpty(t *testing.T) {
	t.Parallel()

	client, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	ctx := context.Background()

	hash, err := client.URLHash(ctx, "http://abc.onion/")
	if err != nil || hash != "" {
		t.Errorf("URLHash = (%q, %v), want empty", hash, err)
	}
	title, err := client.PageTitle(ctx, "abc.onion", "/")
	if err != nil || title != "" {
		t.Errorf("PageTitle = (%q, %v), want empty", title, err)
	}
	examples, err := client.FormExamples(ctx, "http://abc.onion/search", "q")
	if err != nil || examples != "" {
		t.Errorf("FormExamples = (%q, %v), want empty", examples, err)
	}

	// Writes against missing rows are no-ops, not errors.
	if err := client.MarkURLScanned(ctx, "http://abc.onion/"); err != nil {
		t.Errorf("MarkURLScanned = %v, want nil on 404", err)
	}
}

func TestLookupsDecodeState(t *testing.T) {
	t.Parallel()

	client, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/urls":
			fmt.Fprint(w, `{"hash":"cafe","title":"A Title"}`)
		case "/pages":
			fmt.Fprint(w, `{"title":"Front Page"}`)
		case "/forms":
			fmt.Fprint(w, `{"examples":"alpha,beta"}`)
		}
	})
	ctx := context.Background()

	hash, err := client.URLHash(ctx, "http://abc.onion/")
	if err != nil || hash != "cafe" {
		t.Errorf("URLHash = (%q, %v), want cafe", hash, err)
	}
	title, err := client.PageTitle(ctx, "abc.onion", "/")
	if err != nil || title != "Front Page" {
		t.Errorf("PageTitle = (%q, %v), want Front Page", title, err)
	}
	examples, err := client.FormExamples(ctx, "http://abc.onion/search", "q")
	if err != nil || examples != "alpha,beta" {
		t.Errorf("FormExamples = (%q, %v), want alpha,beta", examples, err)
	}
}

func TestBaseURLTrimming(t *testing.T) {
	t.Parallel()

	client := New("http://api.example/", "key", "node")
	if client.baseURL != "http://api.example" {
		t.Errorf("baseURL = %q, want trailing slash trimmed", client.baseURL)
	}
}
