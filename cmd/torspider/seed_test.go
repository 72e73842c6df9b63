package main

import (
	"context"
	"testing"

	"github.com/torspider/torspider/internal/database"
)

func TestAddSeed(t *testing.T) {
	t.Parallel()

	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()

	t.Run("bare domain gets scheme and trailing slash", func(t *testing.T) {
		url, err := addSeed(ctx, db, "node1", "exampleonion.onion")
		if err != nil {
			t.Fatalf("addSeed failed: %v", err)
		}
		if url != "http://exampleonion.onion/" {
			t.Errorf("url = %q, want http://exampleonion.onion/", url)
		}

		claim, err := db.ClaimNext(ctx, "node1")
		if err != nil {
			t.Fatalf("ClaimNext failed: %v", err)
		}
		if claim == nil || claim.URL != "http://exampleonion.onion/" {
			t.Errorf("claim = %+v, want the seeded url", claim)
		}
	})

	t.Run("full url kept as given", func(t *testing.T) {
		url, err := addSeed(ctx, db, "node1", "http://anotheronion.onion/dir/page.html")
		if err != nil {
			t.Fatalf("addSeed failed: %v", err)
		}
		if url != "http://anotheronion.onion/dir/page.html" {
			t.Errorf("url = %q", url)
		}
	})

	t.Run("clearnet url rejected", func(t *testing.T) {
		if _, err := addSeed(ctx, db, "node1", "http://example.com/"); err == nil {
			t.Error("expected error for clearnet url")
		}
	})

	t.Run("surrounding whitespace trimmed", func(t *testing.T) {
		url, err := addSeed(ctx, db, "node1", "  spacedonion.onion  ")
		if err != nil {
			t.Fatalf("addSeed failed: %v", err)
		}
		if url != "http://spacedonion.onion/" {
			t.Errorf("url = %q", url)
		}
	})
}
