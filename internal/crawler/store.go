package crawler

import (
	"context"

	"github.com/torspider/torspider/internal/model"
)

// Store is the shared frontier the spiders coordinate through. It may
// be a local SQLite database or the backend REST API; the worker never
// assumes which.
//
// Contract: all Upsert operations are insert-or-ignore (re-adding an
// existing record never errors and never duplicates rows), and
// ClaimNext atomically marks the returned url as claimed so no two
// workers receive the same url in the same round.
type Store interface {
	// ClaimNext atomically claims the next scannable frontier url for
	// nodeName. Returns (nil, nil) when nothing is claimable.
	ClaimNext(ctx context.Context, nodeName string) (*model.Claim, error)

	// UpsertOnion records a discovered onion domain.
	UpsertOnion(ctx context.Context, domain, nodeName string) error

	// UpsertURL records a discovered url under its domain.
	UpsertURL(ctx context.Context, domain, url string) error

	// UpsertLink records a directed domain-to-domain edge.
	UpsertLink(ctx context.Context, fromDomain, toDomain string) error

	// UpsertPage records the logical page for (domain, path).
	UpsertPage(ctx context.Context, domain, path string) error

	// SetFault marks the url (and its page) as faulted, excluding it
	// from future claims until externally cleared.
	SetFault(ctx context.Context, domain, url, fault string) error

	// MarkDomainScanned stamps the domain's scan date and claiming node.
	MarkDomainScanned(ctx context.Context, domain, nodeName string) error

	// MarkURLScanned stamps the url's scan date.
	MarkURLScanned(ctx context.Context, url string) error

	// MarkDomainOnline records a successful contact: online flag set,
	// last_online stamped, tries and offline_scans reset to zero.
	MarkDomainOnline(ctx context.Context, domain string) error

	// SetDomainTries persists the consecutive connect-failure counter.
	SetDomainTries(ctx context.Context, domain string, tries int) error

	// MarkDomainOffline transitions the domain to offline: online
	// cleared, tries reset, offline_scans incremented, and the next
	// scan date pushed out by the backoff schedule. Returns the new
	// offline_scans count.
	MarkDomainOffline(ctx context.Context, domain string) (int, error)

	// URLHash returns the stored content fingerprint for the url
	// ("" when none).
	URLHash(ctx context.Context, url string) (string, error)

	// SetURLHash stores a new content fingerprint.
	SetURLHash(ctx context.Context, url, hash string) error

	// SetURLTitle stores the url's freshly scraped title.
	SetURLTitle(ctx context.Context, url, title string) error

	// PageTitle returns the stored title for (domain, path)
	// ("" when none).
	PageTitle(ctx context.Context, domain, path string) (string, error)

	// SetPageTitle stores the merged title for (domain, path).
	SetPageTitle(ctx context.Context, domain, path, title string) error

	// UpsertFormField records a (page, field) form field.
	UpsertFormField(ctx context.Context, page, field string) error

	// FormExamples returns the comma-joined example set for a field
	// ("" when none).
	FormExamples(ctx context.Context, page, field string) (string, error)

	// SetFormExamples stores a merged example set.
	SetFormExamples(ctx context.Context, page, field, examples string) error
}

// EgressChecker tells a worker whether its own Tor egress still works,
// so a local outage is not booked as a target failure.
type EgressChecker interface {
	// Healthy reports whether our egress currently works.
	Healthy(ctx context.Context) bool
}
