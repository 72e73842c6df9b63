package model

import "time"

// DateFormat is the day-granularity format used for scan bookkeeping.
// The frontier schedules rescans per day, not per second, so all scan
// dates are stored as YYYY-MM-DD strings.
const DateFormat = "2006-01-02"

// NeverScanned is the sentinel date for records that have not been
// scanned yet. New onions and urls start here so any worker will pick
// them up on its next claim.
const NeverScanned = "1900-01-01"

// UnknownTitle is the sentinel title for pages whose title could not be
// extracted, or whose merged title collapsed to nothing.
const UnknownTitle = "Unknown"

// Onion is a registrable .onion domain (the rightmost two labels of a
// host). Subdomains collapse into one Onion record.
//
// Design decision: We track connectivity bookkeeping (Tries,
// OfflineScans) on the domain rather than the url because a hidden
// service is reachable or not as a whole; per-url counters would
// multiply the number of probes needed to declare a service offline.
type Onion struct {
	// ID is the stable store identity.
	ID int64

	// Domain is the registrable onion domain, unique across the store.
	Domain string

	// Online reports whether the service answered on its last scan.
	Online bool

	// LastOnline is the date the service last answered (DateFormat).
	LastOnline string

	// ScanDate is the date of the last claim against this domain.
	// Offline backoff pushes this into the future.
	ScanDate string

	// LastNode is the node name of the worker that last claimed a url
	// on this domain.
	LastNode string

	// Tries counts consecutive connect failures. At three the domain
	// transitions to offline.
	Tries int

	// OfflineScans counts consecutive scans that found the domain
	// offline. It drives the linear rescan backoff.
	OfflineScans int
}

// URLRecord is a fully-qualified crawlable target. (domain, url) is
// unique in the store.
type URLRecord struct {
	ID       int64
	DomainID int64

	// URL is the full normalized url string.
	URL string

	// ScanDate is the date this url was last claimed for a scan.
	ScanDate string

	// Hash is the SHA-1 content fingerprint from the last changed scan.
	Hash string

	// Title is the last extracted page title.
	Title string

	// Fault is a persisted marker excluding the url from future claims
	// (status code, "non-http", "bad ssl", ...). Empty means healthy.
	Fault string
}

// PageRecord is the logical page keyed by (domain, path). Several
// equivalent urls can map to the same page, which is why the title
// merge happens here rather than on URLRecord.
type PageRecord struct {
	ID       int64
	DomainID int64

	// Path is the url path portion identifying the page.
	Path string

	Title string
	Fault string
}

// LinkRecord is a directed edge between two onion domains. (from, to)
// is unique; self-loops may be stored but are excluded from exports.
type LinkRecord struct {
	FromDomain string
	ToDomain   string
}

// FormFieldRecord is a named input discovered on a page's form.
// (page, field) is unique. Examples holds a bounded, comma-joined,
// sorted set of observed values.
type FormFieldRecord struct {
	Page     string
	Field    string
	Examples string
}

// Claim is a frontier url handed to exactly one worker for the current
// round, together with the domain bookkeeping the worker needs for its
// skip and retry decisions.
type Claim struct {
	// URL is the claimed target, not yet normalized.
	URL string

	// Domain is the registrable onion domain owning the url.
	Domain string

	// Tries is the domain's consecutive connect-failure count at claim
	// time.
	Tries int

	// LastNode is the node that scanned this domain before us.
	LastNode string

	// OfflineScans is the domain's consecutive offline-scan count.
	OfflineScans int
}

// Today returns the current date in DateFormat. The spiders schedule
// at day granularity, so this is the timestamp used everywhere.
func Today() string {
	return time.Now().Format(DateFormat)
}

// MaxOfflineBackoffDays caps the rescan backoff for offline domains.
// Without a cap a long-dead service that briefly resurfaces would wait
// months for its next probe.
const MaxOfflineBackoffDays = 30

// NextScanAfterOffline returns the scan date for a domain that has now
// been found offline offlineScans times in a row: one day per offline
// scan, capped at MaxOfflineBackoffDays.
func NextScanAfterOffline(offlineScans int) string {
	days := offlineScans
	if days > MaxOfflineBackoffDays {
		days = MaxOfflineBackoffDays
	}
	return time.Now().AddDate(0, 0, days).Format(DateFormat)
}
