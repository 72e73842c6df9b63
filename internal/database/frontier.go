package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/torspider/torspider/internal/model"
	"github.com/torspider/torspider/internal/urlutil"
)

// claimAttempts bounds how often ClaimNext retries after losing the
// claim race to another worker.
const claimAttempts = 5

// FrontierDB is the SQLite-backed frontier store.
//
// Design decision: One database file for the whole web graph rather
// than a file per domain. The claim protocol needs a random pick across
// all domains, and cross-domain link queries would otherwise turn into
// file juggling.
type FrontierDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures FrontierDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging. Recommended: the spiders
	// interleave many small writes with claim reads.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a FrontierDB at the specified directory.
func Open(dbDir string, opts Options) (*FrontierDB, error) {
	dbPath := filepath.Join(dbDir, "torspider.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports one writer; a single connection serializes the
	// workers' writes instead of bouncing them off SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	fdb := &FrontierDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if _, err := db.ExecContext(context.Background(), "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := fdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return fdb, nil
}

// Close closes the database connection.
func (f *FrontierDB) Close() error {
	return f.db.Close()
}

// Path returns the database file path.
func (f *FrontierDB) Path() string {
	return f.dbPath
}

// createTables creates the web graph schema if it doesn't exist.
func (f *FrontierDB) createTables() error {
	schema := `
	-- Onions are registrable .onion domains with scheduling bookkeeping.
	CREATE TABLE IF NOT EXISTS onions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		domain TEXT NOT NULL UNIQUE,
		online INTEGER NOT NULL DEFAULT 1,
		last_online TEXT NOT NULL DEFAULT '1900-01-01',
		scan_date TEXT NOT NULL DEFAULT '1900-01-01',
		last_node TEXT NOT NULL DEFAULT '',
		tries INTEGER NOT NULL DEFAULT 0,
		offline_scans INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_onions_scan_date ON onions(scan_date);

	-- Urls are the crawlable targets under a domain.
	CREATE TABLE IF NOT EXISTS urls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		domain_id INTEGER NOT NULL REFERENCES onions(id),
		url TEXT NOT NULL,
		scan_date TEXT NOT NULL DEFAULT '1900-01-01',
		hash TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL DEFAULT '',
		fault TEXT NOT NULL DEFAULT '',
		UNIQUE(domain_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_urls_scan_date ON urls(scan_date);
	CREATE INDEX IF NOT EXISTS idx_urls_url ON urls(url);

	-- Pages are logical documents keyed by (domain, path).
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		domain_id INTEGER NOT NULL REFERENCES onions(id),
		path TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		fault TEXT NOT NULL DEFAULT '',
		UNIQUE(domain_id, path)
	);

	-- Links are directed domain-to-domain edges.
	CREATE TABLE IF NOT EXISTS links (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		domain_from TEXT NOT NULL,
		domain_to TEXT NOT NULL,
		UNIQUE(domain_from, domain_to)
	);

	-- Forms are named input fields discovered on pages.
	CREATE TABLE IF NOT EXISTS forms (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		page TEXT NOT NULL,
		field TEXT NOT NULL,
		examples TEXT NOT NULL DEFAULT '',
		UNIQUE(page, field)
	);
	`

	_, err := f.db.ExecContext(context.Background(), schema)
	return err
}

// ClaimNext picks a random claimable url and atomically stamps its scan
// date so no other worker gets it this round. A url is claimable when
// it carries no fault, was not claimed today, and its domain is due
// (offline backoff pushes the domain's scan date into the future).
//
// The claim is a compare-and-swap: the stamp only lands if the scan
// date still matches the one we read. Losing the race means another
// worker claimed the url first; we retry with a fresh pick.
func (f *FrontierDB) ClaimNext(ctx context.Context, nodeName string) (*model.Claim, error) {
	today := model.Today()

	for attempt := 0; attempt < claimAttempts; attempt++ {
		query := `
		SELECT u.id, u.url, u.scan_date, o.domain, o.tries, o.last_node, o.offline_scans
		FROM urls u
		JOIN onions o ON u.domain_id = o.id
		WHERE u.fault = '' AND u.scan_date < ? AND o.scan_date < ?
		ORDER BY RANDOM()
		LIMIT 1
		`

		var (
			urlID    int64
			scanDate string
			claim    model.Claim
		)
		err := f.db.QueryRowContext(ctx, query, today, today).Scan(
			&urlID,
			&claim.URL,
			&scanDate,
			&claim.Domain,
			&claim.Tries,
			&claim.LastNode,
			&claim.OfflineScans,
		)
		if err == sql.ErrNoRows {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to pick claimable url: %w", err)
		}

		result, err := f.db.ExecContext(ctx,
			"UPDATE urls SET scan_date = ? WHERE id = ? AND scan_date = ?",
			today, urlID, scanDate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to stamp claim: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to check claim stamp: %w", err)
		}
		if affected == 1 {
			return &claim, nil
		}
		// Lost the race; pick again.
	}

	return nil, nil
}

// UpsertOnion records a discovered onion domain. Existing domains are
// left untouched.
func (f *FrontierDB) UpsertOnion(ctx context.Context, domain, nodeName string) error {
	_, err := f.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO onions (domain, last_node) VALUES (?, ?)",
		domain, nodeName,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert onion %s: %w", domain, err)
	}
	return nil
}

// UpsertURL records a discovered url under its domain. The domain must
// already exist (UpsertOnion first); an unknown domain is a silent
// no-op, matching insert-or-ignore semantics.
func (f *FrontierDB) UpsertURL(ctx context.Context, domain, url string) error {
	_, err := f.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO urls (domain_id, url) SELECT id, ? FROM onions WHERE domain = ?",
		url, domain,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert url %s: %w", url, err)
	}
	return nil
}

// UpsertLink records a directed domain-to-domain edge.
func (f *FrontierDB) UpsertLink(ctx context.Context, fromDomain, toDomain string) error {
	_, err := f.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO links (domain_from, domain_to) VALUES (?, ?)",
		fromDomain, toDomain,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert link %s -> %s: %w", fromDomain, toDomain, err)
	}
	return nil
}

// UpsertPage records the logical page for (domain, path).
func (f *FrontierDB) UpsertPage(ctx context.Context, domain, path string) error {
	_, err := f.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO pages (domain_id, path) SELECT id, ? FROM onions WHERE domain = ?",
		path, domain,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert page %s%s: %w", domain, path, err)
	}
	return nil
}

// SetFault marks the url and its page as faulted.
func (f *FrontierDB) SetFault(ctx context.Context, domain, url, fault string) error {
	_, err := f.db.ExecContext(ctx,
		"UPDATE urls SET fault = ? WHERE url = ? AND domain_id = (SELECT id FROM onions WHERE domain = ?)",
		fault, url, domain,
	)
	if err != nil {
		return fmt.Errorf("failed to fault url %s: %w", url, err)
	}

	_, err = f.db.ExecContext(ctx,
		"UPDATE pages SET fault = ? WHERE path = ? AND domain_id = (SELECT id FROM onions WHERE domain = ?)",
		fault, urlutil.Path(url), domain,
	)
	if err != nil {
		return fmt.Errorf("failed to fault page for %s: %w", url, err)
	}
	return nil
}

// MarkDomainScanned stamps the domain's scan date and claiming node.
func (f *FrontierDB) MarkDomainScanned(ctx context.Context, domain, nodeName string) error {
	_, err := f.db.ExecContext(ctx,
		"UPDATE onions SET scan_date = ?, last_node = ? WHERE domain = ?",
		model.Today(), nodeName, domain,
	)
	if err != nil {
		return fmt.Errorf("failed to mark domain %s scanned: %w", domain, err)
	}
	return nil
}

// MarkURLScanned stamps the url's scan date.
func (f *FrontierDB) MarkURLScanned(ctx context.Context, url string) error {
	_, err := f.db.ExecContext(ctx,
		"UPDATE urls SET scan_date = ? WHERE url = ?",
		model.Today(), url,
	)
	if err != nil {
		return fmt.Errorf("failed to mark url %s scanned: %w", url, err)
	}
	return nil
}

// MarkDomainOnline records a successful contact with the domain.
func (f *FrontierDB) MarkDomainOnline(ctx context.Context, domain string) error {
	_, err := f.db.ExecContext(ctx,
		"UPDATE onions SET online = 1, last_online = ?, tries = 0, offline_scans = 0 WHERE domain = ?",
		model.Today(), domain,
	)
	if err != nil {
		return fmt.Errorf("failed to mark domain %s online: %w", domain, err)
	}
	return nil
}

// SetDomainTries persists the consecutive connect-failure counter.
func (f *FrontierDB) SetDomainTries(ctx context.Context, domain string, tries int) error {
	_, err := f.db.ExecContext(ctx,
		"UPDATE onions SET tries = ? WHERE domain = ?",
		tries, domain,
	)
	if err != nil {
		return fmt.Errorf("failed to set tries for domain %s: %w", domain, err)
	}
	return nil
}

// MarkDomainOffline transitions the domain to offline and pushes its
// next scan out by the backoff schedule. Returns the new offline_scans
// count.
func (f *FrontierDB) MarkDomainOffline(ctx context.Context, domain string) (int, error) {
	var offlineScans int
	err := f.db.QueryRowContext(ctx,
		"SELECT offline_scans FROM onions WHERE domain = ?", domain,
	).Scan(&offlineScans)
	if err != nil {
		return 0, fmt.Errorf("failed to load offline_scans for domain %s: %w", domain, err)
	}

	offlineScans++
	_, err = f.db.ExecContext(ctx,
		"UPDATE onions SET online = 0, tries = 0, offline_scans = ?, scan_date = ? WHERE domain = ?",
		offlineScans, model.NextScanAfterOffline(offlineScans), domain,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark domain %s offline: %w", domain, err)
	}
	return offlineScans, nil
}

// URLHash returns the stored content fingerprint ("" when none).
func (f *FrontierDB) URLHash(ctx context.Context, url string) (string, error) {
	var hash string
	err := f.db.QueryRowContext(ctx,
		"SELECT hash FROM urls WHERE url = ?", url,
	).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load hash for url %s: %w", url, err)
	}
	return hash, nil
}

// SetURLHash stores a new content fingerprint.
func (f *FrontierDB) SetURLHash(ctx context.Context, url, hash string) error {
	_, err := f.db.ExecContext(ctx,
		"UPDATE urls SET hash = ? WHERE url = ?",
		hash, url,
	)
	if err != nil {
		return fmt.Errorf("failed to set hash for url %s: %w", url, err)
	}
	return nil
}

// SetURLTitle stores the url's freshly scraped title.
func (f *FrontierDB) SetURLTitle(ctx context.Context, url, title string) error {
	_, err := f.db.ExecContext(ctx,
		"UPDATE urls SET title = ? WHERE url = ?",
		title, url,
	)
	if err != nil {
		return fmt.Errorf("failed to set title for url %s: %w", url, err)
	}
	return nil
}

// PageTitle returns the stored title for (domain, path) ("" when none).
func (f *FrontierDB) PageTitle(ctx context.Context, domain, path string) (string, error) {
	var title string
	err := f.db.QueryRowContext(ctx,
		"SELECT title FROM pages WHERE path = ? AND domain_id = (SELECT id FROM onions WHERE domain = ?)",
		path, domain,
	).Scan(&title)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load title for page %s%s: %w", domain, path, err)
	}
	return title, nil
}

// SetPageTitle stores the merged title for (domain, path).
func (f *FrontierDB) SetPageTitle(ctx context.Context, domain, path, title string) error {
	_, err := f.db.ExecContext(ctx,
		"UPDATE pages SET title = ? WHERE path = ? AND domain_id = (SELECT id FROM onions WHERE domain = ?)",
		title, path, domain,
	)
	if err != nil {
		return fmt.Errorf("failed to set title for page %s%s: %w", domain, path, err)
	}
	return nil
}

// UpsertFormField records a (page, field) form field.
func (f *FrontierDB) UpsertFormField(ctx context.Context, page, field string) error {
	_, err := f.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO forms (page, field) VALUES (?, ?)",
		page, field,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert form field %s on %s: %w", field, page, err)
	}
	return nil
}

// FormExamples returns the comma-joined example set ("" when none).
func (f *FrontierDB) FormExamples(ctx context.Context, page, field string) (string, error) {
	var examples string
	err := f.db.QueryRowContext(ctx,
		"SELECT examples FROM forms WHERE page = ? AND field = ?",
		page, field,
	).Scan(&examples)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load examples for field %s on %s: %w", field, page, err)
	}
	return examples, nil
}

// SetFormExamples stores a merged example set.
func (f *FrontierDB) SetFormExamples(ctx context.Context, page, field, examples string) error {
	_, err := f.db.ExecContext(ctx,
		"UPDATE forms SET examples = ? WHERE page = ? AND field = ?",
		examples, page, field,
	)
	if err != nil {
		return fmt.Errorf("failed to set examples for field %s on %s: %w", field, page, err)
	}
	return nil
}
