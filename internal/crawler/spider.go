package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/torspider/torspider/internal/model"
	"github.com/torspider/torspider/internal/tor"
	"github.com/torspider/torspider/internal/urlutil"
)

const (
	// offlineThreshold is the number of consecutive connect failures
	// after which a domain transitions to offline.
	offlineThreshold = 3

	// egressWait is how long a worker pauses after discovering its own
	// egress is down, before trying a fresh claim.
	egressWait = 5 * time.Second

	// defaultIdleWait is how long a worker pauses when the frontier has
	// nothing claimable.
	defaultIdleWait = 30 * time.Second
)

// Spider is one crawl worker. It loops claim, fetch, classify, extract,
// record until its context is canceled or the sleep file appears.
type Spider struct {
	store     Store
	fetcher   *Fetcher
	egress    EgressChecker
	logger    *slog.Logger
	name      string
	nodeName  string
	idleWait  time.Duration
	sleepFile string
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithName sets the worker's name used in logs.
func WithName(name string) SpiderOption {
	return func(s *Spider) { s.name = name }
}

// WithNodeName sets the node identity used for claims and skip checks.
func WithNodeName(nodeName string) SpiderOption {
	return func(s *Spider) { s.nodeName = nodeName }
}

// WithLogger sets the worker's logger.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) { s.logger = logger }
}

// WithEgressChecker sets the egress health probe consulted before a
// connect failure is charged to the target.
func WithEgressChecker(egress EgressChecker) SpiderOption {
	return func(s *Spider) { s.egress = egress }
}

// WithIdleWait sets the pause between claims when the frontier is
// empty.
func WithIdleWait(d time.Duration) SpiderOption {
	return func(s *Spider) { s.idleWait = d }
}

// WithSleepFile sets the path whose existence tells workers to exit
// after their current iteration. Empty disables the check.
func WithSleepFile(path string) SpiderOption {
	return func(s *Spider) { s.sleepFile = path }
}

// NewSpider creates a crawl worker over the given store and fetcher.
func NewSpider(store Store, fetcher *Fetcher, opts ...SpiderOption) *Spider {
	hostname, _ := os.Hostname()
	s := &Spider{
		store:    store,
		fetcher:  fetcher,
		logger:   slog.Default(),
		name:     "spider",
		nodeName: hostname,
		idleWait: defaultIdleWait,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run loops crawl iterations until ctx is canceled or the sleep file
// appears. It returns nil on both shutdown paths; a non-nil error means
// the worker hit something it refuses to guess about (an unclassified
// fetch failure or a store error) and the whole pool should stop.
func (s *Spider) Run(ctx context.Context) error {
	s.logger.Info("spider starting", "spider", s.name, "node", s.nodeName)

	for {
		if ctx.Err() != nil {
			s.logger.Info("spider stopping", "spider", s.name)
			return nil
		}
		if s.asleep() {
			s.logger.Info("sleep file present, spider going to sleep", "spider", s.name)
			return nil
		}

		worked, err := s.crawlOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.logger.Info("spider stopping", "spider", s.name)
				return nil
			}
			return fmt.Errorf("spider %s: %w", s.name, err)
		}
		if !worked {
			s.wait(ctx, s.idleWait)
		}
	}
}

// asleep reports whether the sleep file exists.
func (s *Spider) asleep() bool {
	if s.sleepFile == "" {
		return false
	}
	_, err := os.Stat(s.sleepFile)
	return err == nil
}

// wait pauses for d or until ctx is canceled.
func (s *Spider) wait(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// crawlOnce runs one claim-fetch-record iteration. The bool reports
// whether a claim was obtained; false tells the caller to idle.
func (s *Spider) crawlOnce(ctx context.Context) (bool, error) {
	claim, err := s.store.ClaimNext(ctx, s.nodeName)
	if err != nil {
		return false, fmt.Errorf("claim next url: %w", err)
	}
	if claim == nil {
		s.logger.Debug("nothing to claim", "spider", s.name)
		return false, nil
	}

	url := urlutil.FixURL(claim.URL)
	domain := claim.Domain
	log := s.logger.With("spider", s.name, "url", url)

	// A domain this node already failed to reach is left for a node
	// with a different network position.
	if claim.LastNode == s.nodeName && claim.Tries > 0 {
		log.Debug("skipping domain this node could not reach", "tries", claim.Tries)
		return true, nil
	}

	if err := s.store.MarkDomainScanned(ctx, domain, s.nodeName); err != nil {
		return true, fmt.Errorf("mark domain scanned: %w", err)
	}

	if !urlutil.IsHTTP(url) {
		log.Debug("claimed url is not http")
		return true, s.store.SetFault(ctx, domain, url, "non-http")
	}

	head, err := s.fetcher.Head(ctx, url)
	if err != nil {
		return true, s.handleFetchError(ctx, log, err, claim, url, domain)
	}

	switch ClassifyStatus(head.Status) {
	case StatusRedirect:
		return true, s.handleRedirect(ctx, log, head, url, domain)
	case StatusFault:
		log.Debug("url faulted", "status", head.Status)
		return true, s.store.SetFault(ctx, domain, url, strconv.Itoa(head.Status))
	case StatusSoftFault:
		log.Debug("transient status, url stays claimable", "status", head.Status)
		return true, nil
	case StatusUnknown:
		log.Warn("unrecognized http status", "status", head.Status)
		return true, s.store.SetFault(ctx, domain, url, strconv.Itoa(head.Status))
	case StatusSuccess:
	}

	if err := s.store.MarkURLScanned(ctx, url); err != nil {
		return true, fmt.Errorf("mark url scanned: %w", err)
	}
	if err := s.store.MarkDomainOnline(ctx, domain); err != nil {
		return true, fmt.Errorf("mark domain online: %w", err)
	}

	ctype := ContentTypePrefix(head.ContentType)
	if !IsScannableType(ctype) {
		log.Debug("skipping non-text content", "type", ctype)
		return true, s.store.SetFault(ctx, domain, url, "type: "+ctype)
	}

	page, err := s.fetcher.Get(ctx, url)
	if err != nil {
		return true, s.handleFetchError(ctx, log, err, claim, url, domain)
	}

	// HEAD may not have carried a Content-Type; the GET settles it.
	if ctype == "" {
		ctype = ContentTypePrefix(page.ContentType)
		if !IsScannableType(ctype) {
			log.Debug("skipping non-text content", "type", ctype)
			return true, s.store.SetFault(ctx, domain, url, "type: "+ctype)
		}
	}

	fingerprint := Fingerprint(page.Body)
	stored, err := s.store.URLHash(ctx, url)
	if err != nil {
		return true, fmt.Errorf("load url fingerprint: %w", err)
	}
	if !HasChanged(fingerprint, stored) {
		log.Debug("page unchanged since last scan")
		return true, nil
	}
	if err := s.store.SetURLHash(ctx, url, fingerprint); err != nil {
		return true, fmt.Errorf("store url fingerprint: %w", err)
	}

	if err := s.scanPage(ctx, log, url, domain, string(page.Body)); err != nil {
		return true, err
	}

	log.Debug("page scanned")
	return true, nil
}

// scanPage extracts and records everything a changed page yields:
// the page record, titles, links, forms and query-string fields.
func (s *Spider) scanPage(ctx context.Context, log *slog.Logger, url, domain, content string) error {
	path := urlutil.Path(url)
	if err := s.store.UpsertPage(ctx, domain, path); err != nil {
		return fmt.Errorf("upsert page: %w", err)
	}

	result := NewParser(url).Parse(content)

	if err := s.updateTitles(ctx, url, domain, path, result.Title); err != nil {
		return err
	}

	for _, link := range result.Links {
		if err := s.addToQueue(ctx, link, domain); err != nil {
			return err
		}
		if err := s.recordQueryFields(ctx, link); err != nil {
			return err
		}
	}

	for _, form := range result.Forms {
		if err := s.recordForm(ctx, log, form, url, domain); err != nil {
			return err
		}
	}

	// The scanned url's own query string describes a form submission.
	return s.recordQueryFields(ctx, url)
}

// updateTitles stores the url's fresh title and folds it into the
// page's merged title. A stored Unknown counts as absent and is simply
// replaced; otherwise the merge keeps the tokens the old and new titles
// share.
func (s *Spider) updateTitles(ctx context.Context, url, domain, path, title string) error {
	title = collapseWhitespace(title)
	if title == "" {
		title = model.UnknownTitle
	}
	if err := s.store.SetURLTitle(ctx, url, title); err != nil {
		return fmt.Errorf("store url title: %w", err)
	}

	current, err := s.store.PageTitle(ctx, domain, path)
	if err != nil {
		return fmt.Errorf("load page title: %w", err)
	}

	merged := title
	if current != "" && current != model.UnknownTitle {
		merged = collapseWhitespace(MergeTitles(current, title))
		if merged == "" {
			merged = model.UnknownTitle
		}
	}
	if merged == current {
		return nil
	}
	if err := s.store.SetPageTitle(ctx, domain, path, merged); err != nil {
		return fmt.Errorf("store page title: %w", err)
	}
	return nil
}

// recordForm resolves a form's action against the page url and records
// its fields and example values.
func (s *Spider) recordForm(ctx context.Context, log *slog.Logger, form *model.FormDescriptor, pageURL, domain string) error {
	action := urlutil.MergeAction(form.Action, pageURL)
	if !urlutil.IsOnion(action) {
		log.Debug("form action out of scope", "action", action)
		return nil
	}

	if err := s.addToQueue(ctx, action, domain); err != nil {
		return err
	}

	for field, value := range form.Fields() {
		if err := s.store.UpsertFormField(ctx, action, field); err != nil {
			return fmt.Errorf("upsert form field: %w", err)
		}
		if value == "" {
			continue
		}
		if err := s.mergeFormExample(ctx, action, field, value); err != nil {
			return err
		}
	}
	return nil
}

// recordQueryFields treats a url's query string as a filled-in form:
// each (field, value) pair becomes a form field on the url stripped of
// its query, with the value as an example.
func (s *Spider) recordQueryFields(ctx context.Context, url string) error {
	pairs := urlutil.SplitQuery(url)
	if len(pairs) == 0 {
		return nil
	}

	page := urlutil.StripQuery(url)
	for _, pair := range pairs {
		field, value := pair[0], pair[1]
		if field == "" {
			continue
		}
		if err := s.store.UpsertFormField(ctx, page, field); err != nil {
			return fmt.Errorf("upsert query field: %w", err)
		}
		if value == "" {
			continue
		}
		if err := s.mergeFormExample(ctx, page, field, value); err != nil {
			return err
		}
	}
	return nil
}

// mergeFormExample folds one observed value into a field's example set.
func (s *Spider) mergeFormExample(ctx context.Context, page, field, value string) error {
	current, err := s.store.FormExamples(ctx, page, field)
	if err != nil {
		return fmt.Errorf("load form examples: %w", err)
	}
	merged, changed := model.MergeExamples(current, value)
	if !changed {
		return nil
	}
	if err := s.store.SetFormExamples(ctx, page, field, merged); err != nil {
		return fmt.Errorf("store form examples: %w", err)
	}
	return nil
}

// addToQueue records a discovered url: its domain, the url itself, and
// a link edge from the domain it was found on. Out-of-scope targets are
// dropped silently.
func (s *Spider) addToQueue(ctx context.Context, rawURL, fromDomain string) error {
	fixed := urlutil.FixURL(rawURL)
	domain := urlutil.RegistrableDomain(fixed)
	if !urlutil.IsOnion(domain) {
		return nil
	}
	if !tor.IsStandardAddress(domain) {
		s.logger.Debug("queueing onion with nonstandard address", "domain", domain)
	}

	if err := s.store.UpsertOnion(ctx, domain, s.nodeName); err != nil {
		return fmt.Errorf("upsert onion: %w", err)
	}
	if err := s.store.UpsertURL(ctx, domain, fixed); err != nil {
		return fmt.Errorf("upsert url: %w", err)
	}
	if err := s.store.UpsertLink(ctx, fromDomain, domain); err != nil {
		return fmt.Errorf("upsert link: %w", err)
	}
	return nil
}

// handleRedirect faults the redirecting url with its status code and
// enqueues the Location target merged against the source url.
func (s *Spider) handleRedirect(ctx context.Context, log *slog.Logger, head *HeadResult, url, domain string) error {
	if err := s.store.SetFault(ctx, domain, url, strconv.Itoa(head.Status)); err != nil {
		return fmt.Errorf("fault redirecting url: %w", err)
	}

	if head.Location == "" {
		log.Warn("redirect without location header", "status", head.Status)
		return nil
	}

	target := urlutil.MergeURLs(head.Location, url)
	log.Debug("following redirect", "status", head.Status, "location", target)
	return s.addToQueue(ctx, target, domain)
}

// handleFetchError dispatches a classified fetch failure. Unclassified
// errors are returned and stop the worker rather than being guessed
// into a fault bucket.
func (s *Spider) handleFetchError(ctx context.Context, log *slog.Logger, fetchErr error, claim *model.Claim, url, domain string) error {
	switch ClassifyFetchError(fetchErr) {
	case FetchErrInvalidURL:
		log.Debug("unfetchable url", "error", fetchErr)
		return s.store.SetFault(ctx, domain, url, "invalid url")

	case FetchErrUnsupportedScheme:
		return s.handleInvalidScheme(ctx, log, url, domain)

	case FetchErrTLS:
		log.Debug("tls failure", "error", fetchErr)
		return s.store.SetFault(ctx, domain, url, "bad ssl")

	case FetchErrRedirectLoop:
		log.Debug("redirect loop", "error", fetchErr)
		return s.store.SetFault(ctx, domain, url, "redirect")

	case FetchErrTransient:
		log.Debug("transient fetch failure", "error", fetchErr)
		return nil

	case FetchErrTooLarge:
		log.Debug("response too large", "error", fetchErr)
		return s.store.SetFault(ctx, domain, url, "memory error")

	case FetchErrConnect:
		return s.handleConnectFailure(ctx, log, claim, domain)

	default:
		log.Error("unexpected fetch failure", "error", fetchErr)
		return fmt.Errorf("unexpected fetch failure: %w", fetchErr)
	}
}

// handleInvalidScheme faults a url whose scheme the client rejected and
// requeues explicit http and https variants so a fixable typo still
// gets crawled.
func (s *Spider) handleInvalidScheme(ctx context.Context, log *slog.Logger, url, domain string) error {
	log.Debug("unsupported scheme, requeueing http and https variants")
	for _, scheme := range []string{"http", "https"} {
		if err := s.addToQueue(ctx, urlutil.WithScheme(url, scheme), domain); err != nil {
			return err
		}
	}
	return s.store.SetFault(ctx, domain, url, "invalid schema")
}

// handleConnectFailure charges a connect failure to the domain, unless
// our own egress is down, in which case nothing is recorded and the
// worker pauses before its next claim.
func (s *Spider) handleConnectFailure(ctx context.Context, log *slog.Logger, claim *model.Claim, domain string) error {
	if s.egress != nil && !s.egress.Healthy(ctx) {
		log.Warn("own egress unreachable, not penalizing target")
		s.wait(ctx, egressWait)
		return nil
	}

	tries := claim.Tries + 1
	if tries < offlineThreshold {
		log.Debug("connect failure", "tries", tries)
		if err := s.store.SetDomainTries(ctx, domain, tries); err != nil {
			return fmt.Errorf("store domain tries: %w", err)
		}
		return nil
	}

	offlineScans, err := s.store.MarkDomainOffline(ctx, domain)
	if err != nil {
		return fmt.Errorf("mark domain offline: %w", err)
	}
	log.Debug("domain marked offline", "offline_scans", offlineScans)
	return nil
}
