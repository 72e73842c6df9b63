package urlutil

import "strings"

// parts holds the five components of a split url, mirroring the
// (scheme, host, path, query, fragment) tuple the merge rules are
// defined over. Splitting never fails; unrecognized input lands in
// Path.
type parts struct {
	scheme   string
	host     string
	path     string
	query    string
	fragment string
}

// split breaks a raw url into its components. Unlike net/url.Parse it
// never returns an error, which matters because the frontier is full of
// malformed urls that still need classification.
func split(raw string) parts {
	var p parts
	rest := raw

	if i := strings.Index(rest, "#"); i >= 0 {
		p.fragment = rest[i+1:]
		rest = rest[:i]
	}
	if i := strings.Index(rest, "?"); i >= 0 {
		p.query = rest[i+1:]
		rest = rest[:i]
	}

	if i := strings.Index(rest, "://"); i >= 0 && isSchemeName(rest[:i]) {
		p.scheme = strings.ToLower(rest[:i])
		rest = rest[i+3:]
		p.host, p.path = splitHostPath(rest)
		return p
	}
	if strings.HasPrefix(rest, "//") {
		p.host, p.path = splitHostPath(rest[2:])
		return p
	}

	p.path = rest
	return p
}

// splitHostPath separates the authority from the path.
func splitHostPath(rest string) (host, path string) {
	if i := strings.Index(rest, "/"); i >= 0 {
		return rest[:i], rest[i:]
	}
	return rest, ""
}

// isSchemeName reports whether s looks like a url scheme
// (letters, digits, '+', '-', '.').
func isSchemeName(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '+' || c == '-' || c == '.':
		default:
			return false
		}
	}
	return true
}

// join reassembles split components into a url string. When a host is
// present the path is forced to start with '/', matching how the
// frontier's stored urls were originally assembled.
func (p parts) join() string {
	var b strings.Builder

	if p.host != "" {
		if p.scheme != "" {
			b.WriteString(p.scheme)
			b.WriteString("://")
		} else {
			b.WriteString("//")
		}
		b.WriteString(p.host)
		if p.path != "" && !strings.HasPrefix(p.path, "/") {
			b.WriteString("/")
		}
	} else if p.scheme != "" {
		b.WriteString(p.scheme)
		b.WriteString(":")
	}
	b.WriteString(p.path)

	if p.query != "" {
		b.WriteString("?")
		b.WriteString(p.query)
	}
	if p.fragment != "" {
		b.WriteString("#")
		b.WriteString(p.fragment)
	}
	return b.String()
}

// DefragmentDomain strips all non-alphanumeric characters from the
// second-to-last label of a domain. Onion addresses are pure base32, so
// punctuation inside the service label is always obfuscation
// (go–ogle.onion and google.onion are the same service).
func DefragmentDomain(domain string) string {
	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return domain
	}

	var clean strings.Builder
	for _, c := range labels[len(labels)-2] {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			clean.WriteRune(c)
		}
	}
	labels[len(labels)-2] = clean.String()
	return strings.Join(labels, ".")
}

// FixURL canonicalizes a url: the host is defragmented and any null
// bytes are removed. FixURL is idempotent.
func FixURL(raw string) string {
	p := split(raw)
	p.host = DefragmentDomain(p.host)
	return strings.ReplaceAll(p.join(), "\x00", "")
}

// RegistrableDomain returns the rightmost two labels of the url's
// defragmented host. Subdomains collapse to one registrable domain:
// sub.abc.onion and abc.onion are the same Onion record.
func RegistrableDomain(raw string) string {
	host := DefragmentDomain(split(raw).host)
	labels := strings.Split(host, ".")
	if len(labels) <= 2 {
		return host
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

// IsOnion reports whether a domain is in crawl scope: it must contain
// ".onion" and must not use an onion address as a subdomain prefix of
// something else (".onion." marks clearnet redirector services like
// xyz.onion.to).
func IsOnion(domain string) bool {
	return strings.Contains(domain, ".onion") && !strings.Contains(domain, ".onion.")
}

// IsHTTP reports whether the url's scheme is an http variant. The check
// is substring-based so that typo'd schemes (e.g. "ohttp") still reach
// the invalid-schema handling instead of being dropped as non-http.
func IsHTTP(raw string) bool {
	return strings.Contains(split(raw).scheme, "http")
}

// Host returns the url's host component ("" when none).
func Host(raw string) string {
	return split(raw).host
}

// Path returns the url's path component, which keys the logical page.
// An empty path stays empty; "http://x.onion" and "http://x.onion/" are
// distinct pages, matching how the frontier has always stored them.
func Path(raw string) string {
	return split(raw).path
}

// WithScheme returns the url rewritten to use the given scheme.
func WithScheme(raw, scheme string) string {
	p := split(raw)
	p.scheme = scheme
	return p.join()
}

// StripQuery returns the url without its query string and fragment.
// This is the page identity a query string's form fields attach to.
func StripQuery(raw string) string {
	p := split(raw)
	p.query = ""
	p.fragment = ""
	return p.join()
}

// MergeURLs merges a redirect Location header (candidate) against the
// url that produced it (base). The candidate's scheme and host win when
// present; path, query and fragment always come from the candidate.
// This is a coarse location-header merge, not reference resolution.
func MergeURLs(candidate, base string) string {
	c := split(candidate)
	b := split(base)

	if c.scheme == "" {
		c.scheme = b.scheme
	}
	if c.host == "" {
		c.host = b.host
	}
	return c.join()
}

// MergeAction resolves a form action attribute against the page url it
// was found on. Absolute paths replace the base path; ./ and ../
// prefixes resolve against the base directory with one ascent per ../;
// bare filenames replace the last path segment. On any failure the base
// path is kept unchanged.
func MergeAction(action, base string) string {
	a := split(action)
	b := split(base)

	scheme := b.scheme
	if a.scheme != "" {
		scheme = a.scheme
	}
	host := b.host
	if a.host != "" {
		host = a.host
	}

	merged := parts{
		scheme: scheme,
		host:   host,
		path:   resolveActionPath(a.path, b.path),
		query:  a.query,
	}
	return merged.join()
}

// resolveActionPath computes the resolved path for MergeAction.
func resolveActionPath(apath, upath string) string {
	if apath == "" {
		return upath
	}

	if apath[0] == '/' {
		return apath
	}

	slash := strings.LastIndex(upath, "/")
	if slash < 0 {
		// No directory to resolve against; keep the base path.
		return upath
	}

	if apath[0] == '.' {
		short := upath[:slash+1]
		segments := strings.SplitN(apath, "/", 2)
		head := segments[0]
		if len(segments) == 2 {
			apath = segments[1]
		} else {
			apath = ""
		}

		dirs := strings.Split(short, "/")
		switch head {
		case ".":
			dirs = dirs[:len(dirs)-1]
		case "..":
			ascent := 2
			for strings.HasPrefix(apath, "../") {
				apath = strings.TrimPrefix(apath, "../")
				ascent++
			}
			if ascent >= len(dirs) {
				dirs = []string{""}
			} else {
				dirs = dirs[:len(dirs)-ascent]
			}
		default:
			// Paths like ".hidden" are bare filenames.
			return short[:slash] + "/" + segments[0]
		}
		return strings.Join(dirs, "/") + "/" + apath
	}

	// Bare filename: replace the last segment of the base path.
	return upath[:slash] + "/" + apath
}

// NormalizeLink repairs a raw href found on a page and reports whether
// the result is an in-scope onion target. baseHost supplies the host
// for relative links. The returned url has its fragment dropped and
// scheme/path defaults filled.
func NormalizeLink(href, baseHost string) (string, bool) {
	link := href

	// Strip current-directory references the way the frontier always
	// has; this also intentionally mangles ../ sequences in hrefs.
	for strings.Contains(link, "./") {
		link = strings.ReplaceAll(link, "./", "")
	}

	p := split(link)
	if p.scheme == "" {
		p.scheme = "http"
	}
	if p.path == "" {
		p.path = "/"
	}

	if p.host == "" {
		// Some parsers misread a scheme-less onion url as a bare path:
		// "abc.onion/page" has the address in the first path segment.
		segments := strings.Split(p.path, "/")
		if strings.Contains(segments[0], ".onion") {
			p.host = segments[0]
			if len(segments) > 1 {
				p.path = strings.Join(segments[1:], "/")
			} else {
				p.path = "/"
			}
		}
	}
	if p.host == "" {
		p.host = baseHost
	}
	p.fragment = ""

	if !IsOnion(p.host) {
		return "", false
	}
	return p.join(), true
}

// SplitQuery decomposes the url's query string into (field, value)
// pairs. Values containing '=' are preserved intact; fields without a
// value map to "".
func SplitQuery(raw string) [][2]string {
	query := split(raw).query
	if query == "" {
		return nil
	}

	var pairs [][2]string
	for _, item := range strings.Split(query, "&") {
		if item == "" {
			continue
		}
		field, value, _ := strings.Cut(item, "=")
		pairs = append(pairs, [2]string{field, value})
	}
	return pairs
}
