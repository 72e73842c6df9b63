package crawler

import "strings"

// MergeTitles intersects two page titles: the result keeps the
// whitespace-separated tokens of current that also appear in next, in
// current's order. Repeated merging converges on the stable part of a
// dynamic title (e.g. a site name with a rotating suffix).
func MergeTitles(current, next string) string {
	nextTokens := make(map[string]bool)
	for _, token := range strings.Fields(next) {
		nextTokens[token] = true
	}

	var kept []string
	for _, token := range strings.Fields(current) {
		if nextTokens[token] {
			kept = append(kept, token)
		}
	}
	return strings.Join(kept, " ")
}

// collapseWhitespace trims a title and collapses internal whitespace
// runs to single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
