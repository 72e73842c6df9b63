package crawler

import "strings"

// StatusClass buckets an HTTP status code into the frontier's four
// scheduling outcomes.
type StatusClass int

const (
	// StatusUnknown is any code outside the known buckets. The url is
	// faulted with the code and the anomaly is logged for review.
	StatusUnknown StatusClass = iota

	// StatusSuccess means the target answered with content we can scan.
	StatusSuccess

	// StatusRedirect means the target points elsewhere. The Location is
	// enqueued and the url itself is faulted with the code.
	StatusRedirect

	// StatusFault is a permanent refusal. The url is faulted with the
	// code and never claimed again.
	StatusFault

	// StatusSoftFault is a transient condition (timeout, overload,
	// lock). Nothing is recorded; the url stays claimable.
	StatusSoftFault
)

var (
	successCodes = map[int]bool{
		200: true, 201: true,
	}

	redirectCodes = map[int]bool{
		301: true, 302: true, 303: true, 307: true, 308: true,
	}

	faultCodes = map[int]bool{
		400: true, 401: true, 403: true, 404: true, 405: true,
		406: true, 410: true, 413: true, 414: true, 444: true,
		451: true, 495: true, 496: true, 500: true, 501: true,
		502: true, 505: true, 508: true, 511: true,
	}

	softFaultCodes = map[int]bool{
		408: true, 421: true, 423: true, 429: true, 503: true, 504: true,
	}
)

// ClassifyStatus maps an HTTP status code to its scheduling bucket.
func ClassifyStatus(code int) StatusClass {
	switch {
	case successCodes[code]:
		return StatusSuccess
	case redirectCodes[code]:
		return StatusRedirect
	case faultCodes[code]:
		return StatusFault
	case softFaultCodes[code]:
		return StatusSoftFault
	default:
		return StatusUnknown
	}
}

// ContentTypePrefix extracts the major type from a Content-Type header
// value: "text/html; charset=utf-8" yields "text". Returns "" when the
// header is absent, meaning the type is unknown and may not be used to
// reject the url.
func ContentTypePrefix(header string) string {
	if header == "" {
		return ""
	}
	prefix, _, _ := strings.Cut(header, "/")
	return strings.ToLower(strings.TrimSpace(prefix))
}

// IsScannableType reports whether a content type prefix permits
// scanning. Only "text" bodies are parsed; an unknown type ("") passes
// the gate so the GET can resolve it.
func IsScannableType(prefix string) bool {
	return prefix == "" || prefix == "text"
}
