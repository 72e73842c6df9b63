package crawler

import "errors"

var (
	// ErrInvalidURL is returned when a claimed url cannot even be
	// turned into an HTTP request. The url is faulted permanently.
	ErrInvalidURL = errors.New("invalid url")

	// ErrBodyTooLarge is returned when a response body exceeds the
	// configured size cap. The url is faulted with "memory error".
	ErrBodyTooLarge = errors.New("response body exceeds size limit")
)
