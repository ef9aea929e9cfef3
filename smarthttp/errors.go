package smarthttp

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrRequestAlreadySent reports a second write on a stream whose
	// single exchange has already been performed.
	ErrRequestAlreadySent = errors.New("request already sent on this stream")

	// ErrBodyNotAllowed reports a write on a stream whose service does
	// not take a request body.
	ErrBodyNotAllowed = errors.New("service does not accept a request body")

	// ErrMissingHost reports a remote URL without a host component.
	ErrMissingHost = errors.New("remote URL has no host")

	// ErrUnsupportedScheme reports a remote URL whose scheme is neither
	// http nor https.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
)

// StatusError reports a response status other than 200. The smart
// protocol has no use for other success codes, and redirects arrive as
// a Location header on a 200 from forges that rewrite in-place.
type StatusError struct {
	Code uint
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to receive HTTP 200 response: got %d", e.Code)
}

// ContentTypeError reports a response whose Content-Type does not
// match the one the requested service mandates. Got is empty when the
// header was absent.
type ContentTypeError struct {
	Expected string
	Got      string
}

func (e *ContentTypeError) Error() string {
	return fmt.Sprintf("invalid Content-Type: expected %q, got %q", e.Expected, e.Got)
}
