// Package resilience bounds retries against the external services the
// pipeline leans on: the BAN geocoding API, the paris.fr CDN, and the
// Anthropic API. A failure that survives the retry budget is recorded on
// the item and the batch moves on; nothing here retries forever.
package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"
)

// TransientError marks an error worth retrying, optionally carrying the
// HTTP status behind it. BAN and the Anthropic API both rate-limit with
// 429, which is the main reason this type exists.
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps an error as transient. statusCode may be 0 for
// non-HTTP failures.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

var retryableErrnos = []error{
	syscall.ECONNRESET,
	syscall.ECONNREFUSED,
	syscall.ECONNABORTED,
}

// Some client libraries stringify the underlying cause before wrapping,
// so typed checks alone miss these. Substring match is the fallback.
var retryableFragments = []string{
	"connection reset by peer",
	"broken pipe",
	"temporary failure in name resolution",
	"no such host",
	"tls handshake timeout",
	"i/o timeout",
}

// IsTransient reports whether the error chain contains a TransientError,
// a network timeout, or one of the connection-level failures the BAN and
// CDN endpoints produce under load.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	for _, errno := range retryableErrnos {
		if errors.Is(err, errno) {
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	for _, fragment := range retryableFragments {
		if strings.Contains(msg, fragment) {
			return true
		}
	}

	return false
}

// IsTransientHTTPStatus reports whether a status is worth retrying: 429
// and the 5xx responses the BAN API serves when saturated. 4xx apart from
// 429 means the request itself is wrong and a retry cannot fix it.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
