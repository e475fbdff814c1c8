package resilience

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
)

// UpstreamError is a failed upstream response. Temporary ones are retried.
type UpstreamError struct {
	Upstream string
	Status   int
	Err      error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Upstream + ": unexpected status " + http.StatusText(e.Status)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Temporary reports whether the status is one a later attempt may clear.
func (e *UpstreamError) Temporary() bool {
	switch e.Status {
	case http.StatusRequestTimeout, http.StatusTooManyRequests,
		http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Throttled wraps err as a temporary failure of upstream.
func Throttled(upstream string, err error) error {
	return &UpstreamError{Upstream: upstream, Status: http.StatusTooManyRequests, Err: err}
}

// Unavailable wraps err as a 503 from upstream.
func Unavailable(upstream string, err error) error {
	return &UpstreamError{Upstream: upstream, Status: http.StatusServiceUnavailable, Err: err}
}

// StatusError builds the error for a non-OK HTTP response.
func StatusError(upstream string, status int) error {
	return &UpstreamError{
		Upstream: upstream,
		Status:   status,
		Err:      eris.Errorf("%s: unexpected status %d", upstream, status),
	}
}

// IsTransient reports whether err is worth retrying: a temporary
// UpstreamError, a network timeout, or a dropped connection.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Temporary()
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "429 too many requests")
}
