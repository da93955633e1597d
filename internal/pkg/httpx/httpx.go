package httpx

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// StatusCoder is implemented by client errors that carry an HTTP status.
type StatusCoder interface {
	HTTPStatusCode() int
}

// StatusOf returns the status carried by err, or 0.
func StatusOf(err error) int {
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.HTTPStatusCode()
	}
	return 0
}

// Transient reports whether a retry could plausibly succeed: timeouts,
// throttling and server errors. Auth failures and other 4xx never are.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	switch code := StatusOf(err); {
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests:
		return true
	case code >= 500 && code <= 599:
		return true
	}
	return false
}

// IsAuth reports a 401 or 403 from the remote side.
func IsAuth(err error) bool {
	code := StatusOf(err)
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

// Backoff is an exponential retry schedule with symmetric jitter.
type Backoff struct {
	Base   time.Duration
	Max    time.Duration
	Jitter float64
	rand   func() float64
}

// Delay returns the wait before retry attempt (0-based). A Retry-After header
// in seconds overrides the schedule, still capped at Max.
func (b Backoff) Delay(attempt int, resp *http.Response) time.Duration {
	base := b.Base
	if base <= 0 {
		base = time.Second
	}
	d := base << uint(attempt)
	if resp != nil {
		if ra := strings.TrimSpace(resp.Header.Get("Retry-After")); ra != "" {
			if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
				d = time.Duration(secs) * time.Second
			}
		}
	}
	if b.Max > 0 && (d > b.Max || d <= 0) {
		d = b.Max
	}
	if b.Jitter <= 0 {
		return d
	}
	rnd := b.rand
	if rnd == nil {
		rnd = rand.Float64
	}
	spread := float64(d) * b.Jitter
	return time.Duration(float64(d) - spread + 2*spread*rnd())
}
