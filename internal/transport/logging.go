package transport

import (
	"log/slog"
	"net/http"
	"time"
)

// loggingRoundTripper logs every backend request with timing and status.
// The session cookie is reported only as present or absent.
type loggingRoundTripper struct {
	next   http.RoundTripper
	logger *slog.Logger
}

func newLoggingRoundTripper(next http.RoundTripper, logger *slog.Logger) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &loggingRoundTripper{next: next, logger: logger}
}

func (t *loggingRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(r)
	duration := time.Since(start)

	_, cookieErr := r.Cookie(CookieName)
	attrs := []any{
		"method", r.Method,
		"path", r.URL.Path,
		"duration_ms", duration.Milliseconds(),
		"with_session", cookieErr == nil,
	}

	if err != nil {
		t.logger.Warn("backend request failed", append(attrs, "error", err)...)
		return nil, err
	}

	attrs = append(attrs, "status", resp.StatusCode)
	if resp.StatusCode >= 500 {
		t.logger.Warn("backend request", attrs...)
	} else {
		t.logger.Debug("backend request", attrs...)
	}
	return resp, nil
}
