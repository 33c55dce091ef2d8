package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RoundTripper records backend request metrics around next.
func RoundTripper(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		TransportRequestsInFlight.Inc()
		defer TransportRequestsInFlight.Dec()

		start := time.Now()
		resp, err := next.RoundTrip(r)

		endpoint := endpointLabel(r.URL.Path)
		status := "error"
		if err == nil {
			status = strconv.Itoa(resp.StatusCode)
		}

		TransportRequestsTotal.WithLabelValues(endpoint, status).Inc()
		TransportRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		return resp, err
	})
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// endpointLabel keeps the last path segment so the base URL prefix does
// not leak into label values.
func endpointLabel(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		path = path[i+1:]
	}
	if path == "" {
		return "unknown"
	}
	return path
}
