// Package transport carries gateway calls to the backend over HTTP.
//
// Every call is a POST of an optional JSON body to {BaseURL}/{endpoint}.
// The client keeps a cookie jar so the session cookie the backend sets on
// login rides along on every later call.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/DukeRupert/crmsclient/internal/metrics"
)

// CookieName is the cookie the backend reads the session token from.
const CookieName = "token"

// Config configures a Client.
type Config struct {
	// BaseURL is the API root, e.g. "http://localhost:8080/api".
	BaseURL string

	// RateLimit caps outgoing requests per second. 0 disables the limiter.
	RateLimit float64

	// Burst is the limiter's bucket size. Defaults to 1.
	Burst int

	// HTTPTransport overrides the underlying round tripper (tests).
	HTTPTransport http.RoundTripper
}

// Client is the HTTP transport. It is safe for concurrent use.
//
// Requests carry no timeout of their own and are never retried; callers
// bound them with ctx if they need to.
type Client struct {
	baseURL string
	base    *url.URL
	client  *http.Client
	limiter *rate.Limiter
}

// New creates a Client.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("transport base URL is required")
	}

	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		base:    base,
		client: &http.Client{
			Jar:       jar,
			Transport: metrics.RoundTripper(newLoggingRoundTripper(cfg.HTTPTransport, logger)),
		},
		limiter: limiter,
	}, nil
}

// Call posts payload to endpoint and returns the raw response body.
// A nil payload sends an empty body. Non-2xx responses return an *Error
// wrapping ErrStatus with the body attached.
func (c *Client) Call(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	endpoint = strings.Trim(endpoint, "/")

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &Error{Endpoint: endpoint, Err: fmt.Errorf("%w: %v", ErrUnavailable, err)}
		}
	}

	req, err := c.buildRequest(ctx, endpoint, payload)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", endpoint, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &Error{Endpoint: endpoint, Err: fmt.Errorf("%w: %v", ErrUnavailable, err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Endpoint: endpoint, Status: resp.StatusCode, Err: fmt.Errorf("%w: read body: %v", ErrUnavailable, err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Endpoint: endpoint, Status: resp.StatusCode, Body: body, Err: ErrStatus}
	}

	return body, nil
}

// SetToken attaches a persisted session token to later calls, as if the
// backend had just set it.
func (c *Client) SetToken(token string) {
	c.client.Jar.SetCookies(c.base, []*http.Cookie{{Name: CookieName, Value: token, Path: "/"}})
}

// ClearToken drops the session cookie.
func (c *Client) ClearToken() {
	c.client.Jar.SetCookies(c.base, []*http.Cookie{{Name: CookieName, Value: "", Path: "/", MaxAge: -1}})
}

func (c *Client) buildRequest(ctx context.Context, endpoint string, payload any) (*http.Request, error) {
	var body io.Reader = http.NoBody
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return req, nil
}
