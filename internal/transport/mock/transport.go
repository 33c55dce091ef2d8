// Package mock provides a scripted transport for tests and offline use.
package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/DukeRupert/crmsclient/internal/transport"
)

// Response is one scripted reply.
type Response struct {
	Body string
	Err  error
}

// Call records one invocation.
type Call struct {
	Endpoint string
	Payload  json.RawMessage
}

// Transport replays scripted responses per endpoint. Queued responses are
// consumed in order; the last one repeats. Handler, when set for an
// endpoint, takes precedence and may block.
//
// It is safe for concurrent use.
type Transport struct {
	mu        sync.Mutex
	responses map[string][]Response
	handlers  map[string]func(ctx context.Context, payload json.RawMessage) ([]byte, error)
	calls     []Call
	token     string
}

// New creates an empty Transport.
func New() *Transport {
	return &Transport{
		responses: make(map[string][]Response),
		handlers:  make(map[string]func(context.Context, json.RawMessage) ([]byte, error)),
	}
}

// Respond queues a successful body for endpoint.
func (t *Transport) Respond(endpoint, body string) *Transport {
	return t.push(endpoint, Response{Body: body})
}

// Fail queues a connectivity failure for endpoint.
func (t *Transport) Fail(endpoint string) *Transport {
	return t.push(endpoint, Response{Err: &transport.Error{
		Endpoint: endpoint,
		Err:      fmt.Errorf("%w: connection refused", transport.ErrUnavailable),
	}})
}

// FailStatus queues a non-success status with body for endpoint.
func (t *Transport) FailStatus(endpoint string, status int, body string) *Transport {
	return t.push(endpoint, Response{Err: &transport.Error{
		Endpoint: endpoint,
		Status:   status,
		Body:     []byte(body),
		Err:      transport.ErrStatus,
	}})
}

// Handle installs fn as the handler for endpoint.
func (t *Transport) Handle(endpoint string, fn func(ctx context.Context, payload json.RawMessage) ([]byte, error)) *Transport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[endpoint] = fn
	return t
}

func (t *Transport) push(endpoint string, r Response) *Transport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.responses[endpoint] = append(t.responses[endpoint], r)
	return t
}

// Call implements the gateway transport.
func (t *Transport) Call(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		raw = b
	}

	t.mu.Lock()
	t.calls = append(t.calls, Call{Endpoint: endpoint, Payload: raw})
	handler := t.handlers[endpoint]
	queue := t.responses[endpoint]
	var resp Response
	found := len(queue) > 0
	if found {
		resp = queue[0]
		if len(queue) > 1 {
			t.responses[endpoint] = queue[1:]
		}
	}
	t.mu.Unlock()

	if handler != nil {
		return handler(ctx, raw)
	}
	if !found {
		return nil, &transport.Error{Endpoint: endpoint, Status: 404, Body: []byte(`{"Message":"no scripted response"}`), Err: transport.ErrStatus}
	}
	if resp.Err != nil {
		return nil, resp.Err
	}
	return []byte(resp.Body), nil
}

// Calls returns a copy of every recorded call.
func (t *Transport) Calls() []Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Call, len(t.calls))
	copy(out, t.calls)
	return out
}

// CallCount returns how many times endpoint was called.
func (t *Transport) CallCount(endpoint string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, c := range t.calls {
		if c.Endpoint == endpoint {
			n++
		}
	}
	return n
}

// LastPayload returns the payload of the most recent call to endpoint.
func (t *Transport) LastPayload(endpoint string) json.RawMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.calls) - 1; i >= 0; i-- {
		if t.calls[i].Endpoint == endpoint {
			return t.calls[i].Payload
		}
	}
	return nil
}

// SetToken records the session token.
func (t *Transport) SetToken(token string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.token = token
}

// ClearToken forgets the session token.
func (t *Transport) ClearToken() {
	t.SetToken("")
}

// Token returns the recorded session token.
func (t *Transport) Token() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.token
}
