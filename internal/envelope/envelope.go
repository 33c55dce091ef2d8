// Package envelope turns the backend's heterogeneous response bodies into
// one canonical Envelope.
//
// The backend wraps entity payloads under whichever key the handler author
// chose ("customers", "history", "citizenship", a bare array, an auth
// object keyed by "username", ...). Normalize resolves those shapes once;
// everything downstream only reads Envelope.Data.
package envelope

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// Envelope is the canonical response shape.
type Envelope struct {
	// Message is the backend's human-readable status text, if any.
	Message string

	// Data is the unwrapped payload. Nil when the response carried none
	// or carried JSON null.
	Data json.RawMessage

	// Token is set only on a successful login response.
	Token string

	// Raw is the original body, kept for rejection inspection.
	Raw json.RawMessage
}

// HasData reports whether the envelope carries a payload.
func (e Envelope) HasData() bool {
	return len(e.Data) > 0
}

// DataString returns the payload when it is a JSON string.
func (e Envelope) DataString() (string, bool) {
	if !e.HasData() {
		return "", false
	}
	r := gjson.ParseBytes(e.Data)
	if r.Type != gjson.String {
		return "", false
	}
	return r.String(), true
}

// rejectionPrefix marks a business-rule rejection in Message. The backend
// spells it with either capitalization.
const rejectionPrefix = "error crms"

// Rejection reports whether the backend refused the request while still
// answering with a success status, and returns its message.
func (e Envelope) Rejection() (string, bool) {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(e.Message)), rejectionPrefix) {
		return e.Message, true
	}
	return "", false
}

// Entity keys in priority order. They are mutually exclusive in
// well-formed responses; order only matters for malformed ones.
var aliases = []string{
	"customers",
	"customer",
	"citizenships",
	"citizenship",
	"histories",
	"history",
}

const (
	keyData     = "data"
	keyUsername = "username"
	keyToken    = "token"
)

// Normalize converts a raw response body into an Envelope. It never
// fails: bodies that are not valid JSON yield an empty Envelope.
func Normalize(raw []byte) Envelope {
	body := bytes.TrimSpace(raw)
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return Envelope{Raw: json.RawMessage(raw)}
	}

	root := gjson.ParseBytes(body)
	env := Envelope{Raw: json.RawMessage(body)}

	if !root.IsObject() {
		// Arrays and scalars are the payload itself.
		env.Data = payload(root)
		return env
	}

	msg, hasMsg := message(root)
	env.Message = msg
	if tok := root.Get(keyToken); tok.Type == gjson.String {
		env.Token = tok.String()
	}

	if d := root.Get(keyData); d.Exists() {
		env.Data = payload(d)
		return env
	}

	if u := root.Get(keyUsername); u.Exists() {
		env.Data = payload(u)
		return env
	}

	alias, ok := firstAlias(root)
	if hasMsg && !ok {
		// Message-only or token-only response (login, logout, "not found").
		return env
	}
	if ok {
		env.Data = payload(root.Get(alias))
		return env
	}

	env.Data = payload(root)
	return env
}

// Records applies the identity filter to a payload. A single object is
// treated as a one-item list. An item is accepted only when it is an
// object carrying every required key; everything else counts as dropped.
func Records(data json.RawMessage, required ...string) (records []json.RawMessage, dropped int) {
	if len(data) == 0 {
		return nil, 0
	}
	r := gjson.ParseBytes(data)
	switch {
	case r.Type == gjson.Null:
		return nil, 0
	case r.IsArray():
		r.ForEach(func(_, item gjson.Result) bool {
			if hasIdentity(item, required) {
				records = append(records, json.RawMessage(item.Raw))
			} else {
				dropped++
			}
			return true
		})
		return records, dropped
	case hasIdentity(r, required):
		return []json.RawMessage{json.RawMessage(r.Raw)}, 0
	default:
		return nil, 1
	}
}

func hasIdentity(item gjson.Result, required []string) bool {
	if !item.IsObject() {
		return false
	}
	for _, key := range required {
		v := item.Get(gjson.Escape(key))
		if !v.Exists() || v.Type == gjson.Null {
			return false
		}
	}
	return true
}

func message(root gjson.Result) (string, bool) {
	for _, key := range []string{"Message", "message"} {
		if m := root.Get(key); m.Exists() {
			return m.String(), true
		}
	}
	return "", false
}

func firstAlias(root gjson.Result) (string, bool) {
	for _, alias := range aliases {
		if root.Get(alias).Exists() {
			return alias, true
		}
	}
	return "", false
}

func payload(r gjson.Result) json.RawMessage {
	if r.Type == gjson.Null {
		return nil
	}
	return json.RawMessage(r.Raw)
}
