// Package gateway exposes one typed gateway per backend entity.
//
// Every call serializes its payload, invokes the transport and normalizes
// the response through the envelope package. Read calls filter records by
// their identity fields: a response with no records is an empty result,
// while records dropped by the filter are a data-integrity event that is
// counted and logged but still degrades to whatever survived.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	"github.com/DukeRupert/crmsclient/internal/domain"
	"github.com/DukeRupert/crmsclient/internal/envelope"
	"github.com/DukeRupert/crmsclient/internal/metrics"
	"github.com/DukeRupert/crmsclient/internal/transport"
)

// Transport carries one call to the backend and returns the raw body.
type Transport interface {
	Call(ctx context.Context, endpoint string, payload any) ([]byte, error)
}

// Entity names used in logs and metric labels.
const (
	entityCustomer    = "customer"
	entityHistory     = "history"
	entityCitizenship = "citizenship"
	entityAuth        = "auth"
)

// Identity fields a record must carry to be accepted.
var (
	customerIdentity    = []string{"Id"}
	historyIdentity     = []string{"Id", "CustomerId"}
	citizenshipIdentity = []string{"Id"}
)

type base struct {
	transport Transport
	entity    string
	logger    *slog.Logger
}

func newBase(t Transport, entity string, logger *slog.Logger) base {
	return base{
		transport: t,
		entity:    entity,
		logger:    logger.With("entity", entity),
	}
}

// call invokes endpoint and normalizes the response. Transport failures
// come back as domain EUNAVAILABLE errors wrapping the transport error.
func (b *base) call(ctx context.Context, op, endpoint string, payload any) (envelope.Envelope, error) {
	raw, err := b.transport.Call(ctx, endpoint, payload)
	if err != nil {
		// An error status still means the backend answered.
		status := "unavailable"
		if transport.IsStatus(err) {
			status = "error_status"
		}
		metrics.GatewayCall(op, status)
		b.logger.Warn("gateway call failed", "op", op, "endpoint", endpoint, "status", status, "error", err)
		return envelope.Envelope{}, domain.Unavailable(err, op)
	}
	metrics.GatewayCall(op, "ok")

	env := envelope.Normalize(raw)
	// An empty reply is "no content", not corruption.
	if body := bytes.TrimSpace(env.Raw); len(body) > 0 && !json.Valid(body) {
		b.integrity(op, metrics.ReasonMalformed, 1)
	}
	return env, nil
}

func (b *base) integrity(op, reason string, dropped int) {
	if dropped == 0 {
		return
	}
	metrics.IntegrityEvent(b.entity, reason, dropped)
	b.logger.Warn("dropped malformed records",
		"op", op,
		"reason", reason,
		"dropped", dropped,
	)
}

// decodeRecords applies the identity filter to env.Data and decodes each
// surviving record into T.
func decodeRecords[T any](b *base, op string, env envelope.Envelope, identity []string) []T {
	records, dropped := envelope.Records(env.Data, identity...)
	b.integrity(op, metrics.ReasonMissingIdentity, dropped)

	out := make([]T, 0, len(records))
	undecodable := 0
	for _, rec := range records {
		var v T
		if err := json.Unmarshal(rec, &v); err != nil {
			undecodable++
			continue
		}
		out = append(out, v)
	}
	b.integrity(op, metrics.ReasonUndecodable, undecodable)
	return out
}
