// Package service contains the client's use cases.
//
// Each service pairs an entity gateway with the validation engine and the
// search slot backing its list view. Services return errors for the CLI
// to render; list results reach observers through the slot.
package service

import (
	"context"
	"log/slog"

	"github.com/DukeRupert/crmsclient/internal/domain"
	"github.com/DukeRupert/crmsclient/internal/envelope"
	"github.com/DukeRupert/crmsclient/internal/metrics"
	"github.com/DukeRupert/crmsclient/internal/validation"
)

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

// Confirm calls f.
func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Validation sources used as metric labels.
const (
	sourceLocal  = "local"
	sourceServer = "server"
)

// mutationResult turns the outcome of a create, update or delete into
// the error the caller sees. A rejection naming a field becomes a
// ValidationError; any other rejection keeps the backend's message.
func mutationResult(op, entity string, env envelope.Envelope, err error) error {
	if ve := validation.FromRejection(op, err, env); ve != nil {
		metrics.ValidationFailed(entity, sourceServer)
		return ve
	}
	if err != nil {
		return err
	}
	if msg, ok := env.Rejection(); ok {
		return domain.Invalid(op, msg)
	}
	return nil
}

// reload refreshes a list view after a successful mutation. A stopped
// queue only means nobody is watching.
func reload(ctx context.Context, logger *slog.Logger, r interface{ Reload(context.Context) error }) {
	if err := r.Reload(ctx); err != nil {
		logger.Debug("list reload skipped", "error", err)
	}
}
