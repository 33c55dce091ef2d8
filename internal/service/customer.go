package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/DukeRupert/crmsclient/internal/domain"
	"github.com/DukeRupert/crmsclient/internal/envelope"
	"github.com/DukeRupert/crmsclient/internal/metrics"
	"github.com/DukeRupert/crmsclient/internal/search"
	"github.com/DukeRupert/crmsclient/internal/validation"
	"github.com/DukeRupert/crmsclient/internal/worker"
)

// MsgConfirmDeleteCustomer is asked before a customer is deleted.
const MsgConfirmDeleteCustomer = "Are you sure you want to delete this customer?"

const entityCustomer = "customer"

// CustomerGateway is the subset of the customer gateway the service uses.
type CustomerGateway interface {
	List(ctx context.Context) ([]domain.Customer, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
	SearchByName(ctx context.Context, name string) ([]domain.Customer, error)
	SearchByNationalID(ctx context.Context, nationalID string) ([]domain.Customer, error)
	SearchByPhone(ctx context.Context, phone string) ([]domain.Customer, error)
	Create(ctx context.Context, p domain.CustomerParams) (envelope.Envelope, error)
	Update(ctx context.Context, p domain.CustomerParams) (envelope.Envelope, error)
	Delete(ctx context.Context, id uuid.UUID) (envelope.Envelope, error)
}

// CustomerService manages customers and the customer list view.
type CustomerService struct {
	gw           CustomerGateway
	citizenships *CitizenshipService
	engine       *validation.Engine
	slot         *search.Slot[domain.Customer]
	logger       *slog.Logger
}

// NewCustomerService creates a CustomerService whose list slot lives on queue.
func NewCustomerService(
	gw CustomerGateway,
	citizenships *CitizenshipService,
	engine *validation.Engine,
	queue *worker.Queue,
	cfg search.Config,
	logger *slog.Logger,
) *CustomerService {
	s := &CustomerService{
		gw:           gw,
		citizenships: citizenships,
		engine:       engine,
		logger:       logger.With("service", entityCustomer),
	}
	if cfg.Name == "" {
		cfg.Name = "customers"
	}
	cfg.Validate = validateCustomerQuery
	s.slot = search.NewSlot[domain.Customer](cfg, queue, s.run, logger)
	return s
}

// Slot returns the list view's search slot.
func (s *CustomerService) Slot() *search.Slot[domain.Customer] {
	return s.slot
}

// Get returns one customer.
func (s *CustomerService) Get(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	return s.gw.GetByID(ctx, id)
}

// NewParams returns a blank form with the default gender and citizenship.
func (s *CustomerService) NewParams(ctx context.Context) domain.CustomerParams {
	if _, err := s.citizenships.Load(ctx); err != nil {
		s.logger.Debug("default citizenship unavailable", "error", err)
	}
	return domain.CustomerParams{
		Gender:        domain.GenderMale,
		CitizenshipID: s.citizenships.DefaultID(),
	}
}

// Save creates the customer when p.IsNew() and updates it otherwise.
// Local rule violations and backend rejections both come back as a
// *domain.ValidationError. On success the list view reloads.
func (s *CustomerService) Save(ctx context.Context, p domain.CustomerParams) error {
	op := "customer.update"
	if p.IsNew() {
		op = "customer.create"
	}

	refs, err := s.citizenships.Load(ctx)
	if err != nil {
		// Without reference data every citizenship looks unknown.
		if domain.IsRetryable(err) {
			return err
		}
		s.logger.Warn("validating without citizenship data", "error", err)
	}
	if ve := s.engine.ValidateCustomer(p, refs); ve != nil {
		metrics.ValidationFailed(entityCustomer, sourceLocal)
		return ve
	}

	var env envelope.Envelope
	if p.IsNew() {
		env, err = s.gw.Create(ctx, p)
	} else {
		env, err = s.gw.Update(ctx, p)
	}
	if err := mutationResult(op, entityCustomer, env, err); err != nil {
		return err
	}

	s.logger.Info("customer saved", "op", op, "customer_id", p.ID, "national_id", p.NationalID)
	reload(ctx, s.logger, s.slot)
	return nil
}

// Delete removes a customer after confirmation. It reports whether the
// customer was deleted; a refusal is not an error.
func (s *CustomerService) Delete(ctx context.Context, id uuid.UUID, confirm Confirmer) (bool, error) {
	const op = "customer.delete"

	if confirm != nil && !confirm.Confirm(MsgConfirmDeleteCustomer) {
		return false, nil
	}

	env, err := s.gw.Delete(ctx, id)
	if err := mutationResult(op, entityCustomer, env, err); err != nil {
		return false, err
	}

	s.logger.Info("customer deleted", "customer_id", id)
	reload(ctx, s.logger, s.slot)
	return true, nil
}

func (s *CustomerService) run(ctx context.Context, q search.Query) ([]domain.Customer, error) {
	switch q.Kind {
	case search.KindAll:
		return s.gw.List(ctx)
	case search.KindName:
		return s.gw.SearchByName(ctx, q.Term())
	case search.KindNationalID:
		return s.gw.SearchByNationalID(ctx, q.Term())
	case search.KindPhone:
		return s.gw.SearchByPhone(ctx, q.Term())
	default:
		return nil, fmt.Errorf("unsupported customer search %q", q.Kind)
	}
}

func validateCustomerQuery(q search.Query) string {
	if q.Kind == search.KindAll || q.Kind.Textual() {
		return ""
	}
	return "Customers cannot be searched that way."
}
