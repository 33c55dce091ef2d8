package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/DukeRupert/crmsclient/internal/domain"
	"github.com/DukeRupert/crmsclient/internal/envelope"
	"github.com/DukeRupert/crmsclient/internal/metrics"
	"github.com/DukeRupert/crmsclient/internal/search"
	"github.com/DukeRupert/crmsclient/internal/validation"
	"github.com/DukeRupert/crmsclient/internal/worker"
)

// History messages
const (
	MsgConfirmDeleteHistory = "Are you sure you want to delete this history record?"
	MsgSelectDate           = "Please select a date."
	MsgSelectDateRange      = "Please select both start and end dates."
	MsgDateRangeOrder       = "Start date must be before end date."
	MsgChooseCustomer       = "Please choose a customer."
	UnknownCustomer         = "Unknown Customer"
)

const entityHistory = "history"

// HistoryGateway is the subset of the history gateway the service uses.
type HistoryGateway interface {
	List(ctx context.Context) ([]domain.History, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.History, error)
	SearchByDate(ctx context.Context, date string) ([]domain.History, error)
	SearchByDateRange(ctx context.Context, start, end string) ([]domain.History, error)
	SearchByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.History, error)
	Create(ctx context.Context, p domain.HistoryParams) (envelope.Envelope, error)
	Update(ctx context.Context, p domain.HistoryParams) (envelope.Envelope, error)
	Delete(ctx context.Context, id uuid.UUID) (envelope.Envelope, error)
}

// CustomerLister supplies the customers a history view resolves names from.
type CustomerLister interface {
	List(ctx context.Context) ([]domain.Customer, error)
}

// HistoryRow is a history record prepared for display.
type HistoryRow struct {
	domain.History
	CustomerName string
	Price        string
}

// HistoryService manages stay records and the history list view.
type HistoryService struct {
	gw        HistoryGateway
	customers CustomerLister
	engine    *validation.Engine
	slot      *search.Slot[domain.History]
	logger    *slog.Logger

	mu    sync.RWMutex
	names map[uuid.UUID]string
}

// NewHistoryService creates a HistoryService whose list slot lives on queue.
func NewHistoryService(
	gw HistoryGateway,
	customers CustomerLister,
	engine *validation.Engine,
	queue *worker.Queue,
	cfg search.Config,
	logger *slog.Logger,
) *HistoryService {
	s := &HistoryService{
		gw:        gw,
		customers: customers,
		engine:    engine,
		logger:    logger.With("service", entityHistory),
		names:     make(map[uuid.UUID]string),
	}
	if cfg.Name == "" {
		cfg.Name = "histories"
	}
	cfg.Validate = validateHistoryQuery
	s.slot = search.NewSlot[domain.History](cfg, queue, s.run, logger)
	return s
}

// Slot returns the list view's search slot.
func (s *HistoryService) Slot() *search.Slot[domain.History] {
	return s.slot
}

// Get returns one history record.
func (s *HistoryService) Get(ctx context.Context, id uuid.UUID) (*domain.History, error) {
	return s.gw.GetByID(ctx, id)
}

// LoadCustomers refreshes the customer names used by Rows and returns
// the customers for selection.
func (s *HistoryService) LoadCustomers(ctx context.Context) ([]domain.Customer, error) {
	customers, err := s.customers.List(ctx)
	if err != nil {
		return nil, err
	}

	names := make(map[uuid.UUID]string, len(customers))
	for _, c := range customers {
		names[c.ID] = c.Name
	}

	s.mu.Lock()
	s.names = names
	s.mu.Unlock()
	return customers, nil
}

// CustomerName returns the name of a loaded customer, or "Unknown Customer".
func (s *HistoryService) CustomerName(id uuid.UUID) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if name, ok := s.names[id]; ok && name != "" {
		return name
	}
	return UnknownCustomer
}

// Rows prepares records for display.
func (s *HistoryService) Rows(items []domain.History) []HistoryRow {
	rows := make([]HistoryRow, 0, len(items))
	for _, h := range items {
		h.Date = domain.DateOnly(h.Date)
		rows = append(rows, HistoryRow{
			History:      h,
			CustomerName: s.CustomerName(h.CustomerID),
			Price:        domain.FormatPrice(h.Price),
		})
	}
	return rows
}

// Save creates the record when p.IsNew() and updates it otherwise.
func (s *HistoryService) Save(ctx context.Context, p domain.HistoryParams) error {
	op := "history.update"
	if p.IsNew() {
		op = "history.create"
	}

	if ve := s.engine.ValidateHistory(p); ve != nil {
		metrics.ValidationFailed(entityHistory, sourceLocal)
		return ve
	}

	var (
		env envelope.Envelope
		err error
	)
	if p.IsNew() {
		env, err = s.gw.Create(ctx, p)
	} else {
		env, err = s.gw.Update(ctx, p)
	}
	if err := mutationResult(op, entityHistory, env, err); err != nil {
		return err
	}

	s.logger.Info("history saved", "op", op, "history_id", p.ID, "customer_id", p.CustomerID)
	reload(ctx, s.logger, s.slot)
	return nil
}

// Delete removes a record after confirmation. It reports whether the
// record was deleted.
func (s *HistoryService) Delete(ctx context.Context, id uuid.UUID, confirm Confirmer) (bool, error) {
	const op = "history.delete"

	if confirm != nil && !confirm.Confirm(MsgConfirmDeleteHistory) {
		return false, nil
	}

	env, err := s.gw.Delete(ctx, id)
	if err := mutationResult(op, entityHistory, env, err); err != nil {
		return false, err
	}

	s.logger.Info("history deleted", "history_id", id)
	reload(ctx, s.logger, s.slot)
	return true, nil
}

func (s *HistoryService) run(ctx context.Context, q search.Query) ([]domain.History, error) {
	switch q.Kind {
	case search.KindAll:
		return s.gw.List(ctx)
	case search.KindDate:
		return s.gw.SearchByDate(ctx, q.Term())
	case search.KindDateRange:
		return s.gw.SearchByDateRange(ctx, strings.TrimSpace(q.Start), strings.TrimSpace(q.End))
	case search.KindCustomer:
		id, err := uuid.Parse(q.Term())
		if err != nil {
			return nil, err
		}
		return s.gw.SearchByCustomer(ctx, id)
	default:
		return nil, fmt.Errorf("unsupported history search %q", q.Kind)
	}
}

func validateHistoryQuery(q search.Query) string {
	switch q.Kind {
	case search.KindAll:
		return ""
	case search.KindDate:
		if _, ok := parseDay(q.Value); !ok {
			return MsgSelectDate
		}
	case search.KindDateRange:
		start, okStart := parseDay(q.Start)
		end, okEnd := parseDay(q.End)
		if !okStart || !okEnd {
			return MsgSelectDateRange
		}
		if start.After(end) {
			return MsgDateRangeOrder
		}
	case search.KindCustomer:
		if _, err := uuid.Parse(q.Term()); err != nil {
			return MsgChooseCustomer
		}
	default:
		return "History cannot be searched that way."
	}
	return ""
}

func parseDay(s string) (time.Time, bool) {
	t, err := time.Parse(time.DateOnly, domain.DateOnly(strings.TrimSpace(s)))
	return t, err == nil
}
