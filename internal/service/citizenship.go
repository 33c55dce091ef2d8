package service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/DukeRupert/crmsclient/internal/domain"
)

// Citizenship load messages
const (
	MsgNoCitizenships         = "No citizenship data available"
	MsgCitizenshipsLoadFailed = "Failed to load citizenship data. Please try again."
)

// CitizenshipGateway is the subset of the citizenship gateway the service uses.
type CitizenshipGateway interface {
	List(ctx context.Context) (domain.Citizenships, error)
	GetByID(ctx context.Context, id int) (*domain.Citizenship, error)
	GetByNation(ctx context.Context, nation string) (*domain.Citizenship, error)
}

// CitizenshipService caches the citizenship reference set for the
// session. A failed or empty load is not cached, so the next call
// retries.
type CitizenshipService struct {
	gw     CitizenshipGateway
	logger *slog.Logger

	mu   sync.Mutex
	refs domain.Citizenships
}

// NewCitizenshipService creates a CitizenshipService.
func NewCitizenshipService(gw CitizenshipGateway, logger *slog.Logger) *CitizenshipService {
	return &CitizenshipService{gw: gw, logger: logger}
}

// Load returns the reference set, fetching it on first use.
func (s *CitizenshipService) Load(ctx context.Context) (domain.Citizenships, error) {
	const op = "citizenship.load"

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.refs) > 0 {
		return s.refs, nil
	}

	refs, err := s.gw.List(ctx)
	if err != nil {
		s.logger.Warn("citizenship load failed", "error", err)
		return nil, &domain.Error{Code: domain.EUNAVAILABLE, Op: op, Message: MsgCitizenshipsLoadFailed, Err: err}
	}
	if len(refs) == 0 {
		return nil, &domain.Error{Code: domain.ENOTFOUND, Op: op, Message: MsgNoCitizenships}
	}

	s.refs = refs
	s.logger.Debug("citizenships loaded", "count", len(refs))
	return refs, nil
}

// Cached returns whatever has been loaded so far, possibly nil.
func (s *CitizenshipService) Cached() domain.Citizenships {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refs
}

// NationName returns the display name for id, or "Unknown".
func (s *CitizenshipService) NationName(id int) string {
	return s.Cached().NationName(id)
}

// DefaultID returns the citizenship preselected on new customer forms.
func (s *CitizenshipService) DefaultID() int {
	return s.Cached().DefaultID()
}

// Lookup finds one citizenship by numeric id or nation name.
func (s *CitizenshipService) Lookup(ctx context.Context, key string) (*domain.Citizenship, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, domain.Invalid("citizenship.lookup", "Please enter a citizenship id or nation.")
	}
	if id, err := strconv.Atoi(key); err == nil {
		if c, ok := s.Cached().Find(id); ok {
			return &c, nil
		}
		return s.gw.GetByID(ctx, id)
	}
	return s.gw.GetByNation(ctx, key)
}
