package gateway

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/DukeRupert/crmsclient/internal/domain"
	"github.com/DukeRupert/crmsclient/internal/envelope"
)

// History endpoints
const (
	endpointHistoryList       = "historyList"
	endpointHistoryByID       = "historyByHistoryId"
	endpointHistoryCreate     = "historyCre"
	endpointHistoryUpdate     = "historyMod"
	endpointHistoryDelete     = "historyDel"
	endpointHistoryDate       = "historyForDate"
	endpointHistoryDateRange  = "historyForDuring"
	endpointHistoryByCustomer = "historyCustomerId"
)

// Histories is the history gateway.
type Histories struct {
	base
}

// NewHistories creates a history gateway.
func NewHistories(t Transport, logger *slog.Logger) *Histories {
	return &Histories{base: newBase(t, entityHistory, logger)}
}

type historyRequest struct {
	HistoryID      *uuid.UUID `json:"HistoryId,omitempty"`
	CustomerID     uuid.UUID  `json:"CustomerId"`
	Date           string     `json:"Date"`
	NumberOfPeople int        `json:"NumberOfPeople"`
	Price          float64    `json:"Price"`
	Room           string     `json:"Room"`
	Note           string     `json:"Note"`
}

func newHistoryRequest(p domain.HistoryParams, withID bool) historyRequest {
	req := historyRequest{
		CustomerID:     p.CustomerID,
		Date:           p.Date,
		NumberOfPeople: p.NumberOfPeople,
		Price:          p.Price,
		Room:           p.Room,
		Note:           p.Note,
	}
	if withID {
		id := p.ID
		req.HistoryID = &id
	}
	return req
}

type historyIDRequest struct {
	HistoryID uuid.UUID `json:"HistoryId"`
}

type dateRangeRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// List returns every history record.
func (g *Histories) List(ctx context.Context) ([]domain.History, error) {
	return g.find(ctx, "history.list", endpointHistoryList, nil)
}

// GetByID returns one history record, or ENOTFOUND.
func (g *Histories) GetByID(ctx context.Context, id uuid.UUID) (*domain.History, error) {
	const op = "history.get"
	list, err := g.find(ctx, op, endpointHistoryByID, historyIDRequest{HistoryID: id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, domain.NotFound(op, "history", id.String())
	}
	return &list[0], nil
}

// SearchByDate returns the records on date ("2006-01-02").
func (g *Histories) SearchByDate(ctx context.Context, date string) ([]domain.History, error) {
	return g.find(ctx, "history.search_date", endpointHistoryDate, map[string]string{"Date": date})
}

// SearchByDateRange returns the records between start and end inclusive.
func (g *Histories) SearchByDateRange(ctx context.Context, start, end string) ([]domain.History, error) {
	return g.find(ctx, "history.search_range", endpointHistoryDateRange, dateRangeRequest{StartDate: start, EndDate: end})
}

// SearchByCustomer returns the records of one customer.
func (g *Histories) SearchByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.History, error) {
	return g.find(ctx, "history.search_customer", endpointHistoryByCustomer, map[string]uuid.UUID{"CustomerId": customerID})
}

// Create submits a new history record.
func (g *Histories) Create(ctx context.Context, p domain.HistoryParams) (envelope.Envelope, error) {
	return g.call(ctx, "history.create", endpointHistoryCreate, newHistoryRequest(p, false))
}

// Update submits changes to an existing history record.
func (g *Histories) Update(ctx context.Context, p domain.HistoryParams) (envelope.Envelope, error) {
	return g.call(ctx, "history.update", endpointHistoryUpdate, newHistoryRequest(p, true))
}

// Delete removes a history record.
func (g *Histories) Delete(ctx context.Context, id uuid.UUID) (envelope.Envelope, error) {
	return g.call(ctx, "history.delete", endpointHistoryDelete, historyIDRequest{HistoryID: id})
}

func (g *Histories) find(ctx context.Context, op, endpoint string, payload any) ([]domain.History, error) {
	env, err := g.call(ctx, op, endpoint, payload)
	if err != nil {
		return nil, err
	}
	list := decodeRecords[domain.History](&g.base, op, env, historyIdentity)
	for i := range list {
		list[i].Date = domain.DateOnly(list[i].Date)
	}
	return list, nil
}
