package gateway

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/DukeRupert/crmsclient/internal/domain"
	"github.com/DukeRupert/crmsclient/internal/envelope"
)

// Customer endpoints
const (
	endpointCustomerList       = "customerList"
	endpointCustomerByID       = "customerID"
	endpointCustomerCreate     = "customerCre"
	endpointCustomerUpdate     = "customerMod"
	endpointCustomerDelete     = "customerDel"
	endpointCustomerName       = "customerName"
	endpointCustomerNationalID = "customerNationalId"
	endpointCustomerPhone      = "customerPhone"
)

// Customers is the customer gateway.
type Customers struct {
	base
}

// NewCustomers creates a customer gateway.
func NewCustomers(t Transport, logger *slog.Logger) *Customers {
	return &Customers{base: newBase(t, entityCustomer, logger)}
}

// customerRequest is the create/update body. CustomerId is omitted on create.
type customerRequest struct {
	CustomerID    *uuid.UUID `json:"CustomerId,omitempty"`
	Name          string     `json:"Name"`
	Gender        string     `json:"Gender"`
	Birthday      string     `json:"Birthday"`
	NationalID    string     `json:"NationalId"`
	Address       string     `json:"Address"`
	PhoneNumber   string     `json:"PhoneNumber"`
	CarNumber     string     `json:"CarNumber"`
	CitizenshipID int        `json:"CitizenshipId"`
	Note          string     `json:"Note"`
}

func newCustomerRequest(p domain.CustomerParams, withID bool) customerRequest {
	req := customerRequest{
		Name:          p.Name,
		Gender:        p.Gender,
		Birthday:      p.Birthday,
		NationalID:    p.NationalID,
		Address:       p.Address,
		PhoneNumber:   p.PhoneNumber,
		CarNumber:     p.CarNumber,
		CitizenshipID: p.CitizenshipID,
		Note:          p.Note,
	}
	if withID {
		id := p.ID
		req.CustomerID = &id
	}
	return req
}

type customerIDRequest struct {
	CustomerID uuid.UUID `json:"CustomerId"`
}

// List returns every customer.
func (g *Customers) List(ctx context.Context) ([]domain.Customer, error) {
	return g.find(ctx, "customer.list", endpointCustomerList, nil)
}

// GetByID returns one customer, or ENOTFOUND.
func (g *Customers) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	const op = "customer.get"
	list, err := g.find(ctx, op, endpointCustomerByID, customerIDRequest{CustomerID: id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, domain.NotFound(op, "customer", id.String())
	}
	return &list[0], nil
}

// SearchByName returns customers matching name.
func (g *Customers) SearchByName(ctx context.Context, name string) ([]domain.Customer, error) {
	return g.find(ctx, "customer.search_name", endpointCustomerName, map[string]string{"Name": name})
}

// SearchByNationalID returns the customer holding nationalID, as a list of
// at most one for uniform handling by list views.
func (g *Customers) SearchByNationalID(ctx context.Context, nationalID string) ([]domain.Customer, error) {
	return g.find(ctx, "customer.search_national_id", endpointCustomerNationalID, map[string]string{"NationalId": nationalID})
}

// SearchByPhone returns customers matching phone.
func (g *Customers) SearchByPhone(ctx context.Context, phone string) ([]domain.Customer, error) {
	return g.find(ctx, "customer.search_phone", endpointCustomerPhone, map[string]string{"PhoneNumber": phone})
}

// Create submits a new customer. The envelope is returned as-is.
func (g *Customers) Create(ctx context.Context, p domain.CustomerParams) (envelope.Envelope, error) {
	return g.call(ctx, "customer.create", endpointCustomerCreate, newCustomerRequest(p, false))
}

// Update submits changes to an existing customer.
func (g *Customers) Update(ctx context.Context, p domain.CustomerParams) (envelope.Envelope, error) {
	return g.call(ctx, "customer.update", endpointCustomerUpdate, newCustomerRequest(p, true))
}

// Delete removes a customer.
func (g *Customers) Delete(ctx context.Context, id uuid.UUID) (envelope.Envelope, error) {
	return g.call(ctx, "customer.delete", endpointCustomerDelete, customerIDRequest{CustomerID: id})
}

func (g *Customers) find(ctx context.Context, op, endpoint string, payload any) ([]domain.Customer, error) {
	env, err := g.call(ctx, op, endpoint, payload)
	if err != nil {
		return nil, err
	}
	list := decodeRecords[domain.Customer](&g.base, op, env, customerIdentity)
	for i := range list {
		list[i].Birthday = domain.DateOnly(list[i].Birthday)
	}
	return list, nil
}
