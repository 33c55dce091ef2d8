package gateway

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/DukeRupert/crmsclient/internal/domain"
)

// Citizenship endpoints
const (
	endpointCitizenshipList   = "citizenships"
	endpointCitizenshipByID   = "citizenshipId"
	endpointCitizenshipNation = "citizenshipNation"
)

// Citizenships is the read-only citizenship gateway.
type Citizenships struct {
	base
}

// NewCitizenships creates a citizenship gateway.
func NewCitizenships(t Transport, logger *slog.Logger) *Citizenships {
	return &Citizenships{base: newBase(t, entityCitizenship, logger)}
}

// List returns the full reference set.
func (g *Citizenships) List(ctx context.Context) (domain.Citizenships, error) {
	return g.find(ctx, "citizenship.list", endpointCitizenshipList, nil)
}

// GetByID returns one entry, or ENOTFOUND.
func (g *Citizenships) GetByID(ctx context.Context, id int) (*domain.Citizenship, error) {
	const op = "citizenship.get"
	return g.one(ctx, op, endpointCitizenshipByID, map[string]int{"CitizenshipId": id}, strconv.Itoa(id))
}

// GetByNation returns the entry for a nation name, or ENOTFOUND.
func (g *Citizenships) GetByNation(ctx context.Context, nation string) (*domain.Citizenship, error) {
	const op = "citizenship.get_nation"
	return g.one(ctx, op, endpointCitizenshipNation, map[string]string{"CitizenshipName": nation}, nation)
}

func (g *Citizenships) one(ctx context.Context, op, endpoint string, payload any, key string) (*domain.Citizenship, error) {
	list, err := g.find(ctx, op, endpoint, payload)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, domain.NotFound(op, "citizenship", key)
	}
	return &list[0], nil
}

func (g *Citizenships) find(ctx context.Context, op, endpoint string, payload any) (domain.Citizenships, error) {
	env, err := g.call(ctx, op, endpoint, payload)
	if err != nil {
		return nil, err
	}
	return decodeRecords[domain.Citizenship](&g.base, op, env, citizenshipIdentity), nil
}
