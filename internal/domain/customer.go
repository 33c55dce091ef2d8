// Package domain contains core business types and interfaces.
//
// This file defines the Customer domain type and the parameters used to
// create or modify one.
package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Gender literals accepted by the backend.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
)

// =============================================================================
// Customer Domain Type
// =============================================================================

// Customer is a guest record as returned by the backend.
//
// JSON tags match the backend's wire names. Birthday is an ISO date
// ("2006-01-02"); the gateway truncates wire timestamps on decode.
type Customer struct {
	ID            uuid.UUID `json:"Id"`
	Name          string    `json:"Name"`
	Gender        string    `json:"Gender"`
	Birthday      string    `json:"Birthday"`
	NationalID    string    `json:"NationalId"`
	Address       string    `json:"Address"`
	PhoneNumber   string    `json:"PhoneNumber"`
	CarNumber     string    `json:"CarNumber"`
	CitizenshipID int       `json:"CitizenshipId"`
	Note          string    `json:"Note"`
}

// Params converts the customer into editable form parameters.
func (c *Customer) Params() CustomerParams {
	return CustomerParams{
		ID:            c.ID,
		Name:          c.Name,
		Gender:        c.Gender,
		Birthday:      DateOnly(c.Birthday),
		NationalID:    c.NationalID,
		Address:       c.Address,
		PhoneNumber:   c.PhoneNumber,
		CarNumber:     c.CarNumber,
		CitizenshipID: c.CitizenshipID,
		Note:          c.Note,
	}
}

// =============================================================================
// Customer Parameters
// =============================================================================

// CustomerParams holds a customer form submission.
//
// ID is uuid.Nil for a new customer. The form tag names the field key
// used in validation results; the validate tag holds the rules.
type CustomerParams struct {
	ID            uuid.UUID `form:"id"`
	Name          string    `form:"name" validate:"notblank,max=100"`
	Gender        string    `form:"gender" validate:"required,oneof=Male Female"`
	Birthday      string    `form:"birthday" validate:"required,isodate,notfuture,since1900"`
	NationalID    string    `form:"nationalId" validate:"notblank,max=100,nationalid"`
	Address       string    `form:"address" validate:"max=500"`
	PhoneNumber   string    `form:"phoneNumber" validate:"phone"`
	CarNumber     string    `form:"carNumber" validate:"carnumber"`
	CitizenshipID int       `form:"citizenshipId" validate:"gt=0,citizenship"`
	Note          string    `form:"note" validate:"max=1000"`
}

// IsNew reports whether the params describe a customer not yet created.
func (p CustomerParams) IsNew() bool {
	return p.ID == uuid.Nil
}

// DateOnly truncates an RFC 3339 timestamp to its date part.
// Plain dates and empty strings are returned unchanged.
func DateOnly(s string) string {
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		return s[:i]
	}
	return s
}
