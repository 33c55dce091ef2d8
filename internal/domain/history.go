package domain

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// History is one stay of a customer.
type History struct {
	ID             uuid.UUID `json:"Id"`
	CustomerID     uuid.UUID `json:"CustomerId"`
	Date           string    `json:"Date"`
	NumberOfPeople int       `json:"NumberOfPeople"`
	Price          float64   `json:"Price"`
	Room           string    `json:"Room"`
	Note           string    `json:"Note"`
}

// Params converts the history record into editable form parameters.
func (h *History) Params() HistoryParams {
	return HistoryParams{
		ID:             h.ID,
		CustomerID:     h.CustomerID,
		Date:           DateOnly(h.Date),
		NumberOfPeople: h.NumberOfPeople,
		Price:          h.Price,
		Room:           h.Room,
		Note:           h.Note,
	}
}

// HistoryParams holds a history form submission. ID is uuid.Nil on create.
type HistoryParams struct {
	ID             uuid.UUID `form:"id"`
	CustomerID     uuid.UUID `form:"customerId" validate:"required"`
	Date           string    `form:"date" validate:"required,isodate"`
	NumberOfPeople int       `form:"numberOfPeople" validate:"min=1"`
	Price          float64   `form:"price" validate:"gte=0"`
	Room           string    `form:"room" validate:"notblank"`
	Note           string    `form:"note" validate:"max=1000"`
}

// IsNew reports whether the params describe a record not yet created.
func (p HistoryParams) IsNew() bool {
	return p.ID == uuid.Nil
}

// NewHistoryParams returns an empty form with the original defaults.
func NewHistoryParams() HistoryParams {
	return HistoryParams{NumberOfPeople: 1}
}

var pricePrinter = message.NewPrinter(language.AmericanEnglish)

// FormatPrice renders an amount in US dollars, e.g. "$1,234.50".
func FormatPrice(amount float64) string {
	s := pricePrinter.Sprint(currency.Symbol(currency.USD.Amount(amount)))
	return strings.Replace(s, " ", "", 1)
}
