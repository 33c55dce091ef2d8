package search

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Kind selects the lookup a query runs.
type Kind string

// Query kinds
const (
	KindAll        Kind = "all"
	KindName       Kind = "name"
	KindNationalID Kind = "nationalId"
	KindPhone      Kind = "phone"
	KindDate       Kind = "date"
	KindDateRange  Kind = "dateRange"
	KindCustomer   Kind = "customer"
)

// Textual reports whether the kind takes free-text input that is
// debounced and length gated.
func (k Kind) Textual() bool {
	switch k {
	case KindName, KindNationalID, KindPhone:
		return true
	default:
		return false
	}
}

// Query is one search request. Seq and IssuedAt are assigned by the slot
// when the query is issued.
type Query struct {
	Kind  Kind
	Value string

	// Start and End bound a KindDateRange query.
	Start string
	End   string

	Seq      uint64
	IssuedAt time.Time
}

// Term returns the trimmed search term.
func (q Query) Term() string {
	return strings.TrimSpace(q.Value)
}

func (q Query) blank() bool {
	return q.Term() == ""
}

func (q Query) runes() int {
	return utf8.RuneCountInString(q.Term())
}
