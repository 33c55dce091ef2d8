package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/DukeRupert/crmsclient/internal/domain"
	"github.com/DukeRupert/crmsclient/internal/service"
)

const usage = `Usage: crms <command> [arguments]

Session:
  login [-u username] [-p password]
  logout
  whoami

Customers:
  customers list
  customers show <id>
  customers search [-by name|nationalId|phone] <term>
  customers find [-by name|nationalId|phone] <value>
  customers add [fields]
  customers edit <id> [fields]
  customers delete <id> [-yes]

  fields: -name -gender -birthday -national-id -address -phone -car
          -citizenship -note

Histories:
  histories list
  histories show <id>
  histories search -date D | -from D -to D | -customer <id>
  histories add [fields]
  histories edit <id> [fields]
  histories delete <id> [-yes]

  fields: -customer -date -people -price -room -note

Citizenships:
  citizenships list
  citizenships show <id|nation>
`

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printCustomers(w io.Writer, customers []domain.Customer, nation func(int) string) {
	if len(customers) == 0 {
		fmt.Fprintln(w, "No customers found.")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tGENDER\tBIRTHDAY\tNATIONAL ID\tPHONE\tCITIZENSHIP")
	for _, c := range customers {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.Name, c.Gender, domain.DateOnly(c.Birthday), c.NationalID, c.PhoneNumber, nation(c.CitizenshipID))
	}
	tw.Flush()
}

func printCustomer(w io.Writer, c *domain.Customer, nation string) {
	tw := newTable(w)
	fmt.Fprintf(tw, "ID\t%s\n", c.ID)
	fmt.Fprintf(tw, "Name\t%s\n", c.Name)
	fmt.Fprintf(tw, "Gender\t%s\n", c.Gender)
	fmt.Fprintf(tw, "Birthday\t%s\n", domain.DateOnly(c.Birthday))
	fmt.Fprintf(tw, "National ID\t%s\n", c.NationalID)
	fmt.Fprintf(tw, "Citizenship\t%s\n", nation)
	fmt.Fprintf(tw, "Address\t%s\n", c.Address)
	fmt.Fprintf(tw, "Phone\t%s\n", c.PhoneNumber)
	fmt.Fprintf(tw, "Car\t%s\n", c.CarNumber)
	fmt.Fprintf(tw, "Note\t%s\n", c.Note)
	tw.Flush()
}

func printHistories(w io.Writer, rows []service.HistoryRow) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No history records found.")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tDATE\tCUSTOMER\tPEOPLE\tROOM\tPRICE")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			r.ID, r.Date, r.CustomerName, r.NumberOfPeople, r.Room, r.Price)
	}
	tw.Flush()
}

func printHistory(w io.Writer, r service.HistoryRow) {
	tw := newTable(w)
	fmt.Fprintf(tw, "ID\t%s\n", r.ID)
	fmt.Fprintf(tw, "Customer\t%s (%s)\n", r.CustomerName, r.CustomerID)
	fmt.Fprintf(tw, "Date\t%s\n", r.Date)
	fmt.Fprintf(tw, "People\t%d\n", r.NumberOfPeople)
	fmt.Fprintf(tw, "Room\t%s\n", r.Room)
	fmt.Fprintf(tw, "Price\t%s\n", r.Price)
	fmt.Fprintf(tw, "Note\t%s\n", r.Note)
	tw.Flush()
}

func printCitizenships(w io.Writer, refs domain.Citizenships) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNATION\tCODE")
	for _, c := range refs {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", c.ID, c.Nation, c.Alpha3)
	}
	tw.Flush()
}

// printError renders err for the user: field errors one per line,
// domain errors by their user message, anything else verbatim.
func printError(w io.Writer, err error) {
	var ue userError
	var de *domain.Error

	switch {
	case errors.Is(err, errUsage):
		fmt.Fprint(w, usage)
	case errors.As(err, &ue):
		fmt.Fprintln(w, ue)
	case domain.FieldErrors(err) != nil:
		fields := domain.FieldErrors(err)
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Fprintln(w, "Please fix the following:")
		for _, name := range names {
			fmt.Fprintf(w, "  %s: %s\n", name, fields[name])
		}
	case errors.As(err, &de):
		fmt.Fprintln(w, domain.ErrorMessage(err))
	default:
		fmt.Fprintln(w, err)
	}
}

// exitCode is 2 for usage errors and 3 when the backend could not be
// reached, so scripts can retry.
func exitCode(err error) int {
	switch {
	case errors.Is(err, errUsage):
		return 2
	case domain.IsRetryable(err):
		return 3
	default:
		return 1
	}
}
