package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/crmsclient/internal/domain"
	"github.com/DukeRupert/crmsclient/internal/search"
)

func TestValidateHistoryQuery(t *testing.T) {
	tests := []struct {
		name string
		q    search.Query
		want string
	}{
		{"all", search.Query{Kind: search.KindAll}, ""},
		{"date", search.Query{Kind: search.KindDate, Value: "2024-05-01"}, ""},
		{"date timestamp", search.Query{Kind: search.KindDate, Value: "2024-05-01T00:00:00Z"}, ""},
		{"missing date", search.Query{Kind: search.KindDate}, MsgSelectDate},
		{"garbled date", search.Query{Kind: search.KindDate, Value: "May"}, MsgSelectDate},
		{"range", search.Query{Kind: search.KindDateRange, Start: "2024-05-01", End: "2024-05-31"}, ""},
		{"single day range", search.Query{Kind: search.KindDateRange, Start: "2024-05-01", End: "2024-05-01"}, ""},
		{"range missing end", search.Query{Kind: search.KindDateRange, Start: "2024-05-01"}, MsgSelectDateRange},
		{"range reversed", search.Query{Kind: search.KindDateRange, Start: "2024-06-01", End: "2024-05-01"}, MsgDateRangeOrder},
		{"customer", search.Query{Kind: search.KindCustomer, Value: customerA}, ""},
		{"missing customer", search.Query{Kind: search.KindCustomer}, MsgChooseCustomer},
		{"textual kind", search.Query{Kind: search.KindName, Value: "x"}, "History cannot be searched that way."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, validateHistoryQuery(tt.q))
		})
	}
}

func TestHistoryService_LocalRejectionSkipsBackend(t *testing.T) {
	e := newEnv(t)

	q := search.Query{Kind: search.KindDateRange, Start: "2024-06-01", End: "2024-05-01"}
	require.NoError(t, e.histories.Slot().Trigger(context.Background(), q))

	snap := settled(t, e.histories.Slot())
	assert.Equal(t, search.Failed, snap.State)
	assert.Equal(t, MsgDateRangeOrder, snap.Err)
	assert.Zero(t, e.tr.CallCount("historyForDuring"))
}

func TestHistoryService_SearchByRange(t *testing.T) {
	e := newEnv(t)
	e.tr.Respond("historyForDuring", `{"histories":[{"Id":"`+historyA+`","CustomerId":"`+customerA+`"}]}`)

	q := search.Query{Kind: search.KindDateRange, Start: "2024-05-01", End: "2024-05-31"}
	require.NoError(t, e.histories.Slot().Trigger(context.Background(), q))

	snap := settled(t, e.histories.Slot())
	assert.Equal(t, search.Applied, snap.State)
	assert.Len(t, snap.Items, 1)
	assert.JSONEq(t, `{"startDate":"2024-05-01","endDate":"2024-05-31"}`, string(e.tr.LastPayload("historyForDuring")))
}

func TestHistoryService_Rows(t *testing.T) {
	e := newEnv(t)
	e.tr.Respond("customerList", `{"customers":[{"Id":"`+customerA+`","Name":"Jane Doe"}]}`)

	customers, err := e.histories.LoadCustomers(context.Background())
	require.NoError(t, err)
	require.Len(t, customers, 1)

	rows := e.histories.Rows([]domain.History{
		{ID: uuid.New(), CustomerID: uuid.MustParse(customerA), Date: "2024-05-01T00:00:00Z", Price: 1234.5},
		{ID: uuid.New(), CustomerID: uuid.MustParse(customerB), Price: 0},
	})
	require.Len(t, rows, 2)
	assert.Equal(t, "Jane Doe", rows[0].CustomerName)
	assert.Equal(t, "$1,234.50", rows[0].Price)
	assert.Equal(t, "2024-05-01", rows[0].Date)
	assert.Equal(t, UnknownCustomer, rows[1].CustomerName)
}

func TestHistoryService_Save(t *testing.T) {
	e := newEnv(t)
	e.tr.
		Respond("historyCre", `{"Message":"Create successfully"}`).
		Respond("historyList", `[]`)
	ctx := context.Background()

	err := e.histories.Save(ctx, domain.NewHistoryParams())
	requireCode(t, domain.EINVALID, err)
	assert.Equal(t, "Please choose a customer", domain.FieldErrors(err)["customerId"])
	assert.Zero(t, e.tr.CallCount("historyCre"))

	p := domain.NewHistoryParams()
	p.CustomerID = uuid.MustParse(customerA)
	p.Date = "2024-05-01"
	p.Room = "301"
	require.NoError(t, e.histories.Save(ctx, p))
	assert.Equal(t, 1, e.tr.CallCount("historyCre"))
	assert.Equal(t, search.Applied, settled(t, e.histories.Slot()).State)
}

func TestHistoryService_Delete(t *testing.T) {
	e := newEnv(t)
	e.tr.Respond("historyDel", `{"Message":"error CRMS : There is no this history"}`)

	deleted, err := e.histories.Delete(context.Background(), uuid.MustParse(historyA), answer(true))
	requireCode(t, domain.EINVALID, err)
	assert.False(t, deleted)
	assert.Equal(t, "error CRMS : There is no this history", domain.ErrorMessage(err))

	deleted, err = e.histories.Delete(context.Background(), uuid.MustParse(historyA), answer(false))
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, 1, e.tr.CallCount("historyDel"))
}
