package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/crmsclient/internal/domain"
	"github.com/DukeRupert/crmsclient/internal/search"
	"github.com/DukeRupert/crmsclient/internal/validation"
)

func validCustomer() domain.CustomerParams {
	return domain.CustomerParams{
		Name:          "Jane Doe",
		Gender:        domain.GenderFemale,
		Birthday:      "1990-01-01",
		NationalID:    "A123",
		CitizenshipID: 7,
	}
}

func TestCustomerService_NewParams(t *testing.T) {
	e := newEnv(t)
	e.tr.Respond("citizenships", citizenshipsBody)

	p := e.customers.NewParams(context.Background())
	assert.Equal(t, domain.GenderMale, p.Gender)
	assert.Equal(t, 7, p.CitizenshipID)
	assert.True(t, p.IsNew())
}

func TestCustomerService_SaveInvalidNeverCallsBackend(t *testing.T) {
	e := newEnv(t)
	e.tr.Respond("citizenships", citizenshipsBody)

	p := validCustomer()
	p.Name = ""
	p.Gender = "Other"
	p.Birthday = "2030-01-01"
	p.NationalID = "A@1"

	err := e.customers.Save(context.Background(), p)
	requireCode(t, domain.EINVALID, err)
	assert.Len(t, domain.FieldErrors(err), 4)
	assert.Zero(t, e.tr.CallCount("customerCre"))
}

func TestCustomerService_SaveNeedsCitizenships(t *testing.T) {
	e := newEnv(t)
	e.tr.Fail("citizenships")

	err := e.customers.Save(context.Background(), validCustomer())
	requireCode(t, domain.EUNAVAILABLE, err)
	assert.Equal(t, MsgCitizenshipsLoadFailed, domain.ErrorMessage(err))
	assert.Nil(t, domain.FieldErrors(err))
	assert.Zero(t, e.tr.CallCount("customerCre"))
}

func TestCustomerService_CreateReloadsList(t *testing.T) {
	e := newEnv(t)
	e.tr.
		Respond("citizenships", citizenshipsBody).
		Respond("customerCre", `{"Message":"Create successfully"}`).
		Respond("customerList", `{"customers":[{"Id":"`+customerA+`","Name":"Jane Doe"}]}`)

	require.NoError(t, e.customers.Save(context.Background(), validCustomer()))

	snap := settled(t, e.customers.Slot())
	assert.Equal(t, search.Applied, snap.State)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "Jane Doe", snap.Items[0].Name)
	assert.Equal(t, 1, e.tr.CallCount("customerCre"))
}

func TestCustomerService_UpdateUsesModify(t *testing.T) {
	e := newEnv(t)
	e.tr.
		Respond("citizenships", citizenshipsBody).
		Respond("customerMod", `{"Message":"Modify successfully"}`).
		Respond("customerList", `[]`)

	p := validCustomer()
	p.ID = uuid.MustParse(customerA)
	require.NoError(t, e.customers.Save(context.Background(), p))
	assert.Equal(t, 1, e.tr.CallCount("customerMod"))
	assert.Zero(t, e.tr.CallCount("customerCre"))
}

func TestCustomerService_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		script  func(e *env)
		code    string
		field   string
		message string
	}{
		{
			name: "duplicate in error status",
			script: func(e *env) {
				e.tr.FailStatus("customerCre", 500, `{"Message":"Error CRMS : This customer is already existed."}`)
			},
			code:    domain.EINVALID,
			field:   "nationalId",
			message: validation.DuplicateNationalID,
		},
		{
			name: "structured field error",
			script: func(e *env) {
				e.tr.Respond("customerCre", `{"Message":"error CRMS : rejected","field":"PhoneNumber","code":"duplicate"}`)
			},
			code:    domain.EINVALID,
			field:   "phoneNumber",
			message: "This PhoneNumber already exists",
		},
		{
			name: "rejection naming no field",
			script: func(e *env) {
				e.tr.Respond("customerCre", `{"Message":"error CRMS : Customer Info is incomplete"}`)
			},
			code:    domain.EINVALID,
			message: "error CRMS : Customer Info is incomplete",
		},
		{
			name: "unreachable",
			script: func(e *env) {
				e.tr.Fail("customerCre")
			},
			code:    domain.EUNAVAILABLE,
			message: "The server could not be reached. Please try again.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			e.tr.Respond("citizenships", citizenshipsBody)
			tt.script(e)

			err := e.customers.Save(context.Background(), validCustomer())
			requireCode(t, tt.code, err)
			if tt.field != "" {
				assert.Equal(t, map[string]string{tt.field: tt.message}, domain.FieldErrors(err))
				return
			}
			assert.Equal(t, tt.message, domain.ErrorMessage(err))
			assert.Zero(t, e.tr.CallCount("customerList"), "no reload after failure")
		})
	}
}

func TestCustomerService_Delete(t *testing.T) {
	id := uuid.MustParse(customerA)

	t.Run("refused", func(t *testing.T) {
		e := newEnv(t)
		var asked string
		deleted, err := e.customers.Delete(context.Background(), id, ConfirmFunc(func(p string) bool {
			asked = p
			return false
		}))
		require.NoError(t, err)
		assert.False(t, deleted)
		assert.Equal(t, MsgConfirmDeleteCustomer, asked)
		assert.Zero(t, e.tr.CallCount("customerDel"))
	})

	t.Run("confirmed", func(t *testing.T) {
		e := newEnv(t)
		e.tr.
			Respond("customerDel", `{"Message":"Delete successfully"}`).
			Respond("customerList", `[]`)

		deleted, err := e.customers.Delete(context.Background(), id, answer(true))
		require.NoError(t, err)
		assert.True(t, deleted)
		assert.JSONEq(t, `{"CustomerId":"`+customerA+`"}`, string(e.tr.LastPayload("customerDel")))
		assert.Equal(t, search.Applied, settled(t, e.customers.Slot()).State)
	})
}

func TestCustomerService_SearchDispatch(t *testing.T) {
	tests := []struct {
		kind     search.Kind
		endpoint string
		payload  string
	}{
		{search.KindName, "customerName", `{"Name":"jan"}`},
		{search.KindNationalID, "customerNationalId", `{"NationalId":"jan"}`},
		{search.KindPhone, "customerPhone", `{"PhoneNumber":"jan"}`},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			e := newEnv(t)
			e.tr.Respond(tt.endpoint, `{"customers":[{"Id":"`+customerB+`","Name":"Janet"}]}`)

			require.NoError(t, e.customers.Slot().Trigger(context.Background(), search.Query{Kind: tt.kind, Value: " jan "}))

			snap := settled(t, e.customers.Slot())
			assert.Equal(t, search.Applied, snap.State)
			assert.Len(t, snap.Items, 1)
			assert.JSONEq(t, tt.payload, string(e.tr.LastPayload(tt.endpoint)))
		})
	}
}

func TestCustomerService_SearchFailureClearsList(t *testing.T) {
	e := newEnv(t)
	e.tr.Respond("customerList", `[{"Id":"`+customerA+`"}]`).Fail("customerName")
	ctx := context.Background()

	require.NoError(t, e.customers.Slot().Reload(ctx))
	require.Len(t, settled(t, e.customers.Slot()).Items, 1)

	require.NoError(t, e.customers.Slot().Trigger(ctx, search.Query{Kind: search.KindName, Value: "ja"}))
	snap := settled(t, e.customers.Slot())
	assert.Equal(t, search.Failed, snap.State)
	assert.Equal(t, search.FailureMessage, snap.Err)
	assert.Empty(t, snap.Items)
}
