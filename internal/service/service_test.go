package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/crmsclient/internal/domain"
	"github.com/DukeRupert/crmsclient/internal/gateway"
	"github.com/DukeRupert/crmsclient/internal/search"
	"github.com/DukeRupert/crmsclient/internal/transport/mock"
	"github.com/DukeRupert/crmsclient/internal/validation"
	"github.com/DukeRupert/crmsclient/internal/worker"
)

const (
	customerA = "3f2504e0-4f89-11d3-9a0c-0305e82c3301"
	customerB = "3f2504e0-4f89-11d3-9a0c-0305e82c3302"
	historyA  = "7c9e6679-7425-40de-944b-e07fc1f90ae7"

	citizenshipsBody = `{"citizenships":[{"Id":1,"Nation":"Japan","Alpha3":"JPN"},{"Id":7,"Nation":"Taiwan","Alpha3":"TWN"}]}`
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedNow() time.Time {
	return time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
}

// env wires real gateways over a scripted transport.
type env struct {
	tr           *mock.Transport
	citizenships *CitizenshipService
	customers    *CustomerService
	histories    *HistoryService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	logger := testLogger()
	queue, err := worker.New(worker.DefaultConfig(), logger)
	require.NoError(t, err)
	queue.Start(context.Background())
	t.Cleanup(queue.Stop)

	tr := mock.New()
	engine := validation.New(fixedNow)
	customerGW := gateway.NewCustomers(tr, logger)

	e := &env{tr: tr}
	e.citizenships = NewCitizenshipService(gateway.NewCitizenships(tr, logger), logger)
	e.customers = NewCustomerService(customerGW, e.citizenships, engine, queue, search.Config{}, logger)
	e.histories = NewHistoryService(gateway.NewHistories(tr, logger), customerGW, engine, queue, search.Config{}, logger)
	return e
}

// settled waits until the slot's latest query has finished.
func settled[T any](t *testing.T, slot *search.Slot[T]) search.Snapshot[T] {
	t.Helper()
	var snap search.Snapshot[T]
	require.Eventually(t, func() bool {
		snap = slot.Snapshot()
		return snap.State == search.Applied || snap.State == search.Failed
	}, time.Second, 5*time.Millisecond)
	return snap
}

type answer bool

func (a answer) Confirm(string) bool { return bool(a) }

var _ Confirmer = ConfirmFunc(nil)

func requireCode(t *testing.T, code string, err error) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, domain.ErrorCode(err))
}
