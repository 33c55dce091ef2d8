package search

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/crmsclient/internal/worker"
)

// =============================================================================
// Test doubles
// =============================================================================

type fakeClock struct {
	mu         sync.Mutex
	now        time.Time
	timers     []*fakeTimer
	ignoreStop bool
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.clock.ignoreStop {
		return false
	}
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// Advance moves time forward and fires due timers.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []func()
	for _, t := range c.timers {
		if !t.fired && !t.stopped && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t.f)
		}
	}
	c.mu.Unlock()

	for _, f := range due {
		f()
	}
}

// recorder is a Runner that logs queries and answers from a script.
type recorder struct {
	mu       sync.Mutex
	calls    []Query
	finished int
	gates    map[string]chan struct{}
	fail     map[string]bool
}

func newRecorder() *recorder {
	return &recorder{gates: make(map[string]chan struct{}), fail: make(map[string]bool)}
}

// hold makes queries for value block until release.
func (r *recorder) hold(value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gates[value] = make(chan struct{})
}

func (r *recorder) release(value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	close(r.gates[value])
}

func (r *recorder) failOn(value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail[value] = true
}

func (r *recorder) run(ctx context.Context, q Query) ([]string, error) {
	r.mu.Lock()
	r.calls = append(r.calls, q)
	gate := r.gates[q.Value]
	fail := r.fail[q.Value]
	r.mu.Unlock()

	if gate != nil {
		<-gate
	}
	defer func() {
		r.mu.Lock()
		r.finished++
		r.mu.Unlock()
	}()
	if fail {
		return nil, errors.New("boom")
	}
	if q.Kind == KindAll {
		return []string{"all-1", "all-2"}, nil
	}
	return []string{"result:" + q.Value}, nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *recorder) done() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finished
}

func (r *recorder) last() Query {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[len(r.calls)-1]
}

type fixture struct {
	slot  *Slot[string]
	queue *worker.Queue
	clock *fakeClock
	rec   *recorder
}

func newFixture(t *testing.T, mutate func(*Config)) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	q, err := worker.New(worker.DefaultConfig(), logger)
	require.NoError(t, err)
	q.Start(context.Background())
	t.Cleanup(q.Stop)

	clock := newFakeClock()
	cfg := Config{Name: "test", Clock: clock}
	if mutate != nil {
		mutate(&cfg)
	}

	rec := newRecorder()
	return &fixture{
		slot:  NewSlot[string](cfg, q, rec.run, logger),
		queue: q,
		clock: clock,
		rec:   rec,
	}
}

// flush waits until every task posted so far has run.
func (f *fixture) flush(t *testing.T) {
	t.Helper()
	require.NoError(t, f.queue.Do(context.Background(), "flush", func(context.Context) error { return nil }))
}

func (f *fixture) advance(t *testing.T, d time.Duration) {
	t.Helper()
	f.clock.Advance(d)
	f.flush(t)
}

func (f *fixture) waitState(t *testing.T, want State) Snapshot[string] {
	t.Helper()
	require.Eventually(t, func() bool {
		return f.slot.Snapshot().State == want
	}, time.Second, time.Millisecond)
	return f.slot.Snapshot()
}

func name(v string) Query { return Query{Kind: KindName, Value: v} }

// =============================================================================
// Tests
// =============================================================================

func TestSlot_DebounceIssuesOneQueryAfterLastKeystroke(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	for _, v := range []string{"J", "Ja", "Jan", "Jane", "Jane "} {
		require.NoError(t, f.slot.Input(ctx, name(v)))
		f.advance(t, 100*time.Millisecond)
	}
	assert.Zero(t, f.rec.count(), "no query while typing")

	// 100ms have passed since the last keystroke.
	f.advance(t, 249*time.Millisecond)
	assert.Zero(t, f.rec.count(), "quiet period not yet over")

	f.advance(t, time.Millisecond)
	snap := f.waitState(t, Applied)

	assert.Equal(t, 1, f.rec.count())
	assert.Equal(t, "Jane ", f.rec.last().Value)
	assert.Equal(t, []string{"result:Jane "}, snap.Items)
}

func TestSlot_ClearingInputReloadsImmediately(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.slot.Input(ctx, name("Jane")))
	require.NoError(t, f.slot.Input(ctx, name("   ")))

	snap := f.waitState(t, Applied)
	assert.Equal(t, 1, f.rec.count())
	assert.Equal(t, KindAll, f.rec.last().Kind)
	assert.Equal(t, []string{"all-1", "all-2"}, snap.Items)

	// The "Jane" timer was cancelled.
	f.advance(t, time.Second)
	assert.Equal(t, 1, f.rec.count())
}

func TestSlot_MinimumLengthGate(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.slot.Input(ctx, name("Ja")))
	require.NoError(t, f.slot.Input(ctx, name("J")))
	f.advance(t, time.Second)
	assert.Zero(t, f.rec.count())

	// Multi-byte characters count once each.
	require.NoError(t, f.slot.Input(ctx, name("王")))
	f.advance(t, time.Second)
	assert.Zero(t, f.rec.count())

	require.NoError(t, f.slot.Input(ctx, name("王明")))
	f.advance(t, time.Second)
	f.waitState(t, Applied)
	assert.Equal(t, 1, f.rec.count())
}

func TestSlot_LatestQueryWins(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	var mu sync.Mutex
	var states []State
	f.slot.OnChange(func(s Snapshot[string]) {
		mu.Lock()
		defer mu.Unlock()
		states = append(states, s.State)
	})

	f.rec.hold("Al")
	f.rec.hold("Bo")
	require.NoError(t, f.slot.Trigger(ctx, name("Al")))
	require.NoError(t, f.slot.Trigger(ctx, name("Bo")))

	f.rec.release("Bo")
	snap := f.waitState(t, Applied)
	assert.Equal(t, []string{"result:Bo"}, snap.Items)
	assert.Equal(t, uint64(2), snap.Query.Seq)

	// Q1 resolves after Q2; its result must not be applied.
	f.rec.release("Al")
	require.Eventually(t, func() bool { return f.rec.done() == 2 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	f.flush(t)

	snap = f.slot.Snapshot()
	assert.Equal(t, Applied, snap.State)
	assert.Equal(t, []string{"result:Bo"}, snap.Items)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{Pending, Superseded, Pending, Applied}, states)
}

func TestSlot_FailureClearsAndReports(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.slot.Reload(ctx))
	f.waitState(t, Applied)

	f.rec.failOn("Zed")
	require.NoError(t, f.slot.Trigger(ctx, name("Zed")))
	snap := f.waitState(t, Failed)

	assert.Equal(t, FailureMessage, snap.Err)
	assert.Nil(t, snap.Items)
	assert.Equal(t, 2, f.rec.count(), "failures are not retried")
}

func TestSlot_KeepOnFailure(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.KeepOnFailure = true })
	ctx := context.Background()

	require.NoError(t, f.slot.Reload(ctx))
	f.waitState(t, Applied)

	f.rec.failOn("Zed")
	require.NoError(t, f.slot.Trigger(ctx, name("Zed")))
	snap := f.waitState(t, Failed)
	assert.Equal(t, []string{"all-1", "all-2"}, snap.Items)
}

func TestSlot_LocalValidationNeverReachesRunner(t *testing.T) {
	f := newFixture(t, func(c *Config) {
		c.Validate = func(q Query) string {
			if q.Kind == KindDateRange && (q.Start == "" || q.End == "") {
				return "Please select both start and end dates."
			}
			return ""
		}
	})
	ctx := context.Background()

	require.NoError(t, f.slot.Trigger(ctx, Query{Kind: KindDateRange, Start: "2024-01-01"}))
	snap := f.waitState(t, Failed)
	assert.Equal(t, "Please select both start and end dates.", snap.Err)
	assert.Zero(t, f.rec.count())
}

func TestSlot_ExplicitTriggerBypassesGate(t *testing.T) {
	f := newFixture(t, nil)

	require.NoError(t, f.slot.Trigger(context.Background(), name("J")))
	f.waitState(t, Applied)
	assert.Equal(t, "J", f.rec.last().Value)
}

func TestSlot_StaleTimerGenerationIgnored(t *testing.T) {
	f := newFixture(t, nil)
	f.clock.ignoreStop = true
	ctx := context.Background()

	require.NoError(t, f.slot.Input(ctx, name("Jane")))
	require.NoError(t, f.slot.Input(ctx, name("Janet")))
	f.advance(t, time.Second)

	f.waitState(t, Applied)
	assert.Equal(t, 1, f.rec.count())
	assert.Equal(t, "Janet", f.rec.last().Value)
}

func TestSlot_NonTextualInputIsImmediate(t *testing.T) {
	f := newFixture(t, nil)

	require.NoError(t, f.slot.Input(context.Background(), Query{Kind: KindDate, Value: "2024-05-01"}))
	f.waitState(t, Applied)
	assert.Equal(t, KindDate, f.rec.last().Kind)
}
