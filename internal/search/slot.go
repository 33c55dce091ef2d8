// Package search orchestrates debounced, overlapping asynchronous queries
// against a list view.
//
// A Slot holds the result set of one list view. Every issued query gets a
// sequence number; only the result of the latest issued query is applied
// and anything older is discarded. Debounce timers carry a generation
// number so a timer that fires after being replaced does nothing.
//
// All slot state is owned by a worker.Queue. Timer callbacks and query
// completions post tasks to it; queries themselves run on their own
// goroutines and are never cancelled once issued.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/DukeRupert/crmsclient/internal/metrics"
	"github.com/DukeRupert/crmsclient/internal/worker"
)

// FailureMessage is shown when a query fails.
const FailureMessage = "Search failed. Please try again."

// Defaults
const (
	DefaultDebounce = 350 * time.Millisecond
	DefaultMinChars = 2
)

// State is the lifecycle position of a slot's latest query.
type State int

// Slot states
const (
	Idle State = iota
	Pending
	Applied
	Superseded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Applied:
		return "applied"
	case Superseded:
		return "superseded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Runner executes a query against the backend.
type Runner[T any] func(ctx context.Context, q Query) ([]T, error)

// Config configures a Slot.
type Config struct {
	// Name labels logs and metrics, e.g. "customers".
	Name string

	// Debounce is the quiet period after the last keystroke.
	// Default: 350ms
	Debounce time.Duration

	// MinChars is the shortest term that triggers an automatic search.
	// Default: 2
	MinChars int

	// KeepOnFailure leaves the previous result set in place on failure
	// instead of clearing it.
	KeepOnFailure bool

	// Validate rejects a query locally before it is issued. It returns the
	// message to show, or "" to allow the query.
	Validate func(Query) string

	// Clock defaults to the wall clock.
	Clock Clock
}

// Snapshot is what observers see.
type Snapshot[T any] struct {
	State State
	Items []T
	Err   string
	Query Query
}

// Slot is one search slot.
type Slot[T any] struct {
	cfg    Config
	queue  *worker.Queue
	run    Runner[T]
	logger *slog.Logger

	// Owned by the queue goroutine.
	state    State
	items    []T
	errMsg   string
	current  Query
	seq      uint64
	timer    Timer
	timerGen uint64

	mu       sync.Mutex
	snap     Snapshot[T]
	onChange func(Snapshot[T])
}

// NewSlot creates a slot whose state lives on queue.
func NewSlot[T any](cfg Config, queue *worker.Queue, run Runner[T], logger *slog.Logger) *Slot[T] {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.MinChars <= 0 {
		cfg.MinChars = DefaultMinChars
	}
	if cfg.Clock == nil {
		cfg.Clock = RealClock()
	}
	return &Slot[T]{
		cfg:    cfg,
		queue:  queue,
		run:    run,
		logger: logger.With("slot", cfg.Name),
	}
}

// OnChange registers fn to receive every snapshot. fn runs on the queue
// goroutine and must not block on the slot.
func (s *Slot[T]) OnChange(fn func(Snapshot[T])) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Snapshot returns the latest published state.
func (s *Slot[T]) Snapshot() Snapshot[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Input handles a keystroke. Textual queries are debounced; a blank term
// reloads the full list at once and a term shorter than MinChars only
// cancels the pending timer. Other kinds are issued immediately.
func (s *Slot[T]) Input(ctx context.Context, q Query) error {
	if !q.Kind.Textual() {
		return s.Trigger(ctx, q)
	}
	return s.queue.Do(ctx, "search.input", func(ctx context.Context) error {
		s.cancelTimer()
		switch {
		case q.blank():
			s.issue(ctx, Query{Kind: KindAll})
		case q.runes() < s.cfg.MinChars:
			// Too short to search; the pending timer is already cancelled.
		default:
			s.schedule(q)
		}
		return nil
	})
}

// Trigger issues q immediately, bypassing the debounce and length gate.
// A blank textual term reloads the full list.
func (s *Slot[T]) Trigger(ctx context.Context, q Query) error {
	return s.queue.Do(ctx, "search.trigger", func(ctx context.Context) error {
		s.cancelTimer()
		if q.Kind.Textual() && q.blank() {
			q = Query{Kind: KindAll}
		}
		s.issue(ctx, q)
		return nil
	})
}

// Reload issues a full-list query.
func (s *Slot[T]) Reload(ctx context.Context) error {
	return s.Trigger(ctx, Query{Kind: KindAll})
}

// =============================================================================
// Queue-owned transitions
// =============================================================================

func (s *Slot[T]) schedule(q Query) {
	s.timerGen++
	gen := s.timerGen
	s.timer = s.cfg.Clock.AfterFunc(s.cfg.Debounce, func() {
		err := s.queue.Submit("search.fire", func(ctx context.Context) error {
			if gen != s.timerGen {
				return nil
			}
			s.timer = nil
			s.issue(ctx, q)
			return nil
		})
		if err != nil {
			s.logger.Debug("debounce fired after queue stopped")
		}
	})
}

func (s *Slot[T]) cancelTimer() {
	s.timerGen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Slot[T]) issue(ctx context.Context, q Query) {
	if s.state == Pending {
		s.transition(Superseded, s.current)
	}

	// A local rejection still counts as the latest query so older
	// in-flight results cannot overwrite its message.
	s.seq++
	q.Seq = s.seq
	q.IssuedAt = s.cfg.Clock.Now()

	if s.cfg.Validate != nil {
		if msg := s.cfg.Validate(q); msg != "" {
			s.fail(q, msg)
			return
		}
	}

	s.errMsg = ""
	s.transition(Pending, q)
	s.logger.Debug("query issued", "seq", q.Seq, "kind", q.Kind)

	go func() {
		items, err := s.run(ctx, q)
		submitErr := s.queue.Submit("search.complete", func(context.Context) error {
			s.complete(q, items, err)
			return nil
		})
		if submitErr != nil {
			s.logger.Debug("query completed after queue stopped", "seq", q.Seq)
		}
	}()
}

func (s *Slot[T]) complete(q Query, items []T, err error) {
	if q.Seq != s.seq {
		s.logger.Debug("discarded stale result", "seq", q.Seq, "latest", s.seq)
		return
	}

	if err != nil {
		s.logger.Warn("query failed", "seq", q.Seq, "kind", q.Kind, "error", err)
		s.fail(q, FailureMessage)
		return
	}

	s.items = items
	s.errMsg = ""
	s.transition(Applied, q)
}

func (s *Slot[T]) fail(q Query, msg string) {
	s.errMsg = msg
	if !s.cfg.KeepOnFailure {
		s.items = nil
	}
	s.transition(Failed, q)
}

func (s *Slot[T]) transition(state State, q Query) {
	metrics.SearchTransition(s.cfg.Name, state.String())

	snap := Snapshot[T]{State: state, Items: s.items, Err: s.errMsg, Query: q}
	if state != Superseded {
		s.state = state
		s.current = q
	}

	s.mu.Lock()
	if state != Superseded {
		s.snap = snap
	}
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn(snap)
	}
}
