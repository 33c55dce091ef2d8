// Package worker provides the cooperative task queue that owns mutable
// client state.
//
// A Queue runs submitted tasks one at a time on a single goroutine. State
// that only queued tasks touch needs no further locking: timer callbacks
// and network completions post a task instead of mutating directly.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/DukeRupert/crmsclient/internal/metrics"
)

// ErrStopped is returned when submitting to a queue that has been stopped.
var ErrStopped = errors.New("task queue stopped")

// Task is a unit of work run on the queue goroutine.
type Task func(ctx context.Context) error

type job struct {
	name string
	fn   Task
	err  error
	done chan struct{}
}

// Queue runs tasks serially in submission order.
type Queue struct {
	config Config
	logger *slog.Logger
	tasks  chan *job

	// Synchronization
	wg       sync.WaitGroup
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a new Queue with the given configuration.
// The queue must be started with Start() and stopped with Stop().
func New(config Config, logger *slog.Logger) (*Queue, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Queue{
		config: config,
		logger: logger,
		tasks:  make(chan *job, config.Buffer),
		stopCh: make(chan struct{}),
	}, nil
}

// Start launches the queue goroutine. Tasks receive ctx.
func (q *Queue) Start(ctx context.Context) {
	q.wg.Add(1)
	go q.run(ctx)
	q.logger.Debug("Task queue started", "buffer", q.config.Buffer)
}

// Stop drains queued tasks and stops the goroutine. It respects the
// configured ShutdownTimeout and is safe to call more than once.
func (q *Queue) Stop() {
	q.stopOnce.Do(func() {
		close(q.stopCh)

		done := make(chan struct{})
		go func() {
			q.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			q.logger.Debug("Task queue stopped")
		case <-time.After(q.config.ShutdownTimeout):
			q.logger.Warn("Task queue shutdown timeout exceeded, a task may still be running")
		}
	})
}

// Submit enqueues fn without waiting for it to run.
func (q *Queue) Submit(name string, fn Task) error {
	_, err := q.enqueue(name, fn)
	return err
}

// Do enqueues fn and waits until it has run or ctx is done.
func (q *Queue) Do(ctx context.Context, name string, fn Task) error {
	j, err := q.enqueue(name, fn)
	if err != nil {
		return err
	}

	select {
	case <-j.done:
		return j.err
	case <-ctx.Done():
		return ctx.Err()
	case <-q.stopCh:
		// The task may still drain; wait briefly for it.
		select {
		case <-j.done:
			return j.err
		case <-time.After(q.config.ShutdownTimeout):
			return ErrStopped
		}
	}
}

func (q *Queue) enqueue(name string, fn Task) (*job, error) {
	select {
	case <-q.stopCh:
		return nil, ErrStopped
	default:
	}

	j := &job{name: name, fn: fn, done: make(chan struct{})}
	select {
	case q.tasks <- j:
		return j, nil
	case <-q.stopCh:
		return nil, ErrStopped
	}
}

// run is the queue's main loop.
func (q *Queue) run(ctx context.Context) {
	defer q.wg.Done()

	for {
		select {
		case j := <-q.tasks:
			q.execute(ctx, j)
		case <-ctx.Done():
			return
		case <-q.stopCh:
			q.drain(ctx)
			return
		}
	}
}

func (q *Queue) drain(ctx context.Context) {
	for {
		select {
		case j := <-q.tasks:
			q.execute(ctx, j)
		default:
			return
		}
	}
}

// execute runs one task, recovering panics so one bad task cannot take
// the queue down.
func (q *Queue) execute(ctx context.Context, j *job) {
	defer close(j.done)

	start := time.Now()
	j.err = func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("task panicked: %v", r)
			}
		}()
		return j.fn(ctx)
	}()

	if j.err != nil {
		metrics.TaskFailed(j.name)
		q.logger.Error("Task failed", "task", j.name, "error", j.err)
		return
	}
	metrics.TaskCompleted(j.name, time.Since(start))
}
