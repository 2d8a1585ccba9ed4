// Package runner executes fire-and-forget effects. Each task runs on its own
// goroutine with an optional timeout, panic recovery and an error hook; the
// runner tracks what is still in flight so callers can wait for quiescence.
package runner

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-errors"

	formflow "github.com/goliatone/go-formflow"
	"github.com/goliatone/go-formflow/logging"
)

// Task is the unit of work handed to Go.
type Task func(ctx context.Context) error

type Runner struct {
	mu       sync.Mutex
	wg       sync.WaitGroup
	inFlight int
	started  int
	failed   int

	logger        logging.Logger
	panicLogger   formflow.PanicLogger
	errorHandler  func(name string, err error)
	retryStrategy RetryStrategy

	maxRetries int
	timeout    time.Duration
}

// New builds a Runner; without options tasks run once with no timeout.
func New(opts ...Option) *Runner {
	r := &Runner{
		logger:        logging.NewFmtLogger(nil),
		errorHandler:  func(string, error) {},
		retryStrategy: Immediate,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.panicLogger == nil {
		r.panicLogger = r.logPanic
	}
	return r
}

// Go starts fn on a new goroutine and returns immediately. fields are
// attached to the log lines and panic reports of the task. onFailure, when
// given, receives the final error after the runner's error handler.
func (r *Runner) Go(ctx context.Context, name string, fields map[string]any, fn Task, onFailure ...func(error)) {
	if ctx == nil {
		ctx = context.Background()
	}

	r.mu.Lock()
	r.inFlight++
	r.started++
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.finish()
		defer formflow.MakePanicHandler(r.panicLogger)(name, fields)

		if err := r.run(ctx, name, fields, fn); err != nil {
			r.mu.Lock()
			r.failed++
			r.mu.Unlock()
			r.errorHandler(name, err)
			for _, cb := range onFailure {
				if cb != nil {
					cb(err)
				}
			}
		}
	}()
}

func (r *Runner) run(ctx context.Context, name string, fields map[string]any, fn Task) error {
	ctx, cancel := r.contextWithTimeout(ctx)
	defer cancel()

	var err error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		var p *permanentError
		if stderrors.As(err, &p) {
			return p.err
		}
		if attempt == r.maxRetries || ctx.Err() != nil {
			break
		}

		logging.WithFields(r.logger, fields).Warn(fmt.Sprintf("task %s failed, attempt %d of %d", name, attempt+1, r.maxRetries+1))

		if delay := r.retryStrategy.SleepDuration(attempt, err); delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	if r.maxRetries > 0 {
		err = errors.Wrap(err, errors.CategoryHandler, fmt.Sprintf("task %s failed after %d attempts", name, r.maxRetries+1)).
			WithTextCode("TASK_FAILED")
	}
	return err
}

func (r *Runner) finish() {
	r.mu.Lock()
	r.inFlight--
	r.mu.Unlock()
}

// InFlight returns the number of tasks that have not returned yet.
func (r *Runner) InFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inFlight
}

// Stats returns how many tasks were started and how many failed.
func (r *Runner) Stats() (started, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started, r.failed
}

// Wait blocks until every task, including tasks started by running tasks,
// has returned, or ctx is done.
func (r *Runner) Wait(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) contextWithTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if r.timeout > 0 {
		return context.WithTimeout(parent, r.timeout)
	}
	return parent, func() {}
}

func (r *Runner) logPanic(funcName string, err any, stack []byte, fields ...map[string]any) {
	r.logger.Error(formflow.FormatPanic(funcName, err, stack, fields...))
}

type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying. The runner reports the wrapped
// error unchanged.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}
