// Package schedule dispatches actions on cron expressions, for example to
// reload a schema or refresh an option list periodically.
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-errors"
	rcron "github.com/robfig/cron/v3"

	formflow "github.com/goliatone/go-formflow"
	"github.com/goliatone/go-formflow/logging"
)

var ErrInvalidExpression = errors.New("invalid cron expression", errors.CategoryValidation).
	WithTextCode("INVALID_CRON_EXPRESSION")

// Dispatcher is the engine side of a schedule.
type Dispatcher interface {
	Dispatch(ctx context.Context, action formflow.Action) error
}

type Subscription interface {
	Unsubscribe()
}

type Scheduler struct {
	mu      sync.Mutex
	cron    *rcron.Cron
	target  Dispatcher
	entries map[rcron.EntryID]struct{}

	location     *time.Location
	parser       Parser
	logger       logging.Logger
	errorHandler func(error)
}

// New builds a scheduler whose jobs dispatch into target.
func New(target Dispatcher, opts ...Option) *Scheduler {
	s := &Scheduler{
		target:       target,
		entries:      make(map[rcron.EntryID]struct{}),
		location:     time.Local,
		logger:       logging.NewFmtLogger(nil),
		errorHandler: func(error) {},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.cron = rcron.New(s.build()...)
	return s
}

// Every dispatches actions, in order, each time expr fires. Dispatching stops
// at the first error.
func (s *Scheduler) Every(expr string, actions ...formflow.Action) (Subscription, error) {
	if expr == "" || len(actions) == 0 {
		return nil, ErrInvalidExpression.Clone().
			WithMetadata(map[string]any{"expression": expr, "actions": len(actions)})
	}

	id, err := s.cron.AddFunc(expr, func() { s.run(expr, actions) })
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "invalid cron expression").
			WithTextCode("INVALID_CRON_EXPRESSION").
			WithMetadata(map[string]any{"expression": expr})
	}

	s.mu.Lock()
	s.entries[id] = struct{}{}
	s.mu.Unlock()

	return &subs{scheduler: s, id: id}, nil
}

func (s *Scheduler) run(expr string, actions []formflow.Action) {
	defer formflow.MakePanicHandler(func(funcName string, err any, stack []byte, fields ...map[string]any) {
		s.logger.Error(formflow.FormatPanic(funcName, err, stack, fields...))
	})("scheduled dispatch", map[string]any{"expression": expr})

	for _, a := range actions {
		if err := s.target.Dispatch(context.Background(), a); err != nil {
			logging.WithFields(s.logger, map[string]any{"expression": expr, "kind": a.Kind().String()}).
				Warn("scheduled dispatch failed")
			s.errorHandler(err)
			return
		}
	}
}

// Len returns the number of active schedules.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Next returns the next activation of the earliest schedule, or the zero
// time when nothing is scheduled or the scheduler is not running.
func (s *Scheduler) Next() time.Time {
	var next time.Time
	for _, e := range s.cron.Entries() {
		if e.Next.IsZero() {
			continue
		}
		if next.IsZero() || e.Next.Before(next) {
			next = e.Next
		}
	}
	return next
}

func (s *Scheduler) Start(context.Context) error {
	s.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop scheduler: %w", ctx.Err())
	}
}

func (s *Scheduler) remove(id rcron.EntryID) {
	s.cron.Remove(id)
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
}

func (s *Scheduler) build() []rcron.Option {
	opts := make([]rcron.Option, 0, 2)
	if s.location != nil {
		opts = append(opts, rcron.WithLocation(s.location))
	}
	if s.parser == SecondsParser {
		opts = append(opts, rcron.WithParser(rcron.NewParser(
			rcron.Second|rcron.Minute|rcron.Hour|rcron.Dom|rcron.Month|rcron.Dow|rcron.Descriptor,
		)))
	}
	return opts
}

type subs struct {
	scheduler *Scheduler
	id        rcron.EntryID
	once      sync.Once
}

func (s *subs) Unsubscribe() {
	s.once.Do(func() {
		s.scheduler.remove(s.id)
	})
}
