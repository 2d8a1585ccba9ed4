// Package engine runs the form transition table. Every action is reduced into
// the form state, published to subscribers and routed to its transition; remote
// requests run as effects on the runner and come back as new actions.
//
// Dispatch holds the engine lock for the whole transition, so one action runs
// to completion before the next one is processed. Listeners are called under
// that lock and must not dispatch back into the engine.
package engine

import (
	"context"
	"sync"
	"time"

	formflow "github.com/goliatone/go-formflow"
	"github.com/goliatone/go-formflow/bus"
	"github.com/goliatone/go-formflow/coerce"
	"github.com/goliatone/go-formflow/config"
	"github.com/goliatone/go-formflow/logging"
	"github.com/goliatone/go-formflow/runner"
	"github.com/goliatone/go-formflow/state"
	"github.com/goliatone/go-formflow/validate"
)

// Transport sends a request to the remote data service and returns the body
// of a successful answer.
type Transport interface {
	Do(ctx context.Context, req formflow.Request) ([]byte, error)
}

// TransportFunc adapts a function into a Transport.
type TransportFunc func(ctx context.Context, req formflow.Request) ([]byte, error)

func (fn TransportFunc) Do(ctx context.Context, req formflow.Request) ([]byte, error) {
	return fn(ctx, req)
}

type Engine struct {
	mu   sync.Mutex
	form *state.Form

	cfg       config.Config
	transport Transport
	logger    logging.Logger
	validator validate.Validator
	coercer   *coerce.Coercer
	now       func() time.Time
	bus       *bus.Bus
	runner    *runner.Runner
	pending   *pendingTable
}

// New builds an engine sending its requests through transport.
func New(transport Transport, opts ...Option) *Engine {
	e := &Engine{
		form:      state.New(""),
		cfg:       config.Default(),
		transport: transport,
		now:       time.Now,
		pending:   newPendingTable(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}

	e.cfg = e.cfg.WithDefaults()
	e.logger = logging.Normalize(e.logger)
	if e.transport == nil {
		e.transport = TransportFunc(func(context.Context, formflow.Request) ([]byte, error) {
			return nil, formflow.NewError(formflow.ErrRemoteRequest, "no transport configured", nil, nil)
		})
	}
	if e.validator == nil {
		e.validator = validate.NewRules(e.cfg.DateLayout)
	}
	if e.bus == nil {
		e.bus = bus.New()
	}
	if e.runner == nil {
		e.runner = runner.New(runner.WithLogger(e.logger))
	}
	e.coercer = coerce.New(
		coerce.WithClock(e.now),
		coerce.WithLayout(e.cfg.DateLayout),
		coerce.WithLocation(e.cfg.Location()),
	)
	return e
}

// Dispatch runs action through the full pipeline. Intents are validated
// first; configuration errors such as an unknown field id are returned.
func (e *Engine) Dispatch(ctx context.Context, action formflow.Action) error {
	if action == nil {
		return formflow.ErrInvalidAction.Clone().
			WithMetadata(map[string]any{"reason": "nil action"})
	}
	if intent, ok := action.(formflow.Intent); ok {
		if err := intent.Validate(); err != nil {
			return err
		}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if ref, ok := responseRef(action); ok {
		if _, known := e.pending.retire(ref.ID); !known {
			logging.WithFields(e.logger, map[string]any{
				"form_id":    e.form.ID,
				"kind":       action.Kind().String(),
				"request_id": ref.ID,
			}).Warn("response for a request that is not pending")
		}
	}

	return e.begin(ctx).Dispatch(action)
}

// Snapshot returns a deep copy of the current form state.
func (e *Engine) Snapshot() state.Form {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.form.Snapshot()
}

// Subscribe registers fn for the given kinds, or for every action.
func (e *Engine) Subscribe(fn bus.Listener, kinds ...formflow.Kind) bus.Subscription {
	return e.bus.Subscribe(fn, kinds...)
}

// InFlight lists the requests issued and not yet completed, oldest first.
func (e *Engine) InFlight() []Pending {
	return e.pending.list()
}

// Wait blocks until no effect is running, including the effects issued by
// the completions of earlier ones.
func (e *Engine) Wait(ctx context.Context) error {
	return e.runner.Wait(ctx)
}

// Config returns the effective configuration.
func (e *Engine) Config() config.Config {
	return e.cfg
}

func (e *Engine) begin(ctx context.Context) *Tx {
	return &Tx{ctx: ctx, engine: e, Form: e.form, Config: e.cfg}
}

// complete feeds the outcome of an effect back into the engine.
func (e *Engine) complete(ctx context.Context, action formflow.Action) {
	if err := e.Dispatch(ctx, action); err != nil {
		logging.WithFields(e.logger, actionFields(e.formID(), action)).
			Warn("dropped response: " + err.Error())
	}
}

func (e *Engine) formID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.form.ID
}

func responseRef(action formflow.Action) (formflow.RequestRef, bool) {
	switch a := action.(type) {
	case formflow.SchemaFetched:
		return a.Ref, true
	case formflow.OptionsFetched:
		return a.Ref, true
	case formflow.IndexFetched:
		return a.Ref, true
	case formflow.SubmitAcked:
		return a.Ref, true
	case formflow.RequestFailed:
		return a.Ref, true
	}
	return formflow.RequestRef{}, false
}
