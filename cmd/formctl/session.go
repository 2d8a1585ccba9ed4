package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"gopkg.in/yaml.v3"

	formflow "github.com/goliatone/go-formflow"
	"github.com/goliatone/go-formflow/client"
	"github.com/goliatone/go-formflow/coerce"
	"github.com/goliatone/go-formflow/config"
	"github.com/goliatone/go-formflow/engine"
	"github.com/goliatone/go-formflow/logging"
	"github.com/goliatone/go-formflow/runner"
	"github.com/goliatone/go-formflow/state"
)

var errRejected = errors.New("form was rejected", errors.CategoryValidation).
	WithTextCode("FORM_REJECTED")

// Globals are shared by every command.
type Globals struct {
	Config   string        `help:"Configuration file (YAML)." type:"path" env:"FORMFLOW_CONFIG"`
	BaseURL  string        `help:"Base URL of the data service, overrides the configuration file." env:"FORMFLOW_BASE_URL"`
	LogLevel string        `help:"Log level." default:"warn" enum:"trace,debug,info,warn,error" env:"FORMFLOW_LOG_LEVEL"`
	Retries  int           `help:"Retries of failed GET requests." default:"0" env:"FORMFLOW_RETRIES"`
	Timeout  time.Duration `help:"Maximum time to wait for outstanding requests." default:"1m" env:"FORMFLOW_TIMEOUT"`
}

func (g *Globals) config() (config.Config, error) {
	cfg := config.Default()
	if g.Config != "" {
		loaded, err := config.Load(g.Config)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if g.BaseURL != "" {
		cfg.BaseURL = g.BaseURL
		cfg = cfg.WithDefaults()
		if err := cfg.Validate(); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func (g *Globals) logger() logging.Logger {
	return logging.FromGlog(glog.NewLogger(
		glog.WithWriter(os.Stderr),
		glog.WithLoggerTypeJSON(),
		glog.WithLevel(g.LogLevel),
	))
}

// session is one engine wired to the HTTP client, printing notifications.
type session struct {
	engine  *engine.Engine
	cfg     config.Config
	logger  logging.Logger
	out     io.Writer
	timeout time.Duration

	mu    sync.Mutex
	notes []formflow.Notify
}

func (g *Globals) open(out io.Writer) (*session, error) {
	cfg, err := g.config()
	if err != nil {
		return nil, err
	}
	logger := g.logger()

	transport := client.New(client.WithConfig(cfg), client.WithLogger(logger))
	effects := runner.New(
		runner.WithLogger(logger),
		runner.WithMaxRetries(g.Retries),
		runner.WithRetryStrategy(runner.Backoff{
			Initial:    200 * time.Millisecond,
			Multiplier: 2,
			Max:        5 * time.Second,
			Jitter:     0.2,
		}),
	)

	s := &session{cfg: cfg, logger: logger, out: out, timeout: g.Timeout}
	s.engine = engine.New(transport,
		engine.WithConfig(cfg),
		engine.WithLogger(logger),
		engine.WithRunner(effects),
	)
	s.engine.Subscribe(s.notify, formflow.KindNotify)
	return s, nil
}

func (s *session) notify(a formflow.Action) {
	n := a.(formflow.Notify)
	s.mu.Lock()
	s.notes = append(s.notes, n)
	s.mu.Unlock()
	fmt.Fprintf(s.out, "[%s] %s\n", n.Level, n.Message)
}

// failed reports whether a blocking or error notification was printed.
func (s *session) failed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notes {
		if n.Level == formflow.LevelBlocking || n.Level == formflow.LevelError {
			return true
		}
	}
	return false
}

func (s *session) dispatch(ctx context.Context, actions ...formflow.Action) error {
	for _, a := range actions {
		if err := s.engine.Dispatch(ctx, a); err != nil {
			return err
		}
	}
	return s.settle(ctx)
}

func (s *session) settle(ctx context.Context) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.engine.Wait(ctx)
}

// load fetches the schema of id and fails when it could not be installed.
func (s *session) load(ctx context.Context, id string) (state.Form, error) {
	if err := s.dispatch(ctx, formflow.RequestSchema{ID: id}); err != nil {
		return state.Form{}, err
	}
	form := s.engine.Snapshot()
	if form.Schema == nil {
		return form, errRejected.Clone().
			WithMetadata(map[string]any{"form_id": id, "reason": "schema not loaded"})
	}
	return form, nil
}

// inputs parses field=value pairs and coerces each value to its field type.
func inputs(form state.Form, pairs []string, create bool) ([]formflow.Action, error) {
	out := make([]formflow.Action, 0, len(pairs))
	for _, pair := range pairs {
		id, raw, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(id) == "" {
			return nil, formflow.ErrInvalidAction.Clone().
				WithMetadata(map[string]any{"value": pair, "reason": "expected field=value"})
		}
		field, err := form.Field(id)
		if err != nil {
			return nil, err
		}
		var value any = raw
		if raw != "" {
			value = coerce.ParseDefault(raw, field.Type)
		}
		if create {
			out = append(out, formflow.CreateOption{FieldID: id, Value: value})
		}
		out = append(out, formflow.InputField{FieldID: id, Value: value})
	}
	return out, nil
}

type formView struct {
	ID          string              `yaml:"id"`
	Fields      yaml.Node           `yaml:"fields"`
	Errors      map[string][]string `yaml:"errors,omitempty"`
	Dirty       bool                `yaml:"dirty"`
	IndexLoaded bool                `yaml:"index_loaded"`
}

func (s *session) print(form state.Form) error {
	view := formView{ID: form.ID, Dirty: form.Dirty, IndexLoaded: form.IndexLoaded}

	view.Fields = yaml.Node{Kind: yaml.MappingNode}
	for _, id := range form.Schema.IDs() {
		var value yaml.Node
		if err := value.Encode(form.Fields[id]); err != nil {
			return err
		}
		view.Fields.Content = append(view.Fields.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: id}, &value)
	}

	ids := make([]string, 0, len(form.Errors))
	for id, errs := range form.Errors {
		if len(errs) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	for _, id := range ids {
		if view.Errors == nil {
			view.Errors = make(map[string][]string)
		}
		view.Errors[id] = form.Errors[id]
	}

	enc := yaml.NewEncoder(s.out)
	enc.SetIndent(2)
	if err := enc.Encode(view); err != nil {
		return err
	}
	return enc.Close()
}
