package engine

import (
	"time"

	"github.com/goliatone/go-formflow/bus"
	"github.com/goliatone/go-formflow/config"
	"github.com/goliatone/go-formflow/logging"
	"github.com/goliatone/go-formflow/runner"
	"github.com/goliatone/go-formflow/validate"
)

type Option func(*Engine)

func WithConfig(cfg config.Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

func WithLogger(l logging.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithValidator replaces the default rule based validator.
func WithValidator(v validate.Validator) Option {
	return func(e *Engine) {
		e.validator = v
	}
}

// WithClock sets the time source of submission timestamps and of the
// "today" default.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithBus shares a subscriber registry with other components.
func WithBus(b *bus.Bus) Option {
	return func(e *Engine) {
		e.bus = b
	}
}

// WithRunner runs effects on r instead of a private runner.
func WithRunner(r *runner.Runner) Option {
	return func(e *Engine) {
		e.runner = r
	}
}
