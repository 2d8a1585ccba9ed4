package runner

import (
	"time"

	formflow "github.com/goliatone/go-formflow"
	"github.com/goliatone/go-formflow/logging"
)

type Option func(*Runner)

// WithTimeout bounds every task; zero disables the bound.
func WithTimeout(t time.Duration) Option {
	return func(r *Runner) {
		r.timeout = t
	}
}

// WithMaxRetries sets how many times a failing task is re-run. The default is
// zero: a failed task is reported once and never retried.
func WithMaxRetries(max int) Option {
	return func(r *Runner) {
		if max < 0 {
			max = 0
		}
		r.maxRetries = max
	}
}

// WithRetryStrategy sets the delay between retries.
func WithRetryStrategy(s RetryStrategy) Option {
	return func(r *Runner) {
		if s == nil {
			s = Immediate
		}
		r.retryStrategy = s
	}
}

// WithErrorHandler receives the final error of every failed task.
func WithErrorHandler(h func(name string, err error)) Option {
	return func(r *Runner) {
		if h == nil {
			h = func(string, error) {}
		}
		r.errorHandler = h
	}
}

func WithLogger(l logging.Logger) Option {
	return func(r *Runner) {
		r.logger = logging.Normalize(l)
	}
}

func WithPanicLogger(l formflow.PanicLogger) Option {
	return func(r *Runner) {
		r.panicLogger = l
	}
}
