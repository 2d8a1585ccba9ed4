package schedule

import (
	"time"

	"github.com/goliatone/go-formflow/logging"
)

// Parser selects the accepted cron expression syntax.
type Parser int

const (
	// DefaultParser accepts five fields and descriptors such as "@every 5m".
	DefaultParser Parser = iota
	// SecondsParser adds a leading seconds field.
	SecondsParser
)

type Option func(*Scheduler)

func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		s.location = loc
	}
}

func WithLogger(l logging.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logging.Normalize(l)
	}
}

func WithParser(p Parser) Option {
	return func(s *Scheduler) {
		s.parser = p
	}
}

// WithErrorHandler receives dispatch errors of scheduled actions.
func WithErrorHandler(h func(error)) Option {
	return func(s *Scheduler) {
		if h == nil {
			h = func(error) {}
		}
		s.errorHandler = h
	}
}
