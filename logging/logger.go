// Package logging provides the logger contract shared by the engine, its
// effect runner and the CLI, with a plain fallback and a go-logger adapter.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-logger/glog"
)

// Logger is the logging contract used across the module.
type Logger interface {
	Trace(msg string, args ...any)
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Fatal(msg string, args ...any)
	WithContext(ctx context.Context) Logger
}

// FieldsLogger extends Logger with structured-field support.
type FieldsLogger interface {
	WithFields(map[string]any) Logger
}

// Level orders the FmtLogger severities.
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = [...]string{"trace", "debug", "info", "warn", "error", "fatal"}

func (l Level) String() string {
	if l < LevelTrace || l > LevelFatal {
		return "unknown"
	}
	return levelNames[l]
}

// leadingKeys are written first, in this order, so lines about the same form
// and request line up. Other fields follow sorted by key.
var leadingKeys = []string{"form_id", "kind", "request_id", "field_id"}

// FmtLogger is the fallback logger used when no external logger is
// configured. It writes one logfmt line per entry and drops entries below
// its minimum level.
type FmtLogger struct {
	out    io.Writer
	min    Level
	now    func() time.Time
	ctx    context.Context
	fields map[string]any
}

// FmtOption configures a FmtLogger.
type FmtOption func(*FmtLogger)

// WithMinLevel drops entries below level. The default is LevelInfo.
func WithMinLevel(level Level) FmtOption {
	return func(l *FmtLogger) { l.min = level }
}

// WithTimestamps sets the clock used for the time key.
func WithTimestamps(now func() time.Time) FmtOption {
	return func(l *FmtLogger) {
		if now != nil {
			l.now = now
		}
	}
}

// NewFmtLogger writes to stderr when out is nil.
func NewFmtLogger(out io.Writer, opts ...FmtOption) *FmtLogger {
	if out == nil {
		out = os.Stderr
	}
	l := &FmtLogger{out: out, min: LevelInfo, now: time.Now, ctx: context.Background()}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

func (l *FmtLogger) Trace(msg string, args ...any) { l.log(LevelTrace, msg, args...) }
func (l *FmtLogger) Debug(msg string, args ...any) { l.log(LevelDebug, msg, args...) }
func (l *FmtLogger) Info(msg string, args ...any)  { l.log(LevelInfo, msg, args...) }
func (l *FmtLogger) Warn(msg string, args ...any)  { l.log(LevelWarn, msg, args...) }
func (l *FmtLogger) Error(msg string, args ...any) { l.log(LevelError, msg, args...) }
func (l *FmtLogger) Fatal(msg string, args ...any) { l.log(LevelFatal, msg, args...) }

func (l *FmtLogger) WithContext(ctx context.Context) Logger {
	if l == nil {
		return NewFmtLogger(nil)
	}
	cp := *l
	if ctx == nil {
		ctx = context.Background()
	}
	cp.ctx = ctx
	return &cp
}

// WithFields returns a copy carrying fields on top of the current ones.
func (l *FmtLogger) WithFields(fields map[string]any) Logger {
	if l == nil {
		return NewFmtLogger(nil).WithFields(fields)
	}
	cp := *l
	cp.fields = mergeFields(l.fields, fields)
	return &cp
}

func (l *FmtLogger) log(level Level, msg string, args ...any) {
	if l == nil {
		l = NewFmtLogger(nil)
	}
	if level < l.min {
		return
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}

	var b strings.Builder
	b.WriteString("time=")
	b.WriteString(l.now().UTC().Format(time.RFC3339Nano))
	b.WriteString(" level=")
	b.WriteString(level.String())
	b.WriteString(" msg=")
	b.WriteString(logfmtValue(strings.TrimSpace(msg)))
	for _, k := range fieldOrder(l.fields) {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(logfmtValue(fmt.Sprint(l.fields[k])))
	}
	b.WriteByte('\n')
	io.WriteString(l.out, b.String())
}

// Normalize returns the fallback logger when logger is nil.
func Normalize(logger Logger) Logger {
	if logger == nil {
		return NewFmtLogger(nil)
	}
	return logger
}

// WithFields attaches fields when the logger supports them.
func WithFields(logger Logger, fields map[string]any) Logger {
	if logger == nil {
		return NewFmtLogger(nil).WithFields(fields)
	}
	if fl, ok := logger.(FieldsLogger); ok {
		return fl.WithFields(fields)
	}
	return logger
}

// Nop discards everything.
type Nop struct{}

func (Nop) Trace(string, ...any)                 {}
func (Nop) Debug(string, ...any)                 {}
func (Nop) Info(string, ...any)                  {}
func (Nop) Warn(string, ...any)                  {}
func (Nop) Error(string, ...any)                 {}
func (Nop) Fatal(string, ...any)                 {}
func (n Nop) WithContext(context.Context) Logger { return n }

type glogLogger struct {
	logger glog.Logger
}

// FromGlog adapts a go-logger logger.
func FromGlog(l glog.Logger) Logger {
	if l == nil {
		return NewFmtLogger(nil)
	}
	return glogLogger{logger: l}
}

func (l glogLogger) Trace(msg string, args ...any) { l.logger.Trace(msg, args...) }
func (l glogLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l glogLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l glogLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l glogLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }
func (l glogLogger) Fatal(msg string, args ...any) { l.logger.Fatal(msg, args...) }

func (l glogLogger) WithContext(ctx context.Context) Logger {
	return glogLogger{logger: l.logger.WithContext(ctx)}
}

func (l glogLogger) WithFields(fields map[string]any) Logger {
	if fl, ok := l.logger.(glog.FieldsLogger); ok {
		return glogLogger{logger: fl.WithFields(fields)}
	}
	return l
}

func mergeFields(a, b map[string]any) map[string]any {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make(map[string]any, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

func fieldOrder(fields map[string]any) []string {
	keys := make([]string, 0, len(fields))
	for _, k := range leadingKeys {
		if _, ok := fields[k]; ok {
			keys = append(keys, k)
		}
	}
	rest := make([]string, 0, len(fields))
	for k := range fields {
		if !slices.Contains(leadingKeys, k) {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// logfmtValue quotes values that would otherwise break the key=value split.
func logfmtValue(v string) string {
	if v == "" {
		return `""`
	}
	if strings.ContainsAny(v, " =\"\t\n") {
		return strconv.Quote(v)
	}
	return v
}
