// Package coerce maps raw default values onto typed initial field values.
package coerce

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-formflow/schema"
)

// Today is the symbolic default resolved to the current date for date fields.
const Today = "today"

// DefaultDateLayout is the date convention used when none is configured.
const DefaultDateLayout = "2006-01-02"

// Coercer carries the clock and date convention used to resolve defaults.
type Coercer struct {
	Now      func() time.Time
	Layout   string
	Location *time.Location
}

// Option configures a Coercer.
type Option func(*Coercer)

// WithClock overrides the clock used for the "today" token.
func WithClock(now func() time.Time) Option {
	return func(c *Coercer) {
		if now != nil {
			c.Now = now
		}
	}
}

// WithLayout sets the date layout.
func WithLayout(layout string) Option {
	return func(c *Coercer) {
		if strings.TrimSpace(layout) != "" {
			c.Layout = layout
		}
	}
}

// WithLocation sets the zone in which "today" is evaluated.
func WithLocation(loc *time.Location) Option {
	return func(c *Coercer) {
		if loc != nil {
			c.Location = loc
		}
	}
}

// New builds a Coercer using the wall clock, DefaultDateLayout and the local zone.
func New(opts ...Option) *Coercer {
	c := &Coercer{
		Now:      time.Now,
		Layout:   DefaultDateLayout,
		Location: time.Local,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

var defaultCoercer = New()

// ParseDefault coerces value with the default Coercer.
func ParseDefault(value any, t schema.FieldType) any {
	return defaultCoercer.ParseDefault(value, t)
}

// ParseDefault returns nil for a nil value, a float64 for number fields, the
// formatted current date for date fields holding "today" and value unchanged
// otherwise. It never fails; values that are not numeric coerce to NaN.
func (c *Coercer) ParseDefault(value any, t schema.FieldType) any {
	if value == nil {
		return nil
	}
	switch t.Normalize() {
	case schema.FieldTypeNumber:
		return ToNumber(value)
	case schema.FieldTypeDate:
		if s, ok := value.(string); ok && s == Today {
			return c.Today()
		}
	}
	return value
}

// Today formats the current date.
func (c *Coercer) Today() string {
	now := c.Now
	if now == nil {
		now = time.Now
	}
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	layout := c.Layout
	if layout == "" {
		layout = DefaultDateLayout
	}
	return now().In(loc).Format(layout)
}

// ToNumber converts value to a float64: numbers pass through, booleans map to
// 1 and 0, strings are parsed after trimming with the empty string as 0.
func ToNumber(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int8:
		return float64(v)
	case int16:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case uint:
		return float64(v)
	case uint8:
		return float64(v)
	case uint16:
		return float64(v)
	case uint32:
		return float64(v)
	case uint64:
		return float64(v)
	case json.Number:
		return parseNumber(string(v))
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		return parseNumber(v)
	default:
		return math.NaN()
	}
}

func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// Format renders a value the way it is concatenated into request targets:
// nil is empty, numbers use their shortest form.
func Format(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return strings.Trim(string(b), `"`)
	}
}
