// Package validate checks field values against the rules declared in a
// schema. The engine accepts any Validator; Rules is the default one.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-formflow/coerce"
	"github.com/goliatone/go-formflow/schema"
)

// Validator returns the error messages of value for field. An empty result
// means the value is valid.
type Validator interface {
	Validate(field schema.Field, value any) []string
}

// Func adapts a function into a Validator.
type Func func(field schema.Field, value any) []string

func (fn Func) Validate(field schema.Field, value any) []string { return fn(field, value) }

// None accepts every value.
var None Validator = Func(func(schema.Field, any) []string { return []string{} })

// Rules validates against FieldConfig.Validation and the declared field type.
type Rules struct {
	dateLayout string

	mu       sync.Mutex
	patterns map[string]*regexp.Regexp
}

// NewRules builds the default validator; dateLayout is used for date fields
// without an explicit date rule.
func NewRules(dateLayout string) *Rules {
	if strings.TrimSpace(dateLayout) == "" {
		dateLayout = coerce.DefaultDateLayout
	}
	return &Rules{
		dateLayout: dateLayout,
		patterns:   make(map[string]*regexp.Regexp),
	}
}

// Validate runs every applicable rule and collects all failures in order.
func (r *Rules) Validate(field schema.Field, value any) []string {
	rules := field.Config.Validation
	out := []string{}

	if isEmpty(value) {
		if rules.Required {
			out = append(out, validation.ErrRequired.Error())
		}
		return out
	}

	switch field.Type.Normalize() {
	case schema.FieldTypeNumber:
		n, ok := number(value)
		if !ok {
			return append(out, "must be a number")
		}
		// ozzo threshold rules skip zero values, so bounds are compared here
		if rules.Min != nil && n < *rules.Min {
			out = append(out, validation.ErrMinGreaterEqualThanRequired.
				SetParams(map[string]any{"threshold": *rules.Min}).Error())
		}
		if rules.Max != nil && n > *rules.Max {
			out = append(out, validation.ErrMaxLessEqualThanRequired.
				SetParams(map[string]any{"threshold": *rules.Max}).Error())
		}
	case schema.FieldTypeDate:
		layout := rules.Date
		if layout == "" {
			layout = r.dateLayout
		}
		if s, ok := value.(string); ok {
			out = appendErr(out, validation.Validate(s, validation.Date(layout)))
		}
	}

	s, isString := value.(string)
	if !isString {
		return out
	}
	if rules.MinLength != nil || rules.MaxLength != nil {
		min, max := 0, 0
		if rules.MinLength != nil {
			min = *rules.MinLength
		}
		if rules.MaxLength != nil {
			max = *rules.MaxLength
		}
		out = appendErr(out, validation.Validate(s, validation.RuneLength(min, max)))
	}
	if rules.Pattern != "" {
		re, err := r.pattern(rules.Pattern)
		if err != nil {
			return append(out, fmt.Sprintf("invalid pattern %q", rules.Pattern))
		}
		out = appendErr(out, validation.Validate(s, validation.Match(re)))
	}
	return out
}

func (r *Rules) pattern(expr string) (*regexp.Regexp, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if re, ok := r.patterns[expr]; ok {
		return re, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	r.patterns[expr] = re
	return re, nil
}

func appendErr(out []string, err error) []string {
	if err == nil {
		return out
	}
	return append(out, err.Error())
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	}
	return false
}

func number(value any) (float64, bool) {
	switch v := value.(type) {
	case string:
		n := coerce.ToNumber(v)
		return n, n == n
	case bool:
		return 0, false
	}
	n := coerce.ToNumber(value)
	return n, n == n
}
