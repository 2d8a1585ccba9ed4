package coerce

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/goliatone/go-formflow/schema"
)

func fixedClock() time.Time {
	return time.Date(2026, time.October, 14, 23, 30, 0, 0, time.UTC)
}

func TestParseDefault(t *testing.T) {
	c := New(WithClock(fixedClock), WithLocation(time.UTC))

	tests := []struct {
		name  string
		value any
		typ   schema.FieldType
		want  any
	}{
		{name: "nil number", value: nil, typ: schema.FieldTypeNumber, want: nil},
		{name: "nil date", value: nil, typ: schema.FieldTypeDate, want: nil},
		{name: "nil text", value: nil, typ: schema.FieldTypeText, want: nil},
		{name: "numeric string", value: "3", typ: schema.FieldTypeNumber, want: 3.0},
		{name: "padded numeric string", value: " 2.5 ", typ: schema.FieldTypeNumber, want: 2.5},
		{name: "empty string is zero", value: "", typ: schema.FieldTypeNumber, want: 0.0},
		{name: "int", value: 7, typ: schema.FieldTypeNumber, want: 7.0},
		{name: "bool", value: true, typ: schema.FieldTypeNumber, want: 1.0},
		{name: "today", value: "today", typ: schema.FieldTypeDate, want: "2026-10-14"},
		{name: "literal date", value: "2020-01-02", typ: schema.FieldTypeDate, want: "2020-01-02"},
		{name: "today on text", value: "today", typ: schema.FieldTypeText, want: "today"},
		{name: "unknown type", value: "x", typ: schema.FieldType("select"), want: "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.ParseDefault(tt.value, tt.typ))
		})
	}
}

func TestParseDefaultNonNumericIsNaN(t *testing.T) {
	got := ParseDefault("abc", schema.FieldTypeNumber)
	f, ok := got.(float64)
	assert.True(t, ok)
	assert.True(t, math.IsNaN(f))
}

func TestTodayHonoursLayoutAndLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	c := New(WithClock(fixedClock), WithLocation(tokyo), WithLayout("02/01/2006"))

	assert.Equal(t, "15/10/2026", c.Today())
}

func TestPackageParseDefaultUsesWallClock(t *testing.T) {
	before := time.Now().Format(DefaultDateLayout)
	got := ParseDefault(Today, schema.FieldTypeDate)
	after := time.Now().Format(DefaultDateLayout)
	assert.Contains(t, []any{before, after}, got)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "", Format(nil))
	assert.Equal(t, "x", Format("x"))
	assert.Equal(t, "3", Format(3.0))
	assert.Equal(t, "2.5", Format(2.5))
	assert.Equal(t, "12", Format(12))
	assert.Equal(t, "true", Format(true))
}
