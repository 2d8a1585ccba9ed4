// Package schema describes a form as an ordered set of typed fields with
// defaults, validation rules and inter-field dependency declarations.
package schema

import (
	"sort"
	"strings"
)

// FieldType is the declared kind of a field value.
type FieldType string

const (
	FieldTypeText   FieldType = "text"
	FieldTypeNumber FieldType = "number"
	FieldTypeDate   FieldType = "date"
	FieldTypeOther  FieldType = "other"
)

// Normalize maps unrecognized types onto FieldTypeOther.
func (t FieldType) Normalize() FieldType {
	switch FieldType(strings.ToLower(strings.TrimSpace(string(t)))) {
	case FieldTypeText:
		return FieldTypeText
	case FieldTypeNumber:
		return FieldTypeNumber
	case FieldTypeDate:
		return FieldTypeDate
	default:
		return FieldTypeOther
	}
}

// IndexSeparator joins dependency keys in Schema.Index.
const IndexSeparator = "+"

// OptionsConfig locates where option rows for a field are stored.
type OptionsConfig struct {
	Range string `json:"range" yaml:"range"`
}

// Rules are the declarative validation constraints of a field. Nil pointers
// mean the constraint is not set.
type Rules struct {
	Required  bool     `json:"required,omitempty" yaml:"required,omitempty"`
	MinLength *int     `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Min       *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max       *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Pattern   string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Date      string   `json:"date,omitempty" yaml:"date,omitempty"`
}

// FieldConfig holds the recognized keys of a field's config mapping.
type FieldConfig struct {
	Default      any            `json:"default,omitempty" yaml:"default,omitempty"`
	Key          string         `json:"key,omitempty" yaml:"key,omitempty"`
	Requires     string         `json:"requires,omitempty" yaml:"requires,omitempty"`
	RequireValue any            `json:"requireValue,omitempty" yaml:"requireValue,omitempty"`
	Options      *OptionsConfig `json:"options,omitempty" yaml:"options,omitempty"`
	Validation   Rules          `json:"validation,omitempty" yaml:"validation,omitempty"`
}

// OptionsRange returns the configured option storage range, if any.
func (c FieldConfig) OptionsRange() string {
	if c.Options == nil {
		return ""
	}
	return c.Options.Range
}

// Field is a single column of a Schema.
type Field struct {
	ID     string      `json:"id" yaml:"id"`
	Type   FieldType   `json:"type" yaml:"type"`
	Label  string      `json:"label,omitempty" yaml:"label,omitempty"`
	Config FieldConfig `json:"config" yaml:"config"`
}

// Schema is the ordered set of fields of a form. Index is a "+" joined list
// of dependency keys whose field values, concatenated, identify a record.
type Schema struct {
	Columns []Field `json:"columns" yaml:"columns"`
	Index   string  `json:"index,omitempty" yaml:"index,omitempty"`

	byID       map[string]int
	dependents map[string][]string
	publishers map[string]string
}

// New builds a schema and precomputes its lookup tables.
func New(columns []Field, index string) *Schema {
	s := &Schema{Columns: columns, Index: index}
	s.build()
	return s
}

func (s *Schema) build() {
	s.byID = make(map[string]int, len(s.Columns))
	s.dependents = make(map[string][]string)
	s.publishers = make(map[string]string)

	for i, col := range s.Columns {
		s.byID[col.ID] = i
		if key := col.Config.Key; key != "" {
			if _, exists := s.publishers[key]; !exists {
				s.publishers[key] = col.ID
			}
		}
	}
	for _, col := range s.Columns {
		if req := col.Config.Requires; req != "" {
			s.dependents[req] = append(s.dependents[req], col.ID)
		}
	}
}

func (s *Schema) ensure() {
	if s.byID == nil {
		s.build()
	}
}

// Field returns the column with the given id.
func (s *Schema) Field(id string) (Field, bool) {
	if s == nil {
		return Field{}, false
	}
	s.ensure()
	i, ok := s.byID[id]
	if !ok {
		return Field{}, false
	}
	return s.Columns[i], true
}

// Has reports whether a column with the given id exists.
func (s *Schema) Has(id string) bool {
	_, ok := s.Field(id)
	return ok
}

// IDs returns the column ids in declaration order.
func (s *Schema) IDs() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.Columns))
	for _, col := range s.Columns {
		out = append(out, col.ID)
	}
	return out
}

// SortedIDs returns the column ids in ascending order.
func (s *Schema) SortedIDs() []string {
	ids := s.IDs()
	sort.Strings(ids)
	return ids
}

// Dependents returns the ids of the fields whose config.requires equals key.
// An empty key has no dependents.
func (s *Schema) Dependents(key string) []string {
	if s == nil || key == "" {
		return nil
	}
	s.ensure()
	return append([]string(nil), s.dependents[key]...)
}

// Publisher returns the id of the first field publishing key.
func (s *Schema) Publisher(key string) (string, bool) {
	if s == nil || key == "" {
		return "", false
	}
	s.ensure()
	id, ok := s.publishers[key]
	return id, ok
}

// IndexKeys splits Index into its dependency keys, in declared order.
func (s *Schema) IndexKeys() []string {
	if s == nil || strings.TrimSpace(s.Index) == "" {
		return nil
	}
	parts := strings.Split(s.Index, IndexSeparator)
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			keys = append(keys, p)
		}
	}
	return keys
}
