// Package state holds the live, mutable snapshot of a form being edited.
package state

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/goliatone/go-errors"

	"github.com/goliatone/go-formflow/schema"
)

var (
	ErrSchemaNotLoaded = errors.New("schema not loaded", errors.CategoryBadInput).
				WithTextCode("SCHEMA_NOT_LOADED")
	ErrUnknownField = errors.New("unknown field", errors.CategoryBadInput).
			WithTextCode("UNKNOWN_FIELD")
)

// Option is a single choice of a field's option list.
type Option struct {
	Value any    `json:"value"`
	Label string `json:"label,omitempty"`
}

// UnmarshalJSON accepts either a bare scalar or a {value, label} object.
func (o *Option) UnmarshalJSON(data []byte) error {
	var obj struct {
		Value any    `json:"value"`
		Label string `json:"label"`
	}
	if len(data) > 0 && data[0] == '{' {
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		o.Value, o.Label = obj.Value, obj.Label
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = v
	o.Label = ""
	if v != nil {
		o.Label = fmt.Sprint(v)
	}
	return nil
}

// Options are the dynamically fetched choice lists, plus the choices created
// during the current session that still need to be stored remotely.
type Options struct {
	ByField map[string][]Option
	Created map[string][]Option
}

// Form is the live state of one editing session.
type Form struct {
	ID      string
	Schema  *schema.Schema
	Fields  map[string]any
	Errors  map[string][]string
	Options Options

	Loader      bool
	Dirty       bool
	IndexLoaded bool
}

// New returns an empty form for the given schema identifier.
func New(id string) *Form {
	f := &Form{ID: id}
	f.clear()
	return f
}

func (f *Form) clear() {
	f.Schema = nil
	f.Fields = make(map[string]any)
	f.Errors = make(map[string][]string)
	f.Options = Options{
		ByField: make(map[string][]Option),
		Created: make(map[string][]Option),
	}
	f.IndexLoaded = false
}

// Reset empties the form, keeping only its identifier.
func (f *Form) Reset() {
	f.clear()
	f.Loader = false
	f.Dirty = false
}

// InstallSchema replaces the schema and drops values, errors and options of
// fields the new schema does not declare.
func (f *Form) InstallSchema(s *schema.Schema) {
	f.Schema = s
	for id := range f.Fields {
		if !s.Has(id) {
			delete(f.Fields, id)
		}
	}
	for id := range f.Errors {
		if !s.Has(id) {
			delete(f.Errors, id)
		}
	}
	for id := range f.Options.ByField {
		if !s.Has(id) {
			delete(f.Options.ByField, id)
		}
	}
	for id := range f.Options.Created {
		if !s.Has(id) {
			delete(f.Options.Created, id)
		}
	}
}

// Field returns the schema of a field, failing when no schema is loaded or the
// field is not declared.
func (f *Form) Field(id string) (schema.Field, error) {
	if f.Schema == nil {
		return schema.Field{}, ErrSchemaNotLoaded
	}
	field, ok := f.Schema.Field(id)
	if !ok {
		return schema.Field{}, ErrUnknownField.Clone().
			WithMetadata(map[string]any{"field_id": id})
	}
	return field, nil
}

// Value returns the current value of a field. Missing fields read as nil.
func (f *Form) Value(id string) any {
	return f.Fields[id]
}

// SetField writes the value of a declared field.
func (f *Form) SetField(id string, value any) error {
	if _, err := f.Field(id); err != nil {
		return err
	}
	f.Fields[id] = value
	return nil
}

// SetErrors overwrites the error list of a declared field. A nil list is
// stored as an empty one.
func (f *Form) SetErrors(id string, errs []string) error {
	if _, err := f.Field(id); err != nil {
		return err
	}
	if errs == nil {
		errs = []string{}
	}
	f.Errors[id] = append([]string(nil), errs...)
	return nil
}

// SetOptions installs the option list of a field.
func (f *Form) SetOptions(id string, opts []Option) error {
	if _, err := f.Field(id); err != nil {
		return err
	}
	f.Options.ByField[id] = append([]Option(nil), opts...)
	return nil
}

// AddCreatedOption records a choice created in this session and makes it
// selectable right away.
func (f *Form) AddCreatedOption(id string, opt Option) error {
	if _, err := f.Field(id); err != nil {
		return err
	}
	f.Options.Created[id] = append(f.Options.Created[id], opt)
	f.Options.ByField[id] = append(f.Options.ByField[id], opt)
	return nil
}

// HasErrors reports whether any field has a non-empty error list.
func (f *Form) HasErrors() bool {
	for _, errs := range f.Errors {
		if len(errs) > 0 {
			return true
		}
	}
	return false
}

// CreatedFieldIDs returns, sorted, the ids of fields with created options.
func (f *Form) CreatedFieldIDs() []string {
	ids := make([]string, 0, len(f.Options.Created))
	for id, opts := range f.Options.Created {
		if len(opts) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Snapshot returns a copy that shares no mutable maps with f. The schema is
// shared since it is never mutated after installation.
func (f *Form) Snapshot() Form {
	cp := Form{
		ID:          f.ID,
		Schema:      f.Schema,
		Fields:      make(map[string]any, len(f.Fields)),
		Errors:      make(map[string][]string, len(f.Errors)),
		Loader:      f.Loader,
		Dirty:       f.Dirty,
		IndexLoaded: f.IndexLoaded,
		Options: Options{
			ByField: make(map[string][]Option, len(f.Options.ByField)),
			Created: make(map[string][]Option, len(f.Options.Created)),
		},
	}
	for k, v := range f.Fields {
		cp.Fields[k] = v
	}
	for k, v := range f.Errors {
		cp.Errors[k] = append([]string{}, v...)
	}
	for k, v := range f.Options.ByField {
		cp.Options.ByField[k] = append([]Option(nil), v...)
	}
	for k, v := range f.Options.Created {
		cp.Options.Created[k] = append([]Option(nil), v...)
	}
	return cp
}
