// Package formflow defines the actions that drive a schema based form: user
// intents, completions of remote requests, state mutations and the events a
// host UI observes. Every action is a distinct type carrying its own payload.
package formflow

import (
	"strings"

	"github.com/goliatone/go-formflow/schema"
	"github.com/goliatone/go-formflow/state"
)

// Feature tags every host event emitted by the form engine.
const Feature = "form"

// Action is implemented by every variant.
type Action interface {
	Kind() Kind
}

// Intent is an action that can be checked before it enters the pipeline.
type Intent interface {
	Action
	Validate() error
}

// Type returns the namespaced name of an action kind.
func Type(a Action) string {
	if a == nil {
		return "form/" + KindUnknown.String()
	}
	return "form/" + a.Kind().String()
}

func requireField(kind Kind, fieldID string) error {
	if strings.TrimSpace(fieldID) == "" {
		return ErrInvalidAction.Clone().
			WithMetadata(map[string]any{"kind": kind.String(), "reason": "field id is required"})
	}
	return nil
}

// RequestSchema fetches the schema of form ID.
type RequestSchema struct {
	ID string
}

func (RequestSchema) Kind() Kind { return KindRequestSchema }

func (a RequestSchema) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return ErrInvalidAction.Clone().
			WithMetadata(map[string]any{"kind": a.Kind().String(), "reason": "form id is required"})
	}
	return nil
}

// RequestOptions fetches the option list of a field. Empty Range and Requires
// fall back to the field config; a nil RequireValue falls back to
// config.requireValue and then to the value of the field publishing Requires.
type RequestOptions struct {
	FieldID      string
	Range        string
	Requires     string
	RequireValue any
}

func (RequestOptions) Kind() Kind { return KindRequestOptions }

func (a RequestOptions) Validate() error { return requireField(a.Kind(), a.FieldID) }

// InputField is a raw value typed by the user.
type InputField struct {
	FieldID string
	Value   any
}

func (InputField) Kind() Kind { return KindInputField }

func (a InputField) Validate() error { return requireField(a.Kind(), a.FieldID) }

// SetField writes a field value programmatically.
type SetField struct {
	FieldID string
	Value   any
}

func (SetField) Kind() Kind { return KindSetField }

func (a SetField) Validate() error { return requireField(a.Kind(), a.FieldID) }

// CreateOption adds a new choice to a field's option list, to be stored on
// the next submission.
type CreateOption struct {
	FieldID string
	Value   any
	Label   string
}

func (CreateOption) Kind() Kind { return KindCreateOption }

func (a CreateOption) Validate() error { return requireField(a.Kind(), a.FieldID) }

// ValidateField re-validates one field.
type ValidateField struct {
	FieldID string
}

func (ValidateField) Kind() Kind { return KindValidateField }

func (a ValidateField) Validate() error { return requireField(a.Kind(), a.FieldID) }

// ValidateForm re-validates every column.
type ValidateForm struct{}

func (ValidateForm) Kind() Kind      { return KindValidateForm }
func (ValidateForm) Validate() error { return nil }

// RequestLoadIndex loads the record keyed by the current index field values.
type RequestLoadIndex struct{}

func (RequestLoadIndex) Kind() Kind      { return KindRequestLoadIndex }
func (RequestLoadIndex) Validate() error { return nil }

// Submit validates the form and appends it to the remote data service.
type Submit struct{}

func (Submit) Kind() Kind      { return KindSubmit }
func (Submit) Validate() error { return nil }

// Clear empties the form.
type Clear struct{}

func (Clear) Kind() Kind      { return KindClear }
func (Clear) Validate() error { return nil }

// SchemaFetched completes a RequestSchema.
type SchemaFetched struct {
	Ref    RequestRef
	Schema *schema.Schema
}

func (SchemaFetched) Kind() Kind { return KindSchemaFetched }

// OptionsFetched completes a RequestOptions. The originating field is read
// from Ref.
type OptionsFetched struct {
	Ref     RequestRef
	Options []state.Option
}

func (OptionsFetched) Kind() Kind { return KindOptionsFetched }

// IndexFetched completes a RequestLoadIndex.
type IndexFetched struct {
	Ref  RequestRef
	Rows []map[string]any
}

func (IndexFetched) Kind() Kind { return KindIndexFetched }

// SubmitAcked acknowledges one append issued by a Submit. Primary is set for
// the append of the form row, unset for the append of created options.
type SubmitAcked struct {
	Ref     RequestRef
	Primary bool
}

func (SubmitAcked) Kind() Kind { return KindSubmitAcked }

// RequestFailed reports a remote request that did not succeed.
type RequestFailed struct {
	Ref RequestRef
	Err error
}

func (RequestFailed) Kind() Kind { return KindRequestFailed }

// InstallSchema replaces the form schema.
type InstallSchema struct {
	Schema *schema.Schema
}

func (InstallSchema) Kind() Kind { return KindInstallSchema }

// SetErrors overwrites the error list of a field.
type SetErrors struct {
	FieldID string
	Errors  []string
}

func (SetErrors) Kind() Kind { return KindSetErrors }

// InstallOptions replaces the option list of a field.
type InstallOptions struct {
	FieldID string
	Options []state.Option
}

func (InstallOptions) Kind() Kind { return KindInstallOptions }

// ResetForm empties the form state, keeping its identifier.
type ResetForm struct{}

func (ResetForm) Kind() Kind { return KindResetForm }

// SetLoader toggles the loading indicator.
type SetLoader struct {
	State   bool
	Feature string
}

func (SetLoader) Kind() Kind { return KindSetLoader }

// SetDirty toggles the unsaved-changes flag.
type SetDirty struct {
	State   bool
	Feature string
}

func (SetDirty) Kind() Kind { return KindSetDirty }

// SetIndexLoaded toggles the flag marking an existing record as loaded.
type SetIndexLoaded struct {
	State   bool
	Feature string
}

func (SetIndexLoaded) Kind() Kind { return KindSetIndexLoaded }

// Level qualifies a notification.
type Level string

const (
	LevelInfo     Level = "info"
	LevelError    Level = "error"
	LevelBlocking Level = "blocking"
)

// Notify is a user visible message.
type Notify struct {
	Message string
	Feature string
	Level   Level
}

func (Notify) Kind() Kind { return KindNotify }

// IssueRequest is the effect of sending Request to the remote data service.
type IssueRequest struct {
	Ref     RequestRef
	Request Request
}

func (IssueRequest) Kind() Kind { return KindIssueRequest }
