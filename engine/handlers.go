package engine

import (
	"sort"
	"strings"

	formflow "github.com/goliatone/go-formflow"
	"github.com/goliatone/go-formflow/coerce"
	"github.com/goliatone/go-formflow/logging"
	"github.com/goliatone/go-formflow/state"
	"github.com/goliatone/go-formflow/urls"
)

// route runs the transition of action. Actions without a transition, such as
// the mutations emitted by other transitions, only go through Next.
func (tx *Tx) route(action formflow.Action) error {
	switch a := action.(type) {
	case formflow.RequestSchema:
		return tx.requestSchema(a)
	case formflow.SchemaFetched:
		return tx.schemaFetched(a)
	case formflow.OptionsFetched:
		return tx.Next(formflow.InstallOptions{FieldID: a.Ref.FieldID, Options: a.Options})
	case formflow.SubmitAcked:
		return tx.submitAcked(a)
	case formflow.IndexFetched:
		return tx.indexFetched(a)
	case formflow.RequestFailed:
		return tx.requestFailed(a)
	case formflow.InputField:
		if err := tx.Dispatch(formflow.SetField{FieldID: a.FieldID, Value: a.Value}); err != nil {
			return err
		}
		return tx.Next(formflow.SetDirty{State: true, Feature: tx.Config.Feature})
	case formflow.SetField:
		return tx.invalidateDependents(a.FieldID)
	case formflow.RequestOptions:
		return tx.requestOptions(a)
	case formflow.ValidateField:
		return tx.validateField(a.FieldID)
	case formflow.ValidateForm:
		return tx.validateForm()
	case formflow.RequestLoadIndex:
		return tx.requestLoadIndex(a)
	case formflow.Submit:
		return tx.submit(a)
	case formflow.Clear:
		if err := tx.Next(formflow.ResetForm{}); err != nil {
			return err
		}
		return tx.Next(formflow.SetDirty{State: false, Feature: tx.Config.Feature})
	}
	return nil
}

func (tx *Tx) requestSchema(a formflow.RequestSchema) error {
	if err := tx.Issue(a, "", formflow.NewGet(urls.SchemaURL(a.ID))); err != nil {
		return err
	}
	return tx.Loader(true)
}

func (tx *Tx) schemaFetched(a formflow.SchemaFetched) error {
	if err := tx.Next(formflow.InstallSchema{Schema: a.Schema}); err != nil {
		return err
	}
	if err := tx.Loader(false); err != nil {
		return err
	}
	for _, col := range a.Schema.Columns {
		value := tx.engine.coercer.ParseDefault(col.Config.Default, col.Type)
		if err := tx.Next(formflow.SetField{FieldID: col.ID, Value: value}); err != nil {
			return err
		}
	}
	return nil
}

// submitAcked runs for every append of a submission, option ranges included,
// so a submission with created options clears, notifies and reloads once per
// append.
func (tx *Tx) submitAcked(formflow.SubmitAcked) error {
	id := tx.Form.ID
	if err := tx.Dispatch(formflow.Clear{}); err != nil {
		return err
	}
	if err := tx.Notify(tx.Config.Messages.SubmitSuccess, formflow.LevelInfo); err != nil {
		return err
	}
	return tx.Dispatch(formflow.RequestSchema{ID: id})
}

// indexFetched writes the first returned row in field id order. Values go
// through Next, not Dispatch, so writing a key field never nulls a dependent
// written before it from the same row.
func (tx *Tx) indexFetched(a formflow.IndexFetched) error {
	if len(a.Rows) == 0 {
		if err := tx.Loader(false); err != nil {
			return err
		}
		return tx.Notify(tx.Config.Messages.NoRecord, formflow.LevelInfo)
	}

	row := a.Rows[0]
	ids := make([]string, 0, len(row))
	for id := range row {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		field, ok := tx.Form.Schema.Field(id)
		if !ok {
			continue
		}
		value := tx.engine.coercer.ParseDefault(row[id], field.Type)
		if err := tx.Next(formflow.SetField{FieldID: id, Value: value}); err != nil {
			return err
		}
	}
	if err := tx.Next(formflow.SetIndexLoaded{State: true, Feature: tx.Config.Feature}); err != nil {
		return err
	}
	return tx.Loader(false)
}

func (tx *Tx) requestFailed(a formflow.RequestFailed) error {
	msg := formflow.UserMessage(a.Err)
	if msg == "" {
		msg = formflow.ErrRemoteRequest.Message
	}
	if err := tx.Notify(msg, formflow.LevelError); err != nil {
		return err
	}
	return tx.Loader(false)
}

// invalidateDependents nulls the fields requiring the key published by
// fieldID. Dependents are written through Next, so the reset goes one level
// deep.
func (tx *Tx) invalidateDependents(fieldID string) error {
	field, err := tx.Form.Field(fieldID)
	if err != nil {
		return err
	}
	for _, dep := range tx.Form.Schema.Dependents(field.Config.Key) {
		if dep == fieldID {
			continue
		}
		if err := tx.Next(formflow.SetField{FieldID: dep}); err != nil {
			return err
		}
	}
	return nil
}

func (tx *Tx) requestOptions(a formflow.RequestOptions) error {
	field, err := tx.Form.Field(a.FieldID)
	if err != nil {
		return err
	}

	rng := a.Range
	if rng == "" {
		rng = field.Config.OptionsRange()
	}
	if strings.TrimSpace(rng) == "" {
		return formflow.ErrInvalidAction.Clone().
			WithMetadata(map[string]any{"kind": a.Kind().String(), "field_id": a.FieldID, "reason": "options range is not configured"})
	}

	requires := a.Requires
	if requires == "" {
		requires = field.Config.Requires
	}
	value := a.RequireValue
	if value == nil {
		value = field.Config.RequireValue
	}
	if value == nil && requires != "" {
		if pub, ok := tx.Form.Schema.Publisher(requires); ok {
			value = tx.Form.Value(pub)
		}
	}
	if requires != "" && value == nil {
		logging.WithFields(tx.engine.logger, actionFields(tx.Form.ID, a)).
			Debug("options request skipped until " + requires + " has a value")
		return nil
	}

	target := urls.OptionsURL(tx.Form.ID, rng, urls.Requirement{Requires: requires, RequireValue: value})
	return tx.Issue(a, a.FieldID, formflow.NewGet(target))
}

func (tx *Tx) validateField(fieldID string) error {
	field, err := tx.Form.Field(fieldID)
	if err != nil {
		return err
	}
	errs := tx.engine.validator.Validate(field, tx.Form.Value(fieldID))
	return tx.Next(formflow.SetErrors{FieldID: fieldID, Errors: errs})
}

func (tx *Tx) validateForm() error {
	if tx.Form.Schema == nil {
		return state.ErrSchemaNotLoaded
	}
	for _, id := range tx.Form.Schema.IDs() {
		if err := tx.Dispatch(formflow.ValidateField{FieldID: id}); err != nil {
			return err
		}
	}
	return nil
}

func (tx *Tx) requestLoadIndex(a formflow.RequestLoadIndex) error {
	s := tx.Form.Schema
	if s == nil {
		return state.ErrSchemaNotLoaded
	}
	keys := s.IndexKeys()
	if len(keys) == 0 {
		return formflow.NewError(formflow.ErrUnresolvedIndexKey, "schema declares no index", nil,
			map[string]any{"form_id": tx.Form.ID})
	}

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		pub, ok := s.Publisher(key)
		if !ok {
			return formflow.NewError(formflow.ErrUnresolvedIndexKey, "", nil,
				map[string]any{"form_id": tx.Form.ID, "key": key})
		}
		parts = append(parts, coerce.Format(tx.Form.Value(pub)))
	}
	index := strings.Join(parts, tx.Config.IndexSeparator)

	if err := tx.Issue(a, "", formflow.NewGet(urls.LoadIndexURL(tx.Form.ID, index))); err != nil {
		return err
	}
	return tx.Loader(true)
}
