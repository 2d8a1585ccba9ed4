package engine

import (
	"context"
	"fmt"
	"net/http"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"

	formflow "github.com/goliatone/go-formflow"
	"github.com/goliatone/go-formflow/config"
	"github.com/goliatone/go-formflow/logging"
	"github.com/goliatone/go-formflow/runner"
	"github.com/goliatone/go-formflow/state"
)

// Tx is the context handed to a transition. It is only valid while the
// transition runs.
type Tx struct {
	ctx    context.Context
	engine *Engine

	Form   *state.Form
	Config config.Config
}

// Context returns the context of the dispatch that started the transition.
func (tx *Tx) Context() context.Context { return tx.ctx }

// Next reduces action into the form state, publishes it and starts its
// effect. The transition of action is not run.
func (tx *Tx) Next(action formflow.Action) error {
	if err := tx.reduce(action); err != nil {
		return err
	}

	e := tx.engine
	logging.WithFields(e.logger, actionFields(tx.Form.ID, action)).Debug("transition " + formflow.Type(action))

	e.bus.Publish(action)

	if req, ok := action.(formflow.IssueRequest); ok {
		e.issue(tx.ctx, tx.Form.ID, req)
	}
	return nil
}

// Dispatch runs action through the full pipeline synchronously: Next, then
// the transition matching its kind.
func (tx *Tx) Dispatch(action formflow.Action) error {
	if err := tx.Next(action); err != nil {
		return err
	}
	return tx.route(action)
}

// Issue emits an IssueRequest originating from origin.
func (tx *Tx) Issue(origin formflow.Action, fieldID string, req formflow.Request) error {
	ref := formflow.RequestRef{
		ID:       uuid.NewString(),
		Origin:   origin,
		FieldID:  fieldID,
		IssuedAt: tx.engine.now(),
	}
	return tx.Next(formflow.IssueRequest{Ref: ref, Request: req})
}

// Notify emits a notification scoped to the configured feature.
func (tx *Tx) Notify(message string, level formflow.Level) error {
	return tx.Next(formflow.Notify{Message: message, Feature: tx.Config.Feature, Level: level})
}

// Loader toggles the loading indicator.
func (tx *Tx) Loader(on bool) error {
	return tx.Next(formflow.SetLoader{State: on, Feature: tx.Config.Feature})
}

func (tx *Tx) reduce(action formflow.Action) error {
	f := tx.Form
	switch a := action.(type) {
	case formflow.RequestSchema:
		f.ID = a.ID
	case formflow.InstallSchema:
		if a.Schema == nil {
			return formflow.ErrInvalidAction.Clone().
				WithMetadata(map[string]any{"kind": a.Kind().String(), "reason": "schema is required"})
		}
		f.InstallSchema(a.Schema)
	case formflow.SetField:
		return f.SetField(a.FieldID, a.Value)
	case formflow.SetErrors:
		return f.SetErrors(a.FieldID, a.Errors)
	case formflow.InstallOptions:
		return f.SetOptions(a.FieldID, a.Options)
	case formflow.CreateOption:
		label := a.Label
		if label == "" && a.Value != nil {
			label = fmt.Sprint(a.Value)
		}
		return f.AddCreatedOption(a.FieldID, state.Option{Value: a.Value, Label: label})
	case formflow.ResetForm:
		f.Reset()
	case formflow.SetLoader:
		f.Loader = a.State
	case formflow.SetDirty:
		f.Dirty = a.State
	case formflow.SetIndexLoaded:
		f.IndexLoaded = a.State
	}
	return nil
}

// issue runs req on the runner. Non GET requests are never retried so an
// append cannot be stored twice.
func (e *Engine) issue(ctx context.Context, formID string, a formflow.IssueRequest) {
	ref, req := a.Ref, a.Request
	e.pending.add(Pending{
		ID:       ref.ID,
		Origin:   ref.OriginKind(),
		FieldID:  ref.FieldID,
		Method:   req.Method,
		URL:      req.URL,
		IssuedAt: ref.IssuedAt,
	})

	fields := actionFields(formID, a)
	ctx = context.WithoutCancel(ctx)
	idempotent := req.Method == "" || req.Method == http.MethodGet

	e.runner.Go(ctx, "request "+ref.OriginKind().String(), fields,
		func(taskCtx context.Context) error {
			data, err := e.transport.Do(taskCtx, req)
			if err != nil {
				if !idempotent {
					return runner.Permanent(err)
				}
				return err
			}
			e.complete(ctx, e.decode(ref, data))
			return nil
		},
		func(err error) {
			logging.WithFields(e.logger, fields).Warn("remote request failed: " + err.Error())
			if formflow.ErrorCode(err) == "" {
				err = errors.Wrap(err, errors.CategoryExternal, formflow.ErrRemoteRequest.Message).
					WithTextCode(formflow.ErrCodeRemoteRequestFailed)
			}
			e.complete(ctx, formflow.RequestFailed{Ref: ref, Err: err})
		},
	)
}

func actionFields(formID string, action formflow.Action) map[string]any {
	fields := map[string]any{"form_id": formID}
	if action == nil {
		return fields
	}
	fields["kind"] = action.Kind().String()

	var ref *formflow.RequestRef
	switch a := action.(type) {
	case formflow.IssueRequest:
		ref = &a.Ref
		fields["method"] = a.Request.Method
		fields["url"] = a.Request.URL
	case formflow.SchemaFetched:
		ref = &a.Ref
	case formflow.OptionsFetched:
		ref = &a.Ref
	case formflow.IndexFetched:
		ref = &a.Ref
	case formflow.SubmitAcked:
		ref = &a.Ref
		fields["primary"] = a.Primary
	case formflow.RequestFailed:
		ref = &a.Ref
	case formflow.InputField:
		fields["field_id"] = a.FieldID
	case formflow.SetField:
		fields["field_id"] = a.FieldID
	case formflow.SetErrors:
		fields["field_id"] = a.FieldID
	case formflow.InstallOptions:
		fields["field_id"] = a.FieldID
	case formflow.RequestOptions:
		fields["field_id"] = a.FieldID
	case formflow.CreateOption:
		fields["field_id"] = a.FieldID
	case formflow.ValidateField:
		fields["field_id"] = a.FieldID
	}
	if ref != nil {
		fields["request_id"] = ref.ID
		fields["origin"] = ref.OriginKind().String()
		if ref.FieldID != "" {
			fields["field_id"] = ref.FieldID
		}
	}
	return fields
}
