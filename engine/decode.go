package engine

import (
	"encoding/json"

	formflow "github.com/goliatone/go-formflow"
	"github.com/goliatone/go-formflow/schema"
	"github.com/goliatone/go-formflow/state"
)

type currentRows struct {
	Current struct {
		Rows []map[string]any `json:"rows"`
	} `json:"current"`
}

// decode turns the body answering ref into its completion action. The
// origin carried by ref selects the expected document.
func (e *Engine) decode(ref formflow.RequestRef, data []byte) formflow.Action {
	fail := func(err error) formflow.Action {
		return formflow.RequestFailed{
			Ref: ref,
			Err: formflow.NewError(formflow.ErrDecodeResponse, "", err,
				map[string]any{"request_id": ref.ID, "origin": ref.OriginKind().String()}),
		}
	}

	switch ref.OriginKind() {
	case formflow.KindRequestSchema:
		s, err := schema.Parse(data)
		if err != nil {
			return fail(err)
		}
		return formflow.SchemaFetched{Ref: ref, Schema: s}

	case formflow.KindRequestOptions:
		var opts []state.Option
		if err := json.Unmarshal(data, &opts); err != nil {
			return fail(err)
		}
		return formflow.OptionsFetched{Ref: ref, Options: opts}

	case formflow.KindRequestLoadIndex:
		var doc currentRows
		if err := json.Unmarshal(data, &doc); err != nil {
			return fail(err)
		}
		return formflow.IndexFetched{Ref: ref, Rows: doc.Current.Rows}

	case formflow.KindSubmit:
		return formflow.SubmitAcked{Ref: ref, Primary: ref.FieldID == ""}
	}

	return formflow.RequestFailed{
		Ref: ref,
		Err: formflow.NewError(formflow.ErrDecodeResponse, "response has no route", nil,
			map[string]any{"request_id": ref.ID, "origin": ref.OriginKind().String()}),
	}
}
