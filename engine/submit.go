package engine

import (
	"encoding/json"
	"math"

	formflow "github.com/goliatone/go-formflow"
	"github.com/goliatone/go-formflow/urls"
)

// submit validates the whole form and, when every error list is empty,
// appends the created options of each field and then the form row. The form
// row holds the submission timestamp followed by every column value in field
// id order.
func (tx *Tx) submit(a formflow.Submit) error {
	if err := tx.Dispatch(formflow.ValidateForm{}); err != nil {
		return err
	}
	if tx.Form.HasErrors() {
		return tx.Notify(tx.Config.Messages.CorrectErrors, formflow.LevelBlocking)
	}

	f := tx.Form
	for _, id := range f.CreatedFieldIDs() {
		field, err := f.Field(id)
		if err != nil {
			return err
		}
		created := f.Options.Created[id]
		values := make([]any, 0, len(created))
		for _, opt := range created {
			values = append(values, opt.Value)
		}
		body, err := encodeRows(values)
		if err != nil {
			return err
		}
		target := urls.SubmitURL(f.ID, field.Config.OptionsRange())
		if err := tx.Issue(a, id, formflow.NewPostJSON(target, body)); err != nil {
			return err
		}
	}

	ids := f.Schema.SortedIDs()
	row := make([]any, 0, len(ids)+1)
	row = append(row, tx.engine.now().UTC().Format(tx.Config.TimestampLayout))
	for _, id := range ids {
		row = append(row, f.Value(id))
	}
	body, err := encodeRows(row)
	if err != nil {
		return err
	}
	return tx.Issue(a, "", formflow.NewPostJSON(urls.SubmitURL(f.ID, ""), body))
}

// encodeRows encodes a single row as the array of rows the entry route takes.
// NaN and infinite numbers are written as null.
func encodeRows(row []any) ([]byte, error) {
	cells := make([]any, len(row))
	for i, v := range row {
		cells[i] = finite(v)
	}
	body, err := json.Marshal([][]any{cells})
	if err != nil {
		return nil, formflow.NewError(formflow.ErrInvalidAction, "row cannot be encoded", err, nil)
	}
	return body, nil
}

func finite(v any) any {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return nil
		}
	case float32:
		if math.IsNaN(float64(n)) || math.IsInf(float64(n), 0) {
			return nil
		}
	}
	return v
}
