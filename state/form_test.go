package state

import (
	"encoding/json"
	stderrors "errors"
	"testing"

	"github.com/goliatone/go-errors"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/schema"
)

func testSchema() *schema.Schema {
	return schema.New([]schema.Field{
		{ID: "site", Type: schema.FieldTypeText, Config: schema.FieldConfig{Key: "site"}},
		{ID: "dock", Type: schema.FieldTypeText, Config: schema.FieldConfig{Requires: "site"}},
	}, "site")
}

func textCode(err error) string {
	var ge *errors.Error
	if stderrors.As(err, &ge) {
		return ge.TextCode
	}
	return ""
}

func TestSetFieldRequiresSchema(t *testing.T) {
	f := New("shipments")

	err := f.SetField("site", "north")
	if code := textCode(err); code != "SCHEMA_NOT_LOADED" {
		t.Fatalf("expected SCHEMA_NOT_LOADED, got %q (%v)", code, err)
	}

	f.InstallSchema(testSchema())
	if err := f.SetField("site", "north"); err != nil {
		t.Fatalf("set declared field: %v", err)
	}
	if code := textCode(f.SetField("nope", 1)); code != "UNKNOWN_FIELD" {
		t.Fatalf("expected UNKNOWN_FIELD, got %q", code)
	}
}

func TestInstallSchemaDropsUndeclaredFields(t *testing.T) {
	f := New("shipments")
	f.Fields["legacy"] = "x"
	f.Errors["legacy"] = []string{"stale"}
	f.Options.ByField["legacy"] = []Option{{Value: 1}}

	f.InstallSchema(testSchema())

	if len(f.Fields) != 0 || len(f.Errors) != 0 || len(f.Options.ByField) != 0 {
		t.Fatalf("expected undeclared entries to be dropped, got %+v", f)
	}
}

func TestErrorsAndCreatedOptions(t *testing.T) {
	f := New("shipments")
	f.InstallSchema(testSchema())

	if f.HasErrors() {
		t.Fatal("fresh form should have no errors")
	}
	if err := f.SetErrors("site", nil); err != nil {
		t.Fatalf("set errors: %v", err)
	}
	if f.HasErrors() {
		t.Fatal("empty error list must count as valid")
	}
	if err := f.SetErrors("dock", []string{"cannot be blank"}); err != nil {
		t.Fatalf("set errors: %v", err)
	}
	if !f.HasErrors() {
		t.Fatal("expected errors after non-empty list")
	}

	if err := f.AddCreatedOption("dock", Option{Value: "D9", Label: "Dock 9"}); err != nil {
		t.Fatalf("add created option: %v", err)
	}
	want := []Option{{Value: "D9", Label: "Dock 9"}}
	if diff := cmp.Diff(want, f.Options.Created["dock"]); diff != "" {
		t.Fatalf("created options mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, f.Options.ByField["dock"]); diff != "" {
		t.Fatalf("live options mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"dock"}, f.CreatedFieldIDs()); diff != "" {
		t.Fatalf("created ids mismatch (-want +got):\n%s", diff)
	}
}

func TestResetKeepsIdentifier(t *testing.T) {
	f := New("shipments")
	f.InstallSchema(testSchema())
	_ = f.SetField("site", "north")
	f.Dirty, f.Loader, f.IndexLoaded = true, true, true

	f.Reset()

	if f.ID != "shipments" {
		t.Fatalf("expected id to survive reset, got %q", f.ID)
	}
	if f.Schema != nil || len(f.Fields) != 0 || f.Dirty || f.Loader || f.IndexLoaded {
		t.Fatalf("expected empty form after reset, got %+v", f)
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	f := New("shipments")
	f.InstallSchema(testSchema())
	_ = f.SetField("site", "north")
	_ = f.SetErrors("site", []string{"bad"})

	snap := f.Snapshot()
	_ = f.SetField("site", "south")
	f.Errors["site"][0] = "mutated"

	if snap.Fields["site"] != "north" {
		t.Fatalf("snapshot field changed: %v", snap.Fields["site"])
	}
	if diff := cmp.Diff([]string{"bad"}, snap.Errors["site"]); diff != "" {
		t.Fatalf("snapshot errors changed (-want +got):\n%s", diff)
	}
}

func TestOptionUnmarshal(t *testing.T) {
	var opts []Option
	if err := json.Unmarshal([]byte(`["A", 2, {"value":"c","label":"Cee"}, null]`), &opts); err != nil {
		t.Fatalf("unmarshal options: %v", err)
	}
	want := []Option{
		{Value: "A", Label: "A"},
		{Value: 2.0, Label: "2"},
		{Value: "c", Label: "Cee"},
		{Value: nil},
	}
	if diff := cmp.Diff(want, opts); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}
