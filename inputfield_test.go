package inputfield

import (
	"context"
	"testing"

	"github.com/goliatone/go-inputfield/internal/testsupport"
	"github.com/goliatone/go-inputfield/pkg/convert"
	"github.com/goliatone/go-inputfield/pkg/field"
	"github.com/goliatone/go-inputfield/pkg/form"
)

func TestNewField_CommitsThroughContext(t *testing.T) {
	ctx := NewFormContext()
	var committed []int
	f, err := NewField[int](convert.TagInt,
		field.WithBinding(ctx, "quantity"),
		field.WithTiming(TimingOnChange),
		field.OnValueChanged(func(v int) { committed = append(committed, v) }),
	)
	if err != nil {
		t.Fatalf("NewField: %v", err)
	}
	defer f.Close()

	f.Focus()
	f.Input("7")
	f.Blur()

	if len(committed) != 1 || committed[0] != 7 {
		t.Fatalf("expected a single commit of 7, got %v", committed)
	}
	if v, ok := ctx.Value(form.FieldID("quantity")); !ok || v != 7 {
		t.Fatalf("context value = %v, %v", v, ok)
	}
}

func TestLoadForm(t *testing.T) {
	ctx := NewFormContext()
	controls, err := LoadForm(ctx, testsupport.SignupSpec(t))
	if err != nil {
		t.Fatalf("LoadForm: %v", err)
	}
	testsupport.CloseAll(t, controls)
	if len(controls) != 6 || len(ctx.Fields()) != 6 {
		t.Fatalf("expected 6 bound fields, got %d controls and %d ids", len(controls), len(ctx.Fields()))
	}

	if _, err := LoadForm(ctx, "missing.yaml"); err == nil {
		t.Fatalf("expected error for a missing file")
	}
}

func TestFormFromOpenAPI(t *testing.T) {
	ctx := NewFormContext()
	controls, err := FormFromOpenAPI(context.Background(), ctx, testsupport.PeopleAPI(t), "createPerson")
	if err != nil {
		t.Fatalf("FormFromOpenAPI: %v", err)
	}
	testsupport.CloseAll(t, controls)

	ctx.NotifyFieldChanged(form.FieldChange{ID: "address.zip", Value: "1"})
	if !ctx.HasMessages("address.zip") {
		t.Fatalf("expected schema validator message for address.zip")
	}
}

func TestParseForm(t *testing.T) {
	spec, err := ParseForm([]byte("name: tiny\nfields:\n  - {name: n, type: int}\n"), "inline.yaml")
	if err != nil {
		t.Fatalf("ParseForm: %v", err)
	}
	b := NewBuilder()
	if err := b.Validate(spec); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if NewLoader() == nil {
		t.Fatalf("expected loader")
	}
}
