// Package inputfield is the top-level entry point for typed input fields:
// text in, validated typed values out, synchronized with a form context.
//
// The packages under pkg/ carry the implementation; this package re-exports
// the types most callers need and wires the common flows together.
package inputfield

import (
	"context"

	"github.com/goliatone/go-inputfield/pkg/convert"
	"github.com/goliatone/go-inputfield/pkg/field"
	"github.com/goliatone/go-inputfield/pkg/fieldspec"
	"github.com/goliatone/go-inputfield/pkg/form"
	"github.com/goliatone/go-inputfield/pkg/openapi"
)

// Tag names a converter in a registry.
type Tag = convert.Tag

// Control is the type-erased view of a field.
type Control = field.Control

// FormContext aliases form.Context.
type FormContext = form.Context

// FormSpec aliases fieldspec.FormSpec for callers defining forms in code.
type FormSpec = fieldspec.FormSpec

// FieldSpec aliases fieldspec.FieldSpec.
type FieldSpec = fieldspec.FieldSpec

// Timing selects when typed text is committed.
type Timing = field.Timing

// Commit timings.
const (
	TimingImmediate = field.TimingImmediate
	TimingOnChange  = field.TimingOnChange
	TimingDebounced = field.TimingDebounced
)

// NewField constructs a typed field. It mirrors field.New.
func NewField[T any](tag Tag, options ...field.Option) (*field.Field[T], error) {
	return field.New[T](tag, options...)
}

// NewFormContext constructs an empty form context.
func NewFormContext(options ...form.Option) *FormContext {
	return form.NewContext(options...)
}

// LoadForm reads a form definition file and builds its fields bound to
// formCtx. Callers own the returned controls and must Close them.
func LoadForm(formCtx *FormContext, path string, options ...fieldspec.Option) ([]Control, error) {
	spec, err := fieldspec.Load(path)
	if err != nil {
		return nil, err
	}
	return fieldspec.Build(formCtx, spec, options...)
}

// FormFromOpenAPI derives a form from an OpenAPI operation's request body,
// registers the schema validators on formCtx and builds the fields.
func FormFromOpenAPI(ctx context.Context, formCtx *FormContext, location, operationID string, options ...fieldspec.Option) ([]Control, error) {
	op, err := openapi.LoadOperation(ctx, location, operationID)
	if err != nil {
		return nil, err
	}
	spec, err := openapi.FormFromOperation(op)
	if err != nil {
		return nil, err
	}
	openapi.ValidatorsFor(formCtx, op.Schema)
	return fieldspec.Build(formCtx, spec, options...)
}
