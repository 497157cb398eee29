package openapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/goliatone/go-inputfield/internal/testsupport"
	"github.com/goliatone/go-inputfield/pkg/convert"
	"github.com/goliatone/go-inputfield/pkg/fieldspec"
	"github.com/goliatone/go-inputfield/pkg/form"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const peopleDoc = "testdata/people.yaml"

func loadPeople(t *testing.T) *openapi3.T {
	t.Helper()
	doc, err := NewLoader().Load(context.Background(), peopleDoc)
	require.NoError(t, err)
	return doc
}

func TestOperations_ListsSortedWithFallbackIDs(t *testing.T) {
	t.Parallel()

	doc := loadPeople(t)
	var ids []string
	for _, op := range Operations(doc) {
		ids = append(ids, op.ID)
	}
	assert.Equal(t, []string{"createPerson", "deletePerson", "patch:/people/{id}"}, ids)

	patch, err := FindOperation(doc, "patch:/people/{id}")
	require.NoError(t, err)
	require.NotNil(t, patch.Schema, "form encoded bodies are picked up")
	assert.Contains(t, patch.Schema.Properties, "nickname")

	_, err = FindOperation(doc, "missing")
	assert.ErrorContains(t, err, `operation "missing" not found`)
}

func TestFormFromOperation_FlattensRequestSchema(t *testing.T) {
	t.Parallel()

	op, err := LoadOperation(context.Background(), peopleDoc, "createPerson")
	require.NoError(t, err)
	assert.Equal(t, "/people", op.Path)

	spec, err := FormFromOperation(op)
	require.NoError(t, err)
	assert.Equal(t, "createPerson", spec.Name)
	assert.Equal(t, "New person", spec.Title)

	want := []fieldspec.FieldSpec{
		{Name: "address.city", Binding: "address.city", Type: "string", Required: true},
		{Name: "address.zip", Binding: "address.zip", Type: "string", Pattern: "^[0-9]{5}$"},
		{Name: "age", Binding: "age", Type: "int32", Required: true, Default: "30", Rules: map[string]string{"min": "18", "max": "130"}},
		{Name: "born", Binding: "born", Type: "date?"},
		{Name: "email", Binding: "email", Type: "string", Pattern: "^[^@]+@[^@]+$"},
		{Name: "id", Binding: "id", Type: "uuid", ReadOnly: true},
		{Name: "name", Label: "Name", Binding: "name", Type: "string", Required: true, Rules: map[string]string{"minLength": "2", "maxLength": "40"}},
		{Name: "score", Binding: "score", Type: "float64", Rules: map[string]string{"min": "0", "exclusiveMin": "true"}},
	}
	if diff := cmp.Diff(want, spec.Fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	require.NoError(t, spec.Validate())

	_, err = FormFromOperation(Operation{ID: "deletePerson"})
	assert.ErrorContains(t, err, "has no request body")
}

func TestFormFromOperation_Golden(t *testing.T) {
	t.Parallel()

	tests := []struct {
		operation string
		golden    string
	}{
		{operation: "createPerson", golden: "createPerson.golden.yaml"},
		{operation: "patch:/people/{id}", golden: "renamePerson.golden.yaml"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.operation, func(t *testing.T) {
			t.Parallel()
			op, err := LoadOperation(context.Background(), peopleDoc, tc.operation)
			require.NoError(t, err)
			spec, err := FormFromOperation(op)
			require.NoError(t, err)

			golden := filepath.Join("testdata", tc.golden)
			if testsupport.WriteMaybeGolden(t, golden, spec) {
				return
			}
			if diff := testsupport.CompareGolden(t, golden, spec); diff != "" {
				t.Fatalf("derived form mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFormFromOperation_BuildsFields(t *testing.T) {
	t.Parallel()

	op, err := LoadOperation(context.Background(), peopleDoc, "createPerson")
	require.NoError(t, err)
	spec, err := FormFromOperation(op)
	require.NoError(t, err)

	ctx := form.NewContext()
	controls, err := fieldspec.Build(ctx, spec)
	require.NoError(t, err)
	testsupport.CloseAll(t, controls)

	assert.Equal(t, int32(30), controls[2].ValueAny())
	assert.Equal(t, convert.TagNullableDate, controls[3].TypeTag())

	score := controls[7]
	score.Focus()
	score.Input("0")
	score.Blur()
	assert.True(t, score.HasError(), "exclusive minimum rejects the bound")
}

func TestTagFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		schema   *openapi3.Schema
		required bool
		want     convert.Tag
		ok       bool
	}{
		{name: "string", schema: openapi3.NewStringSchema(), want: convert.TagString, ok: true},
		{name: "date-time", schema: openapi3.NewDateTimeSchema(), required: true, want: convert.TagDateTime, ok: true},
		{name: "uuid", schema: openapi3.NewUUIDSchema(), want: convert.TagUUID, ok: true},
		{name: "duration", schema: openapi3.NewStringSchema().WithFormat("duration"), want: convert.TagDuration, ok: true},
		{name: "int64", schema: openapi3.NewInt64Schema(), want: convert.TagInt64, ok: true},
		{name: "integer", schema: openapi3.NewIntegerSchema(), want: convert.TagInt, ok: true},
		{name: "float", schema: openapi3.NewFloat64Schema().WithFormat("float"), want: convert.TagFloat32, ok: true},
		{name: "number", schema: openapi3.NewFloat64Schema(), want: convert.TagFloat64, ok: true},
		{name: "bool", schema: openapi3.NewBoolSchema(), want: convert.TagBool, ok: true},
		{name: "nullable optional", schema: openapi3.NewIntegerSchema().WithNullable(), want: convert.TagNullableInt, ok: true},
		{name: "nullable required", schema: openapi3.NewIntegerSchema().WithNullable(), required: true, want: convert.TagInt, ok: true},
		{name: "nullable without variant", schema: openapi3.NewStringSchema().WithNullable(), want: convert.TagString, ok: true},
		{name: "array", schema: openapi3.NewArraySchema(), ok: false},
		{name: "object", schema: openapi3.NewObjectSchema(), ok: false},
		{name: "nil", schema: nil, ok: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := TagFor(tc.schema, tc.required)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFieldsFromSchema_Errors(t *testing.T) {
	t.Parallel()

	_, err := FieldsFromSchema("x", nil)
	assert.ErrorContains(t, err, "schema is nil")

	_, err = FieldsFromSchema("x", openapi3.NewObjectSchema())
	assert.ErrorContains(t, err, "has no properties")

	onlyArrays := openapi3.NewObjectSchema().WithProperty("tags", openapi3.NewArraySchema())
	_, err = FieldsFromSchema("x", onlyArrays)
	assert.ErrorContains(t, err, "no scalar properties")
}

func TestSchemaValidator_ReportsReasons(t *testing.T) {
	t.Parallel()

	op, err := LoadOperation(context.Background(), peopleDoc, "createPerson")
	require.NoError(t, err)
	props := op.Schema.Properties

	age := SchemaValidator(props["age"].Value)
	assert.Empty(t, age("age", int32(40)))
	assert.Equal(t, []string{"number must be at least 18"}, age("age", int32(12)))

	name := SchemaValidator(props["name"].Value)
	assert.Equal(t, []string{"minimum string length is 2"}, name("name", "A"))

	born := SchemaValidator(props["born"].Value)
	assert.Empty(t, born("born", (*time.Time)(nil)))
	day := time.Date(1990, 4, 1, 0, 0, 0, 0, time.UTC)
	assert.Empty(t, born("born", &day))

	score := SchemaValidator(props["score"].Value)
	assert.Equal(t, []string{"number must be more than 0"}, score("score", 0.0))

	assert.Empty(t, SchemaValidator(nil)("x", "anything"))
}

func TestValidatorsFor_RegistersPerProperty(t *testing.T) {
	t.Parallel()

	op, err := LoadOperation(context.Background(), peopleDoc, "createPerson")
	require.NoError(t, err)

	ctx := form.NewContext()
	assert.Equal(t, 8, ValidatorsFor(ctx, op.Schema))
	assert.Zero(t, ValidatorsFor(nil, op.Schema))

	ctx.NotifyFieldChanged(form.FieldChange{ID: "address.zip", Value: "12"})
	assert.Equal(t, []string{`string doesn't match the regular expression "^[0-9]{5}$"`}, ctx.Messages("address.zip"))

	ctx.NotifyFieldChanged(form.FieldChange{ID: "address.zip", Value: "12345"})
	assert.Empty(t, ctx.Messages("address.zip"))
}

func TestLoader_Sources(t *testing.T) {
	t.Parallel()

	data, err := os.ReadFile(filepath.Join("testdata", "people.yaml"))
	require.NoError(t, err)

	t.Run("fs", func(t *testing.T) {
		t.Parallel()
		loader := NewLoader(WithFileSystem(fstest.MapFS{"api/people.yaml": {Data: data}}))
		op, err := loader.Operation(context.Background(), "api/people.yaml", "deletePerson")
		require.NoError(t, err)
		assert.Nil(t, op.Schema)
		assert.Equal(t, http.MethodDelete, op.Method)
	})

	t.Run("http", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/openapi.yaml" {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write(data)
		}))
		defer srv.Close()

		_, err := NewLoader().Load(context.Background(), srv.URL+"/openapi.yaml")
		assert.ErrorContains(t, err, "http support disabled")

		loader := NewLoader(WithHTTPClient(srv.Client()))
		doc, err := loader.Load(context.Background(), srv.URL+"/openapi.yaml")
		require.NoError(t, err)
		assert.Equal(t, "People", doc.Info.Title)

		_, err = loader.Load(context.Background(), srv.URL+"/missing.yaml")
		assert.ErrorContains(t, err, "unexpected status")
	})

	t.Run("errors", func(t *testing.T) {
		t.Parallel()
		_, err := NewLoader().Load(context.Background(), " ")
		assert.ErrorContains(t, err, "location is required")

		_, err = NewLoader().Parse(context.Background(), []byte("\n"))
		assert.ErrorContains(t, err, "payload is empty")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = NewLoader().Load(ctx, peopleDoc)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestFormFromSchemaFile(t *testing.T) {
	t.Parallel()

	spec, err := FormFromSchemaFile(filepath.Join("testdata", "contact.schema.yaml"), "")
	require.NoError(t, err)
	assert.Equal(t, "contact", spec.Name)

	want := []fieldspec.FieldSpec{
		{Name: "email", Binding: "email", Type: "string", Required: true, Pattern: "^[^@]+@[^@]+$"},
		{Name: "phone", Binding: "phone", Type: "string"},
		{Name: "visits", Binding: "visits", Type: "int64", Rules: map[string]string{"min": "0"}},
	}
	if diff := cmp.Diff(want, spec.Fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}

	schema, err := ParseSchema([]byte(`{"type":"object","properties":{"n":{"type":["integer","null"]}}}`))
	require.NoError(t, err)
	tag, ok := TagFor(schema.Properties["n"].Value, false)
	assert.True(t, ok)
	assert.Equal(t, convert.TagNullableInt, tag)

	_, err = ParseSchema([]byte("  "))
	assert.ErrorContains(t, err, "schema payload is empty")

	_, err = FormFromSchemaFile(filepath.Join("testdata", "missing.yaml"), "x")
	assert.ErrorContains(t, err, "read")
}
