package openapi

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/goliatone/go-inputfield/pkg/convert"
	"github.com/goliatone/go-inputfield/pkg/fieldspec"
	"github.com/goliatone/go-inputfield/pkg/validation"
)

// FieldsFromSchema derives a form definition from an object schema. Nested
// objects are flattened into dotted bindings; arrays and untyped properties
// are skipped.
func FieldsFromSchema(name string, schema *openapi3.Schema) (fieldspec.FormSpec, error) {
	if schema == nil {
		return fieldspec.FormSpec{}, errors.New("openapi: schema is nil")
	}
	if len(schema.Properties) == 0 {
		return fieldspec.FormSpec{}, fmt.Errorf("openapi: schema for %q has no properties", name)
	}

	spec := fieldspec.FormSpec{Name: name, Title: schema.Title}
	walkProperties(schema, "", func(path string, prop *openapi3.Schema, required bool) {
		tag, ok := TagFor(prop, required)
		if !ok {
			return
		}
		spec.Fields = append(spec.Fields, fieldFromSchema(path, prop, tag, required))
	})
	if len(spec.Fields) == 0 {
		return fieldspec.FormSpec{}, fmt.Errorf("openapi: schema for %q has no scalar properties", name)
	}
	return spec, nil
}

// FormFromOperation derives the form definition of an operation's request
// body, named after the operation.
func FormFromOperation(op Operation) (fieldspec.FormSpec, error) {
	if op.Schema == nil {
		return fieldspec.FormSpec{}, fmt.Errorf("openapi: operation %q has no request body", op.ID)
	}
	spec, err := FieldsFromSchema(op.ID, op.Schema)
	if err != nil {
		return fieldspec.FormSpec{}, err
	}
	if spec.Title == "" {
		spec.Title = op.Summary
	}
	return spec, nil
}

// TagFor maps a scalar schema onto a converter tag. Optional nullable
// properties map to the nullable variant when one exists.
func TagFor(schema *openapi3.Schema, required bool) (convert.Tag, bool) {
	if schema == nil {
		return "", false
	}
	var tag convert.Tag
	switch {
	case schema.Type.Includes(openapi3.TypeString):
		switch schema.Format {
		case "date-time":
			tag = convert.TagDateTime
		case "date":
			tag = convert.TagDate
		case "time":
			tag = convert.TagTimeOfDay
		case "uuid":
			tag = convert.TagUUID
		case "duration":
			tag = convert.TagDuration
		case "decimal":
			tag = convert.TagDecimal
		default:
			tag = convert.TagString
		}
	case schema.Type.Includes(openapi3.TypeInteger):
		switch schema.Format {
		case "int32":
			tag = convert.TagInt32
		case "int64":
			tag = convert.TagInt64
		default:
			tag = convert.TagInt
		}
	case schema.Type.Includes(openapi3.TypeNumber):
		switch schema.Format {
		case "float":
			tag = convert.TagFloat32
		case "decimal":
			tag = convert.TagDecimal
		default:
			tag = convert.TagFloat64
		}
	case schema.Type.Includes(openapi3.TypeBoolean):
		tag = convert.TagBool
	default:
		return "", false
	}

	if !required && (schema.Nullable || schema.Type.Includes(openapi3.TypeNull)) {
		if nullable, ok := nullableTags[tag]; ok {
			tag = nullable
		}
	}
	return tag, true
}

var nullableTags = map[convert.Tag]convert.Tag{
	convert.TagInt:      convert.TagNullableInt,
	convert.TagInt64:    convert.TagNullableInt64,
	convert.TagFloat64:  convert.TagNullableFloat64,
	convert.TagDecimal:  convert.TagNullableDecimal,
	convert.TagBool:     convert.TagNullableBool,
	convert.TagDateTime: convert.TagNullableDateTime,
	convert.TagDate:     convert.TagNullableDate,
	convert.TagUUID:     convert.TagNullableUUID,
}

func fieldFromSchema(path string, prop *openapi3.Schema, tag convert.Tag, required bool) fieldspec.FieldSpec {
	fs := fieldspec.FieldSpec{
		Name:     path,
		Label:    prop.Title,
		Binding:  path,
		Type:     tag.String(),
		Pattern:  prop.Pattern,
		Required: required,
		ReadOnly: prop.ReadOnly,
		Default:  defaultText(prop.Default),
	}

	rules := map[string]string{}
	if prop.Min != nil {
		rules[validation.RuleMin] = strconv.FormatFloat(*prop.Min, 'f', -1, 64)
		if prop.ExclusiveMin {
			rules[validation.RuleExclusiveMin] = "true"
		}
	}
	if prop.Max != nil {
		rules[validation.RuleMax] = strconv.FormatFloat(*prop.Max, 'f', -1, 64)
		if prop.ExclusiveMax {
			rules[validation.RuleExclusiveMax] = "true"
		}
	}
	if prop.MinLength > 0 {
		rules[validation.RuleMinLength] = strconv.FormatUint(prop.MinLength, 10)
	}
	if prop.MaxLength != nil {
		rules[validation.RuleMaxLength] = strconv.FormatUint(*prop.MaxLength, 10)
	}
	if len(rules) > 0 {
		fs.Rules = rules
	}
	return fs
}

func defaultText(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case int, int64:
		return fmt.Sprint(v)
	default:
		return ""
	}
}

// walkProperties visits scalar and object properties depth first in name
// order, calling visit for every non-object property with its dotted path.
func walkProperties(schema *openapi3.Schema, prefix string, visit func(path string, prop *openapi3.Schema, required bool)) {
	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ref := schema.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		prop := ref.Value
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}
		switch {
		case prop.Type.Includes(openapi3.TypeObject) && len(prop.Properties) > 0:
			walkProperties(prop, path, visit)
		case prop.Type.Includes(openapi3.TypeArray):
			continue
		default:
			visit(path, prop, required[name])
		}
	}
}
