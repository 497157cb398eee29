package openapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/goliatone/go-inputfield/pkg/fieldspec"
	"gopkg.in/yaml.v3"
)

// ParseSchema decodes a standalone JSON or YAML object schema. Keywords are
// read with OpenAPI 3.0 semantics, so exclusiveMinimum and exclusiveMaximum
// must be booleans.
func ParseSchema(data []byte) (*openapi3.Schema, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("openapi: schema payload is empty")
	}
	if data[0] != '{' {
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("openapi: decode schema yaml: %w", err)
		}
		converted, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("openapi: convert schema yaml: %w", err)
		}
		data = converted
	}

	schema := &openapi3.Schema{}
	if err := schema.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("openapi: decode schema: %w", err)
	}
	return schema, nil
}

// FormFromSchemaFile derives a form definition from a schema file. name
// defaults to the schema title.
func FormFromSchemaFile(path, name string) (fieldspec.FormSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fieldspec.FormSpec{}, fmt.Errorf("openapi: read %s: %w", path, err)
	}
	schema, err := ParseSchema(data)
	if err != nil {
		return fieldspec.FormSpec{}, err
	}
	if name == "" {
		name = schema.Title
	}
	if name == "" {
		return fieldspec.FormSpec{}, fmt.Errorf("openapi: schema %s has no title, a form name is required", path)
	}
	return FieldsFromSchema(name, schema)
}
