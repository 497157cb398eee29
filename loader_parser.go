package inputfield

import (
	"github.com/goliatone/go-inputfield/pkg/fieldspec"
	"github.com/goliatone/go-inputfield/pkg/openapi"
)

// NewLoader constructs an OpenAPI document loader.
func NewLoader(options ...openapi.LoaderOption) *openapi.Loader {
	return openapi.NewLoader(options...)
}

// NewBuilder constructs a field builder with the built-in types registered.
func NewBuilder(options ...fieldspec.Option) *fieldspec.Builder {
	return fieldspec.NewBuilder(options...)
}

// ParseForm decodes and validates a YAML or JSON form definition. source
// names the payload in error messages.
func ParseForm(data []byte, source string) (FormSpec, error) {
	return fieldspec.Parse(data, source)
}
