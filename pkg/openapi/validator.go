package openapi

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/google/uuid"
	"github.com/goliatone/go-inputfield/pkg/convert"
	"github.com/goliatone/go-inputfield/pkg/form"
	"github.com/woodsbury/decimal128"
)

// SchemaValidator validates a field's committed value against schema and
// reports every schema error reason.
func SchemaValidator(schema *openapi3.Schema) form.Validator {
	return func(_ form.FieldID, value any) []string {
		if schema == nil {
			return nil
		}
		err := schema.VisitJSON(jsonValue(value, schema.Format), openapi3.MultiErrors())
		if err == nil {
			return nil
		}
		return schemaMessages(err)
	}
}

// ValidatorsFor registers a SchemaValidator for every scalar property of
// root on ctx, keyed by the dotted property path. It returns the number of
// validators registered.
func ValidatorsFor(ctx *form.Context, root *openapi3.Schema) int {
	if ctx == nil || root == nil {
		return 0
	}
	count := 0
	walkProperties(root, "", func(path string, prop *openapi3.Schema, _ bool) {
		if _, ok := TagFor(prop, true); !ok {
			return
		}
		ctx.AddValidator(form.FieldID(path), SchemaValidator(prop))
		count++
	})
	return count
}

func schemaMessages(err error) []string {
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		var out []string
		for _, inner := range multi {
			out = append(out, schemaMessages(inner)...)
		}
		return out
	}
	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) && schemaErr.Reason != "" {
		return []string{schemaErr.Reason}
	}
	return []string{err.Error()}
}

// jsonValue lowers committed field values to the JSON shapes VisitJSON
// understands.
func jsonValue(value any, format string) any {
	switch v := value.(type) {
	case nil:
		return nil
	case string, bool, float64:
		return v
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case uint:
		return float64(v)
	case uint64:
		return float64(v)
	case float32:
		return float64(v)
	case decimal128.Decimal:
		return v.Float64()
	case time.Duration:
		return v.String()
	case uuid.UUID:
		return v.String()
	case time.Time:
		switch format {
		case "date":
			return v.Format(convert.LayoutDate)
		case "time":
			return v.Format(convert.LayoutTimeOfDay)
		default:
			return v.Format(time.RFC3339Nano)
		}
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		return jsonValue(rv.Elem().Interface(), format)
	}
	return fmt.Sprint(value)
}
