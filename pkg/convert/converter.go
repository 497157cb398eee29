// Package convert resolves text <-> value conversion strategies for typed
// input fields. Converters are registered explicitly under a type tag; the
// built-in tags cover the common primitive and temporal types.
package convert

import (
	"errors"
	"fmt"
	"reflect"

	"golang.org/x/text/language"
)

// ErrParse is the sentinel wrapped by every ParseError.
var ErrParse = errors.New("convert: cannot parse value")

// ParseError reports text that could not be converted to the target type.
type ParseError struct {
	Tag   Tag
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("convert: cannot parse %q as %s: %v", e.Input, e.Tag, e.Err)
	}
	return fmt.Sprintf("convert: cannot parse %q as %s", e.Input, e.Tag)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrParse}
	}
	return []error{ErrParse, e.Err}
}

// NewParseError builds a ParseError for the given tag and input.
func NewParseError(tag Tag, input string, cause error) *ParseError {
	return &ParseError{Tag: tag, Input: input, Err: cause}
}

// Converter is a pair of pure functions moving a value of type T to and from
// its text representation.
type Converter[T any] struct {
	// Parse converts text into a value. Failures should be *ParseError.
	Parse func(string) (T, error)
	// Format renders the canonical, unformatted text of a value. It never
	// fails; absent values render as "".
	Format func(T) string
	// FormatPattern renders a value using a caller supplied pattern through
	// the type's native formatting facility. Optional.
	FormatPattern func(value T, pattern string, loc language.Tag) string
	// Equal compares two values. Optional.
	Equal func(a, b T) bool
}

// Valid reports whether the mandatory functions are present.
func (c Converter[T]) Valid() bool {
	return c.Parse != nil && c.Format != nil
}

// FormatWith renders value using pattern when both a pattern and a pattern
// formatter are available, falling back to Format otherwise.
func (c Converter[T]) FormatWith(value T, pattern string, loc language.Tag) string {
	if pattern != "" && c.FormatPattern != nil {
		return c.FormatPattern(value, pattern, loc)
	}
	if c.Format == nil {
		return ""
	}
	return c.Format(value)
}

// Same reports value equality using Equal, an Equal method on T, or deep
// equality, in that order.
func (c Converter[T]) Same(a, b T) bool {
	if c.Equal != nil {
		return c.Equal(a, b)
	}
	if eq, ok := any(a).(interface{ Equal(T) bool }); ok {
		return eq.Equal(b)
	}
	return reflect.DeepEqual(a, b)
}

// Nullable lifts a converter to pointers: nil formats as "" and blank text
// parses to nil.
func Nullable[T any](inner Converter[T]) Converter[*T] {
	out := Converter[*T]{
		Parse: func(raw string) (*T, error) {
			if isBlank(raw) {
				return nil, nil
			}
			value, err := inner.Parse(raw)
			if err != nil {
				return nil, err
			}
			return &value, nil
		},
		Format: func(value *T) string {
			if value == nil {
				return ""
			}
			return inner.Format(*value)
		},
		Equal: func(a, b *T) bool {
			if a == nil || b == nil {
				return a == nil && b == nil
			}
			return inner.Same(*a, *b)
		},
	}
	if inner.FormatPattern != nil {
		out.FormatPattern = func(value *T, pattern string, loc language.Tag) string {
			if value == nil {
				return ""
			}
			return inner.FormatPattern(*value, pattern, loc)
		}
	}
	return out
}
