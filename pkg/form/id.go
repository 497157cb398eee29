package form

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxIndex is the largest list index a field identifier may address.
const MaxIndex = 9999

// FieldID identifies a field inside a Context. It is the dotted form of the
// binding expression the field was bound with ("address.zip", "items.0.sku").
type FieldID string

func (id FieldID) String() string {
	return string(id)
}

// Segments splits the identifier on dots.
func (id FieldID) Segments() []string {
	if id == "" {
		return nil
	}
	return strings.Split(string(id), ".")
}

var errEmptyExpression = errors.New("form: binding expression is empty")

// ParseFieldID derives a stable identifier from a binding expression.
// Dotted paths, bracket indexes ("items[0].sku"), JSON pointers
// ("/address/zip", "#/properties/address/properties/zip") and JSONPath-ish
// prefixes ("$.address.zip") all normalise to the same dotted form.
func ParseFieldID(expr string) (FieldID, error) {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return "", errEmptyExpression
	}
	var segments []string
	if strings.HasPrefix(trimmed, "#/") {
		segments = pointerSegments(trimmed)
	} else {
		segments = parsePathSegments(trimmed)
	}
	if len(segments) == 0 {
		return "", errEmptyExpression
	}
	for _, segment := range segments {
		if isDigits(segment) {
			if idx, err := strconv.Atoi(segment); err != nil || idx > MaxIndex {
				return "", fmt.Errorf("form: index %s in %q exceeds %d", segment, expr, MaxIndex)
			}
		}
	}
	return FieldID(strings.Join(segments, ".")), nil
}

// MustFieldID is ParseFieldID for expressions known to be valid.
func MustFieldID(expr string) FieldID {
	id, err := ParseFieldID(expr)
	if err != nil {
		panic(err)
	}
	return id
}

func parsePathSegments(path string) []string {
	if path == "" {
		return nil
	}

	clean := strings.TrimSpace(path)
	clean = strings.TrimPrefix(clean, "#/")
	clean = strings.TrimPrefix(clean, "$/")
	clean = strings.TrimPrefix(clean, "$.")
	for strings.HasPrefix(clean, "#") || strings.HasPrefix(clean, "/") || strings.HasPrefix(clean, ".") || strings.HasPrefix(clean, "$") {
		clean = strings.TrimPrefix(clean, "#")
		clean = strings.TrimPrefix(clean, "/")
		clean = strings.TrimPrefix(clean, ".")
		clean = strings.TrimPrefix(clean, "$")
	}

	replacer := strings.NewReplacer("[", ".", "]", "", "//", "/")
	clean = replacer.Replace(clean)
	clean = strings.Trim(clean, "./")
	if clean == "" {
		return nil
	}

	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})

	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		segment = unescapePointer(segment)
		out = append(out, segment)
	}
	return out
}

// pointerSegments reads schema-style pointers, keeping property names and
// dropping the keywords between them.
func pointerSegments(pointer string) []string {
	trimmed := strings.TrimPrefix(strings.TrimSpace(pointer), "#")
	trimmed = strings.TrimPrefix(trimmed, "/")
	if trimmed == "" {
		return nil
	}

	parts := strings.Split(trimmed, "/")
	out := make([]string, 0, len(parts))
	for idx := 0; idx < len(parts); idx++ {
		segment := unescapePointer(parts[idx])
		switch segment {
		case "properties":
			if idx+1 < len(parts) {
				out = append(out, unescapePointer(parts[idx+1]))
				idx++
			}
		case "items":
			continue
		case "":
			continue
		default:
			out = append(out, segment)
		}
	}
	return out
}

func unescapePointer(segment string) string {
	segment = strings.ReplaceAll(segment, "~1", "/")
	return strings.ReplaceAll(segment, "~0", "~")
}

func isDigits(segment string) bool {
	if segment == "" {
		return false
	}
	for _, r := range segment {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
