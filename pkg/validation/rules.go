package validation

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/woodsbury/decimal128"
)

// Rule kinds understood by ParseRule and configuration files.
const (
	RuleMin       = "min"
	RuleMax       = "max"
	RuleMinLength = "minLength"
	RuleMaxLength = "maxLength"

	RuleExclusiveMin = "exclusiveMin"
	RuleExclusiveMax = "exclusiveMax"
)

// Rules are declarative value constraints evaluated after a successful
// parse. Numeric bounds apply to numeric values only; length bounds count
// runes in the trimmed raw text.
type Rules struct {
	Min          *float64
	Max          *float64
	ExclusiveMin bool
	ExclusiveMax bool
	MinLength    *int
	MaxLength    *int
}

// Empty reports whether no constraint is set.
func (r Rules) Empty() bool {
	return r.Min == nil && r.Max == nil && r.MinLength == nil && r.MaxLength == nil
}

// ParseRule applies a single kind/value pair, as found in configuration
// files, onto r.
func (r *Rules) ParseRule(kind, value string) error {
	value = strings.TrimSpace(value)
	switch kind {
	case RuleMin, RuleMax:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("validation: rule %s: %w", kind, err)
		}
		if kind == RuleMin {
			r.Min = &f
		} else {
			r.Max = &f
		}
	case RuleExclusiveMin, RuleExclusiveMax:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("validation: rule %s: %w", kind, err)
		}
		if kind == RuleExclusiveMin {
			r.ExclusiveMin = b
		} else {
			r.ExclusiveMax = b
		}
	case RuleMinLength, RuleMaxLength:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("validation: rule %s requires a non-negative integer, got %q", kind, value)
		}
		if kind == RuleMinLength {
			r.MinLength = &n
		} else {
			r.MaxLength = &n
		}
	default:
		return fmt.Errorf("validation: unknown rule %q", kind)
	}
	return nil
}

func (r Rules) check(raw string, value any) error {
	if r.MinLength != nil || r.MaxLength != nil {
		length := utf8.RuneCountInString(strings.TrimSpace(raw))
		if r.MinLength != nil && length < *r.MinLength {
			return fmt.Errorf("%w: min length %d", ErrValueRejected, *r.MinLength)
		}
		if r.MaxLength != nil && length > *r.MaxLength {
			return fmt.Errorf("%w: max length %d", ErrValueRejected, *r.MaxLength)
		}
	}
	if r.Min == nil && r.Max == nil {
		return nil
	}
	n, ok := numericValue(value)
	if !ok {
		return nil
	}
	if r.Min != nil {
		if n < *r.Min || (r.ExclusiveMin && n == *r.Min) {
			return fmt.Errorf("%w: min %v", ErrValueRejected, *r.Min)
		}
	}
	if r.Max != nil {
		if n > *r.Max || (r.ExclusiveMax && n == *r.Max) {
			return fmt.Errorf("%w: max %v", ErrValueRejected, *r.Max)
		}
	}
	return nil
}

func numericValue(value any) (float64, bool) {
	switch n := value.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case decimal128.Decimal:
		return n.Float64(), true
	case *int:
		if n != nil {
			return float64(*n), true
		}
	case *int64:
		if n != nil {
			return float64(*n), true
		}
	case *float64:
		if n != nil {
			return *n, true
		}
	case *decimal128.Decimal:
		if n != nil {
			return n.Float64(), true
		}
	}
	return 0, false
}
