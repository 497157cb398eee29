// Package validation gates raw text and parsed values before they reach a
// field's committed state.
package validation

import "errors"

// ErrorKind identifies which stage rejected an input.
type ErrorKind int

const (
	// ErrorNone means the input is valid.
	ErrorNone ErrorKind = iota
	// ErrorParse means the text could not be converted to the target type.
	ErrorParse
	// ErrorPatternValidation means the text failed the pre-parse pattern.
	ErrorPatternValidation
	// ErrorValueValidation means the parsed value failed the predicate.
	ErrorValueValidation
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorNone:
		return "none"
	case ErrorParse:
		return "parse"
	case ErrorPatternValidation:
		return "pattern"
	case ErrorValueValidation:
		return "value"
	default:
		return "unknown"
	}
}

var (
	// ErrPatternRejected is the cause attached to pattern failures.
	ErrPatternRejected = errors.New("validation: input does not match pattern")
	// ErrValueRejected is the cause attached to predicate failures.
	ErrValueRejected = errors.New("validation: value rejected")
)

// OutcomeKind discriminates Outcome.
type OutcomeKind int

const (
	OutcomeOK OutcomeKind = iota
	OutcomePatternRejected
	OutcomeParseFailed
	OutcomeValueRejected
)

// Outcome is the result of running a Pipeline over raw text. Value is set for
// OutcomeOK and OutcomeValueRejected; Err carries the diagnostic cause for
// every failure.
type Outcome[T any] struct {
	Kind  OutcomeKind
	Raw   string
	Value T
	Err   error
}

// OK reports whether the outcome accepted the input.
func (o Outcome[T]) OK() bool {
	return o.Kind == OutcomeOK
}

// ErrorKind maps the outcome onto the field error taxonomy.
func (o Outcome[T]) ErrorKind() ErrorKind {
	switch o.Kind {
	case OutcomePatternRejected:
		return ErrorPatternValidation
	case OutcomeParseFailed:
		return ErrorParse
	case OutcomeValueRejected:
		return ErrorValueValidation
	default:
		return ErrorNone
	}
}

// Ok builds an accepting outcome.
func Ok[T any](raw string, value T) Outcome[T] {
	return Outcome[T]{Kind: OutcomeOK, Raw: raw, Value: value}
}

// PatternRejected builds a pattern failure outcome.
func PatternRejected[T any](raw string) Outcome[T] {
	return Outcome[T]{Kind: OutcomePatternRejected, Raw: raw, Err: ErrPatternRejected}
}

// ParseFailed builds a conversion failure outcome.
func ParseFailed[T any](raw string, cause error) Outcome[T] {
	return Outcome[T]{Kind: OutcomeParseFailed, Raw: raw, Err: cause}
}

// ValueRejected builds a predicate failure outcome.
func ValueRejected[T any](raw string, value T, cause error) Outcome[T] {
	if cause == nil {
		cause = ErrValueRejected
	}
	return Outcome[T]{Kind: OutcomeValueRejected, Raw: raw, Value: value, Err: cause}
}
