package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/goliatone/go-inputfield/pkg/convert"
)

// Predicate accepts or rejects a parsed value.
type Predicate[T any] func(T) bool

// Pipeline runs the pattern, parse and value stages over raw text.
type Pipeline[T any] struct {
	conv      convert.Converter[T]
	pattern   *regexp.Regexp
	predicate Predicate[T]
	rules     Rules
}

// Option configures a Pipeline.
type Option[T any] func(*pipelineConfig[T])

type pipelineConfig[T any] struct {
	pattern   string
	compiled  *regexp.Regexp
	predicate Predicate[T]
	rules     Rules
}

// WithPattern sets the pre-parse regular expression. It is compiled by
// NewPipeline; an invalid expression fails construction.
func WithPattern[T any](expr string) Option[T] {
	return func(cfg *pipelineConfig[T]) {
		cfg.pattern = expr
	}
}

// WithRegexp sets an already compiled pre-parse pattern.
func WithRegexp[T any](re *regexp.Regexp) Option[T] {
	return func(cfg *pipelineConfig[T]) {
		cfg.compiled = re
	}
}

// WithPredicate sets the post-parse value check.
func WithPredicate[T any](fn func(T) bool) Option[T] {
	return func(cfg *pipelineConfig[T]) {
		cfg.predicate = fn
	}
}

// WithRules adds declarative value constraints evaluated after the predicate.
func WithRules[T any](rules Rules) Option[T] {
	return func(cfg *pipelineConfig[T]) {
		cfg.rules = rules
	}
}

// NewPipeline builds a pipeline around a resolved converter.
func NewPipeline[T any](conv convert.Converter[T], options ...Option[T]) (*Pipeline[T], error) {
	if !conv.Valid() {
		return nil, errors.New("validation: converter requires Parse and Format")
	}
	cfg := pipelineConfig[T]{}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	p := &Pipeline[T]{
		conv:      conv,
		pattern:   cfg.compiled,
		predicate: cfg.predicate,
		rules:     cfg.rules,
	}
	if expr := strings.TrimSpace(cfg.pattern); expr != "" {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("validation: invalid pattern %q: %w", expr, err)
		}
		p.pattern = re
	}
	return p, nil
}

// Converter returns the converter the pipeline parses with.
func (p *Pipeline[T]) Converter() convert.Converter[T] {
	return p.conv
}

// Pattern returns the compiled pattern, or nil.
func (p *Pipeline[T]) Pattern() *regexp.Regexp {
	return p.pattern
}

// Run validates raw text. Blank text always yields Ok with the zero value,
// bypassing pattern, predicate and rules.
func (p *Pipeline[T]) Run(raw string) Outcome[T] {
	if strings.TrimSpace(raw) == "" {
		var zero T
		return Ok(raw, zero)
	}

	if p.pattern != nil && !p.pattern.MatchString(raw) {
		return PatternRejected[T](raw)
	}

	value, err := p.conv.Parse(raw)
	if err != nil {
		return ParseFailed[T](raw, err)
	}

	if p.predicate != nil && !p.predicate(value) {
		return ValueRejected(raw, value, nil)
	}
	if !p.rules.Empty() {
		if err := p.rules.check(raw, value); err != nil {
			return ValueRejected(raw, value, err)
		}
	}
	return Ok(raw, value)
}
