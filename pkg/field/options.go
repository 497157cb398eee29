package field

import (
	"fmt"
	"time"

	"github.com/goliatone/go-inputfield/internal/debounce"
	"github.com/goliatone/go-inputfield/pkg/convert"
	"github.com/goliatone/go-inputfield/pkg/form"
	"github.com/goliatone/go-inputfield/pkg/validation"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// DefaultDebounceInterval is the quiet period used by TimingDebounced when no
// interval is configured.
const DefaultDebounceInterval = 300 * time.Millisecond

// Scheduler arms the debounce timer. Tests substitute a manual clock.
type Scheduler = debounce.Scheduler

// Timer is the cancel handle returned by a Scheduler.
type Timer = debounce.Timer

// Option configures a Field. Options that carry a value of the field type
// are checked against it when the field is built.
type Option interface {
	apply(*config)
}

type optionFunc func(*config)

func (fn optionFunc) apply(cfg *config) {
	fn(cfg)
}

// typedOption only applies to fields of type T.
type typedOption[T any] struct {
	name string
	fn   func(*typedConfig[T])
}

func (o typedOption[T]) apply(cfg *config) {
	typed, ok := cfg.typed.(*typedConfig[T])
	if !ok {
		var zero T
		cfg.errs = append(cfg.errs, fmt.Errorf("field: option %s expects a %T field", o.name, zero))
		return
	}
	o.fn(typed)
}

type config struct {
	registry  *convert.Registry
	format    string
	locale    language.Tag
	timing    Timing
	interval  time.Duration
	pattern   string
	rules     validation.Rules
	disabled  bool
	readOnly  bool
	required  bool
	label     string
	ctx       *form.Context
	binding   string
	scheduler Scheduler
	logger    *zap.Logger

	onParseError      func(ParseErrorEvent)
	onErrorCleared    func()
	onValidationState func(invalid bool)

	typed any
	errs  []error
}

type typedConfig[T any] struct {
	value          T
	hasValue       bool
	converter      *convert.Converter[T]
	predicate      func(T) bool
	onValueChanged func(T)
}

// WithValue sets the initial committed value.
func WithValue[T any](value T) Option {
	return typedOption[T]{name: "WithValue", fn: func(cfg *typedConfig[T]) {
		cfg.value = value
		cfg.hasValue = true
	}}
}

// WithConverter overrides registry resolution for this field.
func WithConverter[T any](conv convert.Converter[T]) Option {
	return typedOption[T]{name: "WithConverter", fn: func(cfg *typedConfig[T]) {
		cfg.converter = &conv
	}}
}

// WithPredicate sets the post-parse value check.
func WithPredicate[T any](fn func(T) bool) Option {
	return typedOption[T]{name: "WithPredicate", fn: func(cfg *typedConfig[T]) {
		cfg.predicate = fn
	}}
}

// OnValueChanged registers the handler receiving every propagated commit.
func OnValueChanged[T any](fn func(T)) Option {
	return typedOption[T]{name: "OnValueChanged", fn: func(cfg *typedConfig[T]) {
		cfg.onValueChanged = fn
	}}
}

// WithRegistry resolves the converter from registry instead of
// convert.Default().
func WithRegistry(registry *convert.Registry) Option {
	return optionFunc(func(cfg *config) {
		if registry != nil {
			cfg.registry = registry
		}
	})
}

// WithFormat sets the display pattern applied outside editing.
func WithFormat(pattern string) Option {
	return optionFunc(func(cfg *config) {
		cfg.format = pattern
	})
}

// WithLocale sets the locale used by pattern formatting.
func WithLocale(tag language.Tag) Option {
	return optionFunc(func(cfg *config) {
		cfg.locale = tag
	})
}

// WithTiming sets the update timing policy.
func WithTiming(timing Timing) Option {
	return optionFunc(func(cfg *config) {
		cfg.timing = timing
	})
}

// WithDebounceInterval sets the quiet period for TimingDebounced.
func WithDebounceInterval(interval time.Duration) Option {
	return optionFunc(func(cfg *config) {
		if interval > 0 {
			cfg.interval = interval
		}
	})
}

// WithPattern sets the pre-parse regular expression.
func WithPattern(expr string) Option {
	return optionFunc(func(cfg *config) {
		cfg.pattern = expr
	})
}

// WithRules adds declarative value constraints.
func WithRules(rules validation.Rules) Option {
	return optionFunc(func(cfg *config) {
		cfg.rules = rules
	})
}

// WithDisabled marks the field disabled.
func WithDisabled(disabled bool) Option {
	return optionFunc(func(cfg *config) {
		cfg.disabled = disabled
	})
}

// WithReadOnly marks the field read-only.
func WithReadOnly(readOnly bool) Option {
	return optionFunc(func(cfg *config) {
		cfg.readOnly = readOnly
	})
}

// WithRequired marks the field required. Required is enforced by the bound
// form context; clearing a field is always accepted locally.
func WithRequired(required bool) Option {
	return optionFunc(func(cfg *config) {
		cfg.required = required
	})
}

// WithLabel sets the human readable name reported to the form context.
func WithLabel(label string) Option {
	return optionFunc(func(cfg *config) {
		cfg.label = label
	})
}

// WithBinding binds the field to ctx under the identifier derived from expr.
func WithBinding(ctx *form.Context, expr string) Option {
	return optionFunc(func(cfg *config) {
		cfg.ctx = ctx
		cfg.binding = expr
	})
}

// WithScheduler replaces the clock used for debouncing.
func WithScheduler(scheduler Scheduler) Option {
	return optionFunc(func(cfg *config) {
		if scheduler != nil {
			cfg.scheduler = scheduler
		}
	})
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return optionFunc(func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	})
}

// OnParseError registers the handler invoked when a blur commit fails.
func OnParseError(fn func(ParseErrorEvent)) Option {
	return optionFunc(func(cfg *config) {
		cfg.onParseError = fn
	})
}

// OnErrorCleared registers the handler invoked when an error state is left.
func OnErrorCleared(fn func()) Option {
	return optionFunc(func(cfg *config) {
		cfg.onErrorCleared = fn
	})
}

// OnValidationStateChanged registers the handler invoked whenever the
// aggregate invalid flag may have changed.
func OnValidationStateChanged(fn func(invalid bool)) Option {
	return optionFunc(func(cfg *config) {
		cfg.onValidationState = fn
	})
}
