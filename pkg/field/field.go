// Package field implements the typed input state machine: a field holds a
// committed value of type T, the raw text being typed and an error kind, and
// moves between display, editing and errored editing in response to focus,
// keystroke and blur events.
package field

import (
	"errors"
	"strings"
	"sync"

	"github.com/goliatone/go-inputfield/internal/debounce"
	"github.com/goliatone/go-inputfield/pkg/convert"
	"github.com/goliatone/go-inputfield/pkg/validation"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// ParseErrorEvent is delivered to OnParseError handlers when a commit fails.
type ParseErrorEvent struct {
	Raw     string
	TypeTag convert.Tag
	Kind    validation.ErrorKind
	Err     error
}

// Field is a typed input. It is safe for concurrent use; handlers are
// invoked without internal locks held, one at a time, in the order the state
// changes that raised them occurred.
type Field[T any] struct {
	mu sync.Mutex

	tag      convert.Tag
	conv     convert.Converter[T]
	pipeline *validation.Pipeline[T]
	format   string
	locale   language.Tag
	timing   Timing
	debounce *debounce.Debouncer
	logger   *zap.Logger

	disabled bool
	readOnly bool
	required bool
	label    string

	value      T
	propagated T
	// hasValue is set once a value was supplied or committed; only then is
	// it seeded into a newly bound context.
	hasValue bool
	raw        string
	editing    bool
	errKind    validation.ErrorKind
	lastErr    error
	closed     bool

	// seq issues debounce tokens; pending is the token of the armed one.
	seq     uint64
	pending uint64

	binding binding

	onValueChanged    func(T)
	onParseError      func(ParseErrorEvent)
	onErrorCleared    func()
	onValidationState func(bool)

	queue    []func()
	draining bool
}

// New builds a field for the converter registered under tag. A missing
// converter, a converter of the wrong type, an invalid pattern or an option
// for a different field type are configuration errors.
func New[T any](tag convert.Tag, options ...Option) (*Field[T], error) {
	typed := &typedConfig[T]{}
	cfg := &config{
		registry: convert.Default(),
		locale:   language.Und,
		interval: DefaultDebounceInterval,
		logger:   zap.NewNop(),
		typed:    typed,
	}
	for _, opt := range options {
		if opt != nil {
			opt.apply(cfg)
		}
	}
	if len(cfg.errs) > 0 {
		return nil, errors.Join(cfg.errs...)
	}

	conv, err := convert.Resolve(typed.converter, cfg.registry, tag)
	if err != nil {
		return nil, err
	}

	pipelineOpts := []validation.Option[T]{validation.WithRules[T](cfg.rules)}
	if strings.TrimSpace(cfg.pattern) != "" {
		pipelineOpts = append(pipelineOpts, validation.WithPattern[T](cfg.pattern))
	}
	if typed.predicate != nil {
		pipelineOpts = append(pipelineOpts, validation.WithPredicate(typed.predicate))
	}
	pipeline, err := validation.NewPipeline(conv, pipelineOpts...)
	if err != nil {
		return nil, err
	}

	f := &Field[T]{
		tag:               tag,
		conv:              conv,
		pipeline:          pipeline,
		format:            cfg.format,
		locale:            cfg.locale,
		timing:            cfg.timing,
		debounce:          debounce.New(cfg.interval, cfg.scheduler),
		logger:            cfg.logger.With(zap.String("type", tag.String())),
		disabled:          cfg.disabled,
		readOnly:          cfg.readOnly,
		required:          cfg.required,
		label:             cfg.label,
		value:             typed.value,
		propagated:        typed.value,
		hasValue:          typed.hasValue,
		onValueChanged:    typed.onValueChanged,
		onParseError:      cfg.onParseError,
		onErrorCleared:    cfg.onErrorCleared,
		onValidationState: cfg.onValidationState,
	}
	f.raw = f.displayLocked()

	if cfg.ctx != nil {
		if err := f.Bind(cfg.ctx, cfg.binding); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// MustNew is New for wiring known to be valid.
func MustNew[T any](tag convert.Tag, options ...Option) *Field[T] {
	f, err := New[T](tag, options...)
	if err != nil {
		panic(err)
	}
	return f
}

// Value returns the committed value.
func (f *Field[T]) Value() T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

// ValueAny returns the committed value as an interface.
func (f *Field[T]) ValueAny() any {
	return f.Value()
}

// Text returns the text currently shown: the formatted committed value in
// display state, the typed or retained text otherwise.
func (f *Field[T]) Text() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.raw
}

// EditText returns the text focusing the field would show.
func (f *Field[T]) EditText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.editing || f.errKind != validation.ErrorNone {
		return f.raw
	}
	return f.conv.Format(f.value)
}

// State reports the current phase.
func (f *Field[T]) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stateLocked()
}

// IsEditing reports whether the field has focus.
func (f *Field[T]) IsEditing() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.editing
}

// HasError reports whether the last commit attempt failed.
func (f *Field[T]) HasError() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errKind != validation.ErrorNone
}

// ErrorKind returns the kind of the current local error.
func (f *Field[T]) ErrorKind() validation.ErrorKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errKind
}

// LastError returns the cause of the current local error, or nil.
func (f *Field[T]) LastError() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// TypeTag returns the converter tag the field was built for.
func (f *Field[T]) TypeTag() convert.Tag {
	return f.tag
}

// Timing returns the update timing policy.
func (f *Field[T]) Timing() Timing {
	return f.timing
}

// Required reports the required flag.
func (f *Field[T]) Required() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.required
}

// Disabled reports whether user input is ignored.
func (f *Field[T]) Disabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disabled
}

// ReadOnly reports the read-only flag.
func (f *Field[T]) ReadOnly() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readOnly
}

// Label returns the configured label.
func (f *Field[T]) Label() string {
	return f.label
}

// SetDisabled toggles the disabled flag.
func (f *Field[T]) SetDisabled(disabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disabled = disabled
}

// SetReadOnly toggles the read-only flag.
func (f *Field[T]) SetReadOnly(readOnly bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readOnly = readOnly
}

func (f *Field[T]) stateLocked() State {
	switch {
	case f.errKind != validation.ErrorNone:
		return StateEditingWithError
	case f.editing:
		return StateEditing
	default:
		return StateDisplay
	}
}

func (f *Field[T]) displayLocked() string {
	return f.conv.FormatWith(f.value, f.format, f.locale)
}

func (f *Field[T]) acceptsInputLocked() bool {
	return !f.closed && !f.disabled && !f.readOnly
}
