package fieldspec

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/goliatone/go-inputfield/pkg/convert"
	"github.com/goliatone/go-inputfield/pkg/field"
	"github.com/goliatone/go-inputfield/pkg/form"
	"github.com/woodsbury/decimal128"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// BuildFunc instantiates the field for one definition. registry is the
// registry the builder resolves converters from.
type BuildFunc func(spec FieldSpec, registry *convert.Registry, opts []field.Option) (field.Control, error)

// Typed returns a BuildFunc creating a Field[T] for tag. A non-empty Default
// is parsed with the field's converter; a default that does not parse is a
// configuration error.
func Typed[T any](tag convert.Tag) BuildFunc {
	return func(spec FieldSpec, registry *convert.Registry, opts []field.Option) (field.Control, error) {
		if raw := strings.TrimSpace(spec.Default); raw != "" {
			conv, err := convert.Lookup[T](registry, tag)
			if err != nil {
				return nil, err
			}
			value, err := conv.Parse(raw)
			if err != nil {
				return nil, fmt.Errorf("default %q: %w", raw, err)
			}
			opts = append(opts, field.WithValue(value))
		}
		f, err := field.New[T](tag, opts...)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
}

// Option configures a Builder.
type Option func(*Builder)

// WithRegistry resolves converters from registry. Defaults to
// convert.Default().
func WithRegistry(registry *convert.Registry) Option {
	return func(b *Builder) {
		if registry != nil {
			b.registry = registry
		}
	}
}

// WithLogger sets the logger handed to every built field.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithFieldOptions appends options applied to every built field after the
// ones derived from the definition.
func WithFieldOptions(opts ...field.Option) Option {
	return func(b *Builder) {
		b.fieldOptions = append(b.fieldOptions, opts...)
	}
}

// Builder maps type tags to field constructors.
type Builder struct {
	mu           sync.RWMutex
	builders     map[convert.Tag]BuildFunc
	registry     *convert.Registry
	logger       *zap.Logger
	fieldOptions []field.Option
}

// NewBuilder returns a builder knowing every built-in converter tag.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		builders: make(map[convert.Tag]BuildFunc),
		registry: convert.Default(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	b.registerBuiltins()
	return b
}

// Register adds a constructor for an application type tag.
func (b *Builder) Register(tag convert.Tag, fn BuildFunc) error {
	if strings.TrimSpace(tag.String()) == "" {
		return errors.New("fieldspec: type tag is required")
	}
	if fn == nil {
		return fmt.Errorf("fieldspec: builder for %q is nil", tag)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.builders[tag]; exists {
		return fmt.Errorf("fieldspec: builder for %q already registered", tag)
	}
	b.builders[tag] = fn
	return nil
}

// MustRegister is Register for init-time wiring.
func (b *Builder) MustRegister(tag convert.Tag, fn BuildFunc) {
	if err := b.Register(tag, fn); err != nil {
		panic(err)
	}
}

// Has reports whether tag can be built.
func (b *Builder) Has(tag convert.Tag) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.builders[tag]
	return ok
}

// Tags lists the buildable tags, sorted.
func (b *Builder) Tags() []convert.Tag {
	b.mu.RLock()
	defer b.mu.RUnlock()
	tags := make([]convert.Tag, 0, len(b.builders))
	for tag := range b.builders {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// Validate runs the structural checks and verifies every type tag is known.
func (b *Builder) Validate(spec FormSpec) error {
	errs := []error{spec.Validate()}
	for _, f := range spec.Fields {
		if f.Type != "" && !b.Has(convert.Tag(f.Type)) {
			errs = append(errs, fmt.Errorf("field %s: unknown type %q", f.Name, f.Type))
		}
	}
	return errors.Join(errs...)
}

// Build instantiates every field of spec in order, binding each to ctx when
// ctx is not nil. On error the fields built so far are closed.
func (b *Builder) Build(ctx *form.Context, spec FormSpec, extra ...field.Option) ([]field.Control, error) {
	if err := b.Validate(spec); err != nil {
		return nil, fmt.Errorf("fieldspec: form %q: %w", spec.Name, err)
	}

	controls := make([]field.Control, 0, len(spec.Fields))
	fail := func(err error) ([]field.Control, error) {
		for _, c := range controls {
			c.Close()
		}
		return nil, err
	}

	for _, fs := range spec.Fields {
		b.mu.RLock()
		fn := b.builders[convert.Tag(fs.Type)]
		b.mu.RUnlock()

		opts, err := b.optionsFor(ctx, fs)
		if err != nil {
			return fail(fmt.Errorf("fieldspec: field %s: %w", fs.Name, err))
		}
		opts = append(opts, extra...)

		control, err := fn(fs, b.registry, opts)
		if err != nil {
			return fail(fmt.Errorf("fieldspec: field %s: %w", fs.Name, err))
		}
		controls = append(controls, control)
		b.logger.Debug("field built", zap.String("form", spec.Name), zap.String("field", fs.Name), zap.String("type", fs.Type))
	}
	return controls, nil
}

// Build instantiates spec with a default builder.
func Build(ctx *form.Context, spec FormSpec, opts ...Option) ([]field.Control, error) {
	return NewBuilder(opts...).Build(ctx, spec)
}

func (b *Builder) optionsFor(ctx *form.Context, fs FieldSpec) ([]field.Option, error) {
	timing, err := field.ParseTiming(fs.Timing)
	if err != nil {
		return nil, err
	}
	rules, err := fs.rules()
	if err != nil {
		return nil, err
	}

	opts := []field.Option{
		field.WithRegistry(b.registry),
		field.WithLogger(b.logger.With(zap.String("field", fs.Name))),
		field.WithLabel(fs.DisplayLabel()),
		field.WithFormat(fs.Format),
		field.WithTiming(timing),
		field.WithPattern(fs.Pattern),
		field.WithRules(rules),
		field.WithRequired(fs.Required),
		field.WithDisabled(fs.Disabled),
		field.WithReadOnly(fs.ReadOnly),
	}
	if fs.DebounceMS > 0 {
		opts = append(opts, field.WithDebounceInterval(time.Duration(fs.DebounceMS)*time.Millisecond))
	}
	if locale := strings.TrimSpace(fs.Locale); locale != "" {
		tag, err := language.Parse(locale)
		if err != nil {
			return nil, err
		}
		opts = append(opts, field.WithLocale(tag))
	}
	if ctx != nil {
		opts = append(opts, field.WithBinding(ctx, fs.BindingExpr()))
	}
	opts = append(opts, b.fieldOptions...)
	return opts, nil
}

func (b *Builder) registerBuiltins() {
	builtins := map[convert.Tag]BuildFunc{
		convert.TagString:    Typed[string](convert.TagString),
		convert.TagInt:       Typed[int](convert.TagInt),
		convert.TagInt32:     Typed[int32](convert.TagInt32),
		convert.TagInt64:     Typed[int64](convert.TagInt64),
		convert.TagUint:      Typed[uint](convert.TagUint),
		convert.TagUint64:    Typed[uint64](convert.TagUint64),
		convert.TagFloat32:   Typed[float32](convert.TagFloat32),
		convert.TagFloat64:   Typed[float64](convert.TagFloat64),
		convert.TagDecimal:   Typed[decimal128.Decimal](convert.TagDecimal),
		convert.TagBool:      Typed[bool](convert.TagBool),
		convert.TagDateTime:  Typed[time.Time](convert.TagDateTime),
		convert.TagDate:      Typed[time.Time](convert.TagDate),
		convert.TagTimeOfDay: Typed[time.Time](convert.TagTimeOfDay),
		convert.TagDuration:  Typed[time.Duration](convert.TagDuration),
		convert.TagUUID:      Typed[uuid.UUID](convert.TagUUID),

		convert.TagNullableInt:      Typed[*int](convert.TagNullableInt),
		convert.TagNullableInt64:    Typed[*int64](convert.TagNullableInt64),
		convert.TagNullableFloat64:  Typed[*float64](convert.TagNullableFloat64),
		convert.TagNullableDecimal:  Typed[*decimal128.Decimal](convert.TagNullableDecimal),
		convert.TagNullableBool:     Typed[*bool](convert.TagNullableBool),
		convert.TagNullableDateTime: Typed[*time.Time](convert.TagNullableDateTime),
		convert.TagNullableDate:     Typed[*time.Time](convert.TagNullableDate),
		convert.TagNullableUUID:     Typed[*uuid.UUID](convert.TagNullableUUID),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for tag, fn := range builtins {
		if _, exists := b.builders[tag]; !exists {
			b.builders[tag] = fn
		}
	}
}
