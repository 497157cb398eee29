package convert

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Tag identifies a converter in a Registry. Tags double as the type name
// reported in parse error events.
type Tag string

func (t Tag) String() string {
	return string(t)
}

var (
	// ErrNoConverter means no converter was supplied or registered for a tag.
	ErrNoConverter = errors.New("convert: no converter registered")
	// ErrTypeMismatch means the converter registered under a tag targets a
	// different Go type than the one requested.
	ErrTypeMismatch = errors.New("convert: converter type mismatch")
)

// Registry maps type tags to converters. Application registrations take
// precedence over the built-in defaults registered at construction.
type Registry struct {
	mu       sync.RWMutex
	custom   map[Tag]any
	builtins map[Tag]any
}

// NewRegistry creates a registry with the built-in converters registered.
func NewRegistry() *Registry {
	reg := &Registry{
		custom:   make(map[Tag]any),
		builtins: make(map[Tag]any),
	}
	reg.registerBuiltins()
	return reg
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry. Applications populate it at
// startup; fields fall back to it when no registry option is given.
func Default() *Registry {
	return defaultRegistry
}

// Register adds an application converter. Registering the same tag twice
// returns an error; shadowing a built-in tag is allowed.
func Register[T any](r *Registry, tag Tag, conv Converter[T]) error {
	if r == nil {
		return errors.New("convert: registry is nil")
	}
	tag = Tag(strings.TrimSpace(string(tag)))
	if tag == "" {
		return errors.New("convert: tag is required")
	}
	if !conv.Valid() {
		return fmt.Errorf("convert: converter for %q requires Parse and Format", tag)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.custom[tag]; exists {
		return fmt.Errorf("convert: converter %q already registered", tag)
	}
	r.custom[tag] = conv
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func MustRegister[T any](r *Registry, tag Tag, conv Converter[T]) {
	if err := Register(r, tag, conv); err != nil {
		panic(err)
	}
}

// Lookup returns the converter for tag, preferring application registrations
// over built-ins.
func Lookup[T any](r *Registry, tag Tag) (Converter[T], error) {
	if r == nil {
		return Converter[T]{}, fmt.Errorf("%w for %q: registry is nil", ErrNoConverter, tag)
	}
	entry, ok := r.entry(tag)
	if !ok {
		return Converter[T]{}, fmt.Errorf("%w for %q", ErrNoConverter, tag)
	}
	conv, ok := entry.(Converter[T])
	if !ok {
		var zero T
		return Converter[T]{}, fmt.Errorf("%w: %q does not convert %T", ErrTypeMismatch, tag, zero)
	}
	return conv, nil
}

// Resolve applies the three-tier resolution order: an explicit override,
// then the registry (application registrations before built-ins).
func Resolve[T any](override *Converter[T], r *Registry, tag Tag) (Converter[T], error) {
	if override != nil {
		if !override.Valid() {
			return Converter[T]{}, fmt.Errorf("convert: override for %q requires Parse and Format", tag)
		}
		return *override, nil
	}
	if r == nil {
		r = Default()
	}
	return Lookup[T](r, tag)
}

// Has reports whether a converter is available for tag.
func (r *Registry) Has(tag Tag) bool {
	_, ok := r.entry(tag)
	return ok
}

// List returns every available tag, sorted.
func (r *Registry) List() []Tag {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[Tag]struct{}, len(r.custom)+len(r.builtins))
	for tag := range r.builtins {
		seen[tag] = struct{}{}
	}
	for tag := range r.custom {
		seen[tag] = struct{}{}
	}
	tags := make([]Tag, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

func (r *Registry) entry(tag Tag) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if entry, ok := r.custom[tag]; ok {
		return entry, true
	}
	entry, ok := r.builtins[tag]
	return entry, ok
}

func registerBuiltin[T any](r *Registry, tag Tag, conv Converter[T]) {
	r.builtins[tag] = conv
}
