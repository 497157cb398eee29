package fieldspec

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/goliatone/go-inputfield/pkg/field"
	"github.com/goliatone/go-inputfield/pkg/form"
	"github.com/goliatone/go-inputfield/pkg/validation"
	"golang.org/x/text/language"
)

// Validate checks the definition for structural errors: missing or
// duplicate names, unknown timings, invalid patterns, rules and locales.
// Type tags are checked by the Builder that instantiates the fields.
func (s FormSpec) Validate() error {
	var errs []error
	if s.Name == "" {
		errs = append(errs, errors.New("form name is required"))
	}
	if len(s.Fields) == 0 {
		errs = append(errs, errors.New("form defines no fields"))
	}

	names := make(map[string]struct{}, len(s.Fields))
	bindings := make(map[form.FieldID]string, len(s.Fields))
	for idx, f := range s.Fields {
		label := f.Name
		if label == "" {
			label = fmt.Sprintf("#%d", idx)
		}
		for _, err := range f.validate() {
			errs = append(errs, fmt.Errorf("field %s: %w", label, err))
		}
		if f.Name == "" {
			continue
		}
		if _, dup := names[f.Name]; dup {
			errs = append(errs, fmt.Errorf("field %s: duplicate name", label))
		}
		names[f.Name] = struct{}{}

		if id, err := form.ParseFieldID(f.BindingExpr()); err == nil {
			if other, dup := bindings[id]; dup {
				errs = append(errs, fmt.Errorf("field %s: binding %q already used by %s", label, id, other))
			}
			bindings[id] = f.Name
		}
	}
	return errors.Join(errs...)
}

func (f FieldSpec) validate() []error {
	var errs []error
	if f.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if f.Type == "" {
		errs = append(errs, errors.New("type is required"))
	}
	if _, err := form.ParseFieldID(f.BindingExpr()); err != nil && f.Name != "" {
		errs = append(errs, err)
	}
	if _, err := field.ParseTiming(f.Timing); err != nil {
		errs = append(errs, err)
	}
	if f.DebounceMS < 0 {
		errs = append(errs, fmt.Errorf("debounceMs must not be negative, got %d", f.DebounceMS))
	}
	if pattern := strings.TrimSpace(f.Pattern); pattern != "" {
		if _, err := regexp.Compile(pattern); err != nil {
			errs = append(errs, fmt.Errorf("invalid pattern %q: %w", pattern, err))
		}
	}
	if locale := strings.TrimSpace(f.Locale); locale != "" {
		if _, err := language.Parse(locale); err != nil {
			errs = append(errs, fmt.Errorf("invalid locale %q: %w", locale, err))
		}
	}
	if _, err := f.rules(); err != nil {
		errs = append(errs, err)
	}
	return errs
}

// rules compiles the declarative rules map. Keys are applied in sorted order
// so errors are stable.
func (f FieldSpec) rules() (validation.Rules, error) {
	var rules validation.Rules
	if len(f.Rules) == 0 {
		return rules, nil
	}
	keys := make([]string, 0, len(f.Rules))
	for key := range f.Rules {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := rules.ParseRule(key, f.Rules[key]); err != nil {
			return validation.Rules{}, err
		}
	}
	return rules, nil
}
