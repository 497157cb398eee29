// Package fieldspec loads declarative form definitions and builds typed
// fields from them.
package fieldspec

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// FormSpec describes a form: an ordered list of fields.
type FormSpec struct {
	Name   string      `json:"name" yaml:"name"`
	Title  string      `json:"title,omitempty" yaml:"title,omitempty"`
	Fields []FieldSpec `json:"fields" yaml:"fields"`
}

// FieldSpec describes one field.
type FieldSpec struct {
	Name       string            `json:"name" yaml:"name"`
	Label      string            `json:"label,omitempty" yaml:"label,omitempty"`
	Binding    string            `json:"binding,omitempty" yaml:"binding,omitempty"`
	Type       string            `json:"type" yaml:"type"`
	Format     string            `json:"format,omitempty" yaml:"format,omitempty"`
	Locale     string            `json:"locale,omitempty" yaml:"locale,omitempty"`
	Timing     string            `json:"timing,omitempty" yaml:"timing,omitempty"`
	DebounceMS int               `json:"debounceMs,omitempty" yaml:"debounceMs,omitempty"`
	Pattern    string            `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Required   bool              `json:"required,omitempty" yaml:"required,omitempty"`
	Disabled   bool              `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	ReadOnly   bool              `json:"readOnly,omitempty" yaml:"readOnly,omitempty"`
	Rules      map[string]string `json:"rules,omitempty" yaml:"rules,omitempty"`
	Default    string            `json:"default,omitempty" yaml:"default,omitempty"`
}

// BindingExpr returns the binding expression, defaulting to the name.
func (f FieldSpec) BindingExpr() string {
	if expr := strings.TrimSpace(f.Binding); expr != "" {
		return expr
	}
	return f.Name
}

// DisplayLabel returns the label, defaulting to the name.
func (f FieldSpec) DisplayLabel() string {
	if label := strings.TrimSpace(f.Label); label != "" {
		return label
	}
	return f.Name
}

// Field returns the field with the given name.
func (s FormSpec) Field(name string) (FieldSpec, bool) {
	for _, field := range s.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return FieldSpec{}, false
}

// Parse decodes a single form definition from JSON or YAML. source names the
// input in error messages.
func Parse(data []byte, source string) (FormSpec, error) {
	if strings.TrimSpace(string(data)) == "" {
		return FormSpec{}, fmt.Errorf("fieldspec: %s is empty", source)
	}

	var spec FormSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		spec = FormSpec{}
		if yamlErr := yaml.Unmarshal(data, &spec); yamlErr != nil {
			return FormSpec{}, fmt.Errorf("fieldspec: parse %s: %w", source, yamlErr)
		}
	}
	spec = normalise(spec)
	if err := spec.Validate(); err != nil {
		return FormSpec{}, fmt.Errorf("fieldspec: %s: %w", source, err)
	}
	return spec, nil
}

// Load reads and parses a definition file.
func Load(path string) (FormSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FormSpec{}, fmt.Errorf("fieldspec: read %s: %w", path, err)
	}
	return Parse(data, path)
}

// Encode renders a definition as YAML.
func Encode(spec FormSpec) ([]byte, error) {
	out, err := yaml.Marshal(spec)
	if err != nil {
		return nil, fmt.Errorf("fieldspec: encode %q: %w", spec.Name, err)
	}
	return out, nil
}

// Store indexes form definitions by name.
type Store struct {
	forms map[string]FormSpec
}

// LoadFS walks fsys and parses every JSON/YAML file as a form definition.
// A nil filesystem yields an empty store.
func LoadFS(fsys fs.FS) (*Store, error) {
	store := &Store{forms: make(map[string]FormSpec)}
	if fsys == nil {
		return store, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isSpecFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("fieldspec: read %s: %w", path, err)
		}
		spec, err := Parse(data, path)
		if err != nil {
			return err
		}
		if _, exists := store.forms[spec.Name]; exists {
			return fmt.Errorf("fieldspec: duplicate form %q (file %s)", spec.Name, path)
		}
		store.forms[spec.Name] = spec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Form returns the named definition.
func (s *Store) Form(name string) (FormSpec, bool) {
	if s == nil {
		return FormSpec{}, false
	}
	spec, ok := s.forms[name]
	return spec, ok
}

// Names lists the stored form names, sorted.
func (s *Store) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.forms))
	for name := range s.forms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalise(spec FormSpec) FormSpec {
	spec.Name = strings.TrimSpace(spec.Name)
	for idx := range spec.Fields {
		field := &spec.Fields[idx]
		field.Name = strings.TrimSpace(field.Name)
		field.Type = strings.TrimSpace(field.Type)
		field.Timing = strings.TrimSpace(field.Timing)
	}
	return spec
}

func isSpecFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
